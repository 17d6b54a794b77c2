package familiars

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

func (s *service) GrantCard(ctx context.Context, actor Actor, characterID string, cardID int64) (*ownership.Character, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	card, ok := s.catalog.Lookup(cardID)
	if !ok {
		return nil, gameerr.ErrCardNotFound.Withf("card %d does not exist", cardID)
	}

	var next *ownership.Character
	err := s.mutate(ctx, "admin_grant_card", []string{characterKey(characterID)}, func(ctx context.Context, tx Tx) error {
		c, err := tx.Character(ctx, characterID)
		if err != nil {
			return err
		}
		next = c.Clone()
		next.Collection = next.Collection.Add(cardID)
		return tx.SaveCharacter(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Card granted",
		slog.String("type", "sys"),
		slog.String("admin_id", actor.UserID),
		slog.String("character_id", characterID),
		slog.String("card", card.Name))
	return next, nil
}

// RevokeCard removes one instance. An instance that is out hunting is never removed.
func (s *service) RevokeCard(ctx context.Context, actor Actor, characterID string, cardID int64) (*ownership.Character, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var next *ownership.Character
	err := s.mutate(ctx, "admin_revoke_card", []string{characterKey(characterID)}, func(ctx context.Context, tx Tx) error {
		c, err := tx.Character(ctx, characterID)
		if err != nil {
			return err
		}
		if !c.Collection.Has(cardID) {
			return gameerr.ErrCardNotOwned.Withf("%s does not own card %d", c.Name, cardID)
		}
		if c.FreeCount(cardID) < 1 {
			return gameerr.ErrFamiliarBusy.Withf("every copy of card %d held by %s is hunting", cardID, c.Name)
		}
		next = c.Clone()
		next.Collection, _ = next.Collection.Remove(cardID)
		return tx.SaveCharacter(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Card revoked",
		slog.String("type", "sys"),
		slog.String("admin_id", actor.UserID),
		slog.String("character_id", characterID),
		slog.Int64("card_id", cardID))
	return next, nil
}

// Bless extends the character's blessing by d, starting now if none is active.
func (s *service) Bless(ctx context.Context, actor Actor, characterID string, d time.Duration) (*ownership.Character, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if d <= 0 {
		return nil, gameerr.ErrInvalidInput.Withf("blessing duration must be positive")
	}

	var next *ownership.Character
	err := s.mutate(ctx, "admin_bless", []string{characterKey(characterID)}, func(ctx context.Context, tx Tx) error {
		c, err := tx.Character(ctx, characterID)
		if err != nil {
			return err
		}
		now := s.now()
		from := now
		if c.Blessed(now) {
			from = c.BlessedUntil
		}
		next = c.Clone()
		next.BlessedUntil = from.Add(d)
		return tx.SaveCharacter(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Character blessed",
		slog.String("type", "sys"),
		slog.String("admin_id", actor.UserID),
		slog.String("character_id", characterID),
		slog.Time("until", next.BlessedUntil))
	return next, nil
}

func (s *service) AdjustPoints(ctx context.Context, actor Actor, userID string, delta int64, reason string) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if delta == 0 {
		return 0, gameerr.ErrInvalidInput.Withf("point adjustment cannot be zero")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "admin adjustment"
	}

	var balance int64
	err := s.mutate(ctx, "admin_points", []string{userKey(userID)}, func(ctx context.Context, tx Tx) error {
		var err error
		balance, err = tx.AppendLedger(ctx, LedgerEntry{
			UserID:    userID,
			Delta:     delta,
			Reason:    reason,
			CreatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Points adjusted",
		slog.String("type", "sys"),
		slog.String("admin_id", actor.UserID),
		slog.String("user_id", userID),
		slog.Int64("delta", delta),
		slog.Int64("balance", balance))
	return balance, nil
}
