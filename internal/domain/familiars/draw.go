package familiars

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ellavondegurechaff/familiars/internal/domain/gacha"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

type DrawResult struct {
	Draw      gacha.Draw
	Mode      gacha.Mode
	Cost      int64
	Balance   int64
	Character *ownership.Character
}

// effectiveMode resolves the table to draw from. An empty request follows the blessing;
// an explicit blessed request needs one.
func effectiveMode(requested gacha.Mode, blessed bool) (gacha.Mode, error) {
	switch requested {
	case gacha.ModeNormal:
		return gacha.ModeNormal, nil
	case gacha.ModeBlessed:
		if !blessed {
			return "", gameerr.ErrInvalidInput.Withf("this character has no active blessing")
		}
		return gacha.ModeBlessed, nil
	case "":
		if blessed {
			return gacha.ModeBlessed, nil
		}
		return gacha.ModeNormal, nil
	}
	return "", gameerr.ErrInvalidInput.Withf("unknown draw mode %q", requested)
}

func (s *service) drawCost(mode gacha.Mode) int64 {
	if mode == gacha.ModeBlessed {
		return s.cfg.BlessedDrawCost
	}
	return s.cfg.DrawCost
}

func (s *service) Draw(ctx context.Context, actor Actor, characterID string, requested gacha.Mode) (DrawResult, error) {
	chances, err := s.settings.Chances(ctx)
	if err != nil {
		return DrawResult{}, fmt.Errorf("failed to load draw chances: %w", err)
	}
	engine, err := gacha.NewEngine(s.catalog, chances, s.rng)
	if err != nil {
		return DrawResult{}, err
	}

	var res DrawResult
	keys := []string{characterKey(characterID), userKey(actor.UserID)}
	err = s.mutate(ctx, "draw", keys, func(ctx context.Context, tx Tx) error {
		c, err := ownedCharacter(ctx, tx, actor, characterID)
		if err != nil {
			return err
		}

		mode, err := effectiveMode(requested, c.Blessed(s.now()))
		if err != nil {
			return err
		}
		cost := s.drawCost(mode)

		balance, err := tx.Balance(ctx, c.UserID)
		if err != nil {
			return err
		}

		d, err := engine.Draw(gacha.DrawRequest{
			Mode:    mode,
			Cost:    cost,
			Balance: balance,
			Owned:   c.Collection,
		})
		if err != nil {
			return err
		}

		next := c.Clone()
		next.Collection = next.Collection.Add(d.Card.ID)
		if err := tx.SaveCharacter(ctx, next); err != nil {
			return err
		}

		if cost > 0 {
			balance, err = tx.AppendLedger(ctx, LedgerEntry{
				UserID:    c.UserID,
				Delta:     -cost,
				Reason:    fmt.Sprintf("draw: %s (%s)", d.Card.Name, d.Card.Rank),
				CreatedAt: s.now(),
			})
			if err != nil {
				return err
			}
		}

		res = DrawResult{Draw: d, Mode: mode, Cost: cost, Balance: balance, Character: next}
		return nil
	})
	if err != nil {
		return DrawResult{}, err
	}

	s.metrics.draw(res.Draw.Pool.String(), res.Draw.Fallback)
	slog.Info("Card drawn",
		slog.String("type", "sys"),
		slog.String("user_id", actor.UserID),
		slog.String("character_id", characterID),
		slog.Int64("card_id", res.Draw.Card.ID),
		slog.String("rolled", res.Draw.Rolled.String()),
		slog.String("pool", res.Draw.Pool.String()),
		slog.Bool("fallback", res.Draw.Fallback),
		slog.String("mode", string(res.Mode)))
	return res, nil
}
