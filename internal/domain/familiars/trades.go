package familiars

import (
	"context"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/familiars/internal/domain/trade"
)

type TradeOffer struct {
	CharacterID       string
	CardID            int64
	TargetCharacterID string
	TargetCardID      int64
}

func (s *service) CreateTrade(ctx context.Context, actor Actor, offer TradeOffer) (trade.Request, error) {
	var req trade.Request
	err := s.mutate(ctx, "trade_create", []string{characterKey(offer.CharacterID)}, func(ctx context.Context, tx Tx) error {
		initiator, err := ownedCharacter(ctx, tx, actor, offer.CharacterID)
		if err != nil {
			return err
		}
		target, err := tx.Character(ctx, offer.TargetCharacterID)
		if err != nil {
			return err
		}

		req, err = trade.Create(s.newID(), initiator, offer.CardID, trade.Party{
			UserID:      target.UserID,
			CharacterID: target.ID,
			CardID:      offer.TargetCardID,
		}, s.catalog, s.now())
		if err != nil {
			return err
		}
		return tx.CreateTrade(ctx, req)
	})
	if err != nil {
		return trade.Request{}, err
	}

	s.metrics.trades.WithLabelValues(string(trade.StatusPending)).Inc()
	slog.Info("Trade created",
		slog.String("type", "sys"),
		slog.String("trade_id", req.ID),
		slog.String("initiator", req.Initiator.CharacterID),
		slog.String("target", req.Target.CharacterID),
		slog.Int64("offered_card", req.Initiator.CardID),
		slog.Int64("requested_card", req.Target.CardID))
	return req, nil
}

// AcceptTrade locks the request and both characters, then re-reads everything inside the
// transaction. A concurrent accept either waits on the locks and finds the request resolved,
// or loses on the status guard when it runs in another process.
func (s *service) AcceptTrade(ctx context.Context, actor Actor, tradeID string) (trade.Accepted, error) {
	pre, err := s.store.Trade(ctx, tradeID)
	if err != nil {
		s.metrics.observe("trade_accept", err)
		return trade.Accepted{}, err
	}

	keys := []string{
		tradeKey(tradeID),
		characterKey(pre.Initiator.CharacterID),
		characterKey(pre.Target.CharacterID),
	}

	var res trade.Accepted
	err = s.mutate(ctx, "trade_accept", keys, func(ctx context.Context, tx Tx) error {
		req, err := tx.Trade(ctx, tradeID)
		if err != nil {
			return err
		}
		initiator, err := tx.Character(ctx, req.Initiator.CharacterID)
		if err != nil {
			return err
		}
		target, err := tx.Character(ctx, req.Target.CharacterID)
		if err != nil {
			return err
		}

		res, err = trade.Accept(req, actor.UserID, initiator, target, s.now())
		if err != nil {
			return err
		}

		if err := tx.SaveCharacter(ctx, res.Initiator); err != nil {
			return err
		}
		if err := tx.SaveCharacter(ctx, res.Target); err != nil {
			return err
		}
		return tx.SaveTrade(ctx, res.Request, trade.StatusPending)
	})
	if err != nil {
		return trade.Accepted{}, err
	}

	s.metrics.trades.WithLabelValues(string(trade.StatusAccepted)).Inc()
	slog.Info("Trade accepted",
		slog.String("type", "sys"),
		slog.String("trade_id", tradeID),
		slog.String("initiator", res.Request.Initiator.CharacterID),
		slog.String("target", res.Request.Target.CharacterID))
	return res, nil
}

func (s *service) DeclineTrade(ctx context.Context, actor Actor, tradeID string) (trade.Request, error) {
	return s.resolveTrade(ctx, "trade_decline", actor, tradeID, trade.Decline)
}

func (s *service) CancelTrade(ctx context.Context, actor Actor, tradeID string) (trade.Request, error) {
	return s.resolveTrade(ctx, "trade_cancel", actor, tradeID, trade.Cancel)
}

type resolveFunc func(req trade.Request, actorUserID string, now time.Time) (trade.Request, error)

func (s *service) resolveTrade(ctx context.Context, operation string, actor Actor, tradeID string, fn resolveFunc) (trade.Request, error) {
	var out trade.Request
	err := s.mutate(ctx, operation, []string{tradeKey(tradeID)}, func(ctx context.Context, tx Tx) error {
		req, err := tx.Trade(ctx, tradeID)
		if err != nil {
			return err
		}
		out, err = fn(req, actor.UserID, s.now())
		if err != nil {
			return err
		}
		return tx.SaveTrade(ctx, out, trade.StatusPending)
	})
	if err != nil {
		return trade.Request{}, err
	}

	s.metrics.trades.WithLabelValues(string(out.Status)).Inc()
	slog.Info("Trade resolved",
		slog.String("type", "sys"),
		slog.String("trade_id", tradeID),
		slog.String("status", string(out.Status)),
		slog.String("user_id", actor.UserID))
	return out, nil
}

func (s *service) PendingTrades(ctx context.Context, userID string) ([]trade.Request, error) {
	return s.store.TradesByUser(ctx, userID, trade.StatusPending)
}
