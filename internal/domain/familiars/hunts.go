package familiars

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

func (s *service) scheduler(ctx context.Context) (*expedition.Scheduler, error) {
	locations, err := s.settings.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hunting locations: %w", err)
	}
	return expedition.NewScheduler(s.catalog, locations, s.cfg.HuntCap, s.rng, s.newID), nil
}

func (s *service) Locations(ctx context.Context) ([]expedition.Location, error) {
	sched, err := s.scheduler(ctx)
	if err != nil {
		return nil, err
	}
	return sched.Locations(), nil
}

func (s *service) StartHunt(ctx context.Context, actor Actor, characterID string, familiarID int64, locationID string) (ownership.Hunt, error) {
	sched, err := s.scheduler(ctx)
	if err != nil {
		return ownership.Hunt{}, err
	}

	var hunt ownership.Hunt
	err = s.mutate(ctx, "hunt_start", []string{characterKey(characterID)}, func(ctx context.Context, tx Tx) error {
		c, err := ownedCharacter(ctx, tx, actor, characterID)
		if err != nil {
			return err
		}
		next, h, err := sched.Start(c, familiarID, locationID, s.now())
		if err != nil {
			return err
		}
		hunt = h
		return tx.SaveCharacter(ctx, next)
	})
	if err != nil {
		return ownership.Hunt{}, err
	}

	s.metrics.hunts.WithLabelValues("start", locationID).Inc()
	slog.Info("Hunt started",
		slog.String("type", "sys"),
		slog.String("character_id", characterID),
		slog.String("hunt_id", hunt.ID),
		slog.Int64("familiar_id", familiarID),
		slog.String("location_id", locationID),
		slog.Time("ends_at", hunt.EndsAt))
	return hunt, nil
}

func (s *service) ClaimHunt(ctx context.Context, actor Actor, characterID, huntID string) (expedition.Reward, error) {
	sched, err := s.scheduler(ctx)
	if err != nil {
		return expedition.Reward{}, err
	}

	var reward expedition.Reward
	err = s.mutate(ctx, "hunt_claim", []string{characterKey(characterID)}, func(ctx context.Context, tx Tx) error {
		c, err := ownedCharacter(ctx, tx, actor, characterID)
		if err != nil {
			return err
		}
		next, r, err := sched.Claim(c, huntID, s.now())
		if err != nil {
			return err
		}
		reward = r
		if err := tx.SaveCharacter(ctx, next); err != nil {
			return err
		}
		return grantItems(ctx, tx, characterID, r.Items)
	})
	if err != nil {
		return expedition.Reward{}, err
	}

	s.recordReward("claim", reward)
	slog.Info("Hunt claimed",
		slog.String("type", "sys"),
		slog.String("character_id", characterID),
		slog.String("hunt_id", huntID),
		slog.Int("items", len(reward.Items)),
		slog.Bool("orphaned", reward.Orphaned))
	return reward, nil
}

func (s *service) RecallHunt(ctx context.Context, actor Actor, characterID, huntID string) (ownership.Hunt, error) {
	sched, err := s.scheduler(ctx)
	if err != nil {
		return ownership.Hunt{}, err
	}

	var hunt ownership.Hunt
	err = s.mutate(ctx, "hunt_recall", []string{characterKey(characterID)}, func(ctx context.Context, tx Tx) error {
		c, err := ownedCharacter(ctx, tx, actor, characterID)
		if err != nil {
			return err
		}
		next, h, err := sched.Recall(c, huntID, s.now())
		if err != nil {
			return err
		}
		hunt = h
		return tx.SaveCharacter(ctx, next)
	})
	if err != nil {
		return ownership.Hunt{}, err
	}

	s.metrics.hunts.WithLabelValues("recall", hunt.LocationID).Inc()
	slog.Info("Hunt recalled",
		slog.String("type", "sys"),
		slog.String("character_id", characterID),
		slog.String("hunt_id", huntID))
	return hunt, nil
}

// ClaimAllHunts claims every finished hunt of the character and persists them together.
func (s *service) ClaimAllHunts(ctx context.Context, actor Actor, characterID string) (expedition.ClaimAllResult, error) {
	sched, err := s.scheduler(ctx)
	if err != nil {
		return expedition.ClaimAllResult{}, err
	}

	var res expedition.ClaimAllResult
	err = s.mutate(ctx, "hunt_claim_all", []string{characterKey(characterID)}, func(ctx context.Context, tx Tx) error {
		c, err := ownedCharacter(ctx, tx, actor, characterID)
		if err != nil {
			return err
		}
		var next *ownership.Character
		next, res = sched.ClaimAll(c, s.now())
		if len(res.Rewards) == 0 {
			return nil
		}
		if err := tx.SaveCharacter(ctx, next); err != nil {
			return err
		}
		return grantItems(ctx, tx, characterID, res.Items)
	})
	if err != nil {
		return expedition.ClaimAllResult{}, err
	}

	for _, r := range res.Rewards {
		s.recordReward("claim", r)
	}
	slog.Info("Hunts claimed",
		slog.String("type", "sys"),
		slog.String("character_id", characterID),
		slog.Int("claimed", len(res.Rewards)))
	return res, nil
}

func grantItems(ctx context.Context, tx Tx, characterID string, items []expedition.Item) error {
	if len(items) == 0 {
		return nil
	}
	return tx.GrantItems(ctx, characterID, items)
}

func (s *service) recordReward(action string, r expedition.Reward) {
	if r.Orphaned {
		slog.Warn("Hunt location no longer exists, returned empty-handed",
			slog.String("type", "sys"),
			slog.String("hunt_id", r.Hunt.ID),
			slog.String("location_id", r.Hunt.LocationID))
	}
	s.metrics.hunts.WithLabelValues(action, r.Hunt.LocationID).Inc()
	for _, it := range r.Items {
		s.metrics.lootItems.WithLabelValues(it.ItemID).Add(float64(it.Quantity))
	}
}
