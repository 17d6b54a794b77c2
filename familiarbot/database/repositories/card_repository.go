package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/uptrace/bun"

	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/database/models"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
)

type CardRepository struct {
	*BaseRepository
}

func NewCardRepository(db *bun.DB) *CardRepository {
	return &CardRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *CardRepository) All(ctx context.Context) ([]catalog.CardDefinition, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []models.Card
	if err := r.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, r.HandleError("list", "card", err)
	}

	defs := make([]catalog.CardDefinition, 0, len(rows))
	for _, row := range rows {
		rank, err := catalog.ParseRank(row.Rank)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", row.ID, err)
		}
		defs = append(defs, catalog.CardDefinition{
			ID:    row.ID,
			Name:  row.Name,
			Rank:  rank,
			Image: row.Image,
			Tags:  row.Tags,
		})
	}
	return defs, nil
}

// Catalog loads every card and builds the immutable catalog from them.
func (r *CardRepository) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	defs, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(defs)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return cat, nil
}

// Upsert writes defs in batches. When overwrite is false existing cards are left alone.
func (r *CardRepository) Upsert(ctx context.Context, defs []catalog.CardDefinition, overwrite bool) (int, error) {
	now := time.Now()
	rows := lo.Map(defs, func(d catalog.CardDefinition, _ int) models.Card {
		return models.Card{
			ID:        d.ID,
			Name:      d.Name,
			Rank:      string(d.Rank),
			Image:     d.Image,
			Tags:      d.Tags,
			CreatedAt: now,
			UpdatedAt: now,
		}
	})

	written := 0
	for _, batch := range lo.Chunk(rows, config.DefaultBatchSize) {
		ctx, cancel := context.WithTimeout(ctx, config.BatchQueryTimeout)
		q := r.db.NewInsert().Model(&batch)
		if overwrite {
			q = q.On("CONFLICT (id) DO UPDATE").
				Set("name = EXCLUDED.name").
				Set("rank = EXCLUDED.rank").
				Set("image = EXCLUDED.image").
				Set("tags = EXCLUDED.tags").
				Set("updated_at = EXCLUDED.updated_at")
		} else {
			q = q.On("CONFLICT (id) DO NOTHING")
		}
		res, err := q.Exec(ctx)
		cancel()
		if err != nil {
			return written, r.HandleError("upsert", "card", err)
		}
		n, _ := res.RowsAffected()
		written += int(n)
	}

	slog.Info("Cards written",
		slog.String("type", "db"),
		slog.Int("requested", len(defs)),
		slog.Int("written", written))
	return written, nil
}
