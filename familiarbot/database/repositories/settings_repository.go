package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/uptrace/bun"

	"github.com/ellavondegurechaff/familiars/familiarbot/database/models"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/gacha"
)

const (
	chancesCacheKey   = "chances"
	locationsCacheKey = "locations"
)

// SettingsRepository serves draw chances and hunting locations from the database,
// cached for ttl. Invalid chances fail the read; an invalid location row is skipped so
// the others keep working.
type SettingsRepository struct {
	*BaseRepository
	cache    *cache.Cache
	validate *validator.Validate
}

var _ familiars.Settings = (*SettingsRepository)(nil)

func NewSettingsRepository(db *bun.DB, ttl time.Duration) *SettingsRepository {
	return &SettingsRepository{
		BaseRepository: NewBaseRepository(db),
		cache:          cache.New(ttl, 2*ttl),
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (r *SettingsRepository) Chances(ctx context.Context) (gacha.Chances, error) {
	if cached, ok := r.cache.Get(chancesCacheKey); ok {
		return cached.(gacha.Chances), nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var row models.GameSetting
	err := r.db.NewSelect().Model(&row).Where("key = ?", models.SettingChances).Scan(ctx)
	if err != nil {
		return gacha.Chances{}, r.HandleErrorWithID("get", "game_setting", models.SettingChances, err)
	}

	var chances gacha.Chances
	if err := json.Unmarshal(row.Value, &chances); err != nil {
		return gacha.Chances{}, fmt.Errorf("failed to decode draw chances: %w", err)
	}
	if err := r.validateChances(chances); err != nil {
		return gacha.Chances{}, err
	}

	r.cache.SetDefault(chancesCacheKey, chances)
	return chances, nil
}

func (r *SettingsRepository) Locations(ctx context.Context) ([]expedition.Location, error) {
	if cached, ok := r.cache.Get(locationsCacheKey); ok {
		return append([]expedition.Location(nil), cached.([]expedition.Location)...), nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []models.HuntingLocation
	if err := r.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, r.HandleError("list", "hunting_location", err)
	}

	locations := r.decodeLocations(rows)
	r.cache.SetDefault(locationsCacheKey, locations)
	return append([]expedition.Location(nil), locations...), nil
}

// Seed inserts chances and locations that are not stored yet. Existing rows win so
// edits made through admin tooling survive restarts.
func (r *SettingsRepository) Seed(ctx context.Context, chances gacha.Chances, locations []expedition.Location) error {
	if err := r.validateChances(chances); err != nil {
		return err
	}
	for _, loc := range locations {
		if err := r.validateLocation(loc); err != nil {
			return err
		}
	}

	value, err := json.Marshal(chances)
	if err != nil {
		return fmt.Errorf("failed to encode draw chances: %w", err)
	}

	err = r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		setting := &models.GameSetting{Key: models.SettingChances, Value: value, UpdatedAt: time.Now()}
		if _, err := tx.NewInsert().Model(setting).On("CONFLICT (key) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed draw chances: %w", err)
		}

		for _, loc := range locations {
			loot, err := json.Marshal(loc.Loot)
			if err != nil {
				return fmt.Errorf("failed to encode loot of %s: %w", loc.ID, err)
			}
			row := &models.HuntingLocation{
				ID:              loc.ID,
				Name:            loc.Name,
				RequiredRank:    string(loc.RequiredRank),
				DurationMinutes: loc.DurationMinutes,
				Loot:            loot,
				CreatedAt:       time.Now(),
			}
			if _, err := tx.NewInsert().Model(row).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("failed to seed location %s: %w", loc.ID, err)
			}
		}

		items := lo.Uniq(lo.FlatMap(locations, func(l expedition.Location, _ int) []string {
			return lo.Map(l.Loot, func(e expedition.LootEntry, _ int) string { return e.ItemID })
		}))
		for _, id := range items {
			item := &models.Item{ID: id, Name: id}
			if _, err := tx.NewInsert().Model(item).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("failed to seed item %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.Invalidate()
	slog.Info("Game settings seeded",
		slog.String("type", "db"),
		slog.Int("locations", len(locations)))
	return nil
}

// Invalidate drops cached settings so the next read goes to the database.
func (r *SettingsRepository) Invalidate() {
	r.cache.Flush()
}

func (r *SettingsRepository) validateChances(c gacha.Chances) error {
	if err := r.validate.Struct(c); err != nil {
		return fmt.Errorf("invalid draw chances: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid draw chances: %w", err)
	}
	return nil
}

func (r *SettingsRepository) decodeLocations(rows []models.HuntingLocation) []expedition.Location {
	locations := make([]expedition.Location, 0, len(rows))
	for _, row := range rows {
		loc := expedition.Location{
			ID:              row.ID,
			Name:            row.Name,
			RequiredRank:    catalog.Rank(row.RequiredRank),
			DurationMinutes: row.DurationMinutes,
		}
		err := r.decodeLoot(row, &loc)
		if err == nil {
			err = r.validateLocation(loc)
		}
		if err != nil {
			slog.Warn("Skipping invalid hunting location",
				slog.String("type", "db"),
				slog.String("location_id", row.ID),
				slog.Any("error", err))
			continue
		}
		locations = append(locations, loc)
	}
	return locations
}

func (r *SettingsRepository) decodeLoot(row models.HuntingLocation, loc *expedition.Location) error {
	if len(row.Loot) == 0 {
		return nil
	}
	if err := json.Unmarshal(row.Loot, &loc.Loot); err != nil {
		return fmt.Errorf("failed to decode loot of %s: %w", row.ID, err)
	}
	return nil
}

func (r *SettingsRepository) validateLocation(l expedition.Location) error {
	if err := r.validate.Struct(l); err != nil {
		return fmt.Errorf("invalid location %s: %w", l.ID, err)
	}
	return l.Validate()
}
