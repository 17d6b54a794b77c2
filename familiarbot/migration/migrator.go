package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/database/repositories"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
)

const migratedBalanceReason = "migrated balance"

// Migrator copies legacy MongoDB documents into the Postgres store. Every step is
// idempotent: existing cards and characters are skipped, balances are topped up to the
// legacy value through the ledger.
type Migrator struct {
	mongoDB   *mongo.Database
	cards     *repositories.CardRepository
	store     familiars.Store
	batchSize int
	collNames map[string]string
	stats     Stats
}

func NewMigrator(mongoDB *mongo.Database, cards *repositories.CardRepository, store familiars.Store) *Migrator {
	return &Migrator{
		mongoDB:   mongoDB,
		cards:     cards,
		store:     store,
		batchSize: config.DefaultBatchSize,
		collNames: map[string]string{},
		stats:     Stats{Tables: make(map[string]*TableStats)},
	}
}

// SetMongoCollectionName overrides the collection name for a given kind ("cards", "characters", "users").
func (m *Migrator) SetMongoCollectionName(kind, name string) {
	if kind != "" && name != "" {
		m.collNames[kind] = name
	}
}

func (m *Migrator) getColl(kind string) *mongo.Collection {
	name := kind
	if v, ok := m.collNames[kind]; ok {
		name = v
	}
	return m.mongoDB.Collection(name)
}

func (m *Migrator) table(name string) *TableStats {
	ts, ok := m.stats.Tables[name]
	if !ok {
		ts = &TableStats{}
		m.stats.Tables[name] = ts
	}
	return ts
}

func (m *Migrator) Stats() Stats {
	return m.stats
}

// MigrateAll runs every step in dependency order.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	m.stats.StartTime = time.Now()
	steps := []struct {
		name    string
		migrate func(context.Context) error
	}{
		{"cards", m.MigrateCards},
		{"characters", m.MigrateCharacters},
		{"users", m.MigrateBalances},
	}
	for _, step := range steps {
		if err := step.migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", step.name, err)
		}
	}
	m.logFinalStats()
	return nil
}

// MigrateCards imports card documents in batches. Existing ids are left untouched.
func (m *Migrator) MigrateCards(ctx context.Context) error {
	start := time.Now()
	ts := m.table("cards")
	defer func() { ts.Duration = time.Since(start) }()

	cur, err := m.getColl("cards").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query cards: %w", err)
	}
	defer cur.Close(ctx)

	batch := make([]catalog.CardDefinition, 0, m.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := m.cards.Upsert(ctx, batch, false)
		if err != nil {
			return err
		}
		ts.Written += n
		ts.Skipped += len(batch) - n
		batch = batch[:0]
		return nil
	}

	for cur.Next(ctx) {
		ts.Read++
		var mc MongoCard
		if err := cur.Decode(&mc); err != nil {
			ts.Failed++
			continue
		}
		def, err := convertCard(mc)
		if err != nil {
			ts.Failed++
			slog.Warn("Skipping card", slog.String("type", "db"), slog.Any("error", err))
			continue
		}
		batch = append(batch, def)
		if len(batch) >= m.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	logProgress("cards", ts)
	return nil
}

// MigrateCharacters imports characters with their familiars. Cards must be migrated first.
func (m *Migrator) MigrateCharacters(ctx context.Context) error {
	start := time.Now()
	ts := m.table("characters")
	defer func() { ts.Duration = time.Since(start) }()

	cat, err := m.cards.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	cur, err := m.getColl("characters").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query characters: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		ts.Read++
		var mc MongoCharacter
		if err := cur.Decode(&mc); err != nil {
			ts.Failed++
			continue
		}

		c, unknown, err := convertCharacter(mc, cat)
		if err != nil {
			ts.Failed++
			slog.Warn("Skipping character", slog.String("type", "db"), slog.Any("error", err))
			continue
		}
		if len(unknown) > 0 {
			slog.Warn("Dropping familiars missing from the catalog",
				slog.String("type", "db"),
				slog.String("character_id", c.ID),
				slog.Any("card_ids", unknown))
		}

		err = m.store.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
			return tx.CreateCharacter(ctx, c)
		})
		switch {
		case err == nil:
			ts.Written++
		case errors.Is(err, gameerr.ErrInvalidInput):
			ts.Skipped++
		default:
			return fmt.Errorf("failed to write character %s: %w", c.ID, err)
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}

	logProgress("characters", ts)
	return nil
}

// MigrateBalances raises each user's balance to the legacy value with one ledger entry.
// Users already at or above it are skipped, so reruns never double credit.
func (m *Migrator) MigrateBalances(ctx context.Context) error {
	start := time.Now()
	ts := m.table("users")
	defer func() { ts.Duration = time.Since(start) }()

	cur, err := m.getColl("users").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query users: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		ts.Read++
		var mu MongoUser
		if err := cur.Decode(&mu); err != nil || mu.DiscordID == "" {
			ts.Failed++
			continue
		}

		credited := false
		err := m.store.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
			current, err := tx.Balance(ctx, mu.DiscordID)
			if err != nil {
				return err
			}
			delta := mu.Points - current
			if delta <= 0 {
				return nil
			}
			credited = true
			_, err = tx.AppendLedger(ctx, familiars.LedgerEntry{
				UserID:    mu.DiscordID,
				Delta:     delta,
				Reason:    migratedBalanceReason,
				CreatedAt: time.Now(),
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to migrate balance of %s: %w", mu.DiscordID, err)
		}
		if credited {
			ts.Written++
		} else {
			ts.Skipped++
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}

	logProgress("users", ts)
	return nil
}

func logProgress(table string, ts *TableStats) {
	slog.Info("Migration step finished",
		slog.String("type", "db"),
		slog.String("name", table),
		slog.Int("read", ts.Read),
		slog.Int("written", ts.Written),
		slog.Int("skipped", ts.Skipped),
		slog.Int("failed", ts.Failed))
}

func (m *Migrator) logFinalStats() {
	slog.Info("Migration completed",
		slog.String("type", "db"),
		slog.Duration("took", time.Since(m.stats.StartTime)),
		slog.Int("tables", len(m.stats.Tables)))
}
