package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/uptrace/bun"

	"github.com/ellavondegurechaff/familiars/familiarbot/database/models"
	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
	"github.com/ellavondegurechaff/familiars/internal/domain/trade"
)

// Store is the Postgres implementation of familiars.Store. Each unit of work is a
// serializable transaction; rows it rewrites are locked with FOR UPDATE on read.
type Store struct {
	*BaseRepository
}

var _ familiars.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{BaseRepository: NewBaseRepository(db)}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx familiars.Tx) error) error {
	err := s.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &storeTx{base: s.BaseRepository, tx: tx})
	})
	if err == nil {
		return nil
	}
	if isSerializationFailure(err) {
		return gameerr.ErrStaleState.Wrap(err)
	}
	return s.HandleError("transaction", "character", err)
}

func (s *Store) Character(ctx context.Context, id string) (*ownership.Character, error) {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	c, err := loadCharacter(ctx, s.db, id, false)
	return c, s.HandleErrorWithID("get", "character", id, err)
}

func (s *Store) CharactersByUser(ctx context.Context, userID string) ([]*ownership.Character, error) {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()

	var rows []models.Character
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, s.HandleErrorWithID("list", "character", userID, err)
	}

	out := make([]*ownership.Character, 0, len(rows))
	for _, row := range rows {
		c, err := hydrateCharacter(ctx, s.db, row)
		if err != nil {
			return nil, s.HandleErrorWithID("list", "character", row.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) Trade(ctx context.Context, id string) (trade.Request, error) {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	req, err := loadTrade(ctx, s.db, id, false)
	return req, s.HandleErrorWithID("get", "trade", id, err)
}

func (s *Store) TradesByUser(ctx context.Context, userID string, status trade.Status) ([]trade.Request, error) {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()

	var rows []models.TradeRequest
	q := s.db.NewSelect().
		Model(&rows).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("initiator_user_id = ?", userID).WhereOr("target_user_id = ?", userID)
		}).
		Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, s.HandleErrorWithID("list", "trade", userID, err)
	}
	return lo.Map(rows, func(r models.TradeRequest, _ int) trade.Request { return toTrade(r) }), nil
}

func (s *Store) Balance(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	b, err := balance(ctx, s.db, userID)
	return b, s.HandleErrorWithID("get", "balance", userID, err)
}

func (s *Store) Ledger(ctx context.Context, userID string, limit int) ([]familiars.LedgerEntry, error) {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()

	var rows []models.LedgerEntry
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, s.HandleErrorWithID("list", "ledger", userID, err)
	}
	return lo.Map(rows, func(r models.LedgerEntry, _ int) familiars.LedgerEntry {
		return familiars.LedgerEntry{ID: r.ID, UserID: r.UserID, Delta: r.Delta, Reason: r.Reason, CreatedAt: r.CreatedAt}
	}), nil
}

func (s *Store) Inventory(ctx context.Context, characterID string) ([]expedition.Item, error) {
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()

	var rows []models.CharacterItem
	err := s.db.NewSelect().
		Model(&rows).
		Where("character_id = ?", characterID).
		Where("quantity > 0").
		Order("item_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, s.HandleErrorWithID("list", "inventory", characterID, err)
	}
	return lo.Map(rows, func(r models.CharacterItem, _ int) expedition.Item {
		return expedition.Item{ItemID: r.ItemID, Quantity: r.Quantity}
	}), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type storeTx struct {
	base *BaseRepository
	tx   bun.Tx
}

func (t *storeTx) Character(ctx context.Context, id string) (*ownership.Character, error) {
	return loadCharacter(ctx, t.tx, id, true)
}

func (t *storeTx) CharacterCount(ctx context.Context, userID string) (int, error) {
	if err := lockUser(ctx, t.tx, userID); err != nil {
		return 0, err
	}
	count, err := t.tx.NewSelect().
		Model((*models.Character)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count characters of %s: %w", userID, err)
	}
	return count, nil
}

func (t *storeTx) CreateCharacter(ctx context.Context, c *ownership.Character) error {
	now := time.Now()
	row := &models.Character{
		ID:           c.ID,
		UserID:       c.UserID,
		Name:         c.Name,
		BlessedUntil: c.BlessedUntil,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := t.tx.NewInsert().Model(row).Exec(ctx); err != nil {
		if IsConflict(t.base.HandleErrorWithID("create", "character", c.ID, err)) {
			return gameerr.ErrInvalidInput.Withf("character %s already exists", c.ID)
		}
		return fmt.Errorf("failed to create character: %w", err)
	}
	if err := writeCollection(ctx, t.tx, c); err != nil {
		return err
	}
	c.Version = 1
	return nil
}

func (t *storeTx) SaveCharacter(ctx context.Context, c *ownership.Character) error {
	res, err := t.tx.NewUpdate().
		Model((*models.Character)(nil)).
		Set("name = ?", c.Name).
		Set("blessed_until = ?", bun.NullTime{Time: c.BlessedUntil}).
		Set("version = version + 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", c.ID).
		Where("version = ?", c.Version).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update character %s: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	} else if n == 0 {
		return gameerr.ErrStaleState.Withf("character %s changed concurrently", c.Name)
	}

	if err := writeCollection(ctx, t.tx, c); err != nil {
		return err
	}
	c.Version++
	return nil
}

func (t *storeTx) Trade(ctx context.Context, id string) (trade.Request, error) {
	return loadTrade(ctx, t.tx, id, true)
}

func (t *storeTx) CreateTrade(ctx context.Context, req trade.Request) error {
	row := fromTrade(req)
	if _, err := t.tx.NewInsert().Model(&row).Exec(ctx); err != nil {
		if IsConflict(t.base.HandleErrorWithID("create", "trade", req.ID, err)) {
			return gameerr.ErrInvalidInput.Withf("trade %s already exists", req.ID)
		}
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (t *storeTx) SaveTrade(ctx context.Context, req trade.Request, expected trade.Status) error {
	res, err := t.tx.NewUpdate().
		Model((*models.TradeRequest)(nil)).
		Set("status = ?", string(req.Status)).
		Set("resolved_at = ?", bun.NullTime{Time: req.ResolvedAt}).
		Where("id = ?", req.ID).
		Where("status = ?", string(expected)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update trade %s: %w", req.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	} else if n > 0 {
		return nil
	}

	current, err := loadTrade(ctx, t.tx, req.ID, false)
	if err != nil {
		return err
	}
	return gameerr.ErrRequestNotPending.Withf("trade %s is already %s", req.ID, current.Status)
}

func (t *storeTx) Balance(ctx context.Context, userID string) (int64, error) {
	return balance(ctx, t.tx, userID)
}

func (t *storeTx) AppendLedger(ctx context.Context, entry familiars.LedgerEntry) (int64, error) {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	if err := ensureUser(ctx, t.tx, entry.UserID); err != nil {
		return 0, err
	}

	var points int64
	err := t.tx.QueryRowContext(ctx,
		`UPDATE users SET points = points + ?, updated_at = ?
		WHERE discord_id = ? AND points + ? >= 0
		RETURNING points`,
		entry.Delta, now, entry.UserID, entry.Delta).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		current, _ := balance(ctx, t.tx, entry.UserID)
		return 0, gameerr.ErrInsufficientFunds.Withf("balance %d cannot cover %d", current, -entry.Delta)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update balance of %s: %w", entry.UserID, err)
	}

	row := &models.LedgerEntry{
		UserID:    entry.UserID,
		Delta:     entry.Delta,
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt,
	}
	if _, err := t.tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return points, nil
}

func (t *storeTx) GrantItems(ctx context.Context, characterID string, items []expedition.Item) error {
	now := time.Now()
	for _, item := range expedition.MergeItems(items) {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO character_items (character_id, item_id, quantity, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (character_id, item_id)
			DO UPDATE SET quantity = character_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
			characterID, item.ItemID, item.Quantity, now)
		if err != nil {
			return fmt.Errorf("failed to grant %s to %s: %w", item.ItemID, characterID, err)
		}
	}
	return nil
}

func ensureUser(ctx context.Context, tx bun.Tx, userID string) error {
	now := time.Now()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO users (discord_id, points, created_at, updated_at) VALUES (?, 0, ?, ?)
		ON CONFLICT (discord_id) DO NOTHING`,
		userID, now, now)
	if err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", userID, err)
	}
	return nil
}

// lockUser takes the user's row lock for the rest of the transaction.
func lockUser(ctx context.Context, tx bun.Tx, userID string) error {
	if err := ensureUser(ctx, tx, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `SELECT 1 FROM users WHERE discord_id = ? FOR UPDATE`, userID); err != nil {
		return fmt.Errorf("failed to lock user %s: %w", userID, err)
	}
	return nil
}

func loadCharacter(ctx context.Context, db bun.IDB, id string, forUpdate bool) (*ownership.Character, error) {
	var row models.Character
	q := db.NewSelect().Model(&row).Where("id = ?", id)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gameerr.ErrCharacterNotFound.Withf("character %s not found", id)
		}
		return nil, fmt.Errorf("failed to load character %s: %w", id, err)
	}
	return hydrateCharacter(ctx, db, row)
}

func hydrateCharacter(ctx context.Context, db bun.IDB, row models.Character) (*ownership.Character, error) {
	var cards []models.CharacterCard
	err := db.NewSelect().
		Model(&cards).
		Where("character_id = ?", row.ID).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection of %s: %w", row.ID, err)
	}

	var hunts []models.Hunt
	err = db.NewSelect().
		Model(&hunts).
		Where("character_id = ?", row.ID).
		Order("started_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load hunts of %s: %w", row.ID, err)
	}

	return &ownership.Character{
		ID:           row.ID,
		UserID:       row.UserID,
		Name:         row.Name,
		Collection:   ownership.Collection(lo.Map(cards, func(c models.CharacterCard, _ int) int64 { return c.CardID })),
		Hunts:        lo.Map(hunts, func(h models.Hunt, _ int) ownership.Hunt { return toHunt(h) }),
		BlessedUntil: row.BlessedUntil,
		Version:      row.Version,
	}, nil
}

// writeCollection replaces the stored instances and hunts of c with its in-memory state.
func writeCollection(ctx context.Context, tx bun.Tx, c *ownership.Character) error {
	if _, err := tx.NewDelete().Model((*models.CharacterCard)(nil)).Where("character_id = ?", c.ID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear collection of %s: %w", c.ID, err)
	}
	if len(c.Collection) > 0 {
		cards := lo.Map(c.Collection, func(cardID int64, i int) models.CharacterCard {
			return models.CharacterCard{CharacterID: c.ID, Position: i, CardID: cardID}
		})
		if _, err := tx.NewInsert().Model(&cards).Exec(ctx); err != nil {
			return fmt.Errorf("failed to write collection of %s: %w", c.ID, err)
		}
	}

	if _, err := tx.NewDelete().Model((*models.Hunt)(nil)).Where("character_id = ?", c.ID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear hunts of %s: %w", c.ID, err)
	}
	if len(c.Hunts) > 0 {
		hunts := lo.Map(c.Hunts, func(h ownership.Hunt, _ int) models.Hunt {
			return models.Hunt{
				ID:          h.ID,
				CharacterID: c.ID,
				FamiliarID:  h.FamiliarID,
				LocationID:  h.LocationID,
				StartedAt:   h.StartedAt,
				EndsAt:      h.EndsAt,
			}
		})
		if _, err := tx.NewInsert().Model(&hunts).Exec(ctx); err != nil {
			return fmt.Errorf("failed to write hunts of %s: %w", c.ID, err)
		}
	}
	return nil
}

func loadTrade(ctx context.Context, db bun.IDB, id string, forUpdate bool) (trade.Request, error) {
	var row models.TradeRequest
	q := db.NewSelect().Model(&row).Where("id = ?", id)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return trade.Request{}, gameerr.ErrTradeNotFound.Withf("trade %s not found", id)
		}
		return trade.Request{}, fmt.Errorf("failed to load trade %s: %w", id, err)
	}
	return toTrade(row), nil
}

func balance(ctx context.Context, db bun.IDB, userID string) (int64, error) {
	var points int64
	err := db.NewSelect().
		Model((*models.User)(nil)).
		Column("points").
		Where("discord_id = ?", userID).
		Scan(ctx, &points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load balance of %s: %w", userID, err)
	}
	return points, nil
}

func toHunt(h models.Hunt) ownership.Hunt {
	return ownership.Hunt{
		ID:         h.ID,
		FamiliarID: h.FamiliarID,
		LocationID: h.LocationID,
		StartedAt:  h.StartedAt,
		EndsAt:     h.EndsAt,
	}
}

func toTrade(r models.TradeRequest) trade.Request {
	return trade.Request{
		ID:     r.ID,
		Status: trade.Status(r.Status),
		Initiator: trade.Party{
			UserID:      r.InitiatorUserID,
			CharacterID: r.InitiatorCharacterID,
			CardID:      r.InitiatorCardID,
		},
		Target: trade.Party{
			UserID:      r.TargetUserID,
			CharacterID: r.TargetCharacterID,
			CardID:      r.TargetCardID,
		},
		CreatedAt:  r.CreatedAt,
		ResolvedAt: r.ResolvedAt,
	}
}

func fromTrade(r trade.Request) models.TradeRequest {
	return models.TradeRequest{
		ID:                   r.ID,
		Status:               string(r.Status),
		InitiatorUserID:      r.Initiator.UserID,
		InitiatorCharacterID: r.Initiator.CharacterID,
		InitiatorCardID:      r.Initiator.CardID,
		TargetUserID:         r.Target.UserID,
		TargetCharacterID:    r.Target.CharacterID,
		TargetCardID:         r.Target.CardID,
		CreatedAt:            r.CreatedAt,
		ResolvedAt:           r.ResolvedAt,
	}
}
