package familiars

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/xid"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/gacha"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
	"github.com/ellavondegurechaff/familiars/internal/domain/trade"
)

const maxCharacterName = 32

type Service interface {
	CreateCharacter(ctx context.Context, actor Actor, name string) (*ownership.Character, error)
	Characters(ctx context.Context, userID string) ([]*ownership.Character, error)
	Character(ctx context.Context, id string) (*ownership.Character, error)

	Draw(ctx context.Context, actor Actor, characterID string, mode gacha.Mode) (DrawResult, error)

	CreateTrade(ctx context.Context, actor Actor, offer TradeOffer) (trade.Request, error)
	AcceptTrade(ctx context.Context, actor Actor, tradeID string) (trade.Accepted, error)
	DeclineTrade(ctx context.Context, actor Actor, tradeID string) (trade.Request, error)
	CancelTrade(ctx context.Context, actor Actor, tradeID string) (trade.Request, error)
	PendingTrades(ctx context.Context, userID string) ([]trade.Request, error)

	StartHunt(ctx context.Context, actor Actor, characterID string, familiarID int64, locationID string) (ownership.Hunt, error)
	ClaimHunt(ctx context.Context, actor Actor, characterID, huntID string) (expedition.Reward, error)
	RecallHunt(ctx context.Context, actor Actor, characterID, huntID string) (ownership.Hunt, error)
	ClaimAllHunts(ctx context.Context, actor Actor, characterID string) (expedition.ClaimAllResult, error)
	Locations(ctx context.Context) ([]expedition.Location, error)

	GrantCard(ctx context.Context, actor Actor, characterID string, cardID int64) (*ownership.Character, error)
	RevokeCard(ctx context.Context, actor Actor, characterID string, cardID int64) (*ownership.Character, error)
	Bless(ctx context.Context, actor Actor, characterID string, d time.Duration) (*ownership.Character, error)
	AdjustPoints(ctx context.Context, actor Actor, userID string, delta int64, reason string) (int64, error)

	Balance(ctx context.Context, userID string) (int64, error)
	Ledger(ctx context.Context, userID string, limit int) ([]LedgerEntry, error)
	Inventory(ctx context.Context, characterID string) ([]expedition.Item, error)
	Catalog() *catalog.Catalog
	Now() time.Time
}

// Roller is the randomness shared by draws and loot rolls.
type Roller interface {
	Float64() float64
	IntN(n int) int
}

// globalRand uses the math/rand/v2 top-level source, which is safe for concurrent use.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

type Config struct {
	DrawCost        int64
	BlessedDrawCost int64
	HuntCap         int
	// StartingPoints are credited when a user creates their first character.
	StartingPoints int64
}

type Option func(*service)

func WithLocker(l Locker) Option {
	return func(s *service) { s.locker = l }
}

func WithRoller(r Roller) Option {
	return func(s *service) { s.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *service) { s.newID = newID }
}

func WithMetrics(m *Metrics) Option {
	return func(s *service) { s.metrics = m }
}

type service struct {
	store    Store
	settings Settings
	catalog  *catalog.Catalog
	cfg      Config

	locker  Locker
	metrics *Metrics
	rng     Roller
	now     func() time.Time
	newID   func() string
}

func NewService(store Store, settings Settings, cat *catalog.Catalog, cfg Config, opts ...Option) *service {
	s := &service{
		store:    store,
		settings: settings,
		catalog:  cat,
		cfg:      cfg,
		locker:   NewLocalLocker(),
		rng:      globalRand{},
		now:      time.Now,
		newID:    func() string { return xid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

func (s *service) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *service) Now() time.Time {
	return s.now()
}

// mutate runs fn in one store transaction while holding the locks for keys.
func (s *service) mutate(ctx context.Context, operation string, keys []string, fn func(ctx context.Context, tx Tx) error) (err error) {
	defer func() { s.metrics.observe(operation, err) }()

	unlock, err := s.locker.Lock(ctx, keys...)
	if err != nil {
		return fmt.Errorf("failed to acquire locks for %s: %w", operation, err)
	}
	defer unlock()

	return s.store.WithinTx(ctx, fn)
}

// ownedCharacter loads a character inside tx and checks it belongs to actor.
func ownedCharacter(ctx context.Context, tx Tx, actor Actor, id string) (*ownership.Character, error) {
	c, err := tx.Character(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor.UserID {
		return nil, gameerr.ErrUnauthorized.Withf("character %s does not belong to you", c.Name)
	}
	return c, nil
}

func requireAdmin(actor Actor) error {
	if !actor.Admin {
		return gameerr.ErrUnauthorized.Withf("this action is restricted to administrators")
	}
	return nil
}

func (s *service) CreateCharacter(ctx context.Context, actor Actor, name string) (*ownership.Character, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxCharacterName {
		return nil, gameerr.ErrInvalidInput.Withf("character name must be 1 to %d characters", maxCharacterName)
	}

	c := &ownership.Character{
		ID:     s.newID(),
		UserID: actor.UserID,
		Name:   name,
	}
	err := s.mutate(ctx, "create_character", []string{characterKey(c.ID), userKey(actor.UserID)}, func(ctx context.Context, tx Tx) error {
		existing, err := tx.CharacterCount(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("failed to count characters: %w", err)
		}
		if err := tx.CreateCharacter(ctx, c); err != nil {
			return err
		}
		if existing > 0 || s.cfg.StartingPoints <= 0 {
			return nil
		}
		_, err = tx.AppendLedger(ctx, LedgerEntry{
			UserID:    actor.UserID,
			Delta:     s.cfg.StartingPoints,
			Reason:    "starting points",
			CreatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Character created",
		slog.String("type", "sys"),
		slog.String("user_id", actor.UserID),
		slog.String("character_id", c.ID),
		slog.String("name", c.Name))
	return c, nil
}

func (s *service) Characters(ctx context.Context, userID string) ([]*ownership.Character, error) {
	return s.store.CharactersByUser(ctx, userID)
}

func (s *service) Character(ctx context.Context, id string) (*ownership.Character, error) {
	return s.store.Character(ctx, id)
}

func (s *service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.store.Balance(ctx, userID)
}

func (s *service) Ledger(ctx context.Context, userID string, limit int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.Ledger(ctx, userID, limit)
}

func (s *service) Inventory(ctx context.Context, characterID string) ([]expedition.Item, error) {
	return s.store.Inventory(ctx, characterID)
}
