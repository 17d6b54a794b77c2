package familiars

import (
	"context"
	"time"

	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/gacha"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
	"github.com/ellavondegurechaff/familiars/internal/domain/trade"
)

// Actor is the identity behind a request, as supplied by the chat platform.
type Actor struct {
	UserID string
	Admin  bool
}

type LedgerEntry struct {
	ID        int64
	UserID    string
	Delta     int64
	Reason    string
	CreatedAt time.Time
}

// Store is the transactional character store. Everything an operation reads and writes
// goes through a single Tx so failures leave no partial effects.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Character(ctx context.Context, id string) (*ownership.Character, error)
	CharactersByUser(ctx context.Context, userID string) ([]*ownership.Character, error)
	Trade(ctx context.Context, id string) (trade.Request, error)
	TradesByUser(ctx context.Context, userID string, status trade.Status) ([]trade.Request, error)
	Balance(ctx context.Context, userID string) (int64, error)
	Ledger(ctx context.Context, userID string, limit int) ([]LedgerEntry, error)
	Inventory(ctx context.Context, characterID string) ([]expedition.Item, error)
	Ping(ctx context.Context) error
}

// Tx is a unit of work. Reads inside it see a consistent snapshot and writes carry guards:
// SaveCharacter compares Version, SaveTrade compares the expected status.
type Tx interface {
	Character(ctx context.Context, id string) (*ownership.Character, error)
	// CharacterCount counts the user's characters and holds the user's row until the
	// transaction ends, so concurrent creates for one user observe each other.
	CharacterCount(ctx context.Context, userID string) (int, error)
	CreateCharacter(ctx context.Context, c *ownership.Character) error
	// SaveCharacter persists c if its stored version still equals c.Version and bumps it.
	SaveCharacter(ctx context.Context, c *ownership.Character) error

	Trade(ctx context.Context, id string) (trade.Request, error)
	CreateTrade(ctx context.Context, req trade.Request) error
	SaveTrade(ctx context.Context, req trade.Request, expected trade.Status) error

	Balance(ctx context.Context, userID string) (int64, error)
	// AppendLedger applies entry.Delta to the user's balance and records it.
	AppendLedger(ctx context.Context, entry LedgerEntry) (int64, error)

	GrantItems(ctx context.Context, characterID string, items []expedition.Item) error
}

// Settings supplies game configuration owned by admin tooling.
type Settings interface {
	Chances(ctx context.Context) (gacha.Chances, error)
	Locations(ctx context.Context) ([]expedition.Location, error)
}

// Locker serializes mutations per key across whatever scope the implementation covers.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}
