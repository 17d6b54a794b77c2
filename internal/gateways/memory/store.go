package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
	"github.com/ellavondegurechaff/familiars/internal/domain/trade"
)

// Store keeps everything in process memory. Transactions are serialized and stage their
// writes, which are applied only when the callback returns nil.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	characters map[string]*ownership.Character
	trades     map[string]trade.Request
	balances   map[string]int64
	ledger     []familiars.LedgerEntry
	inventory  map[string][]expedition.Item
}

var _ familiars.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		characters: make(map[string]*ownership.Character),
		trades:     make(map[string]trade.Request),
		balances:   make(map[string]int64),
		inventory:  make(map[string][]expedition.Item),
	}
}

// PutCharacter stores c as is, outside of any transaction.
func (s *Store) PutCharacter(c *ownership.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[c.ID] = c.Clone()
}

func (s *Store) SetBalance(userID string, points int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = points
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx familiars.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		store:      s,
		characters: make(map[string]*ownership.Character),
		trades:     make(map[string]trade.Request),
		balances:   make(map[string]int64),
		items:      make(map[string][]expedition.Item),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) Character(_ context.Context, id string) (*ownership.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[id]
	if !ok {
		return nil, gameerr.ErrCharacterNotFound.Withf("character %s not found", id)
	}
	return c.Clone(), nil
}

func (s *Store) CharactersByUser(_ context.Context, userID string) ([]*ownership.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.FilterMap(lo.Values(s.characters), func(c *ownership.Character, _ int) (*ownership.Character, bool) {
		return c.Clone(), c.UserID == userID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Trade(_ context.Context, id string) (trade.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.trades[id]
	if !ok {
		return trade.Request{}, gameerr.ErrTradeNotFound.Withf("trade %s not found", id)
	}
	return req, nil
}

func (s *Store) TradesByUser(_ context.Context, userID string, status trade.Status) ([]trade.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.Filter(lo.Values(s.trades), func(r trade.Request, _ int) bool {
		return r.Involves(userID) && (status == "" || r.Status == status)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Balance(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[userID], nil
}

func (s *Store) Ledger(_ context.Context, userID string, limit int) ([]familiars.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []familiars.LedgerEntry
	for i := len(s.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if s.ledger[i].UserID == userID {
			out = append(out, s.ledger[i])
		}
	}
	return out, nil
}

func (s *Store) Inventory(_ context.Context, characterID string) ([]expedition.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]expedition.Item(nil), s.inventory[characterID]...), nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

type memTx struct {
	store *Store

	characters map[string]*ownership.Character
	trades     map[string]trade.Request
	balances   map[string]int64
	ledger     []familiars.LedgerEntry
	items      map[string][]expedition.Item
}

func (t *memTx) Character(ctx context.Context, id string) (*ownership.Character, error) {
	if c, ok := t.characters[id]; ok {
		return c.Clone(), nil
	}
	return t.store.Character(ctx, id)
}

// CharacterCount needs no row lock here; WithinTx already runs one transaction at a time.
func (t *memTx) CharacterCount(ctx context.Context, userID string) (int, error) {
	stored, err := t.store.CharactersByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	ids := make(map[string]struct{}, len(stored)+len(t.characters))
	for _, c := range stored {
		ids[c.ID] = struct{}{}
	}
	for id, c := range t.characters {
		if c.UserID == userID {
			ids[id] = struct{}{}
		}
	}
	return len(ids), nil
}

func (t *memTx) CreateCharacter(ctx context.Context, c *ownership.Character) error {
	if _, err := t.Character(ctx, c.ID); err == nil {
		return gameerr.ErrInvalidInput.Withf("character %s already exists", c.ID)
	}
	c.Version = 1
	t.characters[c.ID] = c.Clone()
	return nil
}

func (t *memTx) SaveCharacter(ctx context.Context, c *ownership.Character) error {
	current, err := t.Character(ctx, c.ID)
	if err != nil {
		return err
	}
	if current.Version != c.Version {
		return gameerr.ErrStaleState.Withf("character %s changed concurrently", c.Name)
	}
	c.Version++
	t.characters[c.ID] = c.Clone()
	return nil
}

func (t *memTx) Trade(ctx context.Context, id string) (trade.Request, error) {
	if r, ok := t.trades[id]; ok {
		return r, nil
	}
	return t.store.Trade(ctx, id)
}

func (t *memTx) CreateTrade(ctx context.Context, req trade.Request) error {
	if _, err := t.Trade(ctx, req.ID); err == nil {
		return gameerr.ErrInvalidInput.Withf("trade %s already exists", req.ID)
	}
	t.trades[req.ID] = req
	return nil
}

func (t *memTx) SaveTrade(ctx context.Context, req trade.Request, expected trade.Status) error {
	current, err := t.Trade(ctx, req.ID)
	if err != nil {
		return err
	}
	if current.Status != expected {
		return gameerr.ErrRequestNotPending.Withf("trade %s is already %s", req.ID, current.Status)
	}
	t.trades[req.ID] = req
	return nil
}

func (t *memTx) Balance(ctx context.Context, userID string) (int64, error) {
	if b, ok := t.balances[userID]; ok {
		return b, nil
	}
	return t.store.Balance(ctx, userID)
}

func (t *memTx) AppendLedger(ctx context.Context, entry familiars.LedgerEntry) (int64, error) {
	balance, err := t.Balance(ctx, entry.UserID)
	if err != nil {
		return 0, err
	}
	if balance+entry.Delta < 0 {
		return 0, gameerr.ErrInsufficientFunds.Withf("balance %d cannot cover %d", balance, -entry.Delta)
	}
	t.balances[entry.UserID] = balance + entry.Delta
	t.ledger = append(t.ledger, entry)
	return balance + entry.Delta, nil
}

func (t *memTx) GrantItems(_ context.Context, characterID string, items []expedition.Item) error {
	t.items[characterID] = expedition.MergeItems(t.items[characterID], items)
	return nil
}

func (t *memTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range t.characters {
		s.characters[id] = c
	}
	for id, r := range t.trades {
		s.trades[id] = r
	}
	for user, b := range t.balances {
		s.balances[user] = b
	}
	for _, e := range t.ledger {
		e.ID = int64(len(s.ledger) + 1)
		s.ledger = append(s.ledger, e)
	}
	for id, items := range t.items {
		s.inventory[id] = expedition.MergeItems(s.inventory[id], items)
	}
}
