package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
	"github.com/ellavondegurechaff/familiars/internal/domain/trade"
)

func TestStore_RollbackOnError(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := New()
	s.PutCharacter(&ownership.Character{ID: "c1", UserID: "u1", Name: "Aria", Version: 1})
	s.SetBalance("u1", 100)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
		c, err := tx.Character(ctx, "c1")
		rq.NoError(err)
		c.Collection = c.Collection.Add(5)
		rq.NoError(tx.SaveCharacter(ctx, c))
		_, err = tx.AppendLedger(ctx, familiars.LedgerEntry{UserID: "u1", Delta: -40, Reason: "draw"})
		rq.NoError(err)
		rq.NoError(tx.GrantItems(ctx, "c1", []expedition.Item{{ItemID: "herb", Quantity: 1}}))
		return boom
	})
	rq.ErrorIs(err, boom)

	c, err := s.Character(ctx, "c1")
	rq.NoError(err)
	rq.Empty(c.Collection)
	rq.Equal(int64(1), c.Version)

	balance, _ := s.Balance(ctx, "u1")
	rq.Equal(int64(100), balance)
	ledger, _ := s.Ledger(ctx, "u1", 10)
	rq.Empty(ledger)
	items, _ := s.Inventory(ctx, "c1")
	rq.Empty(items)
}

func TestStore_Guards(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := New()
	s.PutCharacter(&ownership.Character{ID: "c1", UserID: "u1", Name: "Aria", Version: 3})

	err := s.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
		return tx.SaveCharacter(ctx, &ownership.Character{ID: "c1", Version: 2})
	})
	rq.ErrorIs(err, gameerr.ErrStaleState)

	err = s.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
		return tx.CreateTrade(ctx, trade.Request{ID: "t1", Status: trade.StatusPending})
	})
	rq.NoError(err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
		return tx.SaveTrade(ctx, trade.Request{ID: "t1", Status: trade.StatusDeclined}, trade.StatusPending)
	})
	rq.NoError(err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
		return tx.SaveTrade(ctx, trade.Request{ID: "t1", Status: trade.StatusAccepted}, trade.StatusPending)
	})
	rq.ErrorIs(err, gameerr.ErrRequestNotPending)

	err = s.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
		_, err := tx.AppendLedger(ctx, familiars.LedgerEntry{UserID: "u1", Delta: -1})
		return err
	})
	rq.ErrorIs(err, gameerr.ErrInsufficientFunds)

	_, err = s.Character(ctx, "missing")
	rq.ErrorIs(err, gameerr.ErrCharacterNotFound)
}

func TestStore_CharacterCountSeesStagedCreates(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := New()
	s.PutCharacter(&ownership.Character{ID: "c1", UserID: "u1", Name: "Aria", Version: 1})
	s.PutCharacter(&ownership.Character{ID: "c2", UserID: "u2", Name: "Bram", Version: 1})

	err := s.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
		n, err := tx.CharacterCount(ctx, "u1")
		rq.NoError(err)
		rq.Equal(1, n)

		rq.NoError(tx.CreateCharacter(ctx, &ownership.Character{ID: "c3", UserID: "u1", Name: "Selene"}))
		n, err = tx.CharacterCount(ctx, "u1")
		rq.NoError(err)
		rq.Equal(2, n)
		return nil
	})
	rq.NoError(err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx familiars.Tx) error {
		n, err := tx.CharacterCount(ctx, "nobody")
		rq.NoError(err)
		rq.Zero(n)
		return nil
	})
	rq.NoError(err)
}
