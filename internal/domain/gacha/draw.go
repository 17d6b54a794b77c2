package gacha

import (
	"github.com/samber/lo"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

// Roller is the randomness source. *rand.Rand from math/rand/v2 satisfies it.
type Roller interface {
	Float64() float64
	IntN(n int) int
}

type DrawRequest struct {
	Mode    Mode
	Cost    int64
	Balance int64
	Owned   ownership.Collection
}

type Draw struct {
	Card catalog.CardDefinition
	Roll float64
	// Rolled is the rank selected by the table, Pool the rank the card came from.
	Rolled catalog.Rank
	Pool   catalog.Rank
	// Fallback is set when every pool from Rolled downwards was empty and the card
	// was picked uniformly from everything still available.
	Fallback bool
}

type Engine struct {
	catalog *catalog.Catalog
	chances Chances
	rng     Roller
}

func NewEngine(cat *catalog.Catalog, chances Chances, rng Roller) (*Engine, error) {
	if err := chances.Validate(); err != nil {
		return nil, gameerr.ErrInvalidInput.Wrap(err)
	}
	return &Engine{catalog: cat, chances: chances, rng: rng}, nil
}

// Draw picks one card the owner does not hold yet. It only decides; persisting the
// card and the debit is the caller's job, so a failed draw has no side effects.
func (e *Engine) Draw(req DrawRequest) (Draw, error) {
	if req.Cost < 0 {
		return Draw{}, gameerr.ErrInvalidInput.Withf("draw cost cannot be negative")
	}

	owned := req.Owned.Owned()
	available := lo.Filter(e.catalog.All(), func(d catalog.CardDefinition, _ int) bool {
		_, has := owned[d.ID]
		return !has
	})
	if len(available) == 0 {
		return Draw{}, gameerr.ErrAllCardsCollected
	}

	if req.Balance < req.Cost {
		return Draw{}, gameerr.ErrInsufficientFunds.Withf("draw costs %d points, balance is %d", req.Cost, req.Balance)
	}

	pools := lo.GroupBy(available, func(d catalog.CardDefinition) catalog.Rank { return d.Rank })

	roll := e.rng.Float64() * 100
	rolled := e.chances.Table(req.Mode).Select(roll)
	result := Draw{Roll: roll, Rolled: rolled}

	start := lo.IndexOf(catalog.DrawOrder, rolled)
	for _, rank := range catalog.DrawOrder[start:] {
		if pool := pools[rank]; len(pool) > 0 {
			result.Pool = rank
			result.Card = pool[e.rng.IntN(len(pool))]
			return result, nil
		}
	}

	result.Fallback = true
	result.Card = available[e.rng.IntN(len(available))]
	result.Pool = result.Card.Rank
	return result, nil
}

func (e *Engine) Chances() Chances {
	return e.chances
}
