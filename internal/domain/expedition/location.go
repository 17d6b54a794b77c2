package expedition

import (
	"fmt"
	"time"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
)

// LootEntry is one independently rolled line of a location's loot table.
// Chance is a percentage; the quantity is uniform in [Min, Max].
type LootEntry struct {
	ItemID string  `json:"item_id" toml:"item_id" validate:"required"`
	Chance float64 `json:"chance" toml:"chance" validate:"gte=0,lte=100"`
	Min    int     `json:"min" toml:"min" validate:"gte=1"`
	Max    int     `json:"max" toml:"max" validate:"gtefield=Min"`
}

type Location struct {
	ID              string       `json:"id" toml:"id" validate:"required"`
	Name            string       `json:"name" toml:"name" validate:"required"`
	RequiredRank    catalog.Rank `json:"required_rank" toml:"required_rank" validate:"required"`
	DurationMinutes int          `json:"duration_minutes" toml:"duration_minutes" validate:"gt=0"`
	Loot            []LootEntry  `json:"loot" toml:"loot" validate:"dive"`
}

func (l Location) Duration() time.Duration {
	return time.Duration(l.DurationMinutes) * time.Minute
}

// Validate checks the rules struct tags cannot express.
func (l Location) Validate() error {
	if !l.RequiredRank.Valid() {
		return fmt.Errorf("location %s: unknown required rank %q", l.ID, l.RequiredRank)
	}
	if l.DurationMinutes <= 0 {
		return fmt.Errorf("location %s: duration must be positive", l.ID)
	}
	for _, e := range l.Loot {
		if e.Chance < 0 || e.Chance > 100 {
			return fmt.Errorf("location %s: loot %s chance %v out of range", l.ID, e.ItemID, e.Chance)
		}
		if e.Min < 1 || e.Max < e.Min {
			return fmt.Errorf("location %s: loot %s quantity range [%d, %d] is invalid", l.ID, e.ItemID, e.Min, e.Max)
		}
	}
	return nil
}

// Item is a stack of inventory items granted by a hunt.
type Item struct {
	ItemID   string
	Quantity int
}
