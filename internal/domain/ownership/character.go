package ownership

import (
	"time"

	"github.com/samber/lo"
)

// Hunt is an expedition in progress. Membership in Character.Hunts is the only record of it.
type Hunt struct {
	ID         string
	FamiliarID int64
	LocationID string
	StartedAt  time.Time
	EndsAt     time.Time
}

func (h Hunt) Due(now time.Time) bool {
	return !now.Before(h.EndsAt)
}

// Character is the aggregate every engine operation reads and rewrites as a whole.
// Version is bumped by the store on each successful save.
type Character struct {
	ID           string
	UserID       string
	Name         string
	Collection   Collection
	Hunts        []Hunt
	BlessedUntil time.Time
	Version      int64
}

// Clone returns a deep copy so pure operations never alias the caller's state.
func (c *Character) Clone() *Character {
	out := *c
	out.Collection = c.Collection.Clone()
	out.Hunts = append([]Hunt(nil), c.Hunts...)
	return &out
}

// BusyCount is the number of active hunts that use an instance of cardID.
func (c *Character) BusyCount(cardID int64) int {
	return lo.CountBy(c.Hunts, func(h Hunt) bool { return h.FamiliarID == cardID })
}

// FreeCount is the number of instances of cardID not assigned to a hunt.
func (c *Character) FreeCount(cardID int64) int {
	return max(c.Collection.Count(cardID)-c.BusyCount(cardID), 0)
}

func (c *Character) Hunt(huntID string) (Hunt, int, bool) {
	h, idx, ok := lo.FindIndexOf(c.Hunts, func(h Hunt) bool { return h.ID == huntID })
	return h, idx, ok
}

func (c *Character) Blessed(now time.Time) bool {
	return now.Before(c.BlessedUntil)
}
