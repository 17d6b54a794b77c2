package ownership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollection_AddRemove(t *testing.T) {
	rq := require.New(t)

	base := Collection{1, 2, 2, 3}

	added := base.Add(4)
	rq.Equal(Collection{1, 2, 2, 3, 4}, added)
	rq.Equal(Collection{1, 2, 2, 3}, base, "Add must not mutate the receiver")

	removed, ok := base.Remove(2)
	rq.True(ok)
	rq.Equal(Collection{1, 2, 3}, removed)
	rq.Equal(2, base.Count(2))

	same, ok := base.Remove(9)
	rq.False(ok)
	rq.Equal(base, same)

	rq.True(base.Has(3))
	rq.False(base.Has(9))
	rq.Len(base.Owned(), 3)
}

func TestCharacter_FreeCount(t *testing.T) {
	rq := require.New(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c := &Character{
		ID:         "c1",
		Collection: Collection{7, 7, 8},
		Hunts: []Hunt{
			{ID: "h1", FamiliarID: 7, EndsAt: now.Add(time.Hour)},
		},
	}

	rq.Equal(1, c.BusyCount(7))
	rq.Equal(1, c.FreeCount(7))
	rq.Equal(1, c.FreeCount(8))
	rq.Equal(0, c.FreeCount(9))

	h, idx, ok := c.Hunt("h1")
	rq.True(ok)
	rq.Equal(0, idx)
	rq.False(h.Due(now))
	rq.True(h.Due(now.Add(time.Hour)))

	clone := c.Clone()
	clone.Collection[0] = 99
	clone.Hunts[0].ID = "changed"
	rq.Equal(int64(7), c.Collection[0])
	rq.Equal("h1", c.Hunts[0].ID)
}
