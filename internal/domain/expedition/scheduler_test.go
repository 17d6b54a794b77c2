package expedition

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

var start = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

type fixedRoller struct {
	float float64
	ints  int
}

func (f fixedRoller) Float64() float64 { return f.float }
func (f fixedRoller) IntN(n int) int   { return f.ints % n }

func newScheduler(t *testing.T, rng Roller) *Scheduler {
	t.Helper()
	cat, err := catalog.New([]catalog.CardDefinition{
		{ID: 1, Name: "Griffin", Rank: catalog.RankLegendary},
		{ID: 2, Name: "Slime", Rank: catalog.RankCommon},
		{ID: 3, Name: "Kitsune", Rank: catalog.RankRare},
		{ID: 4, Name: "Lantern Spirit", Rank: catalog.RankEvent},
	})
	require.NoError(t, err)

	seq := 0
	s := NewScheduler(cat, []Location{
		{
			ID: "marsh", Name: "Misty Marsh", RequiredRank: catalog.RankRare, DurationMinutes: 60,
			Loot: []LootEntry{
				{ItemID: "herb", Chance: 50, Min: 1, Max: 3},
				{ItemID: "pearl", Chance: 10, Min: 1, Max: 1},
			},
		},
		{ID: "meadow", Name: "Meadow", RequiredRank: catalog.RankCommon, DurationMinutes: 30},
	}, 10, rng, func() string {
		seq++
		return fmt.Sprintf("hunt-%d", seq)
	})
	return s
}

func TestScheduler_StartRankQualification(t *testing.T) {
	s := newScheduler(t, fixedRoller{})
	c := &ownership.Character{ID: "c1", Name: "Aria", Collection: ownership.Collection{1, 2, 3, 4}}

	tests := []struct {
		name     string
		familiar int64
		wantErr  error
	}{
		{name: "legendary qualifies for rare", familiar: 1},
		{name: "rare qualifies for rare", familiar: 3},
		{name: "event counts as mythic", familiar: 4},
		{name: "common does not qualify", familiar: 2, wantErr: gameerr.ErrInsufficientRank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, hunt, err := s.Start(c, tt.familiar, "marsh", start)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, gameerr.KindValidation, gameerr.KindOf(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, start.Add(time.Hour), hunt.EndsAt)
			require.Len(t, next.Hunts, 1)
			require.Empty(t, c.Hunts, "Start must not mutate its input")
		})
	}
}

func TestScheduler_StartErrors(t *testing.T) {
	s := newScheduler(t, fixedRoller{})
	c := &ownership.Character{ID: "c1", Name: "Aria", Collection: ownership.Collection{1, 2}}

	_, _, err := s.Start(c, 1, "volcano", start)
	require.ErrorIs(t, err, gameerr.ErrLocationNotFound)

	_, _, err = s.Start(c, 77, "marsh", start)
	require.ErrorIs(t, err, gameerr.ErrCardNotFound)

	_, _, err = s.Start(c, 3, "marsh", start)
	require.ErrorIs(t, err, gameerr.ErrCardNotOwned)
}

func TestScheduler_Exclusivity(t *testing.T) {
	rq := require.New(t)
	s := newScheduler(t, fixedRoller{})
	c := &ownership.Character{ID: "c1", Name: "Aria", Collection: ownership.Collection{1, 1, 2}}

	c, _, err := s.Start(c, 1, "marsh", start)
	rq.NoError(err)
	c, _, err = s.Start(c, 1, "meadow", start)
	rq.NoError(err, "second copy can hunt elsewhere")

	_, _, err = s.Start(c, 1, "meadow", start)
	rq.ErrorIs(err, gameerr.ErrFamiliarBusy)
	rq.Equal(gameerr.KindStateConflict, gameerr.KindOf(err))
	rq.Equal(c.Collection.Count(1), c.BusyCount(1))
}

func TestScheduler_CapPerLocation(t *testing.T) {
	rq := require.New(t)
	s := newScheduler(t, fixedRoller{})

	c := &ownership.Character{ID: "c1", Name: "Aria"}
	for range 11 {
		c.Collection = c.Collection.Add(2)
	}

	var err error
	for i := range 10 {
		c, _, err = s.Start(c, 2, "meadow", start)
		rq.NoError(err, "start %d", i+1)
	}

	_, _, err = s.Start(c, 2, "meadow", start)
	rq.ErrorIs(err, gameerr.ErrHuntCapReached)
	rq.Equal(gameerr.KindStateConflict, gameerr.KindOf(err))
	rq.Len(c.Hunts, 10)
}

func TestScheduler_ClaimLifecycle(t *testing.T) {
	rq := require.New(t)
	// 0.2 passes the 50% herb roll and fails the 10% pearl roll
	s := newScheduler(t, fixedRoller{float: 0.2, ints: 1})
	c := &ownership.Character{ID: "c1", Name: "Aria", Collection: ownership.Collection{1}}

	c, hunt, err := s.Start(c, 1, "marsh", start)
	rq.NoError(err)

	_, _, err = s.Claim(c, hunt.ID, start.Add(59*time.Minute))
	rq.ErrorIs(err, gameerr.ErrNotReady)
	rq.Equal(gameerr.KindNotReady, gameerr.KindOf(err))

	after, reward, err := s.Claim(c, hunt.ID, hunt.EndsAt)
	rq.NoError(err)
	rq.Equal([]Item{{ItemID: "herb", Quantity: 2}}, reward.Items)
	rq.Empty(after.Hunts)
	rq.Len(c.Hunts, 1)

	_, _, err = s.Claim(after, hunt.ID, hunt.EndsAt)
	rq.ErrorIs(err, gameerr.ErrHuntNotFound)
	rq.Equal(gameerr.KindNotFound, gameerr.KindOf(err))
}

func TestScheduler_EmptyHandedIsNotAnError(t *testing.T) {
	s := newScheduler(t, fixedRoller{float: 0.99})
	c := &ownership.Character{ID: "c1", Name: "Aria", Collection: ownership.Collection{1}}

	c, hunt, err := s.Start(c, 1, "marsh", start)
	require.NoError(t, err)

	_, reward, err := s.Claim(c, hunt.ID, hunt.EndsAt.Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, reward.Items)
}

func TestScheduler_Recall(t *testing.T) {
	rq := require.New(t)
	s := newScheduler(t, fixedRoller{})
	c := &ownership.Character{ID: "c1", Name: "Aria", Collection: ownership.Collection{1}}

	c, hunt, err := s.Start(c, 1, "marsh", start)
	rq.NoError(err)

	_, _, err = s.Recall(c, hunt.ID, hunt.EndsAt)
	rq.ErrorIs(err, gameerr.ErrHuntFinished)

	recalled, _, err := s.Recall(c, hunt.ID, start.Add(10*time.Minute))
	rq.NoError(err)
	rq.Empty(recalled.Hunts)
	rq.Equal(1, recalled.FreeCount(1))

	_, _, err = s.Recall(recalled, hunt.ID, start.Add(10*time.Minute))
	rq.ErrorIs(err, gameerr.ErrHuntNotFound)
}

func TestScheduler_ClaimAll(t *testing.T) {
	rq := require.New(t)
	s := newScheduler(t, fixedRoller{float: 0.05, ints: 0})
	c := &ownership.Character{
		ID:         "c1",
		Name:       "Aria",
		Collection: ownership.Collection{1, 1, 3, 2},
		Hunts: []ownership.Hunt{
			{ID: "done-1", FamiliarID: 1, LocationID: "marsh", EndsAt: start},
			{ID: "running", FamiliarID: 3, LocationID: "marsh", EndsAt: start.Add(time.Hour)},
			{ID: "done-2", FamiliarID: 1, LocationID: "marsh", EndsAt: start.Add(-time.Hour)},
			{ID: "orphan", FamiliarID: 2, LocationID: "closed-cave", EndsAt: start},
		},
	}

	next, res := s.ClaimAll(c, start)
	rq.Len(res.Rewards, 3)
	rq.Equal([]Item{{ItemID: "herb", Quantity: 2}, {ItemID: "pearl", Quantity: 2}}, res.Items)

	rq.Equal("orphan", res.Rewards[2].Hunt.ID)
	rq.True(res.Rewards[2].Orphaned)
	rq.Empty(res.Rewards[2].Items)

	rq.Len(next.Hunts, 1)
	rq.Equal("running", next.Hunts[0].ID)
	rq.Equal(1, next.FreeCount(2))
	rq.Len(c.Hunts, 4)
}

func TestScheduler_RemovedLocation(t *testing.T) {
	rq := require.New(t)
	s := newScheduler(t, fixedRoller{float: 0.05})
	c := &ownership.Character{
		ID:         "c1",
		Name:       "Aria",
		Collection: ownership.Collection{1},
		Hunts:      []ownership.Hunt{{ID: "gone", FamiliarID: 1, LocationID: "closed-cave", StartedAt: start, EndsAt: start.Add(time.Hour)}},
	}
	rq.Equal(0, c.FreeCount(1))

	_, _, err := s.Claim(c, "gone", start.Add(30*time.Minute))
	rq.ErrorIs(err, gameerr.ErrNotReady)

	later := start.Add(2 * time.Hour)
	_, _, err = s.Recall(c, "gone", later)
	rq.ErrorIs(err, gameerr.ErrHuntFinished)

	next, reward, err := s.Claim(c, "gone", later)
	rq.NoError(err)
	rq.True(reward.Orphaned)
	rq.Empty(reward.Items)
	rq.Empty(next.Hunts)
	rq.Equal(1, next.FreeCount(1))

	moved, hunt, err := s.Start(next, 1, "meadow", later)
	rq.NoError(err)
	rq.Equal("meadow", hunt.LocationID)
	rq.Len(moved.Hunts, 1)
}

func TestNewScheduler_SkipsInvalidLocations(t *testing.T) {
	rq := require.New(t)
	cat, err := catalog.New([]catalog.CardDefinition{{ID: 1, Name: "Griffin", Rank: catalog.RankLegendary}})
	rq.NoError(err)

	s := NewScheduler(cat, []Location{
		{ID: "broken", Name: "Broken", RequiredRank: "shiny", DurationMinutes: 10},
		{ID: "meadow", Name: "Meadow", RequiredRank: catalog.RankCommon, DurationMinutes: 30},
	}, 0, fixedRoller{}, func() string { return "h1" })

	rq.Equal(DefaultHuntCap, s.Cap())
	rq.Len(s.Locations(), 1)
	_, ok := s.Location("broken")
	rq.False(ok)

	c := &ownership.Character{ID: "c1", Name: "Aria", Collection: ownership.Collection{1}}
	_, _, err = s.Start(c, 1, "broken", start)
	rq.ErrorIs(err, gameerr.ErrLocationNotFound)
	_, _, err = s.Start(c, 1, "meadow", start)
	rq.NoError(err)
}

func TestRollLoot_Ranges(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 9))
	entries := []LootEntry{
		{ItemID: "always", Chance: 100, Min: 2, Max: 5},
		{ItemID: "never", Chance: 0, Min: 1, Max: 1},
	}
	for range 200 {
		items := RollLoot(entries, rng)
		require.Len(t, items, 1)
		require.Equal(t, "always", items[0].ItemID)
		require.GreaterOrEqual(t, items[0].Quantity, 2)
		require.LessOrEqual(t, items[0].Quantity, 5)
	}
}

func TestLocation_Validate(t *testing.T) {
	require.Error(t, Location{ID: "x", RequiredRank: "shiny", DurationMinutes: 5}.Validate())
	require.Error(t, Location{ID: "x", RequiredRank: catalog.RankRare}.Validate())
	require.Error(t, Location{ID: "x", RequiredRank: catalog.RankRare, DurationMinutes: 5,
		Loot: []LootEntry{{ItemID: "a", Chance: 10, Min: 3, Max: 1}}}.Validate())
	require.NoError(t, Location{ID: "x", RequiredRank: catalog.RankRare, DurationMinutes: 5,
		Loot: []LootEntry{{ItemID: "a", Chance: 10, Min: 1, Max: 3}}}.Validate())
}
