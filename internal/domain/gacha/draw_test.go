package gacha

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

// scriptedRoller replays fixed values so draws are deterministic.
type scriptedRoller struct {
	floats []float64
	ints   []int
}

func (s *scriptedRoller) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedRoller) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0] % n
	s.ints = s.ints[1:]
	return v
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.CardDefinition{
		{ID: 1, Name: "Phoenix", Rank: catalog.RankMythic},
		{ID: 2, Name: "Leviathan", Rank: catalog.RankMythic},
		{ID: 3, Name: "Griffin", Rank: catalog.RankLegendary},
		{ID: 4, Name: "Kitsune", Rank: catalog.RankRare},
		{ID: 5, Name: "Slime", Rank: catalog.RankCommon},
		{ID: 6, Name: "Lantern Spirit", Rank: catalog.RankEvent},
	})
	require.NoError(t, err)
	return cat
}

var scenarioChances = Chances{
	Normal:  Table{Mythic: 5, Legendary: 10, Rare: 25},
	Blessed: Table{Mythic: 20, Legendary: 30, Rare: 30},
}

func TestTable_Select(t *testing.T) {
	table := scenarioChances.Normal
	tests := []struct {
		roll float64
		want catalog.Rank
	}{
		{0, catalog.RankMythic},
		{3, catalog.RankMythic},
		{4.999, catalog.RankMythic},
		{5, catalog.RankLegendary},
		{14.9, catalog.RankLegendary},
		{15, catalog.RankRare},
		{39.9, catalog.RankRare},
		{40, catalog.RankCommon},
		{99.99, catalog.RankCommon},
	}
	for _, tt := range tests {
		if got := table.Select(tt.roll); got != tt.want {
			t.Errorf("Table.Select(%v) = %v, want %v", tt.roll, got, tt.want)
		}
	}
}

func TestChances_Validate(t *testing.T) {
	require.NoError(t, scenarioChances.Validate())
	require.NoError(t, DefaultChances().Validate())

	bad := Chances{Normal: Table{Mythic: 50, Legendary: 40, Rare: 20}}
	require.Error(t, bad.Validate())

	negative := Chances{Blessed: Table{Mythic: -1}}
	require.Error(t, negative.Validate())

	_, err := NewEngine(testCatalog(t), bad, rand.New(rand.NewPCG(1, 2)))
	require.ErrorIs(t, err, gameerr.ErrInvalidInput)
}

func TestEngine_Draw(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name         string
		mode         Mode
		owned        ownership.Collection
		roller       *scriptedRoller
		wantID       int64
		wantRolled   catalog.Rank
		wantPool     catalog.Rank
		wantFallback bool
	}{
		{
			name:       "scenario A picks among available mythics",
			mode:       ModeNormal,
			roller:     &scriptedRoller{floats: []float64{0.03}, ints: []int{1}},
			wantID:     2,
			wantRolled: catalog.RankMythic,
			wantPool:   catalog.RankMythic,
		},
		{
			name:       "scenario A cascades to legendary when mythics are owned",
			mode:       ModeNormal,
			owned:      ownership.Collection{1, 2},
			roller:     &scriptedRoller{floats: []float64{0.03}},
			wantID:     3,
			wantRolled: catalog.RankMythic,
			wantPool:   catalog.RankLegendary,
		},
		{
			name:       "cascade skips several empty pools",
			mode:       ModeNormal,
			owned:      ownership.Collection{1, 2, 3, 4},
			roller:     &scriptedRoller{floats: []float64{0.01}},
			wantID:     5,
			wantRolled: catalog.RankMythic,
			wantPool:   catalog.RankCommon,
		},
		{
			name:         "falls back to everything available when lower pools are empty",
			mode:         ModeNormal,
			owned:        ownership.Collection{5},
			roller:       &scriptedRoller{floats: []float64{0.99}, ints: []int{2}},
			wantID:       3,
			wantRolled:   catalog.RankCommon,
			wantPool:     catalog.RankLegendary,
			wantFallback: true,
		},
		{
			name:         "event cards are reachable only through the fallback",
			mode:         ModeNormal,
			owned:        ownership.Collection{1, 2, 3, 4, 5},
			roller:       &scriptedRoller{floats: []float64{0.5}},
			wantID:       6,
			wantRolled:   catalog.RankCommon,
			wantPool:     catalog.RankEvent,
			wantFallback: true,
		},
		{
			name:       "blessed table widens the mythic band",
			mode:       ModeBlessed,
			roller:     &scriptedRoller{floats: []float64{0.15}},
			wantID:     1,
			wantRolled: catalog.RankMythic,
			wantPool:   catalog.RankMythic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(cat, scenarioChances, tt.roller)
			require.NoError(t, err)

			got, err := engine.Draw(DrawRequest{Mode: tt.mode, Cost: 100, Balance: 100, Owned: tt.owned})
			require.NoError(t, err)
			require.Equal(t, tt.wantID, got.Card.ID)
			require.Equal(t, tt.wantRolled, got.Rolled)
			require.Equal(t, tt.wantPool, got.Pool)
			require.Equal(t, tt.wantFallback, got.Fallback)
		})
	}
}

func TestEngine_DrawErrors(t *testing.T) {
	cat := testCatalog(t)
	engine, err := NewEngine(cat, scenarioChances, &scriptedRoller{floats: []float64{0.5}})
	require.NoError(t, err)

	_, err = engine.Draw(DrawRequest{Cost: 100, Balance: 99})
	require.ErrorIs(t, err, gameerr.ErrInsufficientFunds)
	require.Equal(t, gameerr.KindResourceExhausted, gameerr.KindOf(err))

	_, err = engine.Draw(DrawRequest{Cost: 0, Owned: ownership.Collection{1, 2, 3, 4, 5, 6}})
	require.ErrorIs(t, err, gameerr.ErrAllCardsCollected)

	_, err = engine.Draw(DrawRequest{Cost: -5})
	require.ErrorIs(t, err, gameerr.ErrInvalidInput)
}

func TestEngine_DrawNeverGrantsOwnedCard(t *testing.T) {
	cat := testCatalog(t)
	engine, err := NewEngine(cat, scenarioChances, rand.New(rand.NewPCG(42, 7)))
	require.NoError(t, err)

	var owned ownership.Collection
	for range cat.Len() {
		before := owned.Owned()
		got, err := engine.Draw(DrawRequest{Mode: ModeNormal, Owned: owned})
		require.NoError(t, err)
		_, dup := before[got.Card.ID]
		require.False(t, dup, "card %d drawn twice", got.Card.ID)
		owned = owned.Add(got.Card.ID)
	}

	_, err = engine.Draw(DrawRequest{Mode: ModeNormal, Owned: owned})
	require.ErrorIs(t, err, gameerr.ErrAllCardsCollected)
}
