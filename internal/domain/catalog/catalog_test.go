package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRank_Satisfies(t *testing.T) {
	tests := []struct {
		name     string
		rank     Rank
		required Rank
		want     bool
	}{
		{"legendary meets rare", RankLegendary, RankRare, true},
		{"common misses rare", RankCommon, RankRare, false},
		{"rare meets rare", RankRare, RankRare, true},
		{"mythic meets everything", RankMythic, RankLegendary, true},
		{"event counts as mythic", RankEvent, RankMythic, true},
		{"mythic meets event", RankMythic, RankEvent, true},
		{"legendary misses event", RankLegendary, RankEvent, false},
		{"unknown rank never qualifies", Rank("shiny"), RankCommon, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rank.Satisfies(tt.required); got != tt.want {
				t.Errorf("Rank.Satisfies() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTradeCompatible(t *testing.T) {
	tests := []struct {
		a, b Rank
		want bool
	}{
		{RankRare, RankRare, true},
		{RankMythic, RankEvent, true},
		{RankEvent, RankMythic, true},
		{RankEvent, RankEvent, true},
		{RankLegendary, RankMythic, false},
		{RankEvent, RankLegendary, false},
		{RankCommon, RankRare, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.a)+"_"+string(tt.b), func(t *testing.T) {
			require.Equal(t, tt.want, TradeCompatible(tt.a, tt.b))
		})
	}
}

func TestParseRank(t *testing.T) {
	r, err := ParseRank(" Legendary ")
	require.NoError(t, err)
	require.Equal(t, RankLegendary, r)

	_, err = ParseRank("epic")
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	rq := require.New(t)

	c, err := New([]CardDefinition{
		{ID: 3, Name: "Kitsune", Rank: RankRare},
		{ID: 1, Name: "Phoenix", Rank: RankMythic, Tags: []string{"fire"}},
		{ID: 2, Name: "Slime", Rank: RankCommon},
	})
	rq.NoError(err)
	rq.Equal(3, c.Len())

	d, ok := c.Lookup(1)
	rq.True(ok)
	rq.Equal("Phoenix", d.Name)

	_, ok = c.Lookup(42)
	rq.False(ok)

	all := c.All()
	rq.Equal(int64(1), all[0].ID)
	rq.Equal(int64(3), all[2].ID)

	all[0].Name = "mutated"
	d, _ = c.Lookup(1)
	rq.Equal("Phoenix", d.Name)

	rq.Len(c.ByRank(RankMythic), 1)
	rq.Empty(c.ByRank(RankLegendary))

	_, err = New([]CardDefinition{{ID: 1, Rank: RankRare}, {ID: 1, Rank: RankRare}})
	rq.Error(err)

	_, err = New([]CardDefinition{{ID: 1, Rank: "epic"}})
	rq.Error(err)
}
