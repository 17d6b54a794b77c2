package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
)

func testSearch(t *testing.T) *CardSearch {
	t.Helper()
	cat, err := catalog.New([]catalog.CardDefinition{
		{ID: 1, Name: "Ember Fox", Rank: catalog.RankCommon},
		{ID: 2, Name: "Frost Wyrm", Rank: catalog.RankLegendary},
		{ID: 3, Name: "Emberling", Rank: catalog.RankRare},
		{ID: 4, Name: "Void Seraph", Rank: catalog.RankMythic},
	})
	require.NoError(t, err)
	s, err := NewCardSearch(cat, 16)
	require.NoError(t, err)
	return s
}

func TestCardSearch_Resolve(t *testing.T) {
	s := testSearch(t)

	tests := []struct {
		name    string
		query   string
		wantID  int64
		wantErr error
	}{
		{name: "by id", query: "2", wantID: 2},
		{name: "exact name any case", query: "  ember   FOX ", wantID: 1},
		{name: "fuzzy", query: "vdsrph", wantID: 4},
		{name: "unknown", query: "zzzz", wantErr: gameerr.ErrCardNotFound},
		{name: "empty", query: " ", wantErr: gameerr.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := s.Resolve(tt.query)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, def.ID)
		})
	}
}

func TestCardSearch_SearchAndFilter(t *testing.T) {
	s := testSearch(t)

	require.Len(t, s.Search(""), 4)

	first := s.Search("ember")
	require.Len(t, first, 2)
	// cached results are copies
	first[0] = catalog.CardDefinition{}
	again := s.Search("ember")
	require.NotZero(t, again[0].ID)

	rare := s.Filter("", func(d catalog.CardDefinition) bool { return d.Rank != catalog.RankCommon }, 2)
	require.Len(t, rare, 2)
	require.Equal(t, int64(2), rare[0].ID)
}
