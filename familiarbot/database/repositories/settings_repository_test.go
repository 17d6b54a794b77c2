package repositories

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/familiars/familiarbot/database/models"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
)

func TestSettingsRepository_DecodeLocationsSkipsInvalidRows(t *testing.T) {
	rq := require.New(t)
	r := NewSettingsRepository(nil, time.Minute)

	loot, err := json.Marshal([]expedition.LootEntry{{ItemID: "herb", Chance: 50, Min: 1, Max: 2}})
	rq.NoError(err)

	rows := []models.HuntingLocation{
		{ID: "bad-loot", Name: "Bad Loot", RequiredRank: "rare", DurationMinutes: 30, Loot: json.RawMessage(`{"not":"a list"}`)},
		{ID: "bad-rank", Name: "Bad Rank", RequiredRank: "shiny", DurationMinutes: 30},
		{ID: "marsh", Name: "Misty Marsh", RequiredRank: "rare", DurationMinutes: 60, Loot: loot},
		{ID: "no-duration", Name: "Instant", RequiredRank: "common"},
		{ID: "meadow", Name: "Meadow", RequiredRank: "common", DurationMinutes: 30},
	}

	got := r.decodeLocations(rows)
	rq.Equal([]expedition.Location{
		{
			ID: "marsh", Name: "Misty Marsh", RequiredRank: catalog.RankRare, DurationMinutes: 60,
			Loot: []expedition.LootEntry{{ItemID: "herb", Chance: 50, Min: 1, Max: 2}},
		},
		{ID: "meadow", Name: "Meadow", RequiredRank: catalog.RankCommon, DurationMinutes: 30},
	}, got)
}
