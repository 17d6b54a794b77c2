package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

func TestPickCharacter(t *testing.T) {
	aria := &ownership.Character{ID: "c1", Name: "Aria"}
	bram := &ownership.Character{ID: "c2", Name: "Bram"}

	t.Run("no characters", func(t *testing.T) {
		_, err := pickCharacter(nil, "")
		assert.ErrorIs(t, err, gameerr.ErrCharacterNotFound)
	})

	t.Run("single character is implicit", func(t *testing.T) {
		c, err := pickCharacter([]*ownership.Character{aria}, "")
		require.NoError(t, err)
		assert.Equal(t, "c1", c.ID)
	})

	t.Run("several characters need a choice", func(t *testing.T) {
		_, err := pickCharacter([]*ownership.Character{aria, bram}, "  ")
		assert.ErrorIs(t, err, gameerr.ErrInvalidInput)
	})

	t.Run("by id", func(t *testing.T) {
		c, err := pickCharacter([]*ownership.Character{aria, bram}, "c2")
		require.NoError(t, err)
		assert.Equal(t, "Bram", c.Name)
	})

	t.Run("by name ignoring case", func(t *testing.T) {
		c, err := pickCharacter([]*ownership.Character{aria, bram}, "aRIA")
		require.NoError(t, err)
		assert.Equal(t, "c1", c.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := pickCharacter([]*ownership.Character{aria, bram}, "Cato")
		assert.ErrorIs(t, err, gameerr.ErrCharacterNotFound)
	})
}

func TestPaging(t *testing.T) {
	assert.Equal(t, 1, pageCount(0, 10))
	assert.Equal(t, 1, pageCount(10, 10))
	assert.Equal(t, 2, pageCount(11, 10))

	start, end := pageBounds(1, 10, 15)
	assert.Equal(t, 10, start)
	assert.Equal(t, 15, end)

	start, end = pageBounds(3, 10, 15)
	assert.Equal(t, 15, start)
	assert.Equal(t, 15, end)
}

func TestCollectionEntries(t *testing.T) {
	cat, err := catalog.New([]catalog.CardDefinition{
		{ID: 1, Name: "ember_fox", Rank: catalog.RankCommon},
		{ID: 2, Name: "frost_wyrm", Rank: catalog.RankLegendary},
		{ID: 3, Name: "void_seraph", Rank: catalog.RankMythic},
	})
	require.NoError(t, err)

	c := &ownership.Character{
		ID:         "c1",
		Collection: ownership.Collection{1, 1, 2, 3},
		Hunts:      []ownership.Hunt{{ID: "h1", FamiliarID: 1}},
	}

	entries := collectionEntries(cat, c, "", nil)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[0].Card.ID)
	assert.Equal(t, int64(2), entries[1].Card.ID)
	assert.Equal(t, familiarEntry{Card: entries[2].Card, Count: 2, Busy: 1}, entries[2])

	entries = collectionEntries(cat, c, catalog.RankLegendary, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].Card.ID)

	entries = collectionEntries(cat, c, "", map[int64]struct{}{1: {}})
	require.Len(t, entries, 1)
	assert.Equal(t, "ember_fox", entries[0].Card.Name)
}

func TestRankLabel(t *testing.T) {
	assert.Equal(t, "Mythic", rankLabel(catalog.RankMythic))
	assert.Equal(t, "?", rankLabel(""))
}
