package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
)

func TestConvertTags(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"nil", nil, []string{}},
		{"empty string", "", []string{}},
		{"single", "beast", []string{"beast"}},
		{"strings", []string{"a", "b"}, []string{"a", "b"}},
		{"mixed", []interface{}{"a", 3, "", "b"}, []string{"a", "b"}},
		{"other", 42, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertTags(tt.in))
		})
	}
}

func TestConvertCard(t *testing.T) {
	def, err := convertCard(MongoCard{ID: 7, Name: " void_seraph ", Rank: "Mythic", Tags: "angel"})
	require.NoError(t, err)
	assert.Equal(t, catalog.CardDefinition{ID: 7, Name: "void_seraph", Rank: catalog.RankMythic, Tags: []string{"angel"}}, def)

	def, err = convertCard(MongoCard{ID: 8, Name: "ember_fox", Level: 2})
	require.NoError(t, err)
	assert.Equal(t, catalog.RankRare, def.Rank)

	_, err = convertCard(MongoCard{ID: 9, Name: "nameless", Level: 9})
	assert.Error(t, err)

	_, err = convertCard(MongoCard{Name: "no_id", Rank: "common"})
	assert.Error(t, err)
}

func TestConvertCharacter(t *testing.T) {
	cat, err := catalog.New([]catalog.CardDefinition{
		{ID: 1, Name: "ember_fox", Rank: catalog.RankCommon},
		{ID: 2, Name: "frost_wyrm", Rank: catalog.RankLegendary},
	})
	require.NoError(t, err)

	oid := primitive.NewObjectID()
	blessed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, unknown, err := convertCharacter(MongoCharacter{
		ObjectID:     oid,
		UserID:       "42",
		Familiars:    []int64{1, 1, 2, 99},
		BlessedUntil: blessed,
	}, cat)
	require.NoError(t, err)

	assert.Equal(t, oid.Hex(), c.ID)
	assert.Equal(t, "Adventurer", c.Name)
	assert.Equal(t, 2, c.Collection.Count(1))
	assert.Equal(t, 1, c.Collection.Count(2))
	assert.Equal(t, []int64{99}, unknown)
	assert.Equal(t, blessed, c.BlessedUntil)

	_, _, err = convertCharacter(MongoCharacter{ObjectID: oid}, cat)
	assert.Error(t, err)
}
