package migration

import (
	"fmt"
	"strings"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

// levelRanks maps the numeric rarity of old card documents onto ranks.
var levelRanks = map[int]catalog.Rank{
	1: catalog.RankCommon,
	2: catalog.RankRare,
	3: catalog.RankLegendary,
	4: catalog.RankMythic,
	5: catalog.RankEvent,
}

func convertTags(rawTags interface{}) []string {
	if rawTags == nil {
		return []string{}
	}

	switch v := rawTags.(type) {
	case string:
		if v == "" {
			return []string{}
		}
		return []string{v}
	case []string:
		return v
	case []interface{}:
		tags := make([]string, 0, len(v))
		for _, tag := range v {
			if str, ok := tag.(string); ok && str != "" {
				tags = append(tags, str)
			}
		}
		return tags
	default:
		return []string{}
	}
}

func convertCard(mc MongoCard) (catalog.CardDefinition, error) {
	if mc.ID <= 0 {
		return catalog.CardDefinition{}, fmt.Errorf("card %q has no numeric id", mc.Name)
	}
	if strings.TrimSpace(mc.Name) == "" {
		return catalog.CardDefinition{}, fmt.Errorf("card %d has no name", mc.ID)
	}

	rank, err := catalog.ParseRank(mc.Rank)
	if err != nil {
		r, ok := levelRanks[mc.Level]
		if !ok {
			return catalog.CardDefinition{}, fmt.Errorf("card %d: %w", mc.ID, err)
		}
		rank = r
	}

	return catalog.CardDefinition{
		ID:    mc.ID,
		Name:  strings.TrimSpace(mc.Name),
		Rank:  rank,
		Image: mc.Image,
		Tags:  convertTags(mc.Tags),
	}, nil
}

// convertCharacter builds a character from a legacy document. Familiars that are not in
// the catalog are returned separately so the caller can report them.
func convertCharacter(mc MongoCharacter, cat *catalog.Catalog) (*ownership.Character, []int64, error) {
	if mc.UserID == "" {
		return nil, nil, fmt.Errorf("character %s has no user id", mc.ObjectID.Hex())
	}

	name := strings.TrimSpace(mc.Name)
	if name == "" {
		name = "Adventurer"
	}

	c := &ownership.Character{
		ID:           mc.ObjectID.Hex(),
		UserID:       mc.UserID,
		Name:         name,
		BlessedUntil: mc.BlessedUntil,
	}

	var unknown []int64
	for _, id := range mc.Familiars {
		if !cat.Contains(id) {
			unknown = append(unknown, id)
			continue
		}
		c.Collection = c.Collection.Add(id)
	}
	return c, unknown, nil
}
