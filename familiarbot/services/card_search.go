package services

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
)

// cardNames implements fuzzy.Source over the catalog in id order
type cardNames []catalog.CardDefinition

func (c cardNames) String(i int) string {
	return normalize(c[i].Name)
}

func (c cardNames) Len() int {
	return len(c)
}

// CardSearch resolves free-text card references from command options. Results per
// normalized query are cached; the catalog never changes while the bot runs.
type CardSearch struct {
	catalog *catalog.Catalog
	cards   cardNames
	cache   *lru.Cache
}

func NewCardSearch(cat *catalog.Catalog, cacheSize int) (*CardSearch, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &CardSearch{
		catalog: cat,
		cards:   cardNames(cat.All()),
		cache:   cache,
	}, nil
}

// Search returns cards whose names fuzzily match query, best match first.
// An empty query matches every card in id order.
func (s *CardSearch) Search(query string) []catalog.CardDefinition {
	query = normalize(query)
	if query == "" {
		return append([]catalog.CardDefinition(nil), s.cards...)
	}
	if cached, ok := s.cache.Get(query); ok {
		return append([]catalog.CardDefinition(nil), cached.([]catalog.CardDefinition)...)
	}

	matches := fuzzy.FindFrom(query, s.cards)
	out := make([]catalog.CardDefinition, len(matches))
	for i, m := range matches {
		out[i] = s.cards[m.Index]
	}

	s.cache.Add(query, out)
	return append([]catalog.CardDefinition(nil), out...)
}

// Filter is Search restricted to cards allowed accepts, capped at limit.
func (s *CardSearch) Filter(query string, allowed func(catalog.CardDefinition) bool, limit int) []catalog.CardDefinition {
	var out []catalog.CardDefinition
	for _, def := range s.Search(query) {
		if limit > 0 && len(out) >= limit {
			break
		}
		if allowed == nil || allowed(def) {
			out = append(out, def)
		}
	}
	return out
}

// Resolve maps a card id, an exact name or a fuzzy name to one card.
func (s *CardSearch) Resolve(query string) (catalog.CardDefinition, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return catalog.CardDefinition{}, gameerr.ErrInvalidInput.Withf("card name is required")
	}

	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		if def, ok := s.catalog.Lookup(id); ok {
			return def, nil
		}
	}

	normalized := normalize(query)
	for _, def := range s.cards {
		if normalize(def.Name) == normalized {
			return def, nil
		}
	}

	if matches := s.Search(query); len(matches) > 0 {
		return matches[0], nil
	}
	return catalog.CardDefinition{}, gameerr.ErrCardNotFound.Withf("no card matches %q", query)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
