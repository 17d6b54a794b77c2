package catalog

import (
	"fmt"
	"sort"
)

type CardDefinition struct {
	ID    int64
	Name  string
	Rank  Rank
	Image string
	Tags  []string
}

// Catalog is the immutable card reference table. It is built once at startup and
// shared by every engine component; nothing mutates it afterwards.
type Catalog struct {
	byID   map[int64]CardDefinition
	byRank map[Rank][]CardDefinition
	all    []CardDefinition
}

func New(defs []CardDefinition) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[int64]CardDefinition, len(defs)),
		byRank: make(map[Rank][]CardDefinition),
		all:    make([]CardDefinition, 0, len(defs)),
	}

	for _, d := range defs {
		if !d.Rank.Valid() {
			return nil, fmt.Errorf("card %d has invalid rank %q", d.ID, d.Rank)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %d", d.ID)
		}
		d.Tags = append([]string(nil), d.Tags...)
		c.byID[d.ID] = d
		c.all = append(c.all, d)
	}

	sort.Slice(c.all, func(i, j int) bool { return c.all[i].ID < c.all[j].ID })
	for _, d := range c.all {
		c.byRank[d.Rank] = append(c.byRank[d.Rank], d)
	}

	return c, nil
}

func (c *Catalog) Lookup(id int64) (CardDefinition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

func (c *Catalog) Len() int {
	return len(c.all)
}

// All returns every definition ordered by id.
func (c *Catalog) All() []CardDefinition {
	return append([]CardDefinition(nil), c.all...)
}

func (c *Catalog) ByRank(r Rank) []CardDefinition {
	return append([]CardDefinition(nil), c.byRank[r]...)
}

func (c *Catalog) Contains(id int64) bool {
	_, ok := c.byID[id]
	return ok
}
