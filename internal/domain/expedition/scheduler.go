package expedition

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/gameerr"
	"github.com/ellavondegurechaff/familiars/internal/domain/ownership"
)

const DefaultHuntCap = 10

// Reward is what a single claimed hunt produced. Items may be empty. Orphaned marks a hunt
// whose location was removed while it ran; it comes back empty-handed.
type Reward struct {
	Hunt     ownership.Hunt
	Items    []Item
	Orphaned bool
}

// ClaimAllResult aggregates every due hunt.
type ClaimAllResult struct {
	Rewards []Reward
	Items   []Item
}

// Scheduler decides hunt transitions over a character snapshot. It never persists anything;
// each method returns the next state of the character for the caller to save.
type Scheduler struct {
	catalog   *catalog.Catalog
	locations map[string]Location
	huntCap   int
	rng       Roller
	newID     func() string
}

// NewScheduler builds a scheduler over the valid locations. Invalid ones are left out, so
// starting there fails with LocationNotFound and hunts already there return empty-handed.
func NewScheduler(cat *catalog.Catalog, locations []Location, huntCap int, rng Roller, newID func() string) *Scheduler {
	if huntCap <= 0 {
		huntCap = DefaultHuntCap
	}
	byID := make(map[string]Location, len(locations))
	for _, l := range locations {
		if l.Validate() != nil {
			continue
		}
		byID[l.ID] = l
	}
	return &Scheduler{
		catalog:   cat,
		locations: byID,
		huntCap:   huntCap,
		rng:       rng,
		newID:     newID,
	}
}

func (s *Scheduler) Location(id string) (Location, bool) {
	l, ok := s.locations[id]
	return l, ok
}

// Locations returns every configured location ordered by id.
func (s *Scheduler) Locations() []Location {
	out := lo.Values(s.locations)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Scheduler) Cap() int {
	return s.huntCap
}

// Start sends one free instance of familiarID to locationID.
func (s *Scheduler) Start(c *ownership.Character, familiarID int64, locationID string, now time.Time) (*ownership.Character, ownership.Hunt, error) {
	loc, ok := s.locations[locationID]
	if !ok {
		return nil, ownership.Hunt{}, gameerr.ErrLocationNotFound.Withf("location %q does not exist", locationID)
	}
	card, ok := s.catalog.Lookup(familiarID)
	if !ok {
		return nil, ownership.Hunt{}, gameerr.ErrCardNotFound.Withf("card %d does not exist", familiarID)
	}
	if !c.Collection.Has(familiarID) {
		return nil, ownership.Hunt{}, gameerr.ErrCardNotOwned.Withf("%s does not own %s", c.Name, card.Name)
	}
	if !card.Rank.Satisfies(loc.RequiredRank) {
		return nil, ownership.Hunt{}, gameerr.ErrInsufficientRank.Withf("%s needs a %s familiar or better, %s is %s",
			loc.Name, loc.RequiredRank, card.Name, card.Rank)
	}
	if c.FreeCount(familiarID) < 1 {
		return nil, ownership.Hunt{}, gameerr.ErrFamiliarBusy.Withf("every copy of %s is already hunting", card.Name)
	}
	active := lo.CountBy(c.Hunts, func(h ownership.Hunt) bool { return h.LocationID == locationID })
	if active >= s.huntCap {
		return nil, ownership.Hunt{}, gameerr.ErrHuntCapReached.Withf("%s already has %d hunts at %s", c.Name, active, loc.Name)
	}

	hunt := ownership.Hunt{
		ID:         s.newID(),
		FamiliarID: familiarID,
		LocationID: locationID,
		StartedAt:  now,
		EndsAt:     now.Add(loc.Duration()),
	}
	next := c.Clone()
	next.Hunts = append(next.Hunts, hunt)
	return next, hunt, nil
}

// Claim rolls the loot of a finished hunt and removes it. A second claim finds nothing.
func (s *Scheduler) Claim(c *ownership.Character, huntID string, now time.Time) (*ownership.Character, Reward, error) {
	hunt, idx, ok := c.Hunt(huntID)
	if !ok {
		return nil, Reward{}, gameerr.ErrHuntNotFound.Withf("no expedition %s on %s", huntID, c.Name)
	}
	if !hunt.Due(now) {
		return nil, Reward{}, gameerr.ErrNotReady.Withf("expedition %s returns in %s", hunt.ID, hunt.EndsAt.Sub(now).Round(time.Second))
	}
	reward := s.reward(hunt)
	next := c.Clone()
	next.Hunts = removeAt(next.Hunts, idx)
	return next, reward, nil
}

// Recall ends a hunt early with no reward. Once the deadline has passed the hunt must be
// claimed instead.
func (s *Scheduler) Recall(c *ownership.Character, huntID string, now time.Time) (*ownership.Character, ownership.Hunt, error) {
	hunt, idx, ok := c.Hunt(huntID)
	if !ok {
		return nil, ownership.Hunt{}, gameerr.ErrHuntNotFound.Withf("no expedition %s on %s", huntID, c.Name)
	}
	if hunt.Due(now) {
		return nil, ownership.Hunt{}, gameerr.ErrHuntFinished
	}
	next := c.Clone()
	next.Hunts = removeAt(next.Hunts, idx)
	return next, hunt, nil
}

// ClaimAll claims every due hunt and leaves the running ones in place.
func (s *Scheduler) ClaimAll(c *ownership.Character, now time.Time) (*ownership.Character, ClaimAllResult) {
	var res ClaimAllResult
	next := c.Clone()
	next.Hunts = next.Hunts[:0:0]

	for _, h := range c.Hunts {
		if !h.Due(now) {
			next.Hunts = append(next.Hunts, h)
			continue
		}
		reward := s.reward(h)
		res.Rewards = append(res.Rewards, reward)
		res.Items = MergeItems(res.Items, reward.Items)
	}
	return next, res
}

func (s *Scheduler) reward(h ownership.Hunt) Reward {
	loc, ok := s.locations[h.LocationID]
	if !ok {
		return Reward{Hunt: h, Orphaned: true}
	}
	return Reward{Hunt: h, Items: RollLoot(loc.Loot, s.rng)}
}

func removeAt(hunts []ownership.Hunt, idx int) []ownership.Hunt {
	out := make([]ownership.Hunt, 0, len(hunts)-1)
	out = append(out, hunts[:idx]...)
	return append(out, hunts[idx+1:]...)
}
