package catalog

import (
	"fmt"
	"strings"
)

type Rank string

const (
	RankMythic    Rank = "mythic"
	RankEvent     Rank = "event"
	RankLegendary Rank = "legendary"
	RankRare      Rank = "rare"
	RankCommon    Rank = "common"
)

// DrawOrder lists the ranks that carry draw percentages, rarest first.
// Event cards have no draw weight and are only reachable through the uniform fallback.
var DrawOrder = []Rank{RankMythic, RankLegendary, RankRare, RankCommon}

var AllRanks = []Rank{RankMythic, RankEvent, RankLegendary, RankRare, RankCommon}

func ParseRank(s string) (Rank, error) {
	r := Rank(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown rank %q", s)
	}
	return r, nil
}

func (r Rank) Valid() bool {
	switch r {
	case RankMythic, RankEvent, RankLegendary, RankRare, RankCommon:
		return true
	}
	return false
}

// Tier orders ranks for comparisons. Event shares the mythic tier.
func (r Rank) Tier() int {
	switch r {
	case RankMythic, RankEvent:
		return 4
	case RankLegendary:
		return 3
	case RankRare:
		return 2
	case RankCommon:
		return 1
	}
	return 0
}

// Satisfies reports whether a familiar of rank r meets a minimum rank requirement.
func (r Rank) Satisfies(required Rank) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.Tier() >= required.Tier()
}

// TradeCompatible reports whether cards of ranks a and b may be swapped:
// equal ranks, or the mythic/event bridge in either direction.
func TradeCompatible(a, b Rank) bool {
	if a == b {
		return a.Valid()
	}
	bridge := func(x, y Rank) bool { return x == RankMythic && y == RankEvent }
	return bridge(a, b) || bridge(b, a)
}

func (r Rank) String() string {
	return string(r)
}

// Stars is the display weight used in embeds.
func (r Rank) Stars() int {
	if r == RankEvent {
		return 5
	}
	return r.Tier() + 1
}
