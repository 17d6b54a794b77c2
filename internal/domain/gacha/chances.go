package gacha

import (
	"fmt"

	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
)

type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeBlessed Mode = "blessed"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNormal, ModeBlessed:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown draw mode %q", s)
}

// Table holds percentages for the weighted ranks. Common takes whatever is left.
type Table struct {
	Mythic    float64 `json:"mythic" toml:"mythic" validate:"gte=0,lte=100"`
	Legendary float64 `json:"legendary" toml:"legendary" validate:"gte=0,lte=100"`
	Rare      float64 `json:"rare" toml:"rare" validate:"gte=0,lte=100"`
}

func (t Table) Common() float64 {
	return 100 - t.Mythic - t.Legendary - t.Rare
}

func (t Table) Validate() error {
	for _, p := range []float64{t.Mythic, t.Legendary, t.Rare} {
		if p < 0 || p > 100 {
			return fmt.Errorf("percentage %v out of range [0, 100]", p)
		}
	}
	if sum := t.Mythic + t.Legendary + t.Rare; sum > 100 {
		return fmt.Errorf("mythic+legendary+rare = %v exceeds 100", sum)
	}
	return nil
}

// Select maps a roll in [0, 100) to a rank, walking the cumulative table rarest first.
func (t Table) Select(roll float64) catalog.Rank {
	cumulative := 0.0
	for _, step := range []struct {
		rank catalog.Rank
		pct  float64
	}{
		{catalog.RankMythic, t.Mythic},
		{catalog.RankLegendary, t.Legendary},
		{catalog.RankRare, t.Rare},
	} {
		cumulative += step.pct
		if roll < cumulative {
			return step.rank
		}
	}
	return catalog.RankCommon
}

type Chances struct {
	Normal  Table `json:"normal" toml:"normal"`
	Blessed Table `json:"blessed" toml:"blessed"`
}

func (c Chances) Validate() error {
	if err := c.Normal.Validate(); err != nil {
		return fmt.Errorf("normal chances: %w", err)
	}
	if err := c.Blessed.Validate(); err != nil {
		return fmt.Errorf("blessed chances: %w", err)
	}
	return nil
}

func (c Chances) Table(m Mode) Table {
	if m == ModeBlessed {
		return c.Blessed
	}
	return c.Normal
}

// DefaultChances mirrors the rates the community used before they became configurable.
func DefaultChances() Chances {
	return Chances{
		Normal:  Table{Mythic: 1, Legendary: 5, Rare: 20},
		Blessed: Table{Mythic: 3, Legendary: 10, Rare: 30},
	}
}
