package memory

import (
	"context"

	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/domain/gacha"
)

// Settings serves fixed game settings, usually the ones seeded from the config file.
type Settings struct {
	chances   gacha.Chances
	locations []expedition.Location
}

var _ familiars.Settings = (*Settings)(nil)

func NewSettings(chances gacha.Chances, locations []expedition.Location) *Settings {
	return &Settings{chances: chances, locations: locations}
}

func (s *Settings) Chances(context.Context) (gacha.Chances, error) {
	return s.chances, nil
}

func (s *Settings) Locations(context.Context) ([]expedition.Location, error) {
	return append([]expedition.Location(nil), s.locations...), nil
}
