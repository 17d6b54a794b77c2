package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

const SettingChances = "chances"

type GameSetting struct {
	bun.BaseModel `bun:"table:game_settings,alias:gs"`

	Key       string          `bun:"key,pk"`
	Value     json.RawMessage `bun:"value,type:jsonb,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

type HuntingLocation struct {
	bun.BaseModel `bun:"table:hunting_locations,alias:hl"`

	ID              string          `bun:"id,pk"`
	Name            string          `bun:"name,notnull"`
	RequiredRank    string          `bun:"required_rank,notnull"`
	DurationMinutes int             `bun:"duration_minutes,notnull"`
	Loot            json.RawMessage `bun:"loot,type:jsonb"`
	CreatedAt       time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}

// Item names the things loot tables can grant.
type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ID   string `bun:"id,pk"`
	Name string `bun:"name,notnull"`
}
