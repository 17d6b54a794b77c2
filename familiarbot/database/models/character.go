package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Character struct {
	bun.BaseModel `bun:"table:characters,alias:ch"`

	ID           string    `bun:"id,pk"`
	UserID       string    `bun:"user_id,notnull"`
	Name         string    `bun:"name,notnull"`
	BlessedUntil time.Time `bun:"blessed_until,nullzero"`
	Version      int64     `bun:"version,notnull,default:1"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// CharacterCard is one owned instance. Position keeps the collection order,
// which is the only identity an instance has.
type CharacterCard struct {
	bun.BaseModel `bun:"table:character_cards,alias:cc"`

	ID          int64  `bun:"id,pk,autoincrement"`
	CharacterID string `bun:"character_id,notnull"`
	Position    int    `bun:"position,notnull"`
	CardID      int64  `bun:"card_id,notnull"`
}

type Hunt struct {
	bun.BaseModel `bun:"table:hunts,alias:h"`

	ID          string    `bun:"id,pk"`
	CharacterID string    `bun:"character_id,notnull"`
	FamiliarID  int64     `bun:"familiar_id,notnull"`
	LocationID  string    `bun:"location_id,notnull"`
	StartedAt   time.Time `bun:"started_at,notnull"`
	EndsAt      time.Time `bun:"ends_at,notnull"`
}

type CharacterItem struct {
	bun.BaseModel `bun:"table:character_items,alias:ci"`

	CharacterID string    `bun:"character_id,pk"`
	ItemID      string    `bun:"item_id,pk"`
	Quantity    int       `bun:"quantity,notnull,default:0"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
