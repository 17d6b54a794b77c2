package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TradeRequest struct {
	bun.BaseModel `bun:"table:trade_requests,alias:tr"`

	ID                   string    `bun:"id,pk"`
	Status               string    `bun:"status,notnull"`
	InitiatorUserID      string    `bun:"initiator_user_id,notnull"`
	InitiatorCharacterID string    `bun:"initiator_character_id,notnull"`
	InitiatorCardID      int64     `bun:"initiator_card_id,notnull"`
	TargetUserID         string    `bun:"target_user_id,notnull"`
	TargetCharacterID    string    `bun:"target_character_id,notnull"`
	TargetCardID         int64     `bun:"target_card_id,notnull"`
	CreatedAt            time.Time `bun:"created_at,notnull"`
	ResolvedAt           time.Time `bun:"resolved_at,nullzero"`
}
