package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCard is a card document of the legacy bot.
type MongoCard struct {
	ObjectID primitive.ObjectID `bson:"_id,omitempty"`
	ID       int64              `bson:"id"`
	Name     string             `bson:"name"`
	Rank     string             `bson:"rank"`
	// Level is the numeric rarity some older documents carry instead of rank.
	Level int         `bson:"level,omitempty"`
	Image string      `bson:"image"`
	Tags  interface{} `bson:"tags"`
}

// MongoCharacter is a character document. Familiars hold card ids, duplicates included.
type MongoCharacter struct {
	ObjectID     primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	Name         string             `bson:"name"`
	Familiars    []int64            `bson:"familiars"`
	BlessedUntil time.Time          `bson:"blessed_until,omitempty"`
	CreatedAt    time.Time          `bson:"created_at,omitempty"`
}

// MongoUser carries the legacy point balance.
type MongoUser struct {
	ObjectID  primitive.ObjectID `bson:"_id,omitempty"`
	DiscordID string             `bson:"discord_id"`
	Points    int64              `bson:"points"`
}

// TableStats counts what happened to one collection.
type TableStats struct {
	Read     int
	Written  int
	Skipped  int
	Failed   int
	Duration time.Duration
}

type Stats struct {
	StartTime time.Time
	Tables    map[string]*TableStats
}
