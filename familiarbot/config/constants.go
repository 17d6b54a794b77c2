package config

import "time"

// UI and Display Constants
const (
	FamiliarsPerPage = 10
	TradesPerPage    = 5
	LedgerPageSize   = 10
	MaxAutocomplete  = 25

	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	EmbedDefaultColor = 0x2B2D31

	RankCommonColor    = 0x808080
	RankRareColor      = 0x0000FF
	RankLegendaryColor = 0xFFD700
	RankMythicColor    = 0x800080
	RankEventColor     = 0xFF69B4
)

// Database and Performance Constants
const (
	DefaultQueryTimeout     = 30 * time.Second
	BatchQueryTimeout       = 30 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	ShutdownTimeout         = 10 * time.Second

	DefaultSettingsCacheTTL = 5 * time.Minute
	SearchCacheSize         = 512

	DefaultBatchSize     = 500
	ImageVerifyWorkers   = 8
	DefaultRedisLockTTL  = 15 * time.Second
	DefaultRedisLockPath = "familiars:lock:"
)

// Game defaults, used when the config file leaves a value out
const (
	DefaultDrawCost        = 100
	DefaultBlessedDrawCost = 150
	DefaultBlessingHours   = 24
	MaxBlessingHours       = 24 * 30
)
