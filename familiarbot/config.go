package familiarbot

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"

	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/database"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/expedition"
	"github.com/ellavondegurechaff/familiars/internal/domain/gacha"
)

const envPrefix = "FAMILIARS_"

// LoadConfig reads the TOML file at path, applies FAMILIARS_* environment overrides
// (a .env file next to the binary is loaded first when present) and validates the result.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := defaultConfig()
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err = env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{Level: slog.LevelInfo},
		Game: GameConfig{
			DrawCost:             config.DefaultDrawCost,
			BlessedDrawCost:      config.DefaultBlessedDrawCost,
			HuntCap:              expedition.DefaultHuntCap,
			Storage:              StoragePostgres,
			LockMode:             LockLocal,
			SettingsCacheSeconds: int(config.DefaultSettingsCacheTTL / time.Second),
			Chances:              gacha.DefaultChances(),
		},
	}
}

type Config struct {
	Log    LogConfig         `toml:"log" envPrefix:"LOG_"`
	Bot    BotConfig         `toml:"bot" envPrefix:"BOT_"`
	DB     database.DBConfig `toml:"db" envPrefix:"DB_"`
	Redis  RedisConfig       `toml:"redis" envPrefix:"REDIS_"`
	Spaces SpacesConfig      `toml:"spaces" envPrefix:"SPACES_"`
	Ops    OpsConfig         `toml:"ops" envPrefix:"OPS_"`
	Game   GameConfig        `toml:"game" envPrefix:"GAME_"`
}

type BotConfig struct {
	DevGuilds  []snowflake.ID `toml:"dev_guilds"`
	Token      string         `toml:"token" env:"TOKEN" validate:"required"`
	AdminIDs   []snowflake.ID `toml:"admin_ids"`
	AdminRoles []snowflake.ID `toml:"admin_roles"`
}

// IsAdmin reports whether a member with the given user id and roles may run admin commands.
func (c BotConfig) IsAdmin(userID snowflake.ID, roles []snowflake.ID) bool {
	return lo.Contains(c.AdminIDs, userID) || lo.Some(c.AdminRoles, roles)
}

type LogConfig struct {
	Level     slog.Level `toml:"level" env:"LEVEL"`
	Format    string     `toml:"format" env:"FORMAT" validate:"omitempty,oneof=text json"`
	AddSource bool       `toml:"add_source" env:"ADD_SOURCE"`
}

type RedisConfig struct {
	Address        string `toml:"address" env:"ADDRESS"`
	Username       string `toml:"username" env:"USERNAME"`
	Password       string `toml:"password" env:"PASSWORD"`
	DB             int    `toml:"db" env:"DB" validate:"gte=0"`
	PoolSize       int    `toml:"pool_size" env:"POOL_SIZE" validate:"gte=0"`
	LockTTLSeconds int    `toml:"lock_ttl_seconds" env:"LOCK_TTL_SECONDS" validate:"gte=0"`
	LockPrefix     string `toml:"lock_prefix" env:"LOCK_PREFIX"`
}

func (c RedisConfig) LockTTL() time.Duration {
	if c.LockTTLSeconds <= 0 {
		return config.DefaultRedisLockTTL
	}
	return time.Duration(c.LockTTLSeconds) * time.Second
}

type SpacesConfig struct {
	Key      string `toml:"key" env:"KEY"`
	Secret   string `toml:"secret" env:"SECRET"`
	Region   string `toml:"region" env:"REGION"`
	Bucket   string `toml:"bucket" env:"BUCKET"`
	CardRoot string `toml:"cardroot" env:"CARD_ROOT"`
}

func (c SpacesConfig) Enabled() bool {
	return c.Key != "" && c.Secret != "" && c.Bucket != "" && c.Region != ""
}

type OpsConfig struct {
	ListenAddress string `toml:"listen_address" env:"LISTEN_ADDRESS"`
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	LockLocal = "local"
	LockRedis = "redis"
)

type GameConfig struct {
	DrawCost             int64  `toml:"draw_cost" env:"DRAW_COST" validate:"gte=0"`
	BlessedDrawCost      int64  `toml:"blessed_draw_cost" env:"BLESSED_DRAW_COST" validate:"gte=0"`
	HuntCap              int    `toml:"hunt_cap" env:"HUNT_CAP" validate:"gt=0"`
	Storage              string `toml:"storage" env:"STORAGE" validate:"oneof=postgres memory"`
	LockMode             string `toml:"lock_mode" env:"LOCK_MODE" validate:"oneof=local redis"`
	SettingsCacheSeconds int    `toml:"settings_cache_seconds" env:"SETTINGS_CACHE_SECONDS" validate:"gte=0"`
	StartingPoints       int64  `toml:"starting_points" env:"STARTING_POINTS" validate:"gte=0"`

	// Seeds written to the database when absent, or served directly by the memory storage.
	Chances   gacha.Chances         `toml:"chances"`
	Locations []expedition.Location `toml:"locations" validate:"dive"`
	Cards     []CardSeed            `toml:"cards" validate:"dive"`
}

func (c GameConfig) SettingsCacheTTL() time.Duration {
	return time.Duration(c.SettingsCacheSeconds) * time.Second
}

type CardSeed struct {
	ID    int64    `toml:"id" validate:"gt=0"`
	Name  string   `toml:"name" validate:"required"`
	Rank  string   `toml:"rank" validate:"required"`
	Image string   `toml:"image"`
	Tags  []string `toml:"tags"`
}

// Definitions converts the seeds into catalog definitions.
func (c GameConfig) Definitions() ([]catalog.CardDefinition, error) {
	defs := make([]catalog.CardDefinition, 0, len(c.Cards))
	for _, seed := range c.Cards {
		rank, err := catalog.ParseRank(seed.Rank)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", seed.ID, err)
		}
		defs = append(defs, catalog.CardDefinition{
			ID:    seed.ID,
			Name:  seed.Name,
			Rank:  rank,
			Image: seed.Image,
			Tags:  seed.Tags,
		})
	}
	return defs, nil
}

func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c.Bot); err != nil {
		return fmt.Errorf("invalid bot config: %w", err)
	}
	if err := v.Struct(c.Log); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	if err := v.Struct(c.Game); err != nil {
		return fmt.Errorf("invalid game config: %w", err)
	}
	if err := c.Game.Chances.Validate(); err != nil {
		return fmt.Errorf("invalid game config: %w", err)
	}
	for _, loc := range c.Game.Locations {
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("invalid game config: %w", err)
		}
	}
	if _, err := c.Game.Definitions(); err != nil {
		return fmt.Errorf("invalid game config: %w", err)
	}

	if c.Game.Storage == StoragePostgres {
		if err := v.Struct(c.DB); err != nil {
			return fmt.Errorf("invalid db config: %w", err)
		}
	}
	if c.Game.LockMode == LockRedis && c.Redis.Address == "" {
		return errors.New("invalid redis config: address is required when game.lock_mode is redis")
	}
	return nil
}
