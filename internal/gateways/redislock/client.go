package redislock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Address  string
	Username string
	Password string
	DB       int
	PoolSize int
}

// NewClient connects and pings so a bad address fails at startup, not on the first draw.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Network:  "tcp",
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}

	slog.Info("Redis connected",
		slog.String("type", "sys"),
		slog.String("address", cfg.Address),
		slog.Int("database", cfg.DB))
	return client, nil
}
