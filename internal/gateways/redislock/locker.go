package redislock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
)

const (
	defaultTTL   = 15 * time.Second
	retryBackoff = 25 * time.Millisecond
)

// release deletes the key only if this holder still owns it.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a lease-based lock shared by every bot replica using the same Redis.
// Leases expire after ttl so a crashed holder cannot block a character forever.
type Locker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ familiars.Locker = (*Locker)(nil)

func New(client *redis.Client, prefix string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Locker{client: client, prefix: prefix, ttl: ttl}
}

func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	token := xid.New().String()
	keys = familiars.SortKeys(keys)

	held := make([]string, 0, len(keys))
	unlock := func() {
		// the caller's context may already be done
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := release.Run(ctx, l.client, []string{held[i]}, token).Err(); err != nil {
				slog.Error("Failed to release lock",
					slog.String("type", "sys"),
					slog.String("key", held[i]),
					slog.Any("error", err))
			}
		}
	}

	for _, key := range keys {
		full := l.prefix + key
		if err := l.acquire(ctx, full, token); err != nil {
			unlock()
			return nil, err
		}
		held = append(held, full)
	}
	return unlock, nil
}

func (l *Locker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(retryBackoff)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Ping reports whether the lock backend is reachable.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
