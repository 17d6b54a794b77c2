package redislock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// These tests need a disposable Redis, e.g. FAMILIARS_TEST_REDIS=localhost:6379.
func testLocker(t *testing.T) *Locker {
	t.Helper()
	addr := os.Getenv("FAMILIARS_TEST_REDIS")
	if addr == "" {
		t.Skip("FAMILIARS_TEST_REDIS not set")
	}
	client, err := NewClient(context.Background(), Config{Address: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "familiars-test:"+t.Name()+":", time.Second)
}

func TestLocker_Exclusive(t *testing.T) {
	l := testLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "character:a", "character:b")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, "character:b")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	again, err := l.Lock(ctx, "character:b")
	require.NoError(t, err)
	again()
}

func TestLocker_LeaseExpires(t *testing.T) {
	l := testLocker(t)
	ctx := context.Background()

	_, err := l.Lock(ctx, "character:crashed")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	unlock, err := l.Lock(waitCtx, "character:crashed")
	require.NoError(t, err)
	unlock()
}
