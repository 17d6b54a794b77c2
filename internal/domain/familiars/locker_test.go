package familiars

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "character:a", "character:b")
			require.NoError(t, err)
			defer unlock()

			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxSeen)
	require.Empty(t, l.locks, "released keys must be dropped")
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	l := NewLocalLocker()

	unlock, err := l.Lock(context.Background(), "trade:x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "character:y", "trade:x")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// the partially acquired key was released
	again, err := l.Lock(context.Background(), "character:y")
	require.NoError(t, err)
	again()

	unlock()
	unlock()
	require.Empty(t, l.locks)
}

func TestSortKeys(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, SortKeys([]string{"c", "a", "b", "a"}))
}
