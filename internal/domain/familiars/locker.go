package familiars

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// LocalLocker is a per-key mutex for a single bot process. Entries are reference counted
// and dropped once nobody holds or waits for them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

// Lock acquires every key in sorted order so two callers locking overlapping sets cannot
// deadlock. On failure nothing stays held.
func (l *LocalLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = SortKeys(keys)

	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}

	for _, key := range keys {
		if err := l.lock(ctx, key); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *LocalLocker) lock(ctx context.Context, key string) error {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(key, kl)
		return ctx.Err()
	}
}

func (l *LocalLocker) unlock(key string) {
	l.mu.Lock()
	kl := l.locks[key]
	l.mu.Unlock()

	<-kl.ch
	l.release(key, kl)
}

func (l *LocalLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// SortKeys returns the distinct keys in lock order.
func SortKeys(keys []string) []string {
	out := lo.Uniq(keys)
	sort.Strings(out)
	return out
}

func characterKey(id string) string {
	return "character:" + id
}

func tradeKey(id string) string {
	return "trade:" + id
}

func userKey(id string) string {
	return "user:" + id
}
