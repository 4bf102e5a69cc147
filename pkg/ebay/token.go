package ebay

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshSkew is how long before expiry a cached token is considered
// stale. A token is never handed out past (or within skew of) expiry.
const refreshSkew = 30 * time.Second

// tokenCache holds one bearer token and refreshes it on demand.
// Concurrent readers share the cached value; concurrent refreshes
// collapse into a single upstream fetch via singleflight.
type tokenCache struct {
	mu        sync.RWMutex
	value     string
	expiresAt time.Time

	group singleflight.Group
	fetch func(ctx context.Context) (string, time.Time, error)
}

func newTokenCache(fetch func(ctx context.Context) (string, time.Time, error)) *tokenCache {
	return &tokenCache{fetch: fetch}
}

func (t *tokenCache) get(ctx context.Context) (string, error) {
	t.mu.RLock()
	value, expiresAt := t.value, t.expiresAt
	t.mu.RUnlock()

	if value != "" && time.Now().Add(refreshSkew).Before(expiresAt) {
		return value, nil
	}

	fresh, err, _ := t.group.Do("token", func() (any, error) {
		// Another waiter may have refreshed while we queued.
		t.mu.RLock()
		value, expiresAt := t.value, t.expiresAt
		t.mu.RUnlock()
		if value != "" && time.Now().Add(refreshSkew).Before(expiresAt) {
			return value, nil
		}

		token, expiry, err := t.fetch(ctx)
		if err != nil {
			return "", err
		}

		t.mu.Lock()
		t.value, t.expiresAt = token, expiry
		t.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return fresh.(string), nil
}
