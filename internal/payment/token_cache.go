package payment

import (
	"sync"
	"time"
)

// TokenCache memoizes the processor's OAuth access token until shortly
// before it expires. Constructed once at startup and injected into the
// client, never package-global state.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Get returns the cached token, calling fetch to refresh when missing or
// expired. The returned TTL is shortened by a minute so callers never send a
// token that dies in flight.
func (c *TokenCache) Get(fetch func() (string, time.Duration, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiresAt) {
		return c.token, nil
	}

	token, ttl, err := fetch()
	if err != nil {
		return "", err
	}

	c.token = token
	c.expiresAt = time.Now().Add(ttl - time.Minute)
	return token, nil
}

// Invalidate drops the cached token, forcing the next Get to refresh.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}
