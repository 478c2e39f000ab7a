package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCacheFetchesOnceWhileFresh(t *testing.T) {
	cache := NewTokenCache()
	fetches := 0
	fetch := func() (string, time.Duration, error) {
		fetches++
		return "tok-1", time.Hour, nil
	}

	for i := 0; i < 3; i++ {
		token, err := cache.Get(fetch)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	}
	assert.Equal(t, 1, fetches)
}

func TestTokenCacheRefreshesAfterExpiry(t *testing.T) {
	cache := NewTokenCache()
	fetches := 0

	// TTL under the one-minute safety margin expires immediately.
	_, err := cache.Get(func() (string, time.Duration, error) {
		fetches++
		return "tok-1", time.Second, nil
	})
	require.NoError(t, err)

	token, err := cache.Get(func() (string, time.Duration, error) {
		fetches++
		return "tok-2", time.Hour, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
	assert.Equal(t, 2, fetches)
}

func TestTokenCachePropagatesFetchError(t *testing.T) {
	cache := NewTokenCache()
	_, err := cache.Get(func() (string, time.Duration, error) {
		return "", 0, errors.New("processor down")
	})
	assert.Error(t, err)
}

func TestTokenCacheInvalidateForcesRefresh(t *testing.T) {
	cache := NewTokenCache()
	fetches := 0
	fetch := func() (string, time.Duration, error) {
		fetches++
		return "tok", time.Hour, nil
	}

	_, err := cache.Get(fetch)
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.Get(fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}
