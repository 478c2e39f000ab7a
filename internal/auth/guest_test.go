package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stocksage/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithCookies(w *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge >= 0 {
			req.AddCookie(cookie)
		}
	}
	return req
}

func TestGuestCreateThenReadRoundTrips(t *testing.T) {
	store := NewGuestStore([]byte("secret"))

	c, w := testContext(nil)
	guestID, err := store.Create(c)
	require.NoError(t, err)
	assert.True(t, model.IsGuestID(guestID))

	c, _ = testContext(requestWithCookies(w))
	assert.Equal(t, guestID, store.Read(c))
}

func TestGuestCreateMintsFreshIdentities(t *testing.T) {
	store := NewGuestStore([]byte("secret"))

	c, _ := testContext(nil)
	first, err := store.Create(c)
	require.NoError(t, err)

	c, _ = testContext(nil)
	second, err := store.Create(c)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestGuestReadWithoutCookieReturnsEmpty(t *testing.T) {
	store := NewGuestStore([]byte("secret"))
	c, _ := testContext(nil)
	assert.Empty(t, store.Read(c))
}

func TestGuestReadRejectsForeignSignature(t *testing.T) {
	issuer := NewGuestStore([]byte("issuer-secret"))
	reader := NewGuestStore([]byte("other-secret"))

	c, w := testContext(nil)
	_, err := issuer.Create(c)
	require.NoError(t, err)

	c, _ = testContext(requestWithCookies(w))
	assert.Empty(t, reader.Read(c))
}

func TestGuestReadRejectsExpiredSession(t *testing.T) {
	store := NewGuestStore([]byte("secret"))
	store.ttl = -time.Minute

	c, w := testContext(nil)
	_, err := store.Create(c)
	require.NoError(t, err)

	// Bypass MaxAge filtering: present the expired token directly.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range w.Result().Cookies() {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	c, _ = testContext(req)
	assert.Empty(t, store.Read(c))
}

func TestGuestDestroyExpiresCookie(t *testing.T) {
	store := NewGuestStore([]byte("secret"))

	c, w := testContext(nil)
	_, err := store.Create(c)
	require.NoError(t, err)

	// Destroy overwrites the cookie with an immediate expiry.
	c, w2 := testContext(requestWithCookies(w))
	store.Destroy(c)

	c, _ = testContext(requestWithCookies(w2))
	assert.Empty(t, store.Read(c))

	// Idempotent.
	c, _ = testContext(nil)
	store.Destroy(c)
}
