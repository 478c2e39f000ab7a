package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stocksage/internal/auth"
	"stocksage/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedStrategy struct {
	identity *auth.Identity
}

func (s *fixedStrategy) Name() string { return "fixed" }

func (s *fixedStrategy) TryResolve(c *gin.Context) (*auth.Identity, error) {
	return s.identity, nil
}

func newPolicyRouter(identity *auth.Identity, degraded bool) *gin.Engine {
	resolver := auth.NewResolver(&fixedStrategy{identity: identity})
	policy := NewAccessPolicy(resolver, degraded)

	router := gin.New()
	router.Use(policy.Handler())
	register := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"handled": true, "userID": c.GetString("userID")})
	}
	router.GET("/health", register)
	router.GET("/dashboard", register)
	router.GET("/settings/profile", register)
	router.GET("/api/products", register)
	router.GET("/api/reports/export", register)
	router.POST("/api/invoices/bulk", register)
	router.POST("/api/inventory/batch/stocktake", register)
	return router
}

func perform(t *testing.T, router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPublicPathAllowedWithoutIdentity(t *testing.T) {
	router := newPolicyRouter(nil, false)
	w := perform(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnonymousAPIPathDenied(t *testing.T) {
	router := newPolicyRouter(nil, false)
	w := perform(t, router, http.MethodGet, "/api/products")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Authentication failed", body["error"])
}

func TestAnonymousPagePathRedirectsToLogin(t *testing.T) {
	router := newPolicyRouter(nil, false)
	w := perform(t, router, http.MethodGet, "/dashboard")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestAnonymousDefaultPathRedirectsToLogin(t *testing.T) {
	router := newPolicyRouter(nil, false)
	w := perform(t, router, http.MethodGet, "/settings/profile")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestGuestAllowedOnGuestAccessiblePath(t *testing.T) {
	guest := &auth.Identity{ID: "guest_abc", Role: model.RoleGuest, Source: auth.SourceGuestCookie}
	router := newPolicyRouter(guest, false)

	w := perform(t, router, http.MethodPost, "/api/inventory/batch/stocktake")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "guest_abc", body["userID"])
}

func TestGuestDeniedOnAuthenticatedOnlyPath(t *testing.T) {
	guest := &auth.Identity{ID: "guest_abc", Role: model.RoleGuest, Source: auth.SourceGuestCookie}
	router := newPolicyRouter(guest, false)

	w := perform(t, router, http.MethodPost, "/api/invoices/bulk")
	assert.Equal(t, http.StatusForbidden, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "This action is not available in guest mode", body["error"])
}

func TestGuestRedirectedHomeOnDefaultPath(t *testing.T) {
	guest := &auth.Identity{ID: "guest_abc", Role: model.RoleGuest, Source: auth.SourceGuestCookie}
	router := newPolicyRouter(guest, false)

	w := perform(t, router, http.MethodGet, "/settings/profile")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestFullUserAllowedEverywhere(t *testing.T) {
	user := &auth.Identity{ID: "user-1", Role: model.RoleUser, Source: auth.SourcePrimarySession}
	router := newPolicyRouter(user, false)

	for _, path := range []string{"/dashboard", "/api/products", "/settings/profile", "/api/reports/export"} {
		w := perform(t, router, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := perform(t, router, http.MethodPost, "/api/invoices/bulk")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "user-1", body["userID"])
}

func TestPrecedencePublicBeatsLaterSets(t *testing.T) {
	// /health stays public even for a guest identity that would otherwise be
	// gated; no identity lookup should change the outcome.
	guest := &auth.Identity{ID: "guest_abc", Role: model.RoleGuest, Source: auth.SourceGuestCookie}
	router := newPolicyRouter(guest, false)

	w := perform(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDegradedModeServesOnlyPublicSet(t *testing.T) {
	user := &auth.Identity{ID: "user-1", Role: model.RoleUser, Source: auth.SourcePrimarySession}
	router := newPolicyRouter(user, true)

	w := perform(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, router, http.MethodGet, "/api/products")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(t, router, http.MethodGet, "/dashboard")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestClassificationPrecedenceIsFixedOrder(t *testing.T) {
	assert.Equal(t, classPublic, classify("/health"))
	assert.Equal(t, classPublic, classify("/api/auth/guest"))
	assert.Equal(t, classAuthenticatedOnly, classify("/api/invoices/bulk"))
	// /api/invoices is guest-accessible, but the bulk subtree matched the
	// authenticated-only set first.
	assert.Equal(t, classGuestAccessible, classify("/api/invoices"))
	assert.Equal(t, classGuestAccessible, classify("/api/invoices/123"))
	assert.Equal(t, classDefault, classify("/api/settings-export"))
	assert.Equal(t, classDefault, classify("/admin"))
}
