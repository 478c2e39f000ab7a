package auth

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// JWTSecret returns the signing key for the primary session provider.
func JWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in release mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// LegacyJWTSecret returns the signing key for the legacy session provider.
// Configured independently so old deployments keep validating; falls back to
// the primary secret when unset.
func LegacyJWTSecret() []byte {
	if secret := os.Getenv("LEGACY_JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return JWTSecret()
}

// GuestCookieSecret returns the signing key for guest session cookies.
func GuestCookieSecret() []byte {
	if secret := os.Getenv("GUEST_COOKIE_SECRET"); secret != "" {
		return []byte(secret)
	}
	return JWTSecret()
}

// HasConfiguredSecret reports whether an explicit auth secret is present.
// Without one the access policy runs in a degraded mode that only serves the
// public route set.
func HasConfiguredSecret() bool {
	return os.Getenv("JWT_SECRET") != ""
}

func cookieSecurity() (http.SameSite, bool) {
	// Release (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site): SameSiteLaxMode + Secure=false
	if os.Getenv("GIN_MODE") == "release" || os.Getenv("RENDER") != "" {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// SetSessionCookie stores the primary session token as an HttpOnly cookie.
func SetSessionCookie(c *gin.Context, token string) {
	sameSite, secure := cookieSecurity()
	c.SetSameSite(sameSite)
	c.SetCookie(sessionCookieName, token, 3600*24, "/", "", secure, true)
}

// ClearSessionCookie removes the primary session cookie.
func ClearSessionCookie(c *gin.Context) {
	sameSite, secure := cookieSecurity()
	c.SetSameSite(sameSite)
	c.SetCookie(sessionCookieName, "", -1, "/", "", secure, true)
}
