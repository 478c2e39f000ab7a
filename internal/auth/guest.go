package auth

import (
	"time"

	"stocksage/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	guestCookieName = "guest_session"
	guestSessionTTL = 7 * 24 * time.Hour
)

// GuestStore issues and reads signed, time-limited anonymous identities. The
// cookie itself is the source of truth; the backing user record is
// materialized separately by the caller.
type GuestStore struct {
	secret []byte
	ttl    time.Duration
}

func NewGuestStore(secret []byte) *GuestStore {
	return &GuestStore{secret: secret, ttl: guestSessionTTL}
}

// Create mints a fresh guest identity and sets the session cookie. Every
// call issues a new identity; reuse of existing accounts is the caller's
// concern (see GuestPool).
func (s *GuestStore) Create(c *gin.Context) (string, error) {
	guestID := model.GuestIDPrefix + uuid.NewString()
	if err := s.Issue(c, guestID); err != nil {
		return "", err
	}
	return guestID, nil
}

// Issue signs a session cookie for the given guest ID.
func (s *GuestStore) Issue(c *gin.Context, guestID string) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": guestID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return err
	}

	sameSite, secure := cookieSecurity()
	c.SetSameSite(sameSite)
	c.SetCookie(guestCookieName, signed, int(s.ttl.Seconds()), "/", "", secure, true)
	return nil
}

// Read returns the current guest ID, or "" when the cookie is absent,
// expired, or fails verification. Pure read, no side effects.
func (s *GuestStore) Read(c *gin.Context) string {
	cookie, err := c.Cookie(guestCookieName)
	if err != nil || cookie == "" {
		return ""
	}

	token, err := jwt.Parse(cookie, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	if !model.IsGuestID(sub) {
		return ""
	}
	return sub
}

// Destroy expires the guest cookie immediately. Idempotent.
func (s *GuestStore) Destroy(c *gin.Context) {
	sameSite, secure := cookieSecurity()
	c.SetSameSite(sameSite)
	c.SetCookie(guestCookieName, "", -1, "/", "", secure, true)
}
