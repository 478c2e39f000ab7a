package auth

import (
	"log"
	"strings"

	"stocksage/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Source identifies which provider produced a resolved identity.
type Source string

const (
	SourcePrimarySession Source = "primary-session"
	SourceLegacySession  Source = "legacy-session"
	SourceBearerToken    Source = "bearer-token"
	SourceGuestCookie    Source = "guest-cookie"
	SourceAnonymous      Source = "anonymous"
)

const (
	sessionCookieName = "access_token"
	legacyCookieName  = "legacy_session"
)

// Identity is the canonical per-request principal. It is derived, never
// persisted; ID references a durable user record.
type Identity struct {
	ID     string
	Role   string
	Source Source
}

// Strategy is one identity provider in the resolution chain.
type Strategy interface {
	Name() string
	TryResolve(c *gin.Context) (*Identity, error)
}

// Resolver normalizes multiple concurrent identity sources into one
// identity. Strategies are tried strictly in order; the first to yield a
// principal wins and no merging happens. A strategy error is logged and
// resolution falls through to the next provider, so Resolve never fails —
// it degrades to nil and lets the access policy decide.
type Resolver struct {
	strategies []Strategy
}

func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve returns the request's identity, or nil for anonymous.
func (r *Resolver) Resolve(c *gin.Context) *Identity {
	for _, s := range r.strategies {
		id, err := s.TryResolve(c)
		if err != nil {
			log.Printf("identity: %s provider failed: %v", s.Name(), err)
			continue
		}
		if id != nil {
			return id
		}
	}
	return nil
}

// NewDefaultResolver wires the production provider order: primary session,
// legacy session, bearer header, guest cookie.
func NewDefaultResolver(guests *GuestStore) *Resolver {
	return NewResolver(
		&sessionStrategy{cookie: sessionCookieName, secret: JWTSecret, source: SourcePrimarySession, name: "primary-session"},
		&sessionStrategy{cookie: legacyCookieName, secret: LegacyJWTSecret, source: SourceLegacySession, name: "legacy-session"},
		&bearerStrategy{secret: JWTSecret},
		&guestStrategy{store: guests},
	)
}

// sessionStrategy reads a signed session token from a named cookie. The
// primary and legacy providers share the mechanism but are configured with
// independent cookie names and secrets.
type sessionStrategy struct {
	cookie string
	secret func() []byte
	source Source
	name   string
}

func (s *sessionStrategy) Name() string { return s.name }

func (s *sessionStrategy) TryResolve(c *gin.Context) (*Identity, error) {
	tokenString, err := c.Cookie(s.cookie)
	if err != nil || tokenString == "" {
		return nil, nil
	}
	return identityFromToken(tokenString, s.secret(), s.source)
}

// bearerStrategy accepts an Authorization: Bearer header. The token must
// verify against the primary secret in every environment; an unverifiable
// token is skipped, never trusted.
type bearerStrategy struct {
	secret func() []byte
}

func (s *bearerStrategy) Name() string { return "bearer-token" }

func (s *bearerStrategy) TryResolve(c *gin.Context) (*Identity, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil
	}
	return identityFromToken(parts[1], s.secret(), SourceBearerToken)
}

// guestStrategy resolves the anonymous guest cookie. Reading never creates a
// guest session; materialization is an explicit operation on the store.
type guestStrategy struct {
	store *GuestStore
}

func (s *guestStrategy) Name() string { return "guest-cookie" }

func (s *guestStrategy) TryResolve(c *gin.Context) (*Identity, error) {
	guestID := s.store.Read(c)
	if guestID == "" {
		return nil, nil
	}
	return &Identity{ID: guestID, Role: model.RoleGuest, Source: SourceGuestCookie}, nil
}

func identityFromToken(tokenString string, secret []byte, source Source) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = model.RoleUser
	}

	return &Identity{ID: sub, Role: role, Source: source}, nil
}
