package users

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenUse discriminates the two token variants sharing one codec.
type TokenUse string

const (
	// TokenUseAccess marks short-lived tokens that authorize requests
	TokenUseAccess TokenUse = "access"
	// TokenUseRefresh marks long-lived tokens only good for reissuing access tokens
	TokenUseRefresh TokenUse = "refresh"
)

// AuthClaims represents the validated claim set recovered from a token
type AuthClaims interface {
	Subject() string
	Role() string
	Use() TokenUse
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UserRole string   `json:"role,omitempty"`
	TokenUse TokenUse `json:"token_use,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim. The subject is the user's email, the
// lookup key for resolving the record behind a token.
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Role returns the user's role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Use returns the token_use discriminant
func (c *JWTClaims) Use() TokenUse {
	return c.TokenUse
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ensureTokenID assigns a random jti when the claims carry none.
func ensureTokenID(rc *jwt.RegisteredClaims) {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
}
