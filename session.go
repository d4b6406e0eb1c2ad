package authgate

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims this package consumes from a provider access
// token. Provider-specific extras ride along in Metadata untouched.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	Metadata      map[string]any `json:"user_metadata,omitempty"`
}

// SubjectInfo projects the claims into a Subject value.
func (c *SessionClaims) SubjectInfo() *Subject {
	if c == nil {
		return nil
	}

	sub := &Subject{
		ID:            c.RegisteredClaims.Subject,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Metadata:      c.Metadata,
	}

	if c.IssuedAt != nil {
		sub.CreatedAt = c.IssuedAt.Time
	}

	return sub
}

// ExpiresAt returns the token expiry, zero when the claim is absent.
func (c *SessionClaims) ExpiresAt() time.Time {
	if c == nil || c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

func (c SessionClaims) String() string {
	return fmt.Sprintf(
		"sub=%s email=%s verified=%t iss=%s",
		c.RegisteredClaims.Subject,
		c.Email,
		c.EmailVerified,
		c.Issuer,
	)
}
