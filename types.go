package authgate

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Subject is the provider-owned identity behind a session. Immutable from
// this package's perspective except for EmailVerified, which flips once on
// the verification callback.
type Subject struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	CreatedAt     time.Time      `json:"created_at"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Credentials are the opaque session tokens as they arrived with a request.
// The package never inspects the refresh token; the access token is only
// parsed to check signature and expiry.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Session is a provider-issued credential pair plus its absolute expiry.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Subject      *Subject  `json:"subject,omitempty"`
}

// Expired reports whether the session's access credential is past its
// expiry, with leeway subtracted so we refresh slightly ahead of time.
func (s *Session) Expired(leeway time.Duration) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().After(s.ExpiresAt.Add(-leeway))
}

// VerificationKind selects which emailed token a verification exchange
// consumes.
type VerificationKind string

const (
	// VerificationSignup confirms a new account's email address.
	VerificationSignup VerificationKind = "signup"
	// VerificationRecovery exchanges a password-recovery token for a
	// short-lived session that may update the password.
	VerificationRecovery VerificationKind = "recovery"
)

// Provider is the hosted credential service. It owns account storage,
// password hashing, token issuance and rotation, and email delivery.
// Implementations map their wire errors into this package's taxonomy.
type Provider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Subject, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	SubjectFromToken(ctx context.Context, accessToken string) (*Subject, error)
	SignOut(ctx context.Context, accessToken string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	VerifyToken(ctx context.Context, kind VerificationKind, token string) (*Session, error)
	UpdatePassword(ctx context.Context, accessToken, password string) error
}

// TokenValidator validates provider-issued access tokens locally, without a
// provider round trip.
type TokenValidator interface {
	Validate(tokenString string) (*SessionClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (*SessionClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (*SessionClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

// Config holds gate options
type Config interface {
	GetAccessCookieName() string
	GetRefreshCookieName() string
	GetRefreshCookieDuration() time.Duration
	GetSignInPath() string
	GetLandingPath() string
	GetReturnToParam() string
	GetRefreshTimeout() time.Duration
	GetContextKey() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHGATE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHGATE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHGATE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHGATE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
