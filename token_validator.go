package authgate

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ValidatorConfig configures local access-token validation. Exactly one of
// JWKSetURL or SigningKey must be set: hosted providers that publish a JWK
// set use the former, providers with a shared HMAC secret the latter.
type ValidatorConfig struct {
	// JWKSetURL is the provider's JWKS endpoint.
	JWKSetURL string

	// SigningKey is the shared secret for HMAC-signed tokens.
	SigningKey []byte

	// SigningMethod pins the expected "alg" header, e.g. "HS256" or
	// "RS256". Empty accepts whatever the key material verifies.
	SigningMethod string

	// Issuer, when set, is enforced against the "iss" claim.
	Issuer string

	// Audience, when set, is enforced against the "aud" claim.
	Audience string

	// Leeway loosens expiry checks to absorb clock skew. Defaults to
	// zero: a token past its expiry is expired.
	Leeway time.Duration

	Logger Logger
}

type tokenValidator struct {
	keyFunc jwt.Keyfunc
	opts    []jwt.ParserOption
}

// NewTokenValidator builds a TokenValidator from key material. JWKS keys
// are fetched once and refreshed in the background; fetch failures surface
// here rather than on the request path.
func NewTokenValidator(cfg ValidatorConfig) (TokenValidator, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	var keyFn jwt.Keyfunc

	switch {
	case cfg.JWKSetURL != "":
		jwks, err := keyfunc.Get(cfg.JWKSetURL, keyfunc.Options{
			RefreshErrorHandler: func(err error) {
				logger.Warn("background JWK set refresh failed", "error", err)
			},
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  time.Minute * 5,
			RefreshTimeout:    time.Second * 10,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("authgate: failed to fetch JWK set: %w", err)
		}
		keyFn = jwks.Keyfunc
	case len(cfg.SigningKey) > 0:
		keyFn = signingKeyFunc(cfg.SigningKey, cfg.SigningMethod)
	default:
		return nil, fmt.Errorf("authgate: validator requires a JWK set URL or a signing key")
	}

	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &tokenValidator{keyFunc: keyFn, opts: opts}, nil
}

// Validate parses and verifies an access token, returning its claims.
func (v *tokenValidator) Validate(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, v.opts...)
	if err != nil {
		return nil, normalizeTokenError(err)
	}

	if !token.Valid || claims.RegisteredClaims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func normalizeTokenError(err error) error {
	if err == nil {
		return nil
	}

	clone := ErrTokenMalformed.Clone()
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		clone = ErrTokenExpired.Clone()
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"cause": err.Error(),
	})
}

func signingKeyFunc(key []byte, alg string) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if alg != "" {
			got, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", alg)
			}
			if got != alg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", alg, got)
			}
		}
		return key, nil
	}
}
