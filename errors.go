package authgate

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeValidation          = "auth_validation_failed"
	TextCodeInvalidCredentials  = "auth_invalid_credentials"
	TextCodeAlreadyRegistered   = "auth_already_registered"
	TextCodeUnverifiedEmail     = "auth_email_not_verified"
	TextCodeTokenExpired        = "auth_token_expired"
	TextCodeTokenMalformed      = "auth_token_malformed"
	TextCodeProviderUnavailable = "auth_provider_unavailable"
	TextCodeUnknown             = "auth_unknown_error"
)

// ErrInvalidCredentials is returned when the provider rejects an
// email/password pair.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrAlreadyRegistered is returned when a sign-up collides with an existing
// account.
var ErrAlreadyRegistered = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyRegistered).
	WithCode(errors.CodeConflict)

// ErrUnverifiedEmail is returned when the provider refuses a sign-in until
// the email address is confirmed.
var ErrUnverifiedEmail = errors.New("email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeUnverifiedEmail).
	WithCode(errors.CodeForbidden)

// ErrTokenExpired is returned when an access, verification, or recovery
// token is past its expiry.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed or its
// signature does not check out.
var ErrTokenMalformed = errors.New("token malformed or invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrProviderUnavailable is returned for transient provider failures:
// network errors, timeouts, and 5xx responses. Callers must not treat it as
// "unauthenticated".
var ErrProviderUnavailable = errors.New("credential provider unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeProviderUnavailable).
	WithCode(errors.CodeInternal)

// ErrUnknownProvider wraps provider failures that fit no other bucket. The
// full detail stays server-side; presentation shows a generic message.
var ErrUnknownProvider = errors.New("unexpected provider error", errors.CategoryInternal).
	WithTextCode(TextCodeUnknown).
	WithCode(errors.CodeInternal)

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsInvalidCredentialsError reports a rejected email/password pair.
func IsInvalidCredentialsError(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsAlreadyRegisteredError reports a sign-up conflict.
func IsAlreadyRegisteredError(err error) bool {
	return hasTextCode(err, TextCodeAlreadyRegistered)
}

// IsUnverifiedEmailError reports a sign-in blocked on email confirmation.
func IsUnverifiedEmailError(err error) bool {
	return hasTextCode(err, TextCodeUnverifiedEmail)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if hasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for unparseable or tampered tokens
func IsMalformedError(err error) bool {
	if hasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsExpiredOrInvalidTokenError collapses the two token buckets for flows
// where the distinction does not matter to the user (reset, verification).
func IsExpiredOrInvalidTokenError(err error) bool {
	return IsTokenExpiredError(err) || IsMalformedError(err)
}

// IsProviderUnavailableError reports a transient provider failure.
func IsProviderUnavailableError(err error) bool {
	return hasTextCode(err, TextCodeProviderUnavailable)
}

// MapProviderError guarantees a provider failure lands inside the taxonomy.
// Errors already carrying one of the package text codes pass through;
// anything else is wrapped as unknown.
func MapProviderError(err error) error {
	if err == nil {
		return nil
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		switch richErr.TextCode {
		case TextCodeInvalidCredentials,
			TextCodeAlreadyRegistered,
			TextCodeUnverifiedEmail,
			TextCodeTokenExpired,
			TextCodeTokenMalformed,
			TextCodeProviderUnavailable,
			TextCodeUnknown:
			return richErr
		}
	}

	return errors.Wrap(err, errors.CategoryInternal, "unexpected provider error").
		WithTextCode(TextCodeUnknown).
		WithCode(errors.CodeInternal)
}
