package authgate

import (
	"context"
	"time"
)

// Resolution is the outcome of resolving one request's credentials.
type Resolution struct {
	// Subject is the authenticated identity, nil for anonymous requests
	// and for every non-OK Err.
	Subject *Subject

	// Refreshed is set when the resolve rotated the session; the caller
	// must persist it back to the client.
	Refreshed *Session

	// Err distinguishes "no session" (ReaderOK with nil Subject) from
	// unusable credentials and from an unreachable provider.
	Err ReaderError
}

// SessionReader resolves request credentials to a Subject. The access token
// is validated locally against the provider's signing keys; only when it is
// unusable does the reader spend a provider round trip, and then exactly
// one: a single bounded refresh attempt per request.
type SessionReader struct {
	provider   Provider
	validator  TokenValidator
	timeout    time.Duration
	timeoutSet bool
	logger     Logger
}

type ReaderOption func(*SessionReader)

// WithReaderLogger overrides the default stdout logger.
func WithReaderLogger(logger Logger) ReaderOption {
	return func(r *SessionReader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRefreshTimeout bounds the refresh round trip. Hitting the deadline is
// reported as a transient error, never as "unauthenticated".
func WithRefreshTimeout(timeout time.Duration) ReaderOption {
	return func(r *SessionReader) {
		if timeout > 0 {
			r.timeout = timeout
			r.timeoutSet = true
		}
	}
}

// applyDefaultTimeout takes effect only when no explicit WithRefreshTimeout
// was given; an option on the reader wins over configuration.
func (r *SessionReader) applyDefaultTimeout(timeout time.Duration) {
	if !r.timeoutSet && timeout > 0 {
		r.timeout = timeout
	}
}

// NewSessionReader wires a reader to the provider and the local validator.
func NewSessionReader(provider Provider, validator TokenValidator, opts ...ReaderOption) *SessionReader {
	r := &SessionReader{
		provider:  provider,
		validator: validator,
		timeout:   5 * time.Second,
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Resolve maps stored credentials to a Resolution. Absent credentials are
// not an error: the request is simply anonymous.
func (r *SessionReader) Resolve(ctx context.Context, creds Credentials) Resolution {
	if creds.Empty() {
		return Resolution{}
	}

	if creds.AccessToken != "" {
		claims, err := r.validator.Validate(creds.AccessToken)
		if err == nil {
			return Resolution{Subject: claims.SubjectInfo()}
		}

		if IsTokenExpiredError(err) {
			r.logger.Debug("access token expired, attempting refresh")
		} else {
			r.logger.Info("access token rejected", "error", err)
		}
	}

	if creds.RefreshToken == "" {
		return Resolution{Err: ReaderInvalid}
	}

	return r.refresh(ctx, creds.RefreshToken)
}

func (r *SessionReader) refresh(ctx context.Context, refreshToken string) Resolution {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	session, err := r.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		if IsProviderUnavailableError(err) || ctx.Err() != nil {
			r.logger.Warn("session refresh hit unreachable provider", "error", err)
			return Resolution{Err: ReaderTransient}
		}

		r.logger.Info("session refresh rejected", "error", err)
		return Resolution{Err: ReaderInvalid}
	}

	subject := session.Subject
	if subject == nil {
		// Some providers omit the subject from the token exchange;
		// recover it from the rotated access token.
		if claims, verr := r.validator.Validate(session.AccessToken); verr == nil {
			subject = claims.SubjectInfo()
		}
	}

	if subject == nil {
		r.logger.Error("refreshed session carries no resolvable subject")
		return Resolution{Err: ReaderInvalid}
	}

	session.Subject = subject
	return Resolution{Subject: subject, Refreshed: session}
}
