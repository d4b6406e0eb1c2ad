package authgate

import (
	"net/url"
	"strings"
)

// ReaderError is the session reader outcome policy decides on.
type ReaderError int

const (
	// ReaderOK means credentials resolved cleanly (or were absent).
	ReaderOK ReaderError = iota
	// ReaderInvalid means credentials were present but unusable even
	// after a refresh attempt; stored credentials must be cleared.
	ReaderInvalid
	// ReaderTransient means the provider could not be reached in time;
	// the session state is unknown, not absent.
	ReaderTransient
)

func (e ReaderError) String() string {
	switch e {
	case ReaderInvalid:
		return "invalid"
	case ReaderTransient:
		return "transient"
	}
	return "ok"
}

type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionRedirect
)

// Decision is the access policy verdict for one request.
type Decision struct {
	Kind   DecisionKind
	Target string
}

func Allow() Decision {
	return Decision{Kind: DecisionAllow}
}

func RedirectTo(target string) Decision {
	return Decision{Kind: DecisionRedirect, Target: target}
}

// Policy is the pure access decision function. It performs no I/O; every
// input it needs arrives as an argument.
type Policy struct {
	SignInPath    string
	LandingPath   string
	ReturnToParam string
}

// NewPolicy builds a policy from config paths.
func NewPolicy(cfg Config) Policy {
	return Policy{
		SignInPath:    cfg.GetSignInPath(),
		LandingPath:   cfg.GetLandingPath(),
		ReturnToParam: cfg.GetReturnToParam(),
	}
}

// Decide maps (route class, subject presence, reader outcome) to a verdict.
//
// The one safety-critical asymmetry: a transient reader error fails OPEN on
// auth-entry pages (a user must always be able to reach the sign-in form to
// retry) and fails CLOSED on protected pages (unknown session state never
// reveals protected content). Unknown classes are treated as protected for
// the same reason.
func (p Policy) Decide(class RouteClass, requestedPath string, subjectPresent bool, readerErr ReaderError) Decision {
	switch class {
	case RoutePublic:
		return Allow()
	case RouteAuthEntry:
		if subjectPresent {
			return RedirectTo(p.LandingPath)
		}
		return Allow()
	default:
		if subjectPresent && readerErr == ReaderOK {
			return Allow()
		}
		return RedirectTo(p.SignInRedirect(requestedPath))
	}
}

// SignInRedirect builds the sign-in target carrying the requested path so
// the user lands back where they were headed after authenticating. Paths
// that fail sanitization are dropped rather than replaced: the sign-in form
// then falls back to the landing path.
func (p Policy) SignInRedirect(requestedPath string) string {
	returnTo := SanitizeReturnPath(requestedPath, "")
	if returnTo == "" || normalizePath(returnTo) == p.SignInPath {
		return p.SignInPath
	}
	return p.SignInPath + "?" + p.ReturnToParam + "=" + url.QueryEscape(returnTo)
}

// SanitizeReturnPath accepts only same-origin absolute paths: one leading
// slash, no scheme, no authority, no control characters. Anything else
// (protocol-relative "//evil", absolute "http://evil", backslash tricks)
// returns the fallback so the redirect target cannot become an open
// redirect.
func SanitizeReturnPath(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	if !strings.HasPrefix(raw, "/") {
		return fallback
	}
	if len(raw) > 1 && (raw[1] == '/' || raw[1] == '\\') {
		return fallback
	}
	if strings.ContainsAny(raw, "\r\n\x00") {
		return fallback
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}

	return raw
}
