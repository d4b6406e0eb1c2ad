package authgate_test

import (
	"testing"

	"github.com/goliatone/go-authgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() authgate.Policy {
	return authgate.Policy{
		SignInPath:    "/auth/login",
		LandingPath:   "/dashboard",
		ReturnToParam: "redirectTo",
	}
}

func TestDecidePublicAlwaysAllows(t *testing.T) {
	p := testPolicy()

	for _, readerErr := range []authgate.ReaderError{
		authgate.ReaderOK,
		authgate.ReaderInvalid,
		authgate.ReaderTransient,
	} {
		for _, present := range []bool{true, false} {
			decision := p.Decide(authgate.RoutePublic, "/about", present, readerErr)
			assert.Equal(t, authgate.DecisionAllow, decision.Kind,
				"public route should allow (present=%v, err=%s)", present, readerErr)
		}
	}
}

func TestDecideProtectedRequiresSubject(t *testing.T) {
	p := testPolicy()

	decision := p.Decide(authgate.RouteProtected, "/dashboard", true, authgate.ReaderOK)
	assert.Equal(t, authgate.DecisionAllow, decision.Kind)

	decision = p.Decide(authgate.RouteProtected, "/dashboard", false, authgate.ReaderOK)
	require.Equal(t, authgate.DecisionRedirect, decision.Kind)
	assert.Equal(t, "/auth/login?redirectTo=%2Fdashboard", decision.Target)
}

func TestDecideProtectedFailsClosedOnTransientError(t *testing.T) {
	p := testPolicy()

	// subject may even be present from a stale parse; transient outcome
	// still redirects
	decision := p.Decide(authgate.RouteProtected, "/dashboard/settings", true, authgate.ReaderTransient)
	require.Equal(t, authgate.DecisionRedirect, decision.Kind)
	assert.Contains(t, decision.Target, "/auth/login")

	decision = p.Decide(authgate.RouteProtected, "/dashboard/settings", false, authgate.ReaderTransient)
	require.Equal(t, authgate.DecisionRedirect, decision.Kind)
}

func TestDecideAuthEntryFailsOpen(t *testing.T) {
	p := testPolicy()

	for _, readerErr := range []authgate.ReaderError{
		authgate.ReaderInvalid,
		authgate.ReaderTransient,
	} {
		decision := p.Decide(authgate.RouteAuthEntry, "/auth/login", false, readerErr)
		assert.Equal(t, authgate.DecisionAllow, decision.Kind,
			"anonymous user must reach the sign-in form on %s", readerErr)
	}
}

func TestDecideAuthEntryBouncesAuthenticatedUsers(t *testing.T) {
	p := testPolicy()

	decision := p.Decide(authgate.RouteAuthEntry, "/auth/login", true, authgate.ReaderOK)
	require.Equal(t, authgate.DecisionRedirect, decision.Kind)
	assert.Equal(t, "/dashboard", decision.Target)
}

func TestSignInRedirectEncodesReturnPath(t *testing.T) {
	p := testPolicy()

	target := p.SignInRedirect("/reports/2026?page=2")
	assert.Equal(t, "/auth/login?redirectTo=%2Freports%2F2026%3Fpage%3D2", target)
}

func TestSignInRedirectDropsUnsafePaths(t *testing.T) {
	p := testPolicy()

	for _, raw := range []string{
		"//evil.example.com",
		"http://evil.example.com",
		"https://evil.example.com/dashboard",
		"/\\evil.example.com",
		"javascript:alert(1)",
		"relative/path",
		"",
	} {
		assert.Equal(t, "/auth/login", p.SignInRedirect(raw), "raw=%q", raw)
	}
}

func TestSignInRedirectAvoidsSelfLoop(t *testing.T) {
	p := testPolicy()
	assert.Equal(t, "/auth/login", p.SignInRedirect("/auth/login"))
}

func TestSanitizeReturnPath(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"plain path", "/dashboard", "/dashboard"},
		{"path with query", "/reports?page=2", "/reports?page=2"},
		{"empty falls back", "", "/fallback"},
		{"protocol relative", "//evil.example.com", "/fallback"},
		{"backslash authority", "/\\evil.example.com", "/fallback"},
		{"absolute url", "https://evil.example.com", "/fallback"},
		{"scheme smuggling", "javascript:alert(1)", "/fallback"},
		{"relative path", "reports", "/fallback"},
		{"crlf injection", "/dashboard\r\nSet-Cookie: x=y", "/fallback"},
		{"null byte", "/dash\x00board", "/fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, authgate.SanitizeReturnPath(tt.raw, "/fallback"))
		})
	}
}
