package authgate

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RouteClass partitions the path space
type RouteClass string

const (
	// RoutePublic is always reachable, with or without a session.
	RoutePublic RouteClass = "public"
	// RouteAuthEntry is reachable only without a session; authenticated
	// requests are redirected to the landing path.
	RouteAuthEntry RouteClass = "auth-entry"
	// RouteProtected requires a valid session; anonymous requests are
	// redirected to sign-in carrying the requested path.
	RouteProtected RouteClass = "protected"
)

func (c RouteClass) valid() bool {
	switch c {
	case RoutePublic, RouteAuthEntry, RouteProtected:
		return true
	}
	return false
}

// RouteRule binds a glob pattern to a class. Patterns use doublestar
// syntax: "/dashboard/**" matches the subtree, "/dashboard" only the page.
type RouteRule struct {
	Pattern string
	Class   RouteClass
}

// RouteTable is the static classification of the path space. Rules are
// evaluated in order, first match wins; paths matching no rule take the
// table's default class, so the partition is total by construction.
type RouteTable struct {
	rules        []RouteRule
	defaultClass RouteClass
}

// NewRouteTable builds a table with an explicit default class for
// unmatched paths. The default is mandatory: leaving it implicit would
// hide the policy for new pages inside the route list.
func NewRouteTable(defaultClass RouteClass, rules ...RouteRule) (*RouteTable, error) {
	if !defaultClass.valid() {
		return nil, fmt.Errorf("route table: invalid default class %q", defaultClass)
	}

	seen := map[string]RouteClass{}
	for _, rule := range rules {
		if !rule.Class.valid() {
			return nil, fmt.Errorf("route table: invalid class %q for pattern %q", rule.Class, rule.Pattern)
		}
		if !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("route table: pattern %q must be an absolute path", rule.Pattern)
		}
		if !doublestar.ValidatePattern(rule.Pattern) {
			return nil, fmt.Errorf("route table: invalid pattern %q", rule.Pattern)
		}
		if prev, ok := seen[rule.Pattern]; ok && prev != rule.Class {
			return nil, fmt.Errorf("route table: pattern %q classified as both %q and %q", rule.Pattern, prev, rule.Class)
		}
		seen[rule.Pattern] = rule.Class
	}

	return &RouteTable{
		rules:        append([]RouteRule(nil), rules...),
		defaultClass: defaultClass,
	}, nil
}

// DefaultClass returns the class applied to unmatched paths.
func (t *RouteTable) DefaultClass() RouteClass {
	return t.defaultClass
}

// Classify maps a request path to its class. Query strings and fragments
// are ignored; the path is cleaned before matching so `/dashboard/../admin`
// classifies as `/admin`.
func (t *RouteTable) Classify(requestPath string) RouteClass {
	p := normalizePath(requestPath)

	for _, rule := range t.rules {
		if ok, err := doublestar.Match(rule.Pattern, p); err == nil && ok {
			return rule.Class
		}
	}

	return t.defaultClass
}

func normalizePath(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// DefaultRouteTable is the classification the controller's default routes
// assume: auth pages are auth-entry, the app subtree is protected, and
// everything else (marketing pages, assets, the verification callback) is
// public. The callback stays public so a verification link still works for
// a visitor who already holds a session.
func DefaultRouteTable() *RouteTable {
	table, err := NewRouteTable(RoutePublic,
		RouteRule{Pattern: "/auth/login", Class: RouteAuthEntry},
		RouteRule{Pattern: "/auth/register", Class: RouteAuthEntry},
		RouteRule{Pattern: "/auth/password-reset", Class: RouteAuthEntry},
		RouteRule{Pattern: "/auth/password-reset/**", Class: RouteAuthEntry},
		RouteRule{Pattern: "/auth/callback", Class: RoutePublic},
		RouteRule{Pattern: "/auth/logout", Class: RoutePublic},
		RouteRule{Pattern: "/dashboard", Class: RouteProtected},
		RouteRule{Pattern: "/dashboard/**", Class: RouteProtected},
	)
	if err != nil {
		panic("authgate: default route table must be valid: " + err.Error())
	}
	return table
}
