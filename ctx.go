package authgate

import (
	"context"

	"github.com/goliatone/go-router"
)

var subjectCtxKey = &contextKey{"subject"}

type contextKey struct {
	name string
}

// WithSubjectContext sets the Subject in the given context
func WithSubjectContext(r context.Context, subject *Subject) context.Context {
	return context.WithValue(r, subjectCtxKey, subject)
}

// SubjectFromContext finds the subject from the context.
func SubjectFromContext(ctx context.Context) (*Subject, bool) {
	raw, ok := ctx.Value(subjectCtxKey).(*Subject)
	return raw, ok
}

// GetRouterSubject extracts the Subject from the router context locals
func GetRouterSubject(ctx router.Context, key string) (*Subject, bool) {
	if key == "" {
		key = "subject"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	subject, ok := raw.(*Subject)
	return subject, ok
}
