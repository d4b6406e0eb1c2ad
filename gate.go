package authgate

import (
	"net/http"

	"github.com/goliatone/go-router"
)

// RequestGate wires route classification, session resolution, and the access
// policy into a single middleware. It runs on every request: public routes
// still pass through it so a resolved subject is available to handlers.
type RequestGate struct {
	table   *RouteTable
	reader  *SessionReader
	cookies *CookieManager
	policy  Policy
	cfg     Config
	logger  Logger
}

type GateOption func(*RequestGate)

func WithGateLogger(logger Logger) GateOption {
	return func(g *RequestGate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewRequestGate(cfg Config, table *RouteTable, reader *SessionReader, opts ...GateOption) *RequestGate {
	if reader != nil {
		reader.applyDefaultTimeout(cfg.GetRefreshTimeout())
	}

	g := &RequestGate{
		table:   table,
		reader:  reader,
		cookies: NewCookieManager(cfg),
		policy:  NewPolicy(cfg),
		cfg:     cfg,
		logger:  &defLogger{},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Middleware returns the gating middleware. Every request is resolved exactly
// once; the decision for the route class determines whether the request
// proceeds or is redirected.
func (g *RequestGate) Middleware() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			class := g.table.Classify(ctx.Path())

			creds := g.cookies.Read(ctx)
			res := g.reader.Resolve(ctx.Context(), creds)

			if res.Refreshed != nil {
				g.cookies.Write(ctx, res.Refreshed)
			}

			if res.Err == ReaderInvalid {
				g.cookies.Clear(ctx)
			}

			decision := g.policy.Decide(class, ctx.OriginalURL(), res.Subject != nil, res.Err)

			if decision.Kind == DecisionRedirect {
				g.logger.Debug(
					"gate redirecting request",
					"path", ctx.Path(),
					"class", string(class),
					"reader", res.Err.String(),
					"location", decision.Target,
				)
				return redirect(ctx, decision.Target)
			}

			if res.Subject != nil {
				ctx.Locals(g.cfg.GetContextKey(), res.Subject)
				ctx.SetContext(WithSubjectContext(ctx.Context(), res.Subject))
			}

			return next(ctx)
		}
	}
}

// redirect uses 302 for GET and 303 otherwise so a redirected form
// submission is re-fetched with GET rather than replayed.
func redirect(ctx router.Context, location string) error {
	statusCode := http.StatusSeeOther
	if ctx.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return ctx.Redirect(location, statusCode)
}
