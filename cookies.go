package authgate

import (
	"time"

	"github.com/goliatone/go-router"
)

// CookieManager moves session credentials between requests and responses.
// Both tokens are opaque to it: it stores and forwards, nothing more.
type CookieManager struct {
	cfg Config
}

func NewCookieManager(cfg Config) *CookieManager {
	return &CookieManager{cfg: cfg}
}

// Read pulls the stored credentials off the request.
func (m *CookieManager) Read(ctx router.Context) Credentials {
	return Credentials{
		AccessToken:  ctx.Cookies(m.cfg.GetAccessCookieName()),
		RefreshToken: ctx.Cookies(m.cfg.GetRefreshCookieName()),
	}
}

// Write attaches a session to the response. The access cookie expires with
// the access token; the refresh cookie lives for the configured duration so
// the session survives access-token expiry.
func (m *CookieManager) Write(ctx router.Context, session *Session) {
	if session == nil {
		return
	}

	accessExpiry := session.ExpiresAt
	if accessExpiry.IsZero() {
		accessExpiry = time.Now().Add(time.Hour)
	}

	m.set(ctx, m.cfg.GetAccessCookieName(), session.AccessToken, accessExpiry)
	m.set(ctx, m.cfg.GetRefreshCookieName(), session.RefreshToken, time.Now().Add(m.cfg.GetRefreshCookieDuration()))
}

// Clear drops both credential cookies. Safe to call with none present.
func (m *CookieManager) Clear(ctx router.Context) {
	m.del(ctx, m.cfg.GetAccessCookieName())
	m.del(ctx, m.cfg.GetRefreshCookieName())
}

func (m *CookieManager) set(ctx router.Context, name, val string, expires time.Time) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (m *CookieManager) del(ctx router.Context, name string) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
