package hosted

import (
	"net/http"
	"strings"
)

// Config holds hosted provider configuration.
type Config struct {
	BaseURL string
	APIKey  string

	SignUpURL  string
	TokenURL   string
	LogoutURL  string
	RecoverURL string
	VerifyURL  string
	UserURL    string

	HTTPClient *http.Client
}

func (c *Config) applyDefaults() {
	base := strings.TrimSuffix(c.BaseURL, "/")

	if c.SignUpURL == "" {
		c.SignUpURL = base + "/signup"
	}
	if c.TokenURL == "" {
		c.TokenURL = base + "/token"
	}
	if c.LogoutURL == "" {
		c.LogoutURL = base + "/logout"
	}
	if c.RecoverURL == "" {
		c.RecoverURL = base + "/recover"
	}
	if c.VerifyURL == "" {
		c.VerifyURL = base + "/verify"
	}
	if c.UserURL == "" {
		c.UserURL = base + "/user"
	}
}
