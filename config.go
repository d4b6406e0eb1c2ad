package authgate

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig is a Config implementation populated from environment variables.
// Every field has a usable default so an empty environment yields a working
// configuration.
type EnvConfig struct {
	AccessCookieName      string        `env:"AUTHGATE_ACCESS_COOKIE" envDefault:"ag_access_token"`
	RefreshCookieName     string        `env:"AUTHGATE_REFRESH_COOKIE" envDefault:"ag_refresh_token"`
	RefreshCookieDuration time.Duration `env:"AUTHGATE_REFRESH_COOKIE_TTL" envDefault:"720h"`
	SignInPath            string        `env:"AUTHGATE_SIGNIN_PATH" envDefault:"/auth/login"`
	LandingPath           string        `env:"AUTHGATE_LANDING_PATH" envDefault:"/dashboard"`
	ReturnToParam         string        `env:"AUTHGATE_RETURN_PARAM" envDefault:"redirectTo"`
	RefreshTimeout        time.Duration `env:"AUTHGATE_REFRESH_TIMEOUT" envDefault:"5s"`
	ContextKey            string        `env:"AUTHGATE_CONTEXT_KEY" envDefault:"subject"`
}

var _ Config = &EnvConfig{}

// NewEnvConfig parses the process environment into an EnvConfig.
func NewEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) GetAccessCookieName() string { return c.AccessCookieName }

func (c *EnvConfig) GetRefreshCookieName() string { return c.RefreshCookieName }

func (c *EnvConfig) GetRefreshCookieDuration() time.Duration { return c.RefreshCookieDuration }

func (c *EnvConfig) GetSignInPath() string { return c.SignInPath }

func (c *EnvConfig) GetLandingPath() string { return c.LandingPath }

func (c *EnvConfig) GetReturnToParam() string { return c.ReturnToParam }

func (c *EnvConfig) GetRefreshTimeout() time.Duration { return c.RefreshTimeout }

func (c *EnvConfig) GetContextKey() string { return c.ContextKey }
