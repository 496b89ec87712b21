package users

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig is the environment-backed Config implementation. Everything is
// read once at startup and injected into the components that need it; the
// signing key has no default and must be provided.
type EnvConfig struct {
	SigningKey            string   `env:"AUTH_SIGNING_KEY,required"`
	SigningMethod         string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	AccessTokenTTLMinutes int      `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"30"`
	RefreshTokenTTLDays   int      `env:"AUTH_REFRESH_TOKEN_TTL_DAYS" envDefault:"7"`
	Issuer                string   `env:"AUTH_ISSUER"`
	Audience              []string `env:"AUTH_AUDIENCE"`
	ContextKey            string   `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	TokenLookup           string   `env:"AUTH_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme            string   `env:"AUTH_SCHEME" envDefault:"Bearer"`
	HTTPAddr              string   `env:"AUTH_HTTP_ADDR" envDefault:":8080"`
	DatabaseDSN           string   `env:"AUTH_DATABASE_DSN" envDefault:"file:go-users.db?cache=shared"`
}

// Verify interface compliance
var _ Config = (*EnvConfig)(nil)

// LoadConfig parses configuration from the process environment
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *EnvConfig) GetSigningMethod() string {
	return c.SigningMethod
}

func (c *EnvConfig) GetAccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c *EnvConfig) GetRefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

func (c *EnvConfig) GetContextKey() string {
	return c.ContextKey
}

func (c *EnvConfig) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *EnvConfig) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *EnvConfig) GetIssuer() string {
	return c.Issuer
}

func (c *EnvConfig) GetAudience() []string {
	return c.Audience
}
