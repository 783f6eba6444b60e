package linkauth

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// ProviderConfig holds one provider's OAuth application credentials. Twitter
// uses ClientID/ClientSecret as its consumer key/secret pair.
type ProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

// Configured reports whether the provider has credentials set.
func (p ProviderConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// Config is the explicit configuration passed to the auth surface at
// construction. Nothing in this package reads ambient global state; the env
// tags exist only for LoadConfig.
type Config struct {
	// BaseURL is the externally visible origin, used when providers redirect
	// back with relative callback paths.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:4000"`

	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"24h"`

	// JWTSecretKey signs the optional auth-token cookie consumed by
	// Middleware. Leave empty to disable token issuance.
	JWTSecretKey string `env:"JWT_SECRET_KEY"`
	JWTIssuer    string `env:"JWT_ISSUER" envDefault:"linkauth"`

	Facebook ProviderConfig `envPrefix:"FACEBOOK_"`
	Twitter  ProviderConfig `envPrefix:"TWITTER_"`
	Google   ProviderConfig `envPrefix:"GOOGLE_"`
}

// LoadConfig builds a Config from LINKAUTH_* environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "LINKAUTH_"}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Provider returns the credentials configured for the named provider.
func (c *Config) Provider(name string) ProviderConfig {
	switch name {
	case ProviderFacebook:
		return c.Facebook
	case ProviderTwitter:
		return c.Twitter
	case ProviderGoogle:
		return c.Google
	}
	return ProviderConfig{}
}
