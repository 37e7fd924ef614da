package tenancy

import (
	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// AppConfig carries everything the service needs, sourced from the
// environment. It satisfies Config so it can be handed straight to
// NewAuthenticator.
type AppConfig struct {
	ServerAddress   string   `env:"SERVER_ADDRESS" envDefault:":3000"`
	DatabaseDSN     string   `env:"DATABASE_DSN" envDefault:"file:tenancy.db?cache=shared"`
	SigningKey      string   `env:"JWT_SIGNING_KEY"`
	SigningMethod   string   `env:"JWT_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey      string   `env:"JWT_CONTEXT_KEY" envDefault:"user"`
	TokenExpiration int      `env:"JWT_TOKEN_EXPIRATION" envDefault:"1"`
	TokenLookup     string   `env:"JWT_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme      string   `env:"JWT_AUTH_SCHEME" envDefault:"Bearer"`
	Issuer          string   `env:"JWT_ISSUER" envDefault:"go-tenancy"`
	Audience        []string `env:"JWT_AUDIENCE" envDefault:"api"`
}

// LoadConfig parses the environment into an AppConfig and validates it.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "could not parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c AppConfig) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&c,
			validation.Field(&c.SigningKey, validation.Required, validation.Length(16, 0)),
			validation.Field(&c.SigningMethod, validation.Required, validation.In("HS256")),
			validation.Field(&c.TokenExpiration, validation.Required, validation.Min(1)),
		)
	}, "configuration validation failed")
}

func (c AppConfig) GetSigningKey() string    { return c.SigningKey }
func (c AppConfig) GetSigningMethod() string { return c.SigningMethod }
func (c AppConfig) GetContextKey() string    { return c.ContextKey }
func (c AppConfig) GetTokenExpiration() int  { return c.TokenExpiration }
func (c AppConfig) GetTokenLookup() string   { return c.TokenLookup }
func (c AppConfig) GetAuthScheme() string    { return c.AuthScheme }
func (c AppConfig) GetIssuer() string        { return c.Issuer }
func (c AppConfig) GetAudience() []string    { return c.Audience }
