package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	Version       string        `env:"VERSION" envDefault:"0.1.0"`
	Port          int           `env:"PORT" envDefault:"8080"`
	Environment   string        `env:"ENVIRONMENT" envDefault:"dev"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN     string        `env:"SENTRY_DSN"`
	MongoURI      string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string        `env:"MONGO_DATABASE" envDefault:"authgate"`
	ClientURL     string        `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
	SecretKey     string        `env:"SECRET_KEY"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsEnvProd() bool {
	if c.Environment == "prod" && c.SentryDSN != "" {
		return true
	}
	return false
}

// CookieSecret decodes SECRET_KEY into the AES key used for session cookies.
// The key must be 16, 24 or 32 bytes of hex.
func (c *Config) CookieSecret() ([]byte, error) {
	key, err := hex.DecodeString(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("SECRET_KEY is not valid hex: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("SECRET_KEY must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}
