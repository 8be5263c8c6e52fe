// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the farmhand server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing JWTs (HS256), at least 32 bytes.
//     There is no default; it must come from the JSON file or -s.
//   - StoreTimeout: upper bound for a single store call.
//   - PasswordHasher: "bcrypt" or "argon2id".
//   - BcryptCost: work factor when PasswordHasher is "bcrypt".
//   - LogLevel: "debug", "info", "warn" or "error". Debug also puts gin
//     into debug mode.
type Config struct {
	EndpointAddrHTTP string        `validate:"required"`
	DatabaseDSN      string        `validate:"omitempty"`
	SecretKey        string        `validate:"required,min=32"`
	StoreTimeout     time.Duration `validate:"gt=0"`
	PasswordHasher   string        `validate:"oneof=bcrypt argon2id"`
	BcryptCost       int           `validate:"gte=4,lte=31"`
	LogLevel         string        `validate:"oneof=debug info warn error"`
}

// LoadDefaults populates Config with development defaults. SecretKey is
// left empty so that a server started without a key refuses to run.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.StoreTimeout = 5 * time.Second
	c.PasswordHasher = "bcrypt"
	c.BcryptCost = 10
	c.LogLevel = "info"
}

// SlogLevel maps LogLevel onto slog; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the struct tags above.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
