// Package config loads roster-authd settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds every setting the auth service reads from the environment.
type Config struct {
	// ProjectID is the Firebase project. It is both the expected audience and
	// the suffix of the expected issuer. ENV: FIREBASE_PROJECT_ID
	ProjectID string `env:"FIREBASE_PROJECT_ID,required" validate:"required"`
	// Issuer overrides https://securetoken.google.com/<ProjectID>.
	Issuer string `env:"FIREBASE_ISSUER" validate:"omitempty,url"`
	// JWKSURL is where signing keys are fetched from.
	JWKSURL string `env:"FIREBASE_JWKS_URL,default=https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com" validate:"required,url"`

	// CacheFile is the file store location. Empty means the user cache dir.
	CacheFile    string        `env:"JWKS_CACHE_FILE"`
	CacheMaxAge  time.Duration `env:"JWKS_CACHE_MAX_AGE,default=6h" validate:"gt=0"`
	FetchTimeout time.Duration `env:"JWKS_FETCH_TIMEOUT,default=5s" validate:"gt=0"`
	ClockSkew    time.Duration `env:"JWT_CLOCK_SKEW,default=0s" validate:"gte=0"`

	// RedisAddr selects the Redis store when set.
	RedisAddr string `env:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisKey  string `env:"REDIS_KEY,default=roster:jwks"`

	HTTPAddr        string        `env:"HTTP_ADDR,default=:8080" validate:"required"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
	// CORSAllowedOrigins is a comma separated origin list.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`

	LogLevel    string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	LogBackend  string `env:"LOG_BACKEND,default=logrus" validate:"oneof=logrus zap"`
	DebugErrors bool   `env:"DEBUG_ERRORS,default=false"`
}

// Origins splits CORSAllowedOrigins, dropping empty entries.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load reads the optional dotenv files, then decodes and validates the
// environment. Variables already set in the environment win over the files.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
