// Package config loads process configuration from the environment,
// optionally preloaded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

// Client configures the storefront client.
type Client struct {
	APIBaseURL   string        `env:"STOREFRONT_API_BASE_URL,default=http://localhost:8005"`
	StateBackend string        `env:"STOREFRONT_STATE_BACKEND,default=sqlite"`
	StatePath    string        `env:"STOREFRONT_STATE_PATH,default=./storefront.db"`
	RedisAddr    string        `env:"STOREFRONT_REDIS_ADDR,default=localhost:6379"`
	HTTPTimeout  time.Duration `env:"STOREFRONT_HTTP_TIMEOUT,default=10s"`
	LogLevel     string        `env:"STOREFRONT_LOG_LEVEL,default=warn"`
	Journal      bool          `env:"STOREFRONT_JOURNAL,default=true"`
	OTLPEndpoint string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string        `env:"OTEL_SERVICE_NAME,default=storefront"`
}

// Backend configures the reference backend.
type Backend struct {
	Port         string        `env:"PORT,default=8005"`
	JWTSecret    string        `env:"JWT_SECRET,default=dev-secret-change-me"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,default=24h"`
	PaymentLimit string        `env:"PAYMENT_LIMIT,default=500"`
	SagaLogPath  string        `env:"SAGA_LOG_PATH"`
	LogLevel     string        `env:"LOG_LEVEL,default=info"`
	OTLPEndpoint string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string        `env:"OTEL_SERVICE_NAME,default=storefront-backend"`
}

// LoadDotEnv loads path into the environment if it exists. Variables already
// set win over the file.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load env (%s): %w", path, err)
	}
	return nil
}

func LoadClient() (*Client, error) {
	var cfg Client
	if err := decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("config: STOREFRONT_API_BASE_URL is required")
	}
	if err := kvstore.CheckBackend(c.StateBackend); err != nil {
		return fmt.Errorf("config: STOREFRONT_STATE_BACKEND: %w", err)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("config: STOREFRONT_HTTP_TIMEOUT must be positive")
	}
	return nil
}

func LoadBackend() (*Backend, error) {
	var cfg Backend
	if err := decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}
	return &cfg, nil
}

func decode(target any) error {
	// Defaults alone are a valid configuration.
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("config: decode environment: %w", err)
	}
	return nil
}
