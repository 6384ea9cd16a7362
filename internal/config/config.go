package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/eduhaag/GoMarketplace/internal/cart"
	"github.com/eduhaag/GoMarketplace/internal/kvstore"
	pkgconfig "github.com/eduhaag/GoMarketplace/pkg/config"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003"`

	// Cart store
	StoreBackend     string        `env:"CART_STORE_BACKEND" envDefault:"sqlite"`
	StorageKey       string        `env:"CART_STORAGE_KEY" envDefault:"@GoMarketplace:products"`
	PersistTimeout   time.Duration `env:"PERSIST_TIMEOUT" envDefault:"5s"`
	PersistQueueSize int           `env:"PERSIST_QUEUE_SIZE" envDefault:"64"`
	HydrateTimeout   time.Duration `env:"HYDRATE_TIMEOUT" envDefault:"5s"`
	BreakerEnabled   bool          `env:"STORE_BREAKER_ENABLED" envDefault:"true"`
	SlowQuery        time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisAddr   string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass   string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	RedisKeyTTL time.Duration `env:"REDIS_KEY_TTL" envDefault:"0s"`

	// SQLite
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/gomarketplace.db"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"marketplace"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"marketplace_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"marketplace"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Kafka
	KafkaEnabled   bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventQueueSize int      `env:"EVENT_QUEUE_SIZE" envDefault:"256"`
	DeviceID       string   `env:"CART_DEVICE_ID" envDefault:"local-device"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

var backends = []string{
	kvstore.BackendMemory,
	kvstore.BackendRedis,
	kvstore.BackendSQLite,
	kvstore.BackendPostgres,
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains(backends, c.StoreBackend) {
		return fmt.Errorf("CART_STORE_BACKEND must be one of %v, got %q", backends, c.StoreBackend)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("CART_STORAGE_KEY is required")
	}
	if c.PersistTimeout <= 0 {
		return fmt.Errorf("PERSIST_TIMEOUT must be positive, got %s", c.PersistTimeout)
	}
	if c.HydrateTimeout <= 0 {
		return fmt.Errorf("HYDRATE_TIMEOUT must be positive, got %s", c.HydrateTimeout)
	}
	if c.PersistQueueSize < 1 {
		return fmt.Errorf("PERSIST_QUEUE_SIZE must be at least 1, got %d", c.PersistQueueSize)
	}
	if c.RedisKeyTTL < 0 {
		return fmt.Errorf("REDIS_KEY_TTL must not be negative, got %s", c.RedisKeyTTL)
	}
	if c.StoreBackend == kvstore.BackendPostgres && (c.PostgresPort < 1 || c.PostgresPort > 65535) {
		return fmt.Errorf("invalid POSTGRES_PORT: %d", c.PostgresPort)
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
		}
		if c.EventQueueSize < 1 {
			return fmt.Errorf("EVENT_QUEUE_SIZE must be at least 1, got %d", c.EventQueueSize)
		}
		if c.DeviceID == "" {
			return fmt.Errorf("CART_DEVICE_ID is required when KAFKA_ENABLED is set")
		}
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	return nil
}

// StoreOptions translates the store settings into cart.Store options.
func (c *Config) StoreOptions() []cart.Option {
	return []cart.Option{
		cart.WithPersistTimeout(c.PersistTimeout),
		cart.WithHydrateTimeout(c.HydrateTimeout),
		cart.WithQueueSize(c.PersistQueueSize),
	}
}
