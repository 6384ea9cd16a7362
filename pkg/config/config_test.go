package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeConfig struct {
	Backend string        `env:"TEST_STORE_BACKEND" envDefault:"memory"`
	Key     string        `env:"TEST_STORE_KEY" envDefault:"@GoMarketplace:products"`
	Timeout time.Duration `env:"TEST_STORE_TIMEOUT" envDefault:"5s"`
	Queue   int           `env:"TEST_STORE_QUEUE" envDefault:"64"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg storeConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, "@GoMarketplace:products", cfg.Key)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 64, cfg.Queue)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_STORE_BACKEND", "sqlite")
	t.Setenv("TEST_STORE_TIMEOUT", "250ms")

	var cfg storeConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("TEST_STORE_QUEUE", "lots")

	var cfg storeConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

type requiredConfig struct {
	Addr string `env:"TEST_REQUIRED_ADDR,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
