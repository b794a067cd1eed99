package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/pkg/kvstore"
)

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8005", cfg.APIBaseURL)
	assert.Equal(t, kvstore.BackendSQLite, cfg.StateBackend)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.Journal)
}

func TestLoadClient_Overrides(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "https://shop.example.com")
	t.Setenv("STOREFRONT_STATE_BACKEND", "redis")
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "3s")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", cfg.APIBaseURL)
	assert.Equal(t, kvstore.BackendRedis, cfg.StateBackend)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
}

func TestLoadClient_UnknownBackend(t *testing.T) {
	t.Setenv("STOREFRONT_STATE_BACKEND", "etcd")

	_, err := LoadClient()
	assert.ErrorIs(t, err, kvstore.ErrUnknownBackend)
}

func TestLoadBackend_Defaults(t *testing.T) {
	cfg, err := LoadBackend()
	require.NoError(t, err)
	assert.Equal(t, "8005", cfg.Port)
	assert.Equal(t, "500", cfg.PaymentLimit)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STOREFRONT_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("STOREFRONT_LOG_LEVEL", "")
	os.Unsetenv("STOREFRONT_LOG_LEVEL")

	require.NoError(t, LoadDotEnv(path))
	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
