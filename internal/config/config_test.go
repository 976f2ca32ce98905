package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  env: dev\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "https://sandbox-api.iyzipay.com", cfg.Partner.SandboxURL)
	assert.Equal(t, "https://api.iyzipay.com", cfg.Partner.LiveURL)
	assert.Equal(t, "myapp://payment/callback", cfg.Partner.CallbackURL)
	assert.Equal(t, 30*time.Second, cfg.Partner.Timeout)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, SinkLog, cfg.Audit.Sink)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("CEPPOS_TEST_REDIS", "redis.local:6379")
	path := writeConfig(t, "storage:\n  backend: redis\nredis:\n  addr: ${CEPPOS_TEST_REDIS}\npartner:\n  timeout: 5s\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis.local:6379", cfg.Redis.Addr)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, 5*time.Second, cfg.Partner.Timeout)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: sqlite\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "transaction", cfg.Partner.ReceiptSource)
}
