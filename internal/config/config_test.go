package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "switchboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", noEnv)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, 5, cfg.Portal.PageSize)
	assert.True(t, cfg.Portal.CallHistory)
	assert.Equal(t, time.Minute, cfg.Engine.LineRetention)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
log:
  format: json
store:
  backend: redis
  redis_addr: cache:6379
portal:
  page_size: 2
engine:
  input_timeout: 30s
`)
	cfg, err := load(path, envOf(map[string]string{
		"SWITCHBOARD_STORE_REDIS_ADDR":    "other:6380",
		"SWITCHBOARD_PORTAL_CALL_HISTORY": "false",
		"SWITCHBOARD_HTTP_ADDR":           ":9090",
	}))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "keys absent from the file keep their default")
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "other:6380", cfg.Store.RedisAddr, "environment wins over the file")
	assert.Equal(t, 2, cfg.Portal.PageSize)
	assert.False(t, cfg.Portal.CallHistory)
	assert.Equal(t, 30*time.Second, cfg.Engine.InputTimeout)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := load("", envOf(map[string]string{"SWITCHBOARD_STORE_BACKEND": "etcd"}))
	assert.ErrorContains(t, err, `unknown store.backend "etcd"`)

	_, err = load("", envOf(map[string]string{"SWITCHBOARD_PORTAL_PAGE_SIZE": "0"}))
	assert.ErrorContains(t, err, "page_size")

	_, err = load(writeFile(t, "store:\n  bakend: redis\n"), noEnv)
	assert.ErrorContains(t, err, "bakend")

	_, err = load(writeFile(t, "log: [\n"), noEnv)
	assert.Error(t, err)

	_, err = load(filepath.Join(t.TempDir(), "missing.yaml"), noEnv)
	assert.Error(t, err)
}

func TestLoad_StoreProtection(t *testing.T) {
	cfg, err := load("", envOf(map[string]string{
		"SWITCHBOARD_STORE_PII_KEYS":       "(?i)phone,(?i)email",
		"SWITCHBOARD_STORE_ENCRYPTION_KEY": "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"(?i)phone", "(?i)email"}, cfg.Store.PIIKeys)
	assert.NotEmpty(t, cfg.Store.EncryptionKey)

	cfg, err = load(writeFile(t, "store:\n  pii_keys: [card]\n"), noEnv)
	require.NoError(t, err)
	assert.Equal(t, []string{"card"}, cfg.Store.PIIKeys)

	_, err = load("", envOf(map[string]string{"SWITCHBOARD_STORE_ENCRYPTION_KEY": "c2hvcnQ="}))
	assert.ErrorContains(t, err, "store.encryption_key")
}
