package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icuboard/icuboard/pkg/sdk"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ICU_SERVER_URL", "ICU_DATA_SOURCE", "ICU_MOCK_LATENCY", "ICU_SESSION_STORE",
		"ICU_SESSION_DIR", "ICU_REDIS_ADDR", "ICU_REDIS_PASSWORD", "ICU_REDIS_DB",
		"ICU_REDIS_PREFIX", "ICU_LOG_LEVEL", "ICU_LOG_FORMAT", "ICU_REFRESH_TIMEOUT",
		"ICU_DEV_LOGIN_FALLBACK", "ICU_ADMIN_GROUP",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, DataSourceAPI, cfg.DataSource)
	assert.Equal(t, SessionStoreFile, cfg.SessionStore)
	assert.Equal(t, sdk.DefaultRefreshTimeout, cfg.RefreshTimeout)
	assert.Equal(t, sdk.AdminGroup, cfg.AdminGroup)
	assert.False(t, cfg.DevLoginFallback)
}

func TestLoad_WithConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server_url: "https://uti.example.org"
data_source: mock
mock_latency: 250ms
session_store: redis
redis:
  addr: "cache:6379"
  db: 2
refresh_timeout: 3s
dev_login_fallback: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://uti.example.org", cfg.ServerURL)
	assert.Equal(t, DataSourceMock, cfg.DataSource)
	assert.Equal(t, 250*time.Millisecond, cfg.MockLatency)
	assert.Equal(t, SessionStoreRedis, cfg.SessionStore)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 3*time.Second, cfg.RefreshTimeout)
	assert.True(t, cfg.DevLoginFallback)
	assert.Equal(t, "warn", cfg.LogLevel, "unset keys keep their defaults")
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: http://file:1\nrefresh_timeout: 3s\n"), 0644))

	t.Setenv("ICU_SERVER_URL", "http://env:2")
	t.Setenv("ICU_REFRESH_TIMEOUT", "0")
	t.Setenv("ICU_DEV_LOGIN_FALLBACK", "yes")
	t.Setenv("ICU_REDIS_DB", "nope")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env:2", cfg.ServerURL)
	assert.Equal(t, time.Duration(0), cfg.RefreshTimeout)
	assert.True(t, cfg.DevLoginFallback)
	assert.Equal(t, 0, cfg.Redis.DB, "unparseable ints fall back")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "server_url: [", "invalid config file"},
		{"data source", "data_source: csv", "unknown data_source"},
		{"session store", "session_store: etcd", "unknown session_store"},
		{"redis addr", "session_store: redis\nredis:\n  addr: \"\"", "redis.addr is required"},
		{"negative timeout", "refresh_timeout: -1s", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestContextInjection(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { MustFromContext(context.Background()) })

	cfg := &GlobalConfig{NonInteractive: true}
	ctx := InjectConfig(context.Background(), cfg)
	assert.Same(t, cfg, MustFromContext(ctx))
}
