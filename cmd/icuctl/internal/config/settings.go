package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/icuboard/icuboard/pkg/sdk"
)

// Data sources understood by the CLI.
const (
	DataSourceAPI  = "api"
	DataSourceMock = "mock"
)

// Session stores understood by the CLI.
const (
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Settings holds the persistent icuctl configuration. Values come from
// ~/.icuctl/config.yaml and are overridden by ICU_* environment variables;
// command-line flags override both.
type Settings struct {
	// Base URL of the dashboard API
	ServerURL string `yaml:"server_url"`

	// Where views read beds and patients from: "api" or "mock"
	DataSource string `yaml:"data_source"`

	// Simulated latency of the mock data source
	MockLatency time.Duration `yaml:"mock_latency"`

	// Where the session is persisted: "file", "redis" or "memory"
	SessionStore string `yaml:"session_store"`

	// Directory holding session.json for the file store
	SessionDir string `yaml:"session_dir"`

	Redis RedisSettings `yaml:"redis"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Upper bound on a single token refresh; 0 disables it
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`

	// Fabricate a local session when the login endpoint is unreachable.
	// Development only.
	DevLoginFallback bool `yaml:"dev_login_fallback"`

	// Directory group that grants admin views
	AdminGroup string `yaml:"admin_group"`
}

// RedisSettings configures the shared session store.
type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		ServerURL:      "http://localhost:8000",
		DataSource:     DataSourceAPI,
		SessionStore:   SessionStoreFile,
		LogLevel:       "warn",
		LogFormat:      "text",
		RefreshTimeout: sdk.DefaultRefreshTimeout,
		AdminGroup:     sdk.AdminGroup,
		Redis: RedisSettings{
			Addr: "localhost:6379",
		},
	}
}

// DefaultPath returns ~/.icuctl/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".icuctl", "config.yaml"), nil
}

// Load reads settings from path (a missing file is not an error), applies
// environment overrides and validates the result.
func Load(path string) (*Settings, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.ServerURL = getEnv("ICU_SERVER_URL", cfg.ServerURL)
	cfg.DataSource = getEnv("ICU_DATA_SOURCE", cfg.DataSource)
	cfg.MockLatency = getEnvDuration("ICU_MOCK_LATENCY", cfg.MockLatency)
	cfg.SessionStore = getEnv("ICU_SESSION_STORE", cfg.SessionStore)
	cfg.SessionDir = getEnv("ICU_SESSION_DIR", cfg.SessionDir)
	cfg.Redis.Addr = getEnv("ICU_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("ICU_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("ICU_REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Prefix = getEnv("ICU_REDIS_PREFIX", cfg.Redis.Prefix)
	cfg.LogLevel = getEnv("ICU_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("ICU_LOG_FORMAT", cfg.LogFormat)
	cfg.RefreshTimeout = getEnvDuration("ICU_REFRESH_TIMEOUT", cfg.RefreshTimeout)
	cfg.DevLoginFallback = getEnvBool("ICU_DEV_LOGIN_FALLBACK", cfg.DevLoginFallback)
	cfg.AdminGroup = getEnv("ICU_ADMIN_GROUP", cfg.AdminGroup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and required fields.
func (s *Settings) Validate() error {
	if s.ServerURL == "" && s.DataSource == DataSourceAPI {
		return fmt.Errorf("server_url is required when data_source is %q", DataSourceAPI)
	}
	switch s.DataSource {
	case DataSourceAPI, DataSourceMock:
	default:
		return fmt.Errorf("unknown data_source %q (valid: api, mock)", s.DataSource)
	}
	switch s.SessionStore {
	case SessionStoreFile, SessionStoreMemory:
	case SessionStoreRedis:
		if s.Redis.Addr == "" {
			return errors.New("redis.addr is required when session_store is redis")
		}
	default:
		return fmt.Errorf("unknown session_store %q (valid: file, redis, memory)", s.SessionStore)
	}
	if s.RefreshTimeout < 0 {
		return fmt.Errorf("refresh_timeout must not be negative, got %s", s.RefreshTimeout)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		v := strings.ToLower(value)
		return v == "true" || v == "1" || v == "yes"
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15s") or bare seconds ("15").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
