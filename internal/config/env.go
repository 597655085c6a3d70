// Package config handles environment-based configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// EnvConfig holds all environment-variable-driven settings.
type EnvConfig struct {
	// Network
	Host string
	Port int

	// Storage
	DataDir      string
	DatabasePath string

	// API
	APIMaxBodyBytes int
}

// LoadEnvConfig reads environment variables and returns a validated EnvConfig.
// Returns an error if any value is invalid.
func LoadEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	var errs []string

	cfg.Host = strings.TrimSpace(envStr("HOST", "0.0.0.0"))
	cfg.Port = envInt("PORT", 3000, &errs)
	cfg.APIMaxBodyBytes = envInt("JSLINK_API_MAX_BODY_BYTES", 16<<20, &errs)

	cfg.DataDir = envStr("JSLINK_DATA_DIR", "")
	if cfg.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, ".js-link")
		} else {
			cfg.DataDir = "."
		}
	}

	// DATABASE_URL overrides the data-dir default outright; it is used as
	// a plain file path (or ":memory:").
	cfg.DatabasePath = envStr("DATABASE_URL", "")
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, "jslink.db")
	}
	cfg.DatabasePath = strings.TrimPrefix(cfg.DatabasePath, "sqlite://")

	if cfg.Host == "" {
		errs = append(errs, "HOST must not be empty")
	}
	validatePort("PORT", cfg.Port, &errs)
	validatePositive("JSLINK_API_MAX_BODY_BYTES", cfg.APIMaxBodyBytes, &errs)

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}

	return cfg, nil
}

// ListenAddr returns the host:port the API server binds to.
func (c *EnvConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EnsureDataDir creates the data directory when the database lives inside it.
func (c *EnvConfig) EnsureDataDir() error {
	if c.DatabasePath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(c.DatabasePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return nil
}

// --- helpers ---

func envStr(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int, errs *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid integer %q", key, v))
		return defaultVal
	}
	return n
}

func validatePort(name string, value int, errs *[]string) {
	if value < 1 || value > 65535 {
		*errs = append(*errs, fmt.Sprintf("%s: port must be 1-65535, got %d", name, value))
	}
}

func validatePositive(name string, value int, errs *[]string) {
	if value <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s: must be positive, got %d", name, value))
	}
}
