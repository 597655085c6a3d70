package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"HOST", "PORT", "JSLINK_API_MAX_BODY_BYTES", "JSLINK_DATA_DIR", "DATABASE_URL"} {
		// Setenv registers the restore; the variables must be absent, not
		// empty, for the defaults to apply.
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadEnvConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("JSLINK_DATA_DIR", t.TempDir())

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("LoadEnvConfig: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 3000 {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.APIMaxBodyBytes != 16<<20 {
		t.Fatalf("body limit: %d", cfg.APIMaxBodyBytes)
	}
	if filepath.Base(cfg.DatabasePath) != "jslink.db" {
		t.Fatalf("database path: %q", cfg.DatabasePath)
	}
	if cfg.ListenAddr() != "0.0.0.0:3000" {
		t.Fatalf("listen addr: %q", cfg.ListenAddr())
	}
}

func TestLoadEnvConfigOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8099")
	t.Setenv("DATABASE_URL", "sqlite:///tmp/custom/workbench.db")

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("LoadEnvConfig: %v", err)
	}
	if cfg.ListenAddr() != "127.0.0.1:8099" {
		t.Fatalf("listen addr: %q", cfg.ListenAddr())
	}
	if cfg.DatabasePath != "/tmp/custom/workbench.db" {
		t.Fatalf("database path: %q", cfg.DatabasePath)
	}
}

func TestLoadEnvConfigInvalid(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "99999")
	t.Setenv("JSLINK_API_MAX_BODY_BYTES", "abc")

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "PORT") || !strings.Contains(err.Error(), "JSLINK_API_MAX_BODY_BYTES") {
		t.Fatalf("error: %v", err)
	}
}

func TestEnsureDataDirMemory(t *testing.T) {
	cfg := &EnvConfig{DatabasePath: ":memory:"}
	if err := cfg.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
}

func TestEnsureDataDirCreates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := &EnvConfig{DatabasePath: filepath.Join(dir, "jslink.db")}
	if err := cfg.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
}
