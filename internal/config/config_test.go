package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Practice.Rounds != nil || cfg.Server.Addr != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigPractice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[practice]
mode = "sequential"
rounds = 5
round-seconds = 30

[server]
addr = ":9000"
retention-days = 14
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Practice.Mode == nil || *cfg.Practice.Mode != "sequential" {
		t.Fatalf("unexpected mode: %v", cfg.Practice.Mode)
	}
	if cfg.Practice.Rounds == nil || *cfg.Practice.Rounds != 5 {
		t.Fatalf("unexpected rounds: %v", cfg.Practice.Rounds)
	}
	if cfg.Practice.RoundSeconds == nil || *cfg.Practice.RoundSeconds != 30 {
		t.Fatalf("unexpected round seconds: %v", cfg.Practice.RoundSeconds)
	}
	if cfg.Practice.Words != nil {
		t.Fatalf("expected words to stay unset")
	}
	if cfg.Server.Addr == nil || *cfg.Server.Addr != ":9000" {
		t.Fatalf("unexpected addr: %v", cfg.Server.Addr)
	}
	if cfg.Server.RetentionDays == nil || *cfg.Server.RetentionDays != 14 {
		t.Fatalf("unexpected retention: %v", cfg.Server.RetentionDays)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[practice\nrounds = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	if got, want := DefaultConfigPath(), filepath.Join(dir, "cfg", "typedrill", "config.toml"); got != want {
		t.Fatalf("config path: got %q want %q", got, want)
	}
	if got, want := DefaultDBPath(), filepath.Join(dir, "data", "typedrill", "typedrill.db"); got != want {
		t.Fatalf("db path: got %q want %q", got, want)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TYPEDRILL_ADDR=:7777\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv(EnvAddr, "")
	os.Unsetenv(EnvAddr)
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := EnvString(EnvAddr, ":3000"); got != ":7777" {
		t.Fatalf("expected addr from env file, got %q", got)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestLogLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	if LogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level")
	}
	t.Setenv(EnvLogLevel, "")
	if LogLevel() != slog.LevelInfo {
		t.Fatalf("expected info level by default")
	}
}
