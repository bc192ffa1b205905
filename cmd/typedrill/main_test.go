package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/typedrill/internal/config"
	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/store"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestPracticeConfigFlagsOverrideFile(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--rounds", "5", "--mode", "sequential"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	file := config.PracticeConfig{
		Mode:         strPtr("random"),
		Rounds:       intPtr(2),
		Words:        intPtr(100),
		RoundSeconds: intPtr(30),
	}
	cfg, err := practiceConfig(cmd, file)
	if err != nil {
		t.Fatalf("practice config: %v", err)
	}
	if cfg.Rounds != 5 || cfg.Mode != model.ModeSequential {
		t.Fatalf("expected flags to win, got %+v", cfg)
	}
	if cfg.Words != 100 || cfg.RoundDuration != 30*time.Second {
		t.Fatalf("expected file values when flags unset, got %+v", cfg)
	}
	if cfg.BreakDuration != defaultBreakSeconds*time.Second {
		t.Fatalf("expected default break, got %v", cfg.BreakDuration)
	}
}

func TestPracticeConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "rounds", args: []string{"--rounds", "0"}, want: "--rounds"},
		{name: "words", args: []string{"--words", "-1"}, want: "--words"},
		{name: "round seconds", args: []string{"--round-seconds", "0"}, want: "--round-seconds"},
		{name: "break seconds", args: []string{"--break-seconds", "-1"}, want: "--break-seconds"},
		{name: "mode", args: []string{"--mode", "zigzag"}, want: "--mode"},
		{name: "doc and file", args: []string{"--doc", "a", "--file", "b.txt"}, want: "mutually exclusive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			_, err := practiceConfig(cmd, config.PracticeConfig{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBreakSecondsZeroAllowed(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--break-seconds", "0"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := practiceConfig(cmd, config.PracticeConfig{})
	if err != nil {
		t.Fatalf("practice config: %v", err)
	}
	if cfg.BreakDuration != 0 {
		t.Fatalf("expected zero break, got %v", cfg.BreakDuration)
	}
}

func TestResolveDocument(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "typedrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	if _, err := resolveDocument(ctx, st, model.Config{}); err == nil || !strings.Contains(err.Error(), "docs add") {
		t.Fatalf("expected hint to add a document, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "lesson.txt")
	if err := os.WriteFile(path, []byte("home row keys\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	imported, err := resolveDocument(ctx, st, model.Config{FilePath: path})
	if err != nil {
		t.Fatalf("resolve file: %v", err)
	}
	if imported.Title != "lesson" || imported.Content != "home row keys" {
		t.Fatalf("unexpected imported document %+v", imported)
	}

	newest, err := resolveDocument(ctx, st, model.Config{})
	if err != nil || newest.ID != imported.ID {
		t.Fatalf("expected newest document, got %+v %v", newest, err)
	}

	byID, err := resolveDocument(ctx, st, model.Config{DocID: imported.ID})
	if err != nil || byID.ID != imported.ID {
		t.Fatalf("expected document by id, got %+v %v", byID, err)
	}
	if _, err := resolveDocument(ctx, st, model.Config{DocID: "nope"}); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestHistoryFilter(t *testing.T) {
	filter, err := historyFilter("d1", "2026-02-03", 10)
	if err != nil {
		t.Fatalf("history filter: %v", err)
	}
	if filter.DocID != "d1" || filter.Last != 10 || filter.Since == nil {
		t.Fatalf("unexpected filter %+v", filter)
	}
	if filter.Since.Year() != 2026 || filter.Since.Month() != time.February || filter.Since.Day() != 3 {
		t.Fatalf("unexpected since %v", filter.Since)
	}
	if _, err := historyFilter("", "02/03/2026", 0); err == nil {
		t.Fatalf("expected error for bad date")
	}
	if _, err := historyFilter("", "", -1); err == nil {
		t.Fatalf("expected error for negative last")
	}
}

func TestServeSettingsPrecedence(t *testing.T) {
	t.Setenv(config.EnvAddr, "")
	t.Setenv(config.EnvDBPath, "")
	file := config.ServerConfig{Addr: strPtr(":4000"), RetentionDays: intPtr(30)}

	cmd := newServeCmd()
	addr, _, days := serveSettings(cmd, file)
	if addr != ":4000" || days != 30 {
		t.Fatalf("expected file values, got %s %d", addr, days)
	}

	t.Setenv(config.EnvAddr, ":5000")
	t.Setenv(config.EnvDBPath, "/tmp/env.db")
	cmd = newServeCmd()
	addr, dbPath, _ := serveSettings(cmd, file)
	if addr != ":5000" || dbPath != "/tmp/env.db" {
		t.Fatalf("expected env values, got %s %s", addr, dbPath)
	}

	cmd = newServeCmd()
	if err := cmd.ParseFlags([]string{"--addr", ":6000", "--db", "/tmp/flag.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	addr, dbPath, _ = serveSettings(cmd, file)
	if addr != ":6000" || dbPath != "/tmp/flag.db" {
		t.Fatalf("expected flag values, got %s %s", addr, dbPath)
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	var cfg config.FileConfig
	if _, err := toml.Decode(defaultConfigTemplate(), &cfg); err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	uncommented := strings.NewReplacer("# mode", "mode", "# rounds", "rounds", "# addr", "addr").Replace(defaultConfigTemplate())
	if _, err := toml.Decode(uncommented, &cfg); err != nil {
		t.Fatalf("uncommented template does not parse: %v", err)
	}
	if cfg.Practice.Rounds == nil || *cfg.Practice.Rounds != defaultRounds || cfg.Server.Addr == nil || *cfg.Server.Addr != defaultAddr {
		t.Fatalf("unexpected parsed template %+v", cfg)
	}
}
