package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("typedrill %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestDocsAddListRemove(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "home-row.txt")
	if err := os.WriteFile(path, []byte("asdf jkl semicolon\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	id := strings.TrimSpace(runCLI(t, "docs", "add", path))
	if len(id) != 10 {
		t.Fatalf("expected a 10 char id, got %q", id)
	}

	list := runCLI(t, "docs", "list")
	if !strings.Contains(list, id) || !strings.Contains(list, "home-row") || !strings.Contains(list, "Words") {
		t.Fatalf("unexpected list output:\n%s", list)
	}

	runCLI(t, "docs", "rm", id)
	if list := runCLI(t, "docs", "list"); strings.Contains(list, id) {
		t.Fatalf("expected document to be removed:\n%s", list)
	}
}

func TestDocsImportReportsCounts(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "lessons.csv")
	data := "title,content\nOne,first lesson\nTwo,\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := runCLI(t, "docs", "import", path)
	if !strings.Contains(out, "Processed 2, created 1, skipped 1") {
		t.Fatalf("unexpected import output:\n%s", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	out := runCLI(t, "history", "--last", "5")
	if !strings.Contains(out, "No rounds recorded.") {
		t.Fatalf("unexpected history output:\n%s", out)
	}
}
