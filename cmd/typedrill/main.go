// Package main provides the CLI entrypoint for typedrill.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typedrill/internal/clock"
	"github.com/verte-zerg/typedrill/internal/config"
	"github.com/verte-zerg/typedrill/internal/generator"
	"github.com/verte-zerg/typedrill/internal/importer"
	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/session"
	"github.com/verte-zerg/typedrill/internal/store"
	"github.com/verte-zerg/typedrill/internal/tui"
)

const (
	defaultMode         = string(model.ModeRandom)
	defaultRounds       = session.DefaultRounds
	defaultWords        = session.DefaultWords
	defaultRoundSeconds = 60
	defaultBreakSeconds = 5
)

var (
	practiceDoc          string
	practiceFile         string
	practiceMode         string
	practiceRounds       int
	practiceWords        int
	practiceRoundSeconds int
	practiceBreakSeconds int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typedrill",
		Short:         "Timed word-by-word typing drills",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceDoc, "doc", "", "document id to practice (default: newest document)")
	rootCmd.Flags().StringVar(&practiceFile, "file", "", "import a text file and practice it")
	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "stream mode: random or sequential")
	rootCmd.Flags().IntVar(&practiceRounds, "rounds", defaultRounds, "rounds per session")
	rootCmd.Flags().IntVar(&practiceWords, "words", defaultWords, "words per round stream")
	rootCmd.Flags().IntVar(&practiceRoundSeconds, "round-seconds", defaultRoundSeconds, "round length in seconds")
	rootCmd.Flags().IntVar(&practiceBreakSeconds, "break-seconds", defaultBreakSeconds, "break between rounds in seconds")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDocsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := practiceConfig(cmd, fileCfg.Practice)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	doc, err := resolveDocument(ctx, st, cfg)
	if err != nil {
		return err
	}

	events := tui.NewEvents()
	engine := session.New(session.Config{
		Rounds:        cfg.Rounds,
		Words:         cfg.Words,
		RoundDuration: cfg.RoundDuration,
		BreakDuration: cfg.BreakDuration,
		Mode:          cfg.Mode,
	}, clock.System, generator.New(),
		session.WithListener(events.Listen),
		session.WithHistorySink(st),
		// The TUI owns the terminal.
		session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	defer engine.Close()
	if err := engine.SetDocument(doc); err != nil {
		return fmt.Errorf("failed to load document %s: %w", doc.ID, err)
	}

	m := tui.NewModel(engine, events, st, doc.Title)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// practiceConfig merges flags over the config file and validates the result.
func practiceConfig(cmd *cobra.Command, file config.PracticeConfig) (model.Config, error) {
	applyStringConfig(cmd, "mode", &practiceMode, file.Mode)
	applyIntConfig(cmd, "rounds", &practiceRounds, file.Rounds)
	applyIntConfig(cmd, "words", &practiceWords, file.Words)
	applyIntConfig(cmd, "round-seconds", &practiceRoundSeconds, file.RoundSeconds)
	applyIntConfig(cmd, "break-seconds", &practiceBreakSeconds, file.BreakSeconds)

	mode, err := model.ParseMode(practiceMode)
	if err != nil {
		return model.Config{}, fmt.Errorf("--mode: %w", err)
	}
	cfg := model.Config{
		DocID:         strings.TrimSpace(practiceDoc),
		FilePath:      strings.TrimSpace(practiceFile),
		Mode:          mode,
		Rounds:        practiceRounds,
		Words:         practiceWords,
		RoundDuration: time.Duration(practiceRoundSeconds) * time.Second,
		BreakDuration: time.Duration(practiceBreakSeconds) * time.Second,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Rounds <= 0 {
		return fmt.Errorf("--rounds must be > 0")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.RoundDuration <= 0 {
		return fmt.Errorf("--round-seconds must be > 0")
	}
	if cfg.BreakDuration < 0 {
		return fmt.Errorf("--break-seconds must be >= 0")
	}
	if cfg.DocID != "" && cfg.FilePath != "" {
		return fmt.Errorf("--doc and --file are mutually exclusive")
	}
	return nil
}

type documentSource interface {
	session.DocumentProvider
	importer.DocumentCreator
	ListDocuments(ctx context.Context) ([]model.Document, error)
}

// resolveDocument picks the practice text: an imported file, an explicit id,
// or the newest stored document.
func resolveDocument(ctx context.Context, docs documentSource, cfg model.Config) (model.Document, error) {
	switch {
	case cfg.FilePath != "":
		res, err := importer.Import(ctx, docs, importer.DefaultConfig(cfg.FilePath))
		if err != nil {
			return model.Document{}, fmt.Errorf("failed to import %s: %w", cfg.FilePath, err)
		}
		if len(res.Documents) == 0 {
			return model.Document{}, fmt.Errorf("no documents imported from %s: %s", cfg.FilePath, strings.Join(res.Errors, "; "))
		}
		logErrf("Imported %d document(s) from %s\n", res.Created, cfg.FilePath)
		return session.LoadDocument(ctx, docs, res.Documents[0].ID)
	case cfg.DocID != "":
		doc, err := session.LoadDocument(ctx, docs, cfg.DocID)
		if errors.Is(err, store.ErrNotFound) {
			return model.Document{}, fmt.Errorf("document %s not found (list with: typedrill docs list)", cfg.DocID)
		}
		return doc, err
	}
	all, err := docs.ListDocuments(ctx)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(all) == 0 {
		return model.Document{}, fmt.Errorf("no documents yet; add one with: typedrill docs add <file>")
	}
	return session.LoadDocument(ctx, docs, all[0].ID)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typedrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q          # random or sequential
# rounds = %d              # Rounds per session
# words = %d             # Words per round stream
# round-seconds = %d      # Round length
# break-seconds = %d       # Break between rounds

[server]
# addr = %q          # Listen address for typedrill serve
# retention-days = %d      # Prune history older than this (0 keeps everything)
`,
		defaultMode,
		defaultRounds,
		defaultWords,
		defaultRoundSeconds,
		defaultBreakSeconds,
		defaultAddr,
		defaultRetentionDays,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
