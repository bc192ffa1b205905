package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/typedrill/internal/clock"
	"github.com/verte-zerg/typedrill/internal/config"
	"github.com/verte-zerg/typedrill/internal/server"
	"github.com/verte-zerg/typedrill/internal/session"
	"github.com/verte-zerg/typedrill/internal/store"
)

const (
	defaultAddr          = ":3000"
	defaultRetentionDays = 0
	shutdownTimeout      = 10 * time.Second
)

var (
	serveAddr          string
	serveDB            string
	serveEnvFile       string
	serveRetentionDays int
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&serveDB, "db", "", "database path (default: XDG data dir)")
	cmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "dotenv file to load")
	cmd.Flags().IntVar(&serveRetentionDays, "retention-days", defaultRetentionDays, "prune history older than N days (0 disables)")
	// Practice flags shared with the root command shape websocket sessions.
	cmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "default stream mode: random or sequential")
	cmd.Flags().IntVar(&practiceRounds, "rounds", defaultRounds, "rounds per session")
	cmd.Flags().IntVar(&practiceWords, "words", defaultWords, "words per round stream")
	cmd.Flags().IntVar(&practiceRoundSeconds, "round-seconds", defaultRoundSeconds, "round length in seconds")
	cmd.Flags().IntVar(&practiceBreakSeconds, "break-seconds", defaultBreakSeconds, "break between rounds in seconds")
	return cmd
}

// serveSettings resolves addr and db path: explicit flag, then environment,
// then config file, then defaults.
func serveSettings(cmd *cobra.Command, file config.ServerConfig) (addr, dbPath string, retentionDays int) {
	applyStringConfig(cmd, "addr", &serveAddr, file.Addr)
	applyIntConfig(cmd, "retention-days", &serveRetentionDays, file.RetentionDays)
	addr = serveAddr
	if !cmd.Flags().Changed("addr") {
		addr = config.EnvString(config.EnvAddr, addr)
	}
	dbPath = serveDB
	if dbPath == "" {
		dbPath = config.EnvString(config.EnvDBPath, config.DefaultDBPath())
	}
	return addr, dbPath, serveRetentionDays
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(serveEnvFile); err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.LogLevel()}))

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	practice, err := practiceConfig(cmd, fileCfg.Practice)
	if err != nil {
		return err
	}
	addr, dbPath, retentionDays := serveSettings(cmd, fileCfg.Server)
	if retentionDays < 0 {
		return fmt.Errorf("--retention-days must be >= 0")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "error", cerr)
		}
	}()

	router := server.NewRouter(st, server.Options{
		Practice: session.Config{
			Rounds:        practice.Rounds,
			Words:         practice.Words,
			RoundDuration: practice.RoundDuration,
			BreakDuration: practice.BreakDuration,
			Mode:          practice.Mode,
		},
		Clock:  clock.System,
		Logger: logger,
	})
	srv := server.NewHTTPServer(addr, router)

	retention := server.NewRetention(st, retentionDays, logger)
	if err := retention.Start(); err != nil {
		return err
	}
	defer retention.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("typedrill server starting", "addr", addr, "db", dbPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
