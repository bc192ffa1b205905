package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Pruner deletes old history.
type Pruner interface {
	PruneHistory(ctx context.Context, before time.Time) (int64, error)
}

// Retention prunes history older than a number of days once a day.
type Retention struct {
	scheduler *gocron.Scheduler
	store     Pruner
	days      int
	logger    *slog.Logger
	now       func() time.Time
}

// NewRetention creates a retention job. days <= 0 disables pruning.
func NewRetention(store Pruner, days int, logger *slog.Logger) *Retention {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Retention{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		days:      days,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the daily prune, running it once immediately.
func (r *Retention) Start() error {
	if r.days <= 0 {
		r.logger.Info("history retention disabled")
		return nil
	}
	if _, err := r.scheduler.Every(1).Day().Do(r.run); err != nil {
		return fmt.Errorf("failed to schedule retention: %w", err)
	}
	r.scheduler.StartAsync()
	return nil
}

// Stop terminates the scheduler.
func (r *Retention) Stop() {
	r.scheduler.Stop()
}

func (r *Retention) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := r.Prune(ctx); err != nil {
		r.logger.Error("history prune failed", "error", err)
	}
}

// Prune removes rounds recorded more than days ago.
func (r *Retention) Prune(ctx context.Context) (int64, error) {
	if r.days <= 0 {
		return 0, nil
	}
	cutoff := r.now().AddDate(0, 0, -r.days)
	n, err := r.store.PruneHistory(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	r.logger.Info("history pruned", "removed", n, "before", cutoff.Format(time.RFC3339))
	return n, nil
}
