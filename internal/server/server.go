// Package server exposes documents, scoring, history and live practice
// sessions over HTTP and WebSocket.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/typedrill/internal/clock"
	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/session"
)

// Store is the persistence the server needs.
type Store interface {
	CreateDocument(ctx context.Context, title, content string) (model.Document, error)
	ListDocuments(ctx context.Context) ([]model.Document, error)
	Document(ctx context.Context, id string) (model.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	RecordRound(ctx context.Context, rec model.HistoryRecord) error
	ListHistory(ctx context.Context, filter model.HistoryFilter) ([]model.HistoryRecord, error)
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	// Practice is the session shape for websocket practice.
	Practice session.Config
	// Clock drives practice timers. Defaults to the system clock.
	Clock  clock.Clock
	Logger *slog.Logger
}

// NewRouter creates the chi router with all routes and middleware.
func NewRouter(st Store, opts Options) *chi.Mux {
	if opts.Clock == nil {
		opts.Clock = clock.System
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger := opts.Logger

	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	docsH := &docHandler{store: st}
	historyH := &historyHandler{store: st}
	practiceH := &practiceHandler{store: st, cfg: opts.Practice, clk: opts.Clock, logger: logger}

	r.Get("/api/health", healthHandler(st))
	r.Route("/api/docs", func(r chi.Router) {
		r.Get("/", docsH.List)
		r.Post("/", docsH.Create)
		r.Get("/{id}", docsH.Get)
		r.Delete("/{id}", docsH.Delete)
	})
	r.Post("/api/score", scoreHandler)
	r.Get("/api/history", historyH.List)
	r.Get("/ws/practice", practiceH.ServeHTTP)
	return r
}

// NewHTTPServer wraps handler with the timeouts used by typedrill serve.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func healthHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
