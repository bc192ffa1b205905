// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/typedrill/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

const (
	docIDLen = 10
	// Fixed-width UTC timestamps so text ordering matches time ordering.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store wraps SQLite access for documents and round history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers from the server and timers.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY,
			doc_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			mode TEXT NOT NULL,
			words INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			net_wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_history_doc_id ON history(doc_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func newDocID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:docIDLen]
}

// CreateDocument stores a new document. A blank title gets a timestamped default.
func (s *Store) CreateDocument(ctx context.Context, title, content string) (model.Document, error) {
	if strings.TrimSpace(content) == "" {
		return model.Document{}, fmt.Errorf("content is required")
	}
	now := s.now().UTC()
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Document " + now.Local().Format("2006-01-02 15:04:05")
	}
	doc := model.Document{
		ID:        newDocID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, content, created_at) VALUES (?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Content, doc.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return model.Document{}, err
	}
	return doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, created_at FROM documents ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	docs := []model.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Document returns the document with the given id or ErrNotFound.
func (s *Store) Document(ctx context.Context, id string) (model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Document{}, err
	}
	return doc, nil
}

// DeleteDocument removes a document. History rows are kept.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (model.Document, error) {
	var doc model.Document
	var createdAt string
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &createdAt); err != nil {
		return model.Document{}, err
	}
	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return model.Document{}, err
	}
	doc.CreatedAt = parsed
	return doc, nil
}

// RecordRound appends a completed round to the history log.
func (s *Store) RecordRound(ctx context.Context, rec model.HistoryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (doc_id, round, mode, words, errors, duration_ms, net_wpm, accuracy, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.DocID,
		rec.Round,
		string(rec.Mode),
		rec.Words,
		rec.Errors,
		rec.DurationMs,
		rec.NetWPM,
		rec.Accuracy,
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// ListHistory returns recorded rounds matching the filter, oldest first.
func (s *Store) ListHistory(ctx context.Context, filter model.HistoryFilter) ([]model.HistoryRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.DocID != "" {
		clauses = append(clauses, "doc_id = ?")
		args = append(args, filter.DocID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, doc_id, round, mode, words, errors, duration_ms, net_wpm, accuracy, created_at
		FROM history
		WHERE %s
		ORDER BY created_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	records := []model.HistoryRecord{}
	for rows.Next() {
		var rec model.HistoryRecord
		var mode, createdAt string
		if err := rows.Scan(&rec.ID, &rec.DocID, &rec.Round, &mode, &rec.Words, &rec.Errors,
			&rec.DurationMs, &rec.NetWPM, &rec.Accuracy, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, err
		}
		rec.Mode = model.Mode(mode)
		rec.CreatedAt = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// PruneHistory deletes rounds recorded before the cutoff and returns how many were removed.
func (s *Store) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE created_at < ?`,
		before.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
