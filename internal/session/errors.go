package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/wordlist"
)

var (
	// ErrEmptyStream means the document has no words to practice.
	ErrEmptyStream = errors.New("no content available")
	// ErrIllegalTransition means the operation is not allowed in the current state.
	ErrIllegalTransition = errors.New("operation not allowed in current state")
	// ErrNotAccepting means input arrived while no round is open.
	ErrNotAccepting = fmt.Errorf("input not accepted: %w", ErrIllegalTransition)
)

// DocumentProvider looks up stored documents.
type DocumentProvider interface {
	Document(ctx context.Context, id string) (model.Document, error)
}

// HistorySink receives a record after every completed round.
type HistorySink interface {
	RecordRound(ctx context.Context, rec model.HistoryRecord) error
}

// LoadDocument fetches a document and rejects one with nothing to type.
func LoadDocument(ctx context.Context, docs DocumentProvider, id string) (model.Document, error) {
	doc, err := docs.Document(ctx, id)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to load document: %w", err)
	}
	if len(wordlist.Tokenize(doc.Content)) == 0 {
		return model.Document{}, fmt.Errorf("document %q: %w", id, ErrEmptyStream)
	}
	return doc, nil
}
