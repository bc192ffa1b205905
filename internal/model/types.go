// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how a round's word stream is built from a document.
type Mode string

const (
	// ModeSequential repeats the document words in order.
	ModeSequential Mode = "sequential"
	// ModeRandom samples document words uniformly with replacement.
	ModeRandom Mode = "random"
)

// ParseMode converts user input into a Mode. "script" is accepted as an alias for sequential.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeSequential), "script":
		return ModeSequential, nil
	case string(ModeRandom):
		return ModeRandom, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want random or sequential)", s)
	}
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeSequential {
		return ModeRandom
	}
	return ModeSequential
}

// Status is the state of a practice session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusWaiting  Status = "waiting"
	StatusRunning  Status = "running"
	StatusBreak    Status = "break"
	StatusFinished Status = "finished"
)

// Config defines practice settings.
type Config struct {
	DocID         string
	FilePath      string
	Mode          Mode
	Rounds        int
	Words         int
	RoundDuration time.Duration
	BreakDuration time.Duration
}

// Document is a stored reference text.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoundResult is the score of one completed round.
type RoundResult struct {
	TotalChars int     `json:"totalChars"`
	TypedChars int     `json:"typedChars"`
	Errors     int     `json:"errors"`
	Accuracy   float64 `json:"accuracy"`
	GrossWPM   float64 `json:"grossWPM"`
	NetWPM     float64 `json:"netWPM"`
	WordsCount int     `json:"wordsCount"`
	DurationMs int64   `json:"durationMs"`
}

// BetterThan reports whether r beats other: more words, then fewer errors.
func (r RoundResult) BetterThan(other RoundResult) bool {
	if r.WordsCount != other.WordsCount {
		return r.WordsCount > other.WordsCount
	}
	return r.Errors < other.Errors
}

// SessionState is a snapshot of a practice session.
type SessionState struct {
	Status    Status        `json:"status"`
	Round     int           `json:"round"`
	MaxRounds int           `json:"maxRounds"`
	Results   []RoundResult `json:"results"`
	Best      *RoundResult  `json:"best,omitempty"`
	Mode      Mode          `json:"mode"`
	DocID     string        `json:"docId"`
	Stream    []string      `json:"stream,omitempty"`
	Typed     []string      `json:"typed,omitempty"`
	Cursor    int           `json:"cursor"`
	Epoch     uint64        `json:"epoch"`
}

// HistoryRecord captures a completed round for the history log.
type HistoryRecord struct {
	ID         int64     `json:"id"`
	Round      int       `json:"round"`
	DocID      string    `json:"docId"`
	Mode       Mode      `json:"mode"`
	Words      int       `json:"words"`
	Errors     int       `json:"errors"`
	DurationMs int64     `json:"durationMs"`
	NetWPM     float64   `json:"netWPM"`
	Accuracy   float64   `json:"accuracy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HistoryFilter defines filters for history output.
type HistoryFilter struct {
	DocID string
	Since *time.Time
	Last  int
}
