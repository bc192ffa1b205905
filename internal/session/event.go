package session

import (
	"time"

	"github.com/verte-zerg/typedrill/internal/model"
)

// EventKind identifies a session event.
type EventKind string

const (
	EventRoundReady   EventKind = "round_ready"
	EventRoundStarted EventKind = "round_started"
	EventTick         EventKind = "tick"
	EventWord         EventKind = "word"
	EventRoundEnded   EventKind = "round_ended"
	EventBreakTick    EventKind = "break_tick"
	EventFinished     EventKind = "finished"
)

// WordFeedback describes a submitted word. Correct is informational; the
// round score comes from edit distance over the whole round.
type WordFeedback struct {
	Accepted bool   `json:"accepted"`
	Index    int    `json:"index"`
	Typed    string `json:"typed"`
	Expected string `json:"expected"`
	Correct  bool   `json:"correct"`
}

// Event is delivered to the listener after a state change.
type Event struct {
	Kind      EventKind
	State     model.SessionState
	Remaining time.Duration
	Result    *model.RoundResult
	Feedback  *WordFeedback
}

// Listener receives session events. It is never called with the engine lock held.
type Listener func(Event)
