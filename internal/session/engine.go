package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/typedrill/internal/clock"
	"github.com/verte-zerg/typedrill/internal/generator"
	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/stats"
	"github.com/verte-zerg/typedrill/internal/wordlist"
)

// Defaults for a practice session.
const (
	DefaultRounds = 3
	DefaultWords  = 250
)

// Config defines the shape of a session.
type Config struct {
	Rounds        int
	Words         int
	RoundDuration time.Duration
	BreakDuration time.Duration
	PollInterval  time.Duration
	Mode          model.Mode
}

// DefaultConfig returns three one-minute rounds with five second breaks.
func DefaultConfig() Config {
	return Config{
		Rounds:        DefaultRounds,
		Words:         DefaultWords,
		RoundDuration: clock.DefaultRound,
		BreakDuration: clock.DefaultBreak,
		PollInterval:  clock.DefaultPoll,
		Mode:          model.ModeRandom,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithListener sets the event listener.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listener = l }
}

// WithHistorySink records every completed round.
func WithHistorySink(sink HistorySink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithLogger sets the logger used for stale timers and sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine is the session state machine. All state is guarded by mu.
type Engine struct {
	cfg      Config
	clk      clock.Clock
	gen      *generator.Generator
	rc       *clock.RoundClock
	listener Listener
	sink     HistorySink
	logger   *slog.Logger

	mu        sync.Mutex
	status    model.Status
	round     int
	results   []model.RoundResult
	bestIdx   int
	mode      model.Mode
	docID     string
	words     []string
	stream    []string
	typed     []string
	cursor    int
	startedAt time.Time
	epoch     uint64
}

// New returns an idle Engine. Zero or negative counts and durations take the
// defaults, except BreakDuration where zero means no break.
func New(cfg Config, clk clock.Clock, gen *generator.Generator, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.Rounds <= 0 {
		cfg.Rounds = def.Rounds
	}
	if cfg.Words <= 0 {
		cfg.Words = def.Words
	}
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = def.RoundDuration
	}
	if cfg.BreakDuration < 0 {
		cfg.BreakDuration = def.BreakDuration
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if clk == nil {
		clk = clock.System
	}
	if gen == nil {
		gen = generator.New()
	}
	e := &Engine{
		cfg:     cfg,
		clk:     clk,
		gen:     gen,
		rc:      clock.NewRoundClock(clk, cfg.RoundDuration, cfg.BreakDuration, cfg.PollInterval),
		status:  model.StatusIdle,
		bestIdx: -1,
		mode:    cfg.Mode,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetDocument replaces the practice text. Not allowed during a round.
func (e *Engine) SetDocument(doc model.Document) error {
	words := wordlist.Tokenize(doc.Content)
	if len(words) == 0 {
		return ErrEmptyStream
	}
	e.mu.Lock()
	if e.status == model.StatusRunning {
		e.mu.Unlock()
		return fmt.Errorf("document change during a round: %w", ErrIllegalTransition)
	}
	e.words = words
	e.docID = doc.ID
	var events []Event
	if e.status == model.StatusWaiting {
		e.rebuildLocked()
		events = append(events, e.eventLocked(EventRoundReady))
	}
	e.mu.Unlock()
	e.emit(events...)
	return nil
}

// Start resets the session to round one and waits for the first input.
// It can be called from any state.
func (e *Engine) Start() error {
	e.mu.Lock()
	if len(e.words) == 0 {
		e.mu.Unlock()
		return ErrEmptyStream
	}
	e.rc.Stop()
	e.epoch++
	e.status = model.StatusWaiting
	e.round = 1
	e.results = nil
	e.bestIdx = -1
	e.rebuildLocked()
	ev := e.eventLocked(EventRoundReady)
	e.mu.Unlock()
	e.emit(ev)
	return nil
}

// Begin handles the first input of a round and starts the countdown.
func (e *Engine) Begin() error {
	e.mu.Lock()
	events, err := e.beginLocked()
	e.mu.Unlock()
	e.emit(events...)
	return err
}

func (e *Engine) beginLocked() ([]Event, error) {
	switch e.status {
	case model.StatusRunning:
		return nil, nil
	case model.StatusWaiting:
	default:
		return nil, ErrNotAccepting
	}
	e.status = model.StatusRunning
	e.startedAt = e.clk.Now()
	epoch := e.epoch
	e.rc.StartCountdown(e.startedAt.Add(e.cfg.RoundDuration),
		func(remaining time.Duration) { e.countdownTick(epoch, remaining) },
		func() { e.roundElapsed(epoch) },
	)
	ev := e.eventLocked(EventRoundStarted)
	ev.Remaining = e.cfg.RoundDuration
	return []Event{ev}, nil
}

// SubmitWord records a completed word. Surrounding whitespace is dropped and
// an empty word is ignored. A word submitted while waiting starts the round.
func (e *Engine) SubmitWord(text string) (WordFeedback, error) {
	text = strings.TrimSpace(text)
	e.mu.Lock()
	if e.status != model.StatusWaiting && e.status != model.StatusRunning {
		e.mu.Unlock()
		return WordFeedback{}, ErrNotAccepting
	}
	if text == "" {
		e.mu.Unlock()
		return WordFeedback{}, nil
	}
	events, err := e.beginLocked()
	if err != nil {
		e.mu.Unlock()
		return WordFeedback{}, err
	}
	expected := ""
	if e.cursor < len(e.stream) {
		expected = e.stream[e.cursor]
	}
	fb := WordFeedback{
		Accepted: true,
		Index:    e.cursor,
		Typed:    text,
		Expected: expected,
		Correct:  text == expected,
	}
	e.typed = append(e.typed, text)
	e.cursor++
	ev := e.eventLocked(EventWord)
	ev.Feedback = &fb
	ev.Remaining = e.remainingLocked()
	events = append(events, ev)
	e.mu.Unlock()
	e.emit(events...)
	return fb, nil
}

// SetMode changes how streams are built. It is rejected while a round runs.
func (e *Engine) SetMode(mode model.Mode) error {
	if mode != model.ModeRandom && mode != model.ModeSequential {
		return fmt.Errorf("unknown mode %q", mode)
	}
	e.mu.Lock()
	if e.status == model.StatusRunning {
		e.mu.Unlock()
		return fmt.Errorf("mode change during a round: %w", ErrIllegalTransition)
	}
	e.mode = mode
	var events []Event
	if e.status == model.StatusWaiting {
		e.rebuildLocked()
		events = append(events, e.eventLocked(EventRoundReady))
	}
	e.mu.Unlock()
	e.emit(events...)
	return nil
}

// Finish ends the session immediately and cancels pending timers.
func (e *Engine) Finish() {
	e.mu.Lock()
	e.rc.Stop()
	e.epoch++
	e.status = model.StatusFinished
	ev := e.eventLocked(EventFinished)
	ev.Result = ev.State.Best
	e.mu.Unlock()
	e.emit(ev)
}

// Close cancels pending timers without emitting events.
func (e *Engine) Close() {
	e.mu.Lock()
	e.rc.Stop()
	e.epoch++
	e.mu.Unlock()
}

// State returns a snapshot of the session.
func (e *Engine) State() model.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Remaining returns the time left in the running round.
func (e *Engine) Remaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remainingLocked()
}

func (e *Engine) remainingLocked() time.Duration {
	switch e.status {
	case model.StatusRunning:
		left := e.startedAt.Add(e.cfg.RoundDuration).Sub(e.clk.Now())
		if left < 0 {
			return 0
		}
		return left
	case model.StatusWaiting:
		return e.cfg.RoundDuration
	default:
		return 0
	}
}

func (e *Engine) countdownTick(epoch uint64, remaining time.Duration) {
	e.mu.Lock()
	if epoch != e.epoch || e.status != model.StatusRunning {
		e.mu.Unlock()
		return
	}
	ev := e.eventLocked(EventTick)
	ev.Remaining = remaining
	e.mu.Unlock()
	e.emit(ev)
}

func (e *Engine) roundElapsed(epoch uint64) {
	e.mu.Lock()
	if epoch != e.epoch || e.status != model.StatusRunning {
		e.mu.Unlock()
		e.logger.Debug("dropping stale round timer", "epoch", epoch)
		return
	}
	now := e.clk.Now()
	elapsed := now.Sub(e.startedAt)
	if elapsed > e.cfg.RoundDuration {
		elapsed = e.cfg.RoundDuration
	}
	if elapsed < 0 {
		elapsed = 0
	}

	// Only the words the user reached are compared; untouched stream words
	// are not counted as errors.
	consumed := min(len(e.typed), len(e.stream))
	result := stats.Score(strings.Join(e.stream[:consumed], " "), strings.Join(e.typed, " "), elapsed)
	result.WordsCount = consumed
	e.results = append(e.results, result)
	if e.bestIdx < 0 || result.BetterThan(e.results[e.bestIdx]) {
		e.bestIdx = len(e.results) - 1
	}
	e.status = model.StatusBreak

	rec := model.HistoryRecord{
		Round:      e.round,
		DocID:      e.docID,
		Mode:       e.mode,
		Words:      result.WordsCount,
		Errors:     result.Errors,
		DurationMs: result.DurationMs,
		NetWPM:     result.NetWPM,
		Accuracy:   result.Accuracy,
		CreatedAt:  now,
	}
	e.rc.StartBreak(
		func(remaining time.Duration) { e.breakTick(epoch, remaining) },
		func() { e.breakElapsed(epoch) },
	)
	ev := e.eventLocked(EventRoundEnded)
	ev.Result = &result
	ev.Remaining = e.cfg.BreakDuration
	e.mu.Unlock()

	e.emit(ev)
	if e.sink != nil {
		if err := e.sink.RecordRound(context.Background(), rec); err != nil {
			e.logger.Warn("failed to record round", "round", rec.Round, "error", err)
		}
	}
}

func (e *Engine) breakTick(epoch uint64, remaining time.Duration) {
	e.mu.Lock()
	if epoch != e.epoch || e.status != model.StatusBreak {
		e.mu.Unlock()
		return
	}
	ev := e.eventLocked(EventBreakTick)
	ev.Remaining = remaining
	e.mu.Unlock()
	e.emit(ev)
}

func (e *Engine) breakElapsed(epoch uint64) {
	e.mu.Lock()
	if epoch != e.epoch || e.status != model.StatusBreak {
		e.mu.Unlock()
		e.logger.Debug("dropping stale break timer", "epoch", epoch)
		return
	}
	e.epoch++
	var ev Event
	if e.round < e.cfg.Rounds {
		e.round++
		e.status = model.StatusWaiting
		e.rebuildLocked()
		ev = e.eventLocked(EventRoundReady)
	} else {
		e.status = model.StatusFinished
		ev = e.eventLocked(EventFinished)
		ev.Result = ev.State.Best
	}
	e.mu.Unlock()
	e.emit(ev)
}

// rebuildLocked replaces the stream and typed log together.
func (e *Engine) rebuildLocked() {
	e.stream = e.gen.Build(e.words, e.cfg.Words, e.mode)
	e.typed = nil
	e.cursor = 0
	e.startedAt = time.Time{}
}

func (e *Engine) stateLocked() model.SessionState {
	st := model.SessionState{
		Status:    e.status,
		Round:     e.round,
		MaxRounds: e.cfg.Rounds,
		Results:   append([]model.RoundResult(nil), e.results...),
		Mode:      e.mode,
		DocID:     e.docID,
		Stream:    append([]string(nil), e.stream...),
		Typed:     append([]string(nil), e.typed...),
		Cursor:    e.cursor,
		Epoch:     e.epoch,
	}
	if e.bestIdx >= 0 {
		best := e.results[e.bestIdx]
		st.Best = &best
	}
	return st
}

func (e *Engine) eventLocked(kind EventKind) Event {
	return Event{Kind: kind, State: e.stateLocked()}
}

func (e *Engine) emit(events ...Event) {
	if e.listener == nil {
		return
	}
	for _, ev := range events {
		e.listener(ev)
	}
}
