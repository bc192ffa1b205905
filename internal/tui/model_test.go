package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/session"
)

type fakeEngine struct {
	state     model.SessionState
	submitted []string
	begun     int
	started   int
	modeErr   error
	closed    bool
}

func (f *fakeEngine) Start() error {
	f.started++
	f.state.Status = model.StatusWaiting
	f.state.Round = 1
	return nil
}

func (f *fakeEngine) Begin() error {
	f.begun++
	f.state.Status = model.StatusRunning
	return nil
}

func (f *fakeEngine) SubmitWord(text string) (session.WordFeedback, error) {
	if f.state.Status != model.StatusWaiting && f.state.Status != model.StatusRunning {
		return session.WordFeedback{}, session.ErrNotAccepting
	}
	f.state.Status = model.StatusRunning
	f.submitted = append(f.submitted, text)
	f.state.Typed = append(f.state.Typed, text)
	f.state.Cursor++
	return session.WordFeedback{Accepted: true}, nil
}

func (f *fakeEngine) SetMode(mode model.Mode) error {
	if f.modeErr != nil {
		return f.modeErr
	}
	f.state.Mode = mode
	return nil
}

func (f *fakeEngine) State() model.SessionState { return f.state }

func (f *fakeEngine) Close() { f.closed = true }

type fakeHistory []model.HistoryRecord

func (h fakeHistory) ListHistory(_ context.Context, _ model.HistoryFilter) ([]model.HistoryRecord, error) {
	return h, nil
}

func newFakeModel(t *testing.T) (*Model, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{state: model.SessionState{
		Status:    model.StatusIdle,
		MaxRounds: 3,
		Mode:      model.ModeRandom,
		Stream:    []string{"one", "two", "three"},
	}}
	m := NewModel(eng, NewEvents(), nil, "doc")
	m.Update(startedMsg{err: eng.Start()})
	return m, eng
}

func typeString(m *Model, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestFirstKeystrokeBeginsRound(t *testing.T) {
	m, eng := newFakeModel(t)
	typeString(m, "on")
	if eng.begun != 1 {
		t.Fatalf("expected one Begin call, got %d", eng.begun)
	}
	if m.input.Value() != "on" {
		t.Fatalf("expected input to hold partial word, got %q", m.input.Value())
	}
	typeString(m, "e two ")
	if strings.Join(eng.submitted, ",") != "one,two" {
		t.Fatalf("unexpected submitted words %v", eng.submitted)
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared after submit")
	}
}

func TestPasteSubmitsWords(t *testing.T) {
	m, eng := newFakeModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("one two th")})
	if strings.Join(eng.submitted, ",") != "one,two" {
		t.Fatalf("unexpected submitted words %v", eng.submitted)
	}
	if m.input.Value() != "th" {
		t.Fatalf("expected remainder in input, got %q", m.input.Value())
	}
}

func TestTabRejectedDuringRound(t *testing.T) {
	m, eng := newFakeModel(t)
	eng.modeErr = errors.New("mode change during a round: " + session.ErrIllegalTransition.Error())
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.notice != eng.modeErr.Error() {
		t.Fatalf("expected raw error notice, got %q", m.notice)
	}

	eng.modeErr = errors.Join(session.ErrIllegalTransition)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !strings.Contains(m.notice, "between rounds") {
		t.Fatalf("expected mode warning, got %q", m.notice)
	}
	if eng.state.Mode != model.ModeRandom {
		t.Fatalf("mode changed despite rejection")
	}

	eng.modeErr = nil
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if eng.state.Mode != model.ModeSequential || m.state.Mode != model.ModeSequential {
		t.Fatalf("expected mode toggled to sequential")
	}
}

func TestKeysIgnoredDuringBreak(t *testing.T) {
	m, eng := newFakeModel(t)
	result := model.RoundResult{WordsCount: 12, Errors: 1, NetWPM: 11.5, Accuracy: 0.95}
	eng.state.Status = model.StatusBreak
	m.Update(eventMsg(session.Event{Kind: session.EventRoundEnded, State: eng.state, Result: &result, Remaining: 5 * time.Second}))
	typeString(m, "abc ")
	if len(eng.submitted) != 0 || m.input.Value() != "" {
		t.Fatalf("expected input ignored during break")
	}
	view := m.View()
	if !strings.Contains(view, "12 words") || !strings.Contains(view, "next round in 0:05") {
		t.Fatalf("expected round card in break view: %s", view)
	}
	if !m.hasLast || m.lastWPM != 11.5 {
		t.Fatalf("expected footer stats updated from round result")
	}
}

func TestRestartAndQuit(t *testing.T) {
	m, eng := newFakeModel(t)
	typeString(m, "one ")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if eng.started != 2 {
		t.Fatalf("expected restart to call Start, got %d calls", eng.started)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil || !eng.closed {
		t.Fatalf("expected quit command and closed engine")
	}
}

func TestFinishedViewShowsBest(t *testing.T) {
	m, eng := newFakeModel(t)
	best := model.RoundResult{WordsCount: 15, Errors: 2}
	eng.state.Status = model.StatusFinished
	eng.state.Results = []model.RoundResult{{WordsCount: 10, Errors: 1}, best, {WordsCount: 12}}
	eng.state.Best = &best
	m.Update(eventMsg(session.Event{Kind: session.EventFinished, State: eng.state, Result: &best}))
	view := m.View()
	if !containsAll(view, []string{"Best round", "15 words", "Round 3"}) {
		t.Fatalf("expected final screen with best round: %s", view)
	}
}

func TestFooterLoadsHistory(t *testing.T) {
	eng := &fakeEngine{state: model.SessionState{MaxRounds: 3}}
	history := fakeHistory{{NetWPM: 30, Accuracy: 0.9}, {NetWPM: 50, Accuracy: 0.8}}
	m := NewModel(eng, NewEvents(), history, "")
	if !m.hasLast || m.lastWPM != 50 || m.allWPM != 40 {
		t.Fatalf("unexpected footer stats from history: last=%.1f all=%.1f", m.lastWPM, m.allWPM)
	}
}

func TestEventsListenQueues(t *testing.T) {
	ev := NewEvents()
	ev.Listen(session.Event{Kind: session.EventTick, Remaining: time.Second})
	msg := ev.wait()()
	got, ok := msg.(eventMsg)
	if !ok || got.Kind != session.EventTick {
		t.Fatalf("expected tick event, got %#v", msg)
	}
}
