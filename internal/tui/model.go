// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/session"
	"github.com/verte-zerg/typedrill/internal/stats"
)

// pageSize is the number of stream words shown at once.
const pageSize = 40

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = currentWordStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cardTitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

var (
	cardStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	bestCardStyle = cardStyle.BorderForeground(lipgloss.Color("#C89A3A"))
)

// Engine is the part of session.Engine the UI drives.
type Engine interface {
	Start() error
	Begin() error
	SubmitWord(text string) (session.WordFeedback, error)
	SetMode(mode model.Mode) error
	State() model.SessionState
	Close()
}

type eventMsg session.Event

type startedMsg struct{ err error }

// Events queues engine events for the program. Its Listen method is the
// engine listener.
type Events struct {
	mu    sync.Mutex
	queue []session.Event
	wake  chan struct{}
}

// NewEvents returns an empty event queue.
func NewEvents() *Events {
	return &Events{wake: make(chan struct{}, 1)}
}

// Listen queues ev and never blocks, so the engine may emit from inside
// Update.
func (e *Events) Listen(ev session.Event) {
	e.mu.Lock()
	e.queue = append(e.queue, ev)
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Events) pop() (session.Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return session.Event{}, false
	}
	ev := e.queue[0]
	e.queue[0] = session.Event{}
	e.queue = e.queue[1:]
	return ev, true
}

// wait delivers the next queued event. Only one wait is outstanding at a time.
func (e *Events) wait() tea.Cmd {
	return func() tea.Msg {
		for {
			if ev, ok := e.pop(); ok {
				return eventMsg(ev)
			}
			<-e.wake
		}
	}
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	engine  Engine
	events  *Events
	history stats.HistoryLister
	title   string

	input textinput.Model

	width  int
	height int

	state      model.SessionState
	remaining  time.Duration
	lastResult *model.RoundResult
	notice     string
	err        error

	lastWPM float64
	lastAcc float64
	hasLast bool

	allWPM float64
	allAcc float64
	allN   int
}

// NewModel constructs a typing TUI model. history may be nil.
func NewModel(engine Engine, events *Events, history stats.HistoryLister, title string) *Model {
	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "start typing"
	input.CharLimit = 64
	input.Focus()

	m := &Model{
		engine:  engine,
		events:  events,
		history: history,
		title:   title,
		input:   input,
		state:   engine.State(),
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.events.wait(), func() tea.Msg {
		return startedMsg{err: m.engine.Start()}
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.state = m.engine.State()
		return m, nil
	case eventMsg:
		m.handleEvent(session.Event(msg))
		return m, m.events.wait()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.engine.Close()
		return m, tea.Quit
	case tea.KeyCtrlR:
		m.notice = ""
		m.lastResult = nil
		m.input.Reset()
		if err := m.engine.Start(); err != nil {
			m.notice = err.Error()
		}
		m.state = m.engine.State()
		return m, nil
	case tea.KeyTab:
		m.toggleMode()
		return m, nil
	case tea.KeySpace, tea.KeyEnter:
		m.submit()
		return m, nil
	}

	if !m.accepting() {
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		if strings.ContainsRune(string(msg.Runes), ' ') {
			// Pasted text: submit each completed word.
			for _, r := range msg.Runes {
				if r == ' ' {
					m.submit()
					continue
				}
				m.input.SetValue(m.input.Value() + string(r))
			}
			m.input.CursorEnd()
			return m, nil
		}
		if m.state.Status == model.StatusWaiting {
			if err := m.engine.Begin(); err != nil {
				m.notice = err.Error()
			}
			m.state = m.engine.State()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) accepting() bool {
	return m.state.Status == model.StatusWaiting || m.state.Status == model.StatusRunning
}

func (m *Model) submit() {
	word := m.input.Value()
	m.input.Reset()
	if strings.TrimSpace(word) == "" {
		return
	}
	if _, err := m.engine.SubmitWord(word); err != nil {
		if errors.Is(err, session.ErrNotAccepting) {
			m.notice = "round is over, wait for the next one"
		} else {
			m.notice = err.Error()
		}
	}
	m.state = m.engine.State()
}

func (m *Model) toggleMode() {
	next := m.state.Mode.Toggle()
	if err := m.engine.SetMode(next); err != nil {
		if errors.Is(err, session.ErrIllegalTransition) {
			m.notice = "mode can only change between rounds"
		} else {
			m.notice = err.Error()
		}
		return
	}
	m.notice = fmt.Sprintf("mode: %s", next)
	m.state = m.engine.State()
}

// handleEvent reacts to a queued event. Queued snapshots may be older than
// what submit or restart already read, so the view always takes the engine's
// current state and only uses the remaining time of events from that phase.
func (m *Model) handleEvent(ev session.Event) {
	m.state = m.engine.State()
	current := ev.State.Epoch == m.state.Epoch && ev.State.Status == m.state.Status
	switch ev.Kind {
	case session.EventRoundReady:
		if current {
			m.remaining = 0
			m.input.Reset()
		}
	case session.EventRoundStarted, session.EventTick, session.EventBreakTick:
		if current {
			m.remaining = ev.Remaining
		}
	case session.EventWord:
		if current {
			m.remaining = ev.Remaining
		}
		if ev.Feedback != nil && ev.Feedback.Correct {
			m.notice = ""
		}
	case session.EventRoundEnded:
		if current {
			m.remaining = ev.Remaining
		}
		m.lastResult = ev.Result
		m.input.Reset()
		if ev.Result != nil {
			m.recordFooter(*ev.Result)
		}
	case session.EventFinished:
		m.remaining = 0
		m.input.Reset()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return incorrectStyle.Render(m.err.Error()) + "\n"
	}
	var body string
	switch m.state.Status {
	case model.StatusBreak:
		body = m.renderBreak()
	case model.StatusFinished:
		body = m.renderFinished()
	case model.StatusIdle:
		body = pendingStyle.Render("loading…")
	default:
		body = m.renderRound()
	}
	if m.width == 0 || m.height == 0 {
		return body + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	content := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return content + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) renderRound() string {
	start, end := pageBounds(len(m.state.Stream), m.state.Cursor, pageSize)
	typed := m.state.Typed
	if len(typed) > end {
		typed = typed[:end]
	}
	var pageTyped []string
	if len(typed) > start {
		pageTyped = typed[start:]
	}
	runes := buildStyledRunes(m.state.Stream[start:end], pageTyped, m.state.Cursor-start, m.input.Value())
	width := m.contentWidth()
	text := wrapStyledRunes(runes, width)
	if width > 0 {
		text = lipgloss.NewStyle().Width(width).Render(text)
	}
	lines := []string{text, "", m.input.View()}
	if m.state.Status == model.StatusWaiting {
		lines = append(lines, pendingStyle.Render("the clock starts with your first keystroke"))
	}
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBreak() string {
	lines := []string{}
	if m.lastResult != nil {
		lines = append(lines, renderCard(fmt.Sprintf("Round %d", m.state.Round), *m.lastResult, cardStyle))
	}
	lines = append(lines, pendingStyle.Render(fmt.Sprintf("next round in %s", formatRemaining(m.remaining))))
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFinished() string {
	lines := []string{}
	if m.state.Best != nil {
		lines = append(lines, renderCard("Best round", *m.state.Best, bestCardStyle))
	}
	cards := make([]string, 0, len(m.state.Results))
	for i, r := range m.state.Results {
		cards = append(cards, renderCard(fmt.Sprintf("Round %d", i+1), r, cardStyle))
	}
	if len(cards) > 0 {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	lines = append(lines, pendingStyle.Render("ctrl+r to practice again · esc to quit"))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func renderCard(title string, r model.RoundResult, style lipgloss.Style) string {
	body := strings.Join([]string{
		cardTitleStyle.Render(title),
		cardValueStyle.Render(fmt.Sprintf("%d words", r.WordsCount)),
		fmt.Sprintf("%d errors", r.Errors),
		fmt.Sprintf("%.1f WPM · %.1f%%", r.NetWPM, r.Accuracy*100),
	}, "\n")
	return style.Render(body)
}

func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func (m *Model) loadFooterStats() {
	if m.history == nil {
		return
	}
	records, err := m.history.ListHistory(context.Background(), model.HistoryFilter{DocID: m.state.DocID})
	if err != nil {
		logErrf("failed to load history: %v\n", err)
		return
	}
	for _, r := range records {
		m.recordFooter(model.RoundResult{NetWPM: r.NetWPM, Accuracy: r.Accuracy})
	}
}

func (m *Model) recordFooter(r model.RoundResult) {
	m.lastWPM = r.NetWPM
	m.lastAcc = r.Accuracy
	m.hasLast = true
	n := float64(m.allN)
	m.allWPM = (m.allWPM*n + r.NetWPM) / (n + 1)
	m.allAcc = (m.allAcc*n + r.Accuracy) / (n + 1)
	m.allN++
}

func (m *Model) renderFooter() string {
	if m.state.MaxRounds == 0 {
		return ""
	}
	segments := []string{fmt.Sprintf("Round %d/%d", m.state.Round, m.state.MaxRounds)}
	if m.title != "" {
		segments = append(segments, m.title)
	}
	segments = append(segments, string(m.state.Mode))
	if m.state.Status == model.StatusRunning {
		segments = append(segments, formatRemaining(m.remaining))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.lastWPM, m.lastAcc*100))
	}
	if m.allN > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", m.allWPM, m.allAcc*100))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
