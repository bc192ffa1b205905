package historyui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typedrill/internal/model"
)

type fakeHistory struct {
	records []model.HistoryRecord
	err     error
	filters []model.HistoryFilter
}

func (f *fakeHistory) ListHistory(_ context.Context, filter model.HistoryFilter) ([]model.HistoryRecord, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []model.HistoryRecord
	for _, r := range f.records {
		if filter.DocID != "" && r.DocID != filter.DocID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func sampleHistory() *fakeHistory {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &fakeHistory{records: []model.HistoryRecord{
		{Round: 1, DocID: "a", Mode: model.ModeRandom, Words: 10, Errors: 2, NetWPM: 30, Accuracy: 0.9, CreatedAt: base},
		{Round: 2, DocID: "a", Mode: model.ModeRandom, Words: 14, Errors: 1, NetWPM: 40, Accuracy: 0.95, CreatedAt: base.Add(time.Minute)},
		{Round: 1, DocID: "b", Mode: model.ModeSequential, Words: 8, Errors: 0, NetWPM: 20, Accuracy: 1, CreatedAt: base.Add(2 * time.Minute)},
	}}
}

func resize(m *Model) {
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
}

func TestOverviewShowsSummary(t *testing.T) {
	m := NewModel(sampleHistory(), Settings{Window: 2})
	resize(m)
	view := m.View()
	for _, want := range []string{"Overview", "Rounds", "3", "14 words / 1 err", "30.0", "Net WPM"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestRoundRowsNewestFirst(t *testing.T) {
	rows := roundRows(sampleHistory().records)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][1] != "b" || rows[2][1] != "a" || rows[2][2] != "1" {
		t.Fatalf("unexpected order: %v", rows)
	}
}

func TestDocumentRowsAggregate(t *testing.T) {
	m := NewModel(sampleHistory(), Settings{Window: 1})
	rows := documentRows(m.report)
	if len(rows) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(rows))
	}
	if rows[0][0] != "a" || rows[0][1] != "2" || rows[0][2] != "14w / 1 err" || rows[0][3] != "35.0" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[1][0] != "b" || rows[1][4] != "100.0%" {
		t.Fatalf("unexpected second row: %v", rows[1])
	}
}

func TestTabNavigationWraps(t *testing.T) {
	m := NewModel(sampleHistory(), Settings{Window: 1})
	resize(m)
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabDocuments {
		t.Fatalf("expected documents tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "Avg Acc") {
		t.Fatalf("expected documents table in view")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabOverview {
		t.Fatalf("expected overview tab, got %d", m.activeTab)
	}
}

func TestFilterFormAppliesSettings(t *testing.T) {
	src := sampleHistory()
	m := NewModel(src, Settings{Window: 5})
	resize(m)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[0].SetValue("b")
	m.filterInputs[2].SetValue("1")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter mode to close, error %q", m.filterError)
	}
	last := src.filters[len(src.filters)-1]
	if last.DocID != "b" || last.Last != 1 {
		t.Fatalf("unexpected filter: %+v", last)
	}
	if len(m.report.Records) != 1 || m.settings.Window != 5 {
		t.Fatalf("unexpected report %d records, window %d", len(m.report.Records), m.settings.Window)
	}
}

func TestFilterFormRejectsBadInput(t *testing.T) {
	m := NewModel(sampleHistory(), Settings{Window: 5})
	resize(m)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m.filterInputs[1].SetValue("yesterday")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || !strings.Contains(m.filterError, "since") {
		t.Fatalf("expected since error, got %q", m.filterError)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filterMode {
		t.Fatalf("expected esc to close filter")
	}
}

func TestWindowKeys(t *testing.T) {
	m := NewModel(sampleHistory(), Settings{Window: 3})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'='}})
	if m.settings.Window != 5 {
		t.Fatalf("expected window 5, got %d", m.settings.Window)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'='}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	if m.settings.Window != 5 {
		t.Fatalf("expected window 5, got %d", m.settings.Window)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	if m.settings.Window != 1 {
		t.Fatalf("expected window 1, got %d", m.settings.Window)
	}
}

func TestLoadErrorShownInFooter(t *testing.T) {
	m := NewModel(&fakeHistory{err: errors.New("db gone")}, Settings{Window: 1})
	resize(m)
	view := m.View()
	if !strings.Contains(view, "db gone") || !strings.Contains(view, "Failed to load history.") {
		t.Fatalf("expected error in view:\n%s", view)
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(sampleHistory(), Settings{Window: 1})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit msg")
	}
}
