package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/typedrill/internal/model"
)

func TestRenderFooterFormats(t *testing.T) {
	m := &Model{
		state: model.SessionState{
			Status:    model.StatusRunning,
			Round:     2,
			MaxRounds: 3,
			Mode:      model.ModeRandom,
		},
		title:     "Poem",
		remaining: 42_500_000_000,
		hasLast:   true,
		lastWPM:   72.4,
		lastAcc:   0.978,
		allWPM:    68.1,
		allAcc:    0.969,
		allN:      4,
	}
	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Round 2/3", "Poem", "random", "0:43", "Last 72.4 WPM", "97.8%", "All-time 68.1 WPM", "96.9%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRecordFooterAverages(t *testing.T) {
	m := &Model{}
	m.recordFooter(model.RoundResult{NetWPM: 40, Accuracy: 0.9})
	m.recordFooter(model.RoundResult{NetWPM: 60, Accuracy: 1})
	if m.lastWPM != 60 || m.allN != 2 {
		t.Fatalf("unexpected footer stats: %+v", m)
	}
	if m.allWPM != 50 || m.allAcc != 0.95 {
		t.Fatalf("expected averages 50 / 0.95, got %.2f / %.3f", m.allWPM, m.allAcc)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
