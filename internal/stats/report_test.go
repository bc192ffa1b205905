package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "typedrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	words := []int{10, 15, 12, 15}
	errs := []int{1, 2, 0, 1}
	for i := range words {
		rec := model.HistoryRecord{
			Round:      i%3 + 1,
			DocID:      "doc1",
			Mode:       model.ModeRandom,
			Words:      words[i],
			Errors:     errs[i],
			DurationMs: 60000,
			NetWPM:     float64(words[i]),
			Accuracy:   0.9,
			CreatedAt:  time.Unix(0, 0).Add(time.Duration(i) * time.Minute),
		}
		if err := st.RecordRound(ctx, rec); err != nil {
			t.Fatalf("record round: %v", err)
		}
	}

	report, err := BuildReport(ctx, st, model.HistoryFilter{DocID: "doc1", Last: 3})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(report.Records))
	}
	if report.Records[0].Words != 15 || report.Records[2].Words != 15 {
		t.Fatalf("unexpected record order: %+v", report.Records)
	}
	best, ok := report.Best["doc1"]
	if !ok {
		t.Fatalf("expected best record for doc1")
	}
	if best.Words != 15 || best.Errors != 1 {
		t.Fatalf("unexpected best record: %+v", best)
	}
}

func TestRenderSummaryAndTrend(t *testing.T) {
	records := []model.HistoryRecord{
		{DocID: "d", Round: 1, Mode: model.ModeRandom, Words: 10, Errors: 1, NetWPM: 40, Accuracy: 0.95},
		{DocID: "d", Round: 2, Mode: model.ModeRandom, Words: 15, Errors: 2, NetWPM: 50, Accuracy: 0.85},
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, records); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Rounds: 2", "Best words/round: 15", "Avg net WPM: 45.00", "Avg accuracy: 90.00%", "Total errors: 3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderTrend(&buf, records, 1, 40); err != nil {
		t.Fatalf("render trend: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Net WPM  @ 50.0") {
		t.Fatalf("unexpected trend line: %q", buf.String())
	}

	buf.Reset()
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render empty summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No rounds recorded.") {
		t.Fatalf("unexpected empty summary: %q", buf.String())
	}
}

func TestRenderHistoryTable(t *testing.T) {
	records := []model.HistoryRecord{
		{DocID: "abc", Round: 1, Mode: model.ModeSequential, Words: 12, Errors: 0, NetWPM: 12, Accuracy: 1, CreatedAt: time.Now()},
	}
	var buf bytes.Buffer
	if err := RenderHistoryTable(&buf, records); err != nil {
		t.Fatalf("render table: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "sequential") || !strings.Contains(lines[1], "100.0%") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestMovingAverageAndSparkline(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("moving average[%d] = %f, want %f", i, got[i], want[i])
		}
	}
	if s := Sparkline([]float64{0, 9}); s != " @" {
		t.Fatalf("unexpected sparkline %q", s)
	}
	if s := Sparkline([]float64{3, 3, 3}); s != "+++" {
		t.Fatalf("unexpected flat sparkline %q", s)
	}
}
