// Package stats scores typing rounds and renders practice history.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/typedrill/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary of recorded rounds.
func RenderSummary(w io.Writer, records []model.HistoryRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No rounds recorded.")
		return err
	}
	var totalWPM, totalAcc float64
	bestWords := 0
	totalErrors := 0
	for _, r := range records {
		totalWPM += r.NetWPM
		totalAcc += r.Accuracy
		totalErrors += r.Errors
		if r.Words > bestWords {
			bestWords = r.Words
		}
	}
	count := float64(len(records))
	lines := []string{
		"Summary",
		fmt.Sprintf("Rounds: %d", len(records)),
		fmt.Sprintf("Best words/round: %d", bestWords),
		fmt.Sprintf("Avg net WPM: %.2f", totalWPM/count),
		fmt.Sprintf("Avg accuracy: %.2f%%", (totalAcc/count)*100),
		fmt.Sprintf("Total errors: %d", totalErrors),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderHistoryTable prints one aligned row per recorded round.
func RenderHistoryTable(w io.Writer, records []model.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	headers := []string{"When", "Doc", "Round", "Mode", "Words", "Errors", "Net WPM", "Accuracy"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.DocID,
			fmt.Sprintf("%d", r.Round),
			string(r.Mode),
			fmt.Sprintf("%d", r.Words),
			fmt.Sprintf("%d", r.Errors),
			fmt.Sprintf("%.1f", r.NetWPM),
			fmt.Sprintf("%.1f%%", r.Accuracy*100),
		})
	}
	rightAlign := map[int]bool{2: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTrend prints a moving-average sparkline of net WPM. A width of zero
// uses the terminal width.
func RenderTrend(w io.Writer, records []model.HistoryRecord, window, width int) error {
	if len(records) == 0 {
		return nil
	}
	if width <= 0 {
		width = TerminalWidth()
	}
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.NetWPM
	}
	values = MovingAverage(values, window)
	label := "Net WPM "
	if avail := width - len(label); avail > 0 && len(values) > avail {
		values = values[len(values)-avail:]
	}
	last := values[len(values)-1]
	if _, err := fmt.Fprintf(w, "%s%s %.1f\n", label, Sparkline(values), last); err != nil {
		return err
	}
	return nil
}
