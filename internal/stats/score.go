package stats

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/typedrill/internal/model"
)

const (
	charsPerWord = 5.0
	minMinutes   = 0.001
)

var punctReplacer = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'", "\u2032", "'",
	"\u201c", "\"", "\u201d", "\"", "\u201e", "\"", "\u201f", "\"", "\u2033", "\"",
	"\u2012", "-", "\u2013", "-", "\u2014", "-", "\u2212", "-",
	"\u00a0", " ", "\u202f", " ",
)

// Normalize maps typographic punctuation to the ASCII characters a plain
// keyboard produces.
func Normalize(s string) string {
	return punctReplacer.Replace(s)
}

// Score compares typed against target and computes accuracy and WPM for the
// given elapsed duration. Negative durations count as zero.
func Score(target, typed string, duration time.Duration) model.RoundResult {
	target = Normalize(target)
	typed = Normalize(typed)
	if duration < 0 {
		duration = 0
	}

	errors := Distance(target, typed)
	totalChars := utf8.RuneCountInString(target)
	typedChars := utf8.RuneCountInString(typed)

	minutes := math.Max(minMinutes, float64(duration.Milliseconds())/60000.0)
	grossWPM := float64(typedChars) / charsPerWord / minutes
	netWPM := math.Max(0, grossWPM-(float64(errors)/charsPerWord)/minutes)
	accuracy := 1.0
	if totalChars > 0 {
		accuracy = clamp01(float64(totalChars-errors) / float64(totalChars))
	}

	return model.RoundResult{
		TotalChars: totalChars,
		TypedChars: typedChars,
		Errors:     errors,
		Accuracy:   accuracy,
		GrossWPM:   grossWPM,
		NetWPM:     netWPM,
		DurationMs: duration.Milliseconds(),
	}
}

// Distance returns the Levenshtein distance between a and b over runes with
// unit costs. Memory is linear in the shorter input.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
