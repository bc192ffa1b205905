package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes styles stream words against the submitted words. The word
// at cursor is compared with the partial input.
func buildStyledRunes(stream, typed []string, cursor int, partial string) []styledRune {
	out := make([]styledRune, 0, len(stream)*6)
	for i, word := range stream {
		if i > 0 {
			out = append(out, styledRune{s: pendingStyle.Render(" "), width: 1, isSpace: true})
		}
		switch {
		case i < len(typed):
			style := correctStyle
			if typed[i] != word {
				style = incorrectStyle
			}
			out = appendWord(out, word, func(int) lipgloss.Style { return style })
		case i == cursor:
			partialRunes := []rune(partial)
			wordRunes := []rune(word)
			out = appendWord(out, word, func(pos int) lipgloss.Style {
				switch {
				case pos < len(partialRunes) && partialRunes[pos] != wordRunes[pos]:
					return incorrectStyle
				case pos < len(partialRunes):
					return correctStyle
				case pos == len(partialRunes):
					return cursorStyle
				default:
					return currentWordStyle
				}
			})
			if len(partialRunes) > len(wordRunes) {
				extra := string(partialRunes[len(wordRunes):])
				out = append(out, styledRune{
					s:     incorrectStyle.Render(extra),
					width: runewidth.StringWidth(extra),
				})
			}
		default:
			out = appendWord(out, word, func(int) lipgloss.Style { return pendingStyle })
		}
	}
	return out
}

func appendWord(out []styledRune, word string, styleAt func(pos int) lipgloss.Style) []styledRune {
	for pos, r := range []rune(word) {
		out = append(out, styledRune{
			s:     styleAt(pos).Render(string(r)),
			width: runewidth.RuneWidth(r),
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}

// pageBounds returns the slice of stream words shown around cursor.
func pageBounds(total, cursor, size int) (int, int) {
	if size <= 0 || total <= size {
		return 0, total
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	start := (cursor / size) * size
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}
