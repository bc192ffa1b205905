// Package wordlist splits reference text into words and loads it from files.
package wordlist

import "unicode"

// Tokenize returns the maximal runs of letters and digits in text. All other
// runes are separators. Combining marks continue a run so decomposed
// Vietnamese text stays in one token.
func Tokenize(text string) []string {
	var words []string
	start := -1
	for i, r := range text {
		if isWordRune(r) || (start >= 0 && unicode.Is(unicode.Mn, r)) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
