package wordlist

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// LoadText reads a UTF-8 text file and returns its content with trailing
// whitespace removed.
func LoadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8: %s", path)
	}
	text := strings.TrimRight(string(data), " \t\r\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text file is empty")
	}
	return text, nil
}
