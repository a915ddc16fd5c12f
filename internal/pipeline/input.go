package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyInput is returned for blank text
	ErrEmptyInput = errors.New("input text is empty")

	// ErrInputTooLarge is returned when text exceeds the configured limit
	ErrInputTooLarge = errors.New("input text too large")
)

// StdinSource names standard input as a source
const StdinSource = "-"

// CheckInput rejects blank text and text longer than maxChars runes.
// A non-positive maxChars disables the length check.
func CheckInput(text string, maxChars int) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	if maxChars > 0 {
		if n := utf8.RuneCountInString(text); n > maxChars {
			return fmt.Errorf("%w: %d characters (limit %d)", ErrInputTooLarge, n, maxChars)
		}
	}
	return nil
}

// ReadInput reads all of r and validates it. At most four bytes per allowed
// character are read, so oversized streams are rejected without buffering
// them whole.
func ReadInput(r io.Reader, maxChars int) (string, error) {
	if maxChars > 0 {
		r = io.LimitReader(r, int64(maxChars)*utf8.UTFMax+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	text := string(data)
	if err := CheckInput(text, maxChars); err != nil {
		return "", err
	}
	return text, nil
}

// LoadFile reads a text source from disk, or from stdin for "-"
func LoadFile(path string, stdin io.Reader, maxChars int) (string, error) {
	if path == StdinSource {
		return ReadInput(stdin, maxChars)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadInput(f, maxChars)
}

// subjectForFile is the report subject for a file source
func subjectForFile(path string) string {
	if path == StdinSource {
		return "stdin"
	}
	return filepath.Base(path)
}

// isHTMLFile reports whether a path should be parsed as HTML
func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}
