package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// ErrBinaryContent is returned by LoadContent for files that are not UTF-8
// text or that contain NUL bytes.
var ErrBinaryContent = errors.New("binary or non-UTF-8 content")

// Target represents a file to be scanned.
type Target struct {
	Path    string // absolute or root-joined path on disk
	RelPath string // slash-separated path relative to the scan root
	Size    int64
	Content []byte
}

// LoadContent reads the file content into memory. Content that is not text
// is rejected with ErrBinaryContent and left unloaded.
func (t *Target) LoadContent() error {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return err
	}
	if err := CheckText(data); err != nil {
		return fmt.Errorf("%s: %w", t.RelPath, err)
	}
	t.Content = data
	return nil
}

// CheckText returns ErrBinaryContent unless data is NUL-free valid UTF-8.
func CheckText(data []byte) error {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return ErrBinaryContent
	}
	return nil
}

// Lines returns the content split into lines with trailing carriage returns
// removed. Line i of the file is Lines()[i-1].
func (t *Target) Lines() []string {
	return SplitLines(string(t.Content))
}

// SplitLines splits text on '\n' and trims a trailing '\r' from each line.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
