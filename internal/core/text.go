package core

// text.go reads an uploaded file into a string for parsing.
//
// Spreadsheet exports from Windows tools often start with a UTF-8 BOM and
// occasionally contain stray Latin-1 bytes. Both are repaired here so the
// tokenizer only ever sees valid UTF-8:
//
//   - A leading BOM is consumed.
//   - Invalid byte sequences become U+FFFD.
//   - Reads stop after maxBytes to bound memory.

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

// DefaultMaxFileSize bounds uploads when no limit is configured.
const DefaultMaxFileSize int64 = 10 << 20

// NewTextReader wraps r so that a leading BOM is dropped and invalid UTF-8
// is replaced on the fly.
func NewTextReader(r io.Reader) io.Reader {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(r, dec)
}

// ReadText reads the whole upload as text. maxBytes <= 0 selects
// DefaultMaxFileSize.
func ReadText(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(NewTextReader(r), maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes)
	}
	return string(data), nil
}
