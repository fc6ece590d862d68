package cedict

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const maxLineSize = 1024 * 1024

// Stats holds reader statistics for logging
type Stats struct {
	Lines    int
	Comments int
	Entries  int
	Surnames int
}

// Reader reads dictionary entries from a CC-CEDICT source.
// Comment lines, blank lines and surname glosses are skipped.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	stats   Stats
}

// NewReader returns a new Reader reading from r
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Next returns the next dictionary entry.
// It returns io.EOF when the source is exhausted and a *ParseError for a malformed line.
func (r *Reader) Next() (Entry, error) {
	for r.scanner.Scan() {
		r.line++
		r.stats.Lines++
		text := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.HasPrefix(text, "#") {
			r.stats.Comments++
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		entry, err := ParseLine(text)
		if err != nil {
			return Entry{}, &ParseError{Line: r.line, Text: text, Err: err}
		}
		if entry.IsSurname() {
			r.stats.Surnames++
			continue
		}
		r.stats.Entries++
		return entry, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Entry{}, fmt.Errorf("read dictionary: %w", err)
	}
	return Entry{}, io.EOF
}

// Stats returns counters for the lines read so far
func (r *Reader) Stats() Stats {
	return r.stats
}
