// Package cedict parses CC-CEDICT formatted dictionary files.
//
// Every non-comment line of the source has the form
//
//	<traditional> <simplified> [<syllable> ...] /<definition>/<definition>/.../
package cedict

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrMalformedLine is returned when a line does not follow the dictionary grammar
var ErrMalformedLine = errors.New("malformed dictionary line")

var restRegexp = regexp.MustCompile(`^\[(.*)\] /(.*)/$`)

// Entry is a single parsed dictionary line
type Entry struct {
	Traditional   string
	Simplified    string
	Pronunciation []string
	Definitions   []string
}

// ParseError describes a malformed line in a dictionary source
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseLine parses a single dictionary line.
// Comment lines must be filtered out by the caller.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := splitFields(line, 3)
	if len(fields) != 3 {
		return Entry{}, fmt.Errorf("%w: expected headwords and pronunciation", ErrMalformedLine)
	}
	m := restRegexp.FindStringSubmatch(fields[2])
	if m == nil {
		return Entry{}, fmt.Errorf("%w: pronunciation or definitions do not match grammar", ErrMalformedLine)
	}
	entry := Entry{
		Traditional:   fields[0],
		Simplified:    fields[1],
		Pronunciation: strings.Fields(m[1]),
		Definitions:   trimTrailingEmpty(strings.Split(m[2], "/")),
	}
	if len(entry.Pronunciation) == 0 {
		return Entry{}, fmt.Errorf("%w: empty pronunciation", ErrMalformedLine)
	}
	if len(entry.Definitions) == 0 {
		return Entry{}, fmt.Errorf("%w: no definitions", ErrMalformedLine)
	}
	return entry, nil
}

// splitFields splits s around runs of whitespace into at most n fields.
// The last field holds the unsplit remainder with its inner whitespace preserved.
func splitFields(s string, n int) []string {
	fields := make([]string, 0, n)
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	for s != "" && len(fields) < n-1 {
		idx := strings.IndexFunc(s, unicode.IsSpace)
		if idx < 0 {
			break
		}
		fields = append(fields, s[:idx])
		s = strings.TrimLeftFunc(s[idx:], unicode.IsSpace)
	}
	if s != "" {
		fields = append(fields, strings.TrimRightFunc(s, unicode.IsSpace))
	}
	return fields
}

func trimTrailingEmpty(parts []string) []string {
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
