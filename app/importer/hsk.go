package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/rbhz/zh-dictionary/app/db"
)

// HSK levels range
const (
	MinLevel = 1
	MaxLevel = 6
)

// columns of HSK list file
const (
	colSimplified = iota
	colTraditional
	colPinyin
	colPinyinMarks
	colDefinition
	hskColumns
)

// WordReader reads tab separated HSK list rows
type WordReader struct {
	csv   *csv.Reader
	level int
}

// NewWordReader creates WordReader, a leading byte order mark is dropped
func NewWordReader(r io.Reader, level int) *WordReader {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return &WordReader{csv: reader, level: level}
}

// Next returns next word or io.EOF
func (w *WordReader) Next() (db.Word, error) {
	if w.level < MinLevel || w.level > MaxLevel {
		return db.Word{}, fmt.Errorf("invalid HSK level %d", w.level)
	}
	for {
		record, err := w.csv.Read()
		if errors.Is(err, io.EOF) {
			return db.Word{}, io.EOF
		}
		if err != nil {
			return db.Word{}, fmt.Errorf("read HSK row: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < hskColumns {
			line, _ := w.csv.FieldPos(0)
			return db.Word{}, fmt.Errorf("HSK row at line %d: expected %d columns, got %d", line, hskColumns, len(record))
		}
		return db.Word{
			Simplified:  record[colSimplified],
			Traditional: record[colTraditional],
			Pinyin:      record[colPinyin],
			Definition:  record[colDefinition],
			Level:       w.level,
		}, nil
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return scanner
}

func trimLine(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
}
