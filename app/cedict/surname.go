package cedict

import (
	"strings"
	"unicode/utf8"
)

// IsSurname reports whether an entry is a surname-only gloss.
// Proper nouns have a capitalized first syllable in the source.
func IsSurname(pronunciation []string, definitions []string) bool {
	if len(definitions) != 1 || len(pronunciation) == 0 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(pronunciation[0])
	if first < 'A' || first > 'Z' {
		return false
	}
	return strings.Contains(strings.ToLower(definitions[0]), "surname")
}

// IsSurname reports whether the entry is a surname-only gloss
func (e Entry) IsSurname() bool {
	return IsSurname(e.Pronunciation, e.Definitions)
}
