// Package pinyin implements positional matching of pinyin syllables.
package pinyin

import (
	"sort"
	"strings"
)

// Key is a syllable bound to its position within a headword
type Key struct {
	Position int
	Pinyin   string
}

// Row is a single stored pronunciation syllable of an entry
type Row struct {
	EntryID  int64
	Position int
	Pinyin   string
}

// Split splits a query into syllables on whitespace.
// Un-spaced input such as "jilei" stays a single syllable.
func Split(query string) []string {
	return strings.Fields(query)
}

// Keys binds every syllable to its index in the query
func Keys(syllables []string) []Key {
	keys := make([]Key, len(syllables))
	for i, s := range syllables {
		keys[i] = Key{Position: i, Pinyin: s}
	}
	return keys
}

// Match returns ids of entries whose pronunciation is exactly the query:
// every syllable at its query position and no syllables beyond the query length.
// Syllables are compared literally, so "ji1" and "ji" are different keys.
// rows must hold all pronunciation rows of the candidate entries.
// Result is sorted ascending.
func Match(syllables []string, rows []Row) []int64 {
	if len(syllables) == 0 {
		return []int64{}
	}
	wanted := make(map[Key]struct{}, len(syllables))
	for _, k := range Keys(syllables) {
		wanted[k] = struct{}{}
	}
	// (entry_id, position) is unique, so counting matching rows per entry
	// is the same as checking that every position is satisfied.
	matched := make(map[int64]int)
	total := make(map[int64]int)
	for _, row := range rows {
		total[row.EntryID]++
		if _, ok := wanted[Key{Position: row.Position, Pinyin: row.Pinyin}]; ok {
			matched[row.EntryID]++
		}
	}
	ids := make([]int64, 0, len(matched))
	for id, count := range matched {
		if count == len(syllables) && total[id] == len(syllables) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
