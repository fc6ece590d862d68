package pinyin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowsOf(id int64, syllables ...string) []Row {
	rows := make([]Row, len(syllables))
	for i, s := range syllables {
		rows[i] = Row{EntryID: id, Position: i, Pinyin: s}
	}
	return rows
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"ji1", "lei3"}, Split("ji1 lei3"))
	assert.Equal(t, []string{"ji1", "lei3"}, Split("  ji1\tlei3 "))
	assert.Equal(t, []string{"jilei"}, Split("jilei"))
	assert.Empty(t, Split("   "))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []Key{{0, "ma1"}, {1, "ma1"}}, Keys([]string{"ma1", "ma1"}))
}

func TestMatch(t *testing.T) {
	var rows []Row
	rows = append(rows, rowsOf(1, "ji1", "lei3")...)
	rows = append(rows, rowsOf(2, "ji1")...)
	rows = append(rows, rowsOf(3, "lei3", "ji1")...)
	rows = append(rows, rowsOf(4, "ji1", "lei3", "qi3")...)
	rows = append(rows, rowsOf(5, "ji")...)

	testCases := []struct {
		name      string
		syllables []string
		expected  []int64
	}{
		{"exact", []string{"ji1", "lei3"}, []int64{1}},
		{"wrong order", []string{"lei3", "ji1"}, []int64{3}},
		{"incomplete", []string{"lei3"}, []int64{}},
		{"single syllable entry", []string{"ji1"}, []int64{2}},
		{"too long", []string{"ji1", "lei3", "extra"}, []int64{}},
		{"three syllables", []string{"ji1", "lei3", "qi3"}, []int64{4}},
		{"toneless does not match toned", []string{"ji"}, []int64{5}},
		{"empty query", nil, []int64{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Match(tc.syllables, rows))
		})
	}
}

func TestMatchOrderIndependent(t *testing.T) {
	rows := []Row{
		{EntryID: 7, Position: 1, Pinyin: "lei3"},
		{EntryID: 3, Position: 0, Pinyin: "ji1"},
		{EntryID: 7, Position: 0, Pinyin: "ji1"},
		{EntryID: 3, Position: 1, Pinyin: "lei3"},
	}
	assert.Equal(t, []int64{3, 7}, Match([]string{"ji1", "lei3"}, rows))
}
