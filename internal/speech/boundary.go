package speech

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// NoWord is the highlight index when nothing is being spoken.
const NoWord = -1

// WordTable holds the rune offset at which each whitespace-delimited word of
// a text starts, assuming single-space separators.
type WordTable []int

func BuildWordTable(text string) WordTable {
	words := strings.Fields(text)
	table := make(WordTable, len(words))
	offset := 0
	for i, w := range words {
		table[i] = offset
		offset += utf8.RuneCountInString(w) + 1
	}
	return table
}

// WordAt returns the ordinal of the word with the greatest start offset not
// after charIndex. Offsets before the first word resolve to word 0.
func (t WordTable) WordAt(charIndex int) int {
	if len(t) == 0 {
		return NoWord
	}
	i := sort.Search(len(t), func(i int) bool { return t[i] > charIndex })
	if i == 0 {
		return 0
	}
	return i - 1
}
