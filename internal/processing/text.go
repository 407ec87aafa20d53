package processing

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// CollapseWhitespace replaces every whitespace run with one space and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '?', '!', '।', '॥', '。', '？', '！':
		return true
	}
	return false
}

// SplitSentences splits s after terminal punctuation that is followed by
// whitespace. Each sentence is trimmed; empty sentences are dropped. Text
// without a trailing terminal becomes the last sentence.
func SplitSentences(s string) []string {
	var (
		out   []string
		start int
		prev  rune
	)
	for i, r := range s {
		if unicode.IsSpace(r) && isTerminal(prev) {
			if sent := strings.TrimSpace(s[start:i]); sent != "" {
				out = append(out, sent)
			}
			start = i
		}
		prev = r
	}
	if sent := strings.TrimSpace(s[start:]); sent != "" {
		out = append(out, sent)
	}
	return out
}

// word runs include combining marks so Devanagari and Tamil vowel signs stay
// inside their word.
var wordRe = regexp.MustCompile(`[\p{L}\p{M}\p{N}]+`)

// Tokenize returns the lower-cased, NFC-normalized word tokens of s.
func Tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(norm.NFC.String(s)), -1)
}

// RuneLen is the length of s in characters.
func RuneLen(s string) int { return utf8.RuneCountInString(s) }
