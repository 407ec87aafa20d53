package processing

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinLevel = 1
	MaxLevel = 5
)

// sentence word caps for levels 1..5
var levelCaps = [...]int{28, 24, 20, 16, 12}

// ClampLevel forces level into [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// MaxWords is the per-sentence word cap for a simplification level.
func MaxWords(level int) int {
	return levelCaps[ClampLevel(level)-1]
}

type substitution struct {
	re   *regexp.Regexp
	with string
}

// applied in order; every replacement maps to itself so re-applying is a no-op
var substitutions = []substitution{
	{regexp.MustCompile(`(?i)\b(utilize|use)\b`), "use"},
	{regexp.MustCompile(`(?i)\b(commence|begin)\b`), "start"},
	{regexp.MustCompile(`(?i)\b(terminate|cease|stop)\b`), "stop"},
	{regexp.MustCompile(`(?i)\b(assistance|aid)\b`), "help"},
	{regexp.MustCompile(`(?i)\b(approximately|around)\b`), "about"},
	{regexp.MustCompile(`(?i)\b(purchase|acquire|obtain)\b`), "get"},
	{regexp.MustCompile(`(?i)\bhowever\b`), "but"},
}

// Substitute applies the fixed plain-word replacements. A capitalized match
// gets a capitalized replacement.
func Substitute(text string) string {
	for _, s := range substitutions {
		text = s.re.ReplaceAllStringFunc(text, func(m string) string {
			r, _ := utf8.DecodeRuneInString(m)
			if unicode.IsUpper(r) {
				return strings.ToUpper(s.with[:1]) + s.with[1:]
			}
			return s.with
		})
	}
	return text
}

// Simplify returns the display text for level: plain-word substitutions,
// then every sentence cut to MaxWords(level) words, joined by single spaces.
// Levels outside 1..5 are clamped. Simplify is pure and always re-derivable
// from its inputs.
func Simplify(text string, level int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return Cap(Substitute(text), level)
}

// Cap performs the sentence-length step of Simplify without substitutions.
func Cap(text string, level int) string {
	return CollapseWhitespace(strings.Join(CapSentences(text, level), " "))
}

// CapSentences splits text into sentences and cuts each one to
// MaxWords(level) words. Dropped words are not replaced by an ellipsis.
func CapSentences(text string, level int) []string {
	limit := MaxWords(level)
	sentences := SplitSentences(text)
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		words := strings.Fields(s)
		if len(words) > limit {
			words = words[:limit]
		}
		out = append(out, strings.Join(words, " "))
	}
	return out
}
