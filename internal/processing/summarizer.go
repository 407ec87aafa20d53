package processing

import (
	"math"
	"sort"
	"strings"
)

// DefaultMaxSentences is used when a caller passes maxSentences < 1.
const DefaultMaxSentences = 8

type scoredSentence struct {
	text  string
	index int
	score float64
}

// Summarize is a deterministic frequency-based extractive summarizer.
//
// Text is whitespace-collapsed and split into sentences. With at most
// maxSentences sentences the collapsed text is returned unchanged. Otherwise
// every sentence is scored as the sum of its non-stop-word frequencies over
// ln(2 + tokens), plus a lead bonus 1/(1 + 0.15*index). The top maxSentences
// are kept in their original order and joined with single spaces.
//
// Ties keep the earlier sentence: candidates are stable-sorted by descending
// score from document order.
func Summarize(text, lang string, maxSentences int) string {
	if maxSentences < 1 {
		maxSentences = DefaultMaxSentences
	}
	clean := CollapseWhitespace(text)
	sentences := SplitSentences(clean)
	if len(sentences) <= maxSentences {
		return clean
	}

	stop := StopWords(lang)
	freq := make(map[string]int)
	for _, w := range Tokenize(clean) {
		if _, skip := stop[w]; skip {
			continue
		}
		freq[w]++
	}

	scored := make([]scoredSentence, len(sentences))
	for i, s := range sentences {
		tokens := Tokenize(s)
		var sum float64
		for _, w := range tokens {
			sum += float64(freq[w])
		}
		scored[i] = scoredSentence{
			text:  s,
			index: i,
			score: sum/math.Log(2+float64(len(tokens))) + 1/(1+float64(i)*0.15),
		}
	}

	picked := selectTop(scored, maxSentences)
	parts := make([]string, len(picked))
	for i, p := range picked {
		parts[i] = p.text
	}
	return strings.Join(parts, " ")
}

// selectTop keeps the n best-scored sentences and returns them in document
// order. scored must be in document order.
func selectTop(scored []scoredSentence, n int) []scoredSentence {
	ranked := make([]scoredSentence, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	sort.Slice(ranked, func(a, b int) bool { return ranked[a].index < ranked[b].index })
	return ranked
}
