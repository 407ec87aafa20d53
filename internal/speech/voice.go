// Package speech drives read-aloud playback and maps word-boundary events
// from a synthesis engine to word indexes for highlighting.
package speech

import (
	"math"
	"strings"

	"github.com/Divas-Gupta30/readease/internal/processing"
)

const defaultTag = "en-IN"

var langTags = map[string]string{
	"eng": "en-IN",
	"hin": "hi-IN",
	"tam": "ta-IN",
}

type Voice struct {
	Name string
	Lang string
}

// LangTag maps an OCR language code to a BCP 47 tag for synthesis.
func LangTag(lang string) string {
	if tag, ok := langTags[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return tag
	}
	return defaultTag
}

// PickVoice prefers an exact tag match, then the same language family, then
// an English voice for non-English tags, then whatever comes first.
// It returns nil when voices is empty.
func PickVoice(voices []Voice, tag string) *Voice {
	tag = strings.ToLower(tag)
	for i := range voices {
		if strings.ToLower(voices[i].Lang) == tag {
			return &voices[i]
		}
	}
	base, _, _ := strings.Cut(tag, "-")
	if v := firstWithPrefix(voices, base); v != nil {
		return v
	}
	if base != "en" {
		if v := firstWithPrefix(voices, "en"); v != nil {
			return v
		}
	}
	if len(voices) == 0 {
		return nil
	}
	return &voices[0]
}

func firstWithPrefix(voices []Voice, prefix string) *Voice {
	for i := range voices {
		if strings.HasPrefix(strings.ToLower(voices[i].Lang), prefix) {
			return &voices[i]
		}
	}
	return nil
}

// Rate slows playback slightly for harder levels, never below 0.8.
func Rate(level int) float64 {
	level = processing.ClampLevel(level)
	return math.Max(0.8, 1.0-float64(level-3)*0.05)
}
