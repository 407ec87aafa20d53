package llm

import (
	"context"
	"fmt"
	"strings"
)

var languageNames = map[string]string{
	"eng": "English",
	"hin": "Hindi",
	"tam": "Tamil",
}

// LanguageName maps an OCR language code to the name used in prompts.
func LanguageName(lang string) (string, bool) {
	name, ok := languageNames[strings.ToLower(lang)]
	return name, ok
}

// NormalizationError is returned when the remote cleanup call fails. The
// caller is expected to keep the text it passed in.
type NormalizationError struct {
	Err error
}

func (e *NormalizationError) Error() string { return "normalize text: " + e.Err.Error() }
func (e *NormalizationError) Unwrap() error { return e.Err }

// SummarizationError is returned when the remote summary call fails. The
// caller is expected to substitute the local extractive summary.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string { return "summarize text: " + e.Err.Error() }
func (e *SummarizationError) Unwrap() error { return e.Err }

func normalizeInstruction(lang string) string {
	name, ok := LanguageName(lang)
	if !ok {
		name = "Original"
	}
	return fmt.Sprintf(`You correct OCR text for readability, preserving meaning.
Language: %s.
Tasks:
- Fix OCR errors (split/merged words, punctuation, stray hyphens).
- Keep original meaning; restore paragraphs.
- Do NOT add opinions or remove facts.
Output only the cleaned text.`, name)
}

func summarizeInstruction(lang string) string {
	name, ok := LanguageName(lang)
	if !ok {
		name = "the same language"
	}
	return fmt.Sprintf(`Summarize clearly in %s for a general audience.
Constraints:
- Summarize the whole document as a flowing narrative so the reader can follow the story.
- Prefer bullet points if it improves clarity.
- Target length: about 8-20 short sentences (or bullets).
- Do not change the language. Do not translate.
Output only the summary.`, name)
}

// Normalizer fixes OCR artifacts through the remote model. Without a
// Generator it is the identity function.
type Normalizer struct {
	gen Generator
}

// NewNormalizer returns a Normalizer; gen may be nil for local-only mode.
func NewNormalizer(gen Generator) *Normalizer { return &Normalizer{gen: gen} }

func (n *Normalizer) Enabled() bool { return n != nil && n.gen != nil }

// Normalize returns text unchanged when no model is configured or the model
// replies with nothing. A failed call returns *NormalizationError.
func (n *Normalizer) Normalize(ctx context.Context, text, lang string) (string, error) {
	if !n.Enabled() {
		return text, nil
	}
	out, err := n.gen.Generate(ctx, Request{
		Instruction:     normalizeInstruction(lang),
		Text:            text,
		Temperature:     0.2,
		TopP:            0.9,
		MaxOutputTokens: 2048,
	})
	if err != nil {
		return "", &NormalizationError{Err: err}
	}
	if out = strings.TrimSpace(out); out == "" {
		return text, nil
	}
	return out, nil
}

// Summarizer paraphrases text through the remote model. Without a Generator
// it is the identity function.
type Summarizer struct {
	gen Generator
}

// NewSummarizer returns a Summarizer; gen may be nil for local-only mode.
func NewSummarizer(gen Generator) *Summarizer { return &Summarizer{gen: gen} }

func (s *Summarizer) Enabled() bool { return s != nil && s.gen != nil }

// Summarize returns text unchanged when no model is configured or the model
// replies with nothing. A failed call returns *SummarizationError.
func (s *Summarizer) Summarize(ctx context.Context, text, lang string) (string, error) {
	if !s.Enabled() {
		return text, nil
	}
	out, err := s.gen.Generate(ctx, Request{
		Instruction:     summarizeInstruction(lang),
		Text:            text,
		Temperature:     0.3,
		TopP:            0.9,
		MaxOutputTokens: 640,
	})
	if err != nil {
		return "", &SummarizationError{Err: err}
	}
	if out = strings.TrimSpace(out); out == "" {
		return text, nil
	}
	return out, nil
}
