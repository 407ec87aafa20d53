package graph

import (
	"context"

	"github.com/Divas-Gupta30/readease/internal/processing"
	"github.com/Divas-Gupta30/readease/internal/progress"
)

// condenseNode bounds the remote payload: text longer than the threshold is
// reduced by the extractive summarizer first.
func (p *Pipeline) condenseNode(_ context.Context, s *State) error {
	s.Condensed = s.Normalized
	if processing.RuneLen(s.Normalized) > p.condenseThreshold {
		s.Condensed = processing.Summarize(s.Normalized, s.Lang, s.MaxSentences)
	}
	return nil
}

func (p *Pipeline) summarizeNode(ctx context.Context, s *State) error {
	s.obs.Notify(progress.Status(progress.StageSummarize, "Summarizing…"))
	s.Summary = s.Condensed
	if p.summarizer == nil || !p.summarizer.Enabled() {
		return nil
	}
	out, err := p.summarizer.Summarize(ctx, s.Condensed, s.Lang)
	if err != nil {
		if canceled(ctx, err) {
			return ctx.Err()
		}
		p.fallback(s, progress.StageSummarize, err)
		s.Summary = processing.Summarize(s.Normalized, s.Lang, s.MaxSentences)
		return nil
	}
	s.Summary = out
	return nil
}

func (p *Pipeline) simplifyNode(_ context.Context, s *State) error {
	s.obs.Notify(progress.Status(progress.StageSimplify, "Simplifying…"))
	s.Display = processing.Simplify(s.Summary, s.Level)
	return nil
}
