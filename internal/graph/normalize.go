package graph

import (
	"context"

	"github.com/Divas-Gupta30/readease/internal/progress"
)

// normalizeNode never fails the run: without a model the text passes through,
// and a failed call keeps the extracted text.
func (p *Pipeline) normalizeNode(ctx context.Context, s *State) error {
	s.Normalized = s.Raw
	if p.normalizer == nil || !p.normalizer.Enabled() {
		return nil
	}
	s.obs.Notify(progress.Status(progress.StageNormalize, "Cleaning text…"))
	out, err := p.normalizer.Normalize(ctx, s.Raw, s.Lang)
	if err != nil {
		if canceled(ctx, err) {
			return ctx.Err()
		}
		p.fallback(s, progress.StageNormalize, err)
		return nil
	}
	s.Normalized = out
	return nil
}
