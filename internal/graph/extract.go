package graph

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/progress"
)

func (p *Pipeline) extractNode(ctx context.Context, s *State) error {
	s.obs.Notify(progress.Status(progress.StageExtract, "Extracting…"))
	ext, err := p.extractor.Extract(ctx, s.Source, s.Lang, s.obs)
	if err != nil {
		if canceled(ctx, err) {
			return ctx.Err()
		}
		var xe *ingestion.ExtractionError
		if !errors.As(err, &xe) {
			err = &ingestion.ExtractionError{Name: s.Source.Name, Kind: s.Source.Kind, Err: err}
		}
		p.log.Error("extraction failed", zap.String("document", s.Source.Name), zap.Error(err))
		return err
	}
	s.Extracted = ext
	s.Raw = ext.Text()
	return nil
}
