package graph

import (
	"context"
	"errors"
	"sync"

	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/processing"
	"github.com/Divas-Gupta30/readease/internal/speech"
)

var (
	// ErrSuperseded is returned by a Process call replaced by a newer one.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrNoDocument is returned when an operation needs a processed document.
	ErrNoDocument = errors.New("no document has been processed")
)

// Session holds one reader's current document. At most one Process call is
// in flight; starting another cancels it. Display text changes stop speech.
type Session struct {
	pipeline *Pipeline
	reader   *speech.Reader

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	result *Result
}

func NewSession(p *Pipeline, reader *speech.Reader) *Session {
	if reader == nil {
		reader = speech.NewReader(nil, nil)
	}
	return &Session{pipeline: p, reader: reader}
}

func (s *Session) Reader() *speech.Reader { return s.reader }

// Process runs the pipeline for src, superseding any run in progress.
func (s *Session) Process(ctx context.Context, src *ingestion.SourceDocument, opts Options) (*Result, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.pipeline.Run(ctx, src, opts)

	cancel()
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.result = res
	s.mu.Unlock()

	s.reader.Stop()
	return res, nil
}

// Resimplify re-derives the display text from the stored summary at level.
// Extraction and summarization are not repeated.
func (s *Session) Resimplify(level int) (*Result, error) {
	s.mu.Lock()
	if s.result == nil {
		s.mu.Unlock()
		return nil, ErrNoDocument
	}
	next := *s.result
	next.Level = processing.ClampLevel(level)
	next.Display = processing.Simplify(next.Summary, next.Level)
	s.result = &next
	s.mu.Unlock()

	s.reader.Stop()
	return &next, nil
}

// Result returns the current document, or nil.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ReadAloud speaks the current display text, replacing any utterance.
func (s *Session) ReadAloud() error {
	res := s.Result()
	if res == nil {
		return ErrNoDocument
	}
	return s.reader.Start(res.Display, res.Lang, res.Level)
}

func (s *Session) Pause()  { s.reader.Pause() }
func (s *Session) Resume() { s.reader.Resume() }
func (s *Session) Stop()   { s.reader.Stop() }
