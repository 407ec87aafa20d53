// Package graph runs a document through the fixed sequence of stages that
// turns a file into display text, and keeps per-reader session state.
package graph

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/logging"
	"github.com/Divas-Gupta30/readease/internal/metrics"
	"github.com/Divas-Gupta30/readease/internal/processing"
	"github.com/Divas-Gupta30/readease/internal/progress"
)

const DefaultCondenseThreshold = 420

type Extractor interface {
	Extract(ctx context.Context, doc *ingestion.SourceDocument, lang string, obs progress.Observer) (ingestion.ExtractedText, error)
}

type TextNormalizer interface {
	Enabled() bool
	Normalize(ctx context.Context, text, lang string) (string, error)
}

type RemoteSummarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, text, lang string) (string, error)
}

// Options are per-request. Zero values select the pipeline defaults.
type Options struct {
	Lang         string
	Level        int
	MaxSentences int
	Observer     progress.Observer
}

// Fallback records a remote stage that failed and was replaced locally.
type Fallback struct {
	Stage  progress.Stage `json:"stage"`
	Reason string         `json:"reason"`
	Err    error          `json:"-"`
}

type Result struct {
	Name          string     `json:"name"`
	Kind          string     `json:"kind"`
	Lang          string     `json:"lang"`
	Level         int        `json:"level"`
	Raw           string     `json:"raw"`
	Normalized    string     `json:"normalized"`
	Summary       string     `json:"summary"`
	Display       string     `json:"display"`
	OCRPages      []int      `json:"ocr_pages,omitempty"`
	Fallbacks     []Fallback `json:"fallbacks,omitempty"`
	RemoteEnabled bool       `json:"remote_enabled"`
}

// State is threaded through the nodes of one run.
type State struct {
	Source       *ingestion.SourceDocument
	Lang         string
	Level        int
	MaxSentences int

	Extracted  ingestion.ExtractedText
	Raw        string
	Normalized string
	Condensed  string
	Summary    string
	Display    string
	Fallbacks  []Fallback

	obs progress.Observer
}

type node struct {
	stage progress.Stage
	run   func(context.Context, *State) error
}

type Pipeline struct {
	extractor         Extractor
	normalizer        TextNormalizer
	summarizer        RemoteSummarizer
	metrics           *metrics.Metrics
	log               *zap.Logger
	condenseThreshold int
	maxSentences      int
	defaultLevel      int
	defaultLang       string
}

type Option func(*Pipeline)

func WithNormalizer(n TextNormalizer) Option { return func(p *Pipeline) { p.normalizer = n } }
func WithSummarizer(s RemoteSummarizer) Option { return func(p *Pipeline) { p.summarizer = s } }
func WithMetrics(m *metrics.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }
func WithLogger(l *zap.Logger) Option { return func(p *Pipeline) { p.log = l } }
func WithCondenseThreshold(n int) Option { return func(p *Pipeline) { p.condenseThreshold = n } }
func WithMaxSentences(n int) Option { return func(p *Pipeline) { p.maxSentences = n } }
func WithDefaultLevel(level int) Option { return func(p *Pipeline) { p.defaultLevel = level } }
func WithDefaultLang(lang string) Option { return func(p *Pipeline) { p.defaultLang = lang } }

// NewPipeline runs local-only unless a normalizer or summarizer is supplied.
func NewPipeline(extractor Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:         extractor,
		condenseThreshold: DefaultCondenseThreshold,
		maxSentences:      processing.DefaultMaxSentences,
		defaultLevel:      3,
		defaultLang:       ingestion.DefaultLang,
	}
	for _, o := range opts {
		o(p)
	}
	p.log = logging.OrNop(p.log)
	return p
}

// RemoteEnabled reports whether any stage calls the remote model.
func (p *Pipeline) RemoteEnabled() bool {
	return (p.normalizer != nil && p.normalizer.Enabled()) || (p.summarizer != nil && p.summarizer.Enabled())
}

func (p *Pipeline) nodes() []node {
	return []node{
		{progress.StageExtract, p.extractNode},
		{progress.StageNormalize, p.normalizeNode},
		{progress.StageCondense, p.condenseNode},
		{progress.StageSummarize, p.summarizeNode},
		{progress.StageSimplify, p.simplifyNode},
	}
}

// Run executes Extract, Normalize, Condense, Summarize and Simplify in that
// order. Remote failures are replaced by local results and recorded in
// Result.Fallbacks; the only errors returned are *ingestion.ExtractionError
// and cancellation of ctx.
func (p *Pipeline) Run(ctx context.Context, src *ingestion.SourceDocument, opts Options) (*Result, error) {
	s := &State{
		Source:       src,
		Lang:         opts.Lang,
		Level:        opts.Level,
		MaxSentences: opts.MaxSentences,
		obs:          progress.OrDiscard(opts.Observer),
	}
	if s.Lang == "" {
		s.Lang = p.defaultLang
	}
	if s.Level == 0 {
		s.Level = p.defaultLevel
	}
	s.Level = processing.ClampLevel(s.Level)
	if s.MaxSentences < 1 {
		s.MaxSentences = p.maxSentences
	}

	if err := p.runWorkflow(ctx, s); err != nil {
		return nil, err
	}
	s.obs.Notify(progress.Status(progress.StageDone, "Done"))

	return &Result{
		Name:          src.Name,
		Kind:          src.Kind.String(),
		Lang:          s.Lang,
		Level:         s.Level,
		Raw:           s.Raw,
		Normalized:    s.Normalized,
		Summary:       s.Summary,
		Display:       s.Display,
		OCRPages:      s.Extracted.OCRPages(),
		Fallbacks:     s.Fallbacks,
		RemoteEnabled: p.RemoteEnabled(),
	}, nil
}

func (p *Pipeline) runWorkflow(ctx context.Context, s *State) error {
	for _, n := range p.nodes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := n.run(ctx, s)
		p.metrics.ObserveStage(string(n.stage), time.Since(start))
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (p *Pipeline) fallback(s *State, stage progress.Stage, err error) {
	p.log.Warn("remote stage failed, using local fallback",
		zap.String("stage", string(stage)),
		zap.String("document", s.Source.Name),
		zap.Error(err),
	)
	p.metrics.Fallback(string(stage))
	s.Fallbacks = append(s.Fallbacks, Fallback{Stage: stage, Reason: err.Error(), Err: err})
	s.obs.Notify(progress.Status(progress.StageFallback, "Using local fallback…"))
}

// canceled distinguishes a superseded request from a remote failure.
func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
