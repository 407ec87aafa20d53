package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/readease/internal/config"
	"github.com/Divas-Gupta30/readease/internal/graph"
	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/llm"
	"github.com/Divas-Gupta30/readease/internal/metrics"
	"github.com/Divas-Gupta30/readease/internal/storage"
)

// app holds the long-lived components built from config.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	metrics  *metrics.Metrics
	cache    *storage.RedisCache
	pipeline *graph.Pipeline
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	extractor := ingestion.NewExtractor(
		ingestion.WithRasterizer(ingestion.Pdftoppm{Path: cfg.OCR.Pdftoppm}),
		ingestion.WithRasterScale(cfg.OCR.Scale),
		ingestion.WithMinTextLayer(cfg.OCR.MinTextLayer),
		ingestion.WithPageHook(func(k ingestion.Kind, m ingestion.Method) {
			a.metrics.Extracted(k.String(), string(m))
		}),
		ingestion.WithLogger(log.Named("ingestion")),
	)

	opts := []graph.Option{
		graph.WithMetrics(a.metrics),
		graph.WithLogger(log.Named("pipeline")),
		graph.WithCondenseThreshold(cfg.Pipeline.CondenseThreshold),
		graph.WithMaxSentences(cfg.Pipeline.MaxSentences),
		graph.WithDefaultLevel(cfg.Pipeline.DefaultLevel),
		graph.WithDefaultLang(cfg.OCR.DefaultLang),
	}

	if cfg.LLM.Enabled() {
		gen, err := a.generator(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			graph.WithNormalizer(llm.NewNormalizer(gen)),
			graph.WithSummarizer(llm.NewSummarizer(gen)),
		)
	} else {
		log.Info("no model credentials configured, running local-only")
	}

	a.pipeline = graph.NewPipeline(extractor, opts...)
	return a, nil
}

// generator builds the Gemini client, cached through Redis when configured.
// An unreachable Redis only disables caching.
func (a *app) generator(ctx context.Context) (llm.Generator, error) {
	cfg := a.cfg
	g, err := llm.NewGemini(ctx, llm.GeminiConfig{
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		Endpoint:   cfg.LLM.Endpoint,
		UseADC:     cfg.LLM.UseADC,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	}, a.log.Named("llm"))
	if err != nil {
		return nil, err
	}
	if cfg.Redis.URL == "" {
		return g, nil
	}

	cache, err := storage.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	if err != nil {
		a.log.Warn("model cache unavailable, continuing without caching", zap.Error(err))
		return g, nil
	}
	a.log.Info("connected to redis cache", zap.String("addr", cfg.Redis.URL))
	a.cache = cache
	return llm.NewCached(g, cache, cfg.LLM.Model, a.log.Named("llm"), a.metrics.CacheLookup), nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("close redis", zap.Error(err))
		}
	}
}
