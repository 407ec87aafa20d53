package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/llm"
	"github.com/Divas-Gupta30/readease/internal/metrics"
	"github.com/Divas-Gupta30/readease/internal/processing"
	"github.com/Divas-Gupta30/readease/internal/progress"
	"github.com/Divas-Gupta30/readease/internal/speech"
)

const scenarioText = "The cat sat. It was happy. The sun was warm. Birds sang songs. Kids played games. Dogs ran fast. Fish swam deep. Trees grew tall."

func longText() string {
	var b strings.Builder
	topics := []string{"rivers", "mountains", "forests", "deserts", "oceans", "cities"}
	for i := 0; i < 14; i++ {
		fmt.Fprintf(&b, "Sentence %d talks about %s and how people living near %s use them every day. ", i, topics[i%len(topics)], topics[i%len(topics)])
	}
	return b.String()
}

func textDoc(text string) *ingestion.SourceDocument {
	return ingestion.NewSourceDocument("note.txt", "text/plain", []byte(text))
}

type countingExtractor struct {
	calls atomic.Int32
	text  string
	err   error
}

func (c *countingExtractor) Extract(context.Context, *ingestion.SourceDocument, string, progress.Observer) (ingestion.ExtractedText, error) {
	c.calls.Add(1)
	if c.err != nil {
		return ingestion.ExtractedText{}, c.err
	}
	return ingestion.ExtractedText{
		Kind:     ingestion.KindPlainText,
		Segments: []ingestion.Segment{{Method: ingestion.MethodPlain, Text: c.text}},
	}, nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	reply func(llm.Request) (string, error)
	reqs  []llm.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.reply(req)
}

func (f *fakeGenerator) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.reqs))
	for i, r := range f.reqs {
		out[i] = r.Text
	}
	return out
}

func TestRunLocalOnlyScenario(t *testing.T) {
	p := NewPipeline(ingestion.NewExtractor(), WithLogger(zaptest.NewLogger(t)))
	assert.False(t, p.RemoteEnabled())

	res, err := p.Run(context.Background(), textDoc(scenarioText), Options{Level: 1, MaxSentences: 8})
	require.NoError(t, err)
	assert.Equal(t, scenarioText, res.Raw)
	assert.Equal(t, scenarioText, res.Normalized)
	assert.Equal(t, scenarioText, res.Summary)
	assert.Equal(t, scenarioText, res.Display)
	assert.Equal(t, 1, res.Level)
	assert.Equal(t, "eng", res.Lang)
	assert.Equal(t, "plain-text", res.Kind)
	assert.Empty(t, res.Fallbacks)
	assert.False(t, res.RemoteEnabled)
}

func TestRunDefaultsAndClamping(t *testing.T) {
	p := NewPipeline(&countingExtractor{text: scenarioText}, WithDefaultLevel(4), WithDefaultLang("hin"))
	res, err := p.Run(context.Background(), textDoc(""), Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Level)
	assert.Equal(t, "hin", res.Lang)

	res, err = p.Run(context.Background(), textDoc(""), Options{Level: 42})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Level)
}

func TestRunCondensesLongTextBeforeRemoteSummary(t *testing.T) {
	text := longText()
	require.Greater(t, processing.RuneLen(text), DefaultCondenseThreshold)

	gen := &fakeGenerator{reply: func(r llm.Request) (string, error) {
		if r.MaxOutputTokens == 640 {
			return "A short paraphrase.", nil
		}
		return r.Text, nil
	}}
	p := NewPipeline(&countingExtractor{text: text},
		WithNormalizer(llm.NewNormalizer(gen)),
		WithSummarizer(llm.NewSummarizer(gen)),
	)
	assert.True(t, p.RemoteEnabled())

	res, err := p.Run(context.Background(), textDoc(""), Options{})
	require.NoError(t, err)

	sent := gen.texts()
	require.Len(t, sent, 2)
	assert.Equal(t, strings.TrimSpace(text), sent[0])
	assert.Equal(t, processing.Summarize(res.Normalized, "eng", 8), sent[1])
	assert.NotEqual(t, res.Normalized, sent[1])
	assert.Equal(t, "A short paraphrase.", res.Summary)
	assert.True(t, res.RemoteEnabled)
}

func TestRunShortTextSkipsCondense(t *testing.T) {
	gen := &fakeGenerator{reply: func(r llm.Request) (string, error) { return r.Text, nil }}
	p := NewPipeline(&countingExtractor{text: "A short note. Nothing more."},
		WithSummarizer(llm.NewSummarizer(gen)))

	_, err := p.Run(context.Background(), textDoc(""), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A short note. Nothing more."}, gen.texts())
}

func TestRunRemoteHTTPErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"internal"}}`))
	}))
	defer srv.Close()

	g, err := llm.NewGemini(context.Background(), llm.GeminiConfig{
		Model:      "gemini-2.0-flash",
		Endpoint:   srv.URL,
		Timeout:    time.Second,
		HTTPClient: srv.Client(),
	}, nil)
	require.NoError(t, err)

	m := metrics.New()
	text := longText()
	p := NewPipeline(&countingExtractor{text: text},
		WithNormalizer(llm.NewNormalizer(g)),
		WithSummarizer(llm.NewSummarizer(g)),
		WithMetrics(m),
	)

	var stages []progress.Stage
	res, err := p.Run(context.Background(), textDoc(""), Options{
		Observer: progress.Func(func(e progress.Event) { stages = append(stages, e.Stage) }),
	})
	require.NoError(t, err)
	assert.Equal(t, res.Raw, res.Normalized)
	assert.Equal(t, processing.Summarize(res.Normalized, "eng", 8), res.Summary)
	assert.Equal(t, processing.Simplify(res.Summary, 3), res.Display)

	require.Len(t, res.Fallbacks, 2)
	assert.Equal(t, progress.StageNormalize, res.Fallbacks[0].Stage)
	assert.Equal(t, progress.StageSummarize, res.Fallbacks[1].Stage)
	var nerr *llm.NormalizationError
	assert.ErrorAs(t, res.Fallbacks[0].Err, &nerr)
	var serr *llm.SummarizationError
	assert.ErrorAs(t, res.Fallbacks[1].Err, &serr)
	var aerr *llm.APIError
	require.ErrorAs(t, res.Fallbacks[0].Err, &aerr)
	assert.Equal(t, http.StatusInternalServerError, aerr.StatusCode)
	assert.Equal(t, "internal", aerr.Message)

	assert.Equal(t, []progress.Stage{
		progress.StageExtract,
		progress.StageNormalize,
		progress.StageFallback,
		progress.StageSummarize,
		progress.StageFallback,
		progress.StageSimplify,
		progress.StageDone,
	}, stages)
}

func TestRunStageOrder(t *testing.T) {
	gen := &fakeGenerator{reply: func(r llm.Request) (string, error) { return r.Text, nil }}
	p := NewPipeline(ingestion.NewExtractor(),
		WithNormalizer(llm.NewNormalizer(gen)),
		WithSummarizer(llm.NewSummarizer(gen)))

	var msgs []string
	_, err := p.Run(context.Background(), textDoc(scenarioText), Options{
		Observer: progress.Func(func(e progress.Event) { msgs = append(msgs, e.Message) }),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Extracting…", "Cleaning text…", "Summarizing…", "Simplifying…", "Done"}, msgs)
}

func TestRunExtractionFailure(t *testing.T) {
	p := NewPipeline(ingestion.NewExtractor())
	_, err := p.Run(context.Background(), textDoc("   "), Options{})
	var xe *ingestion.ExtractionError
	require.ErrorAs(t, err, &xe)
	assert.ErrorIs(t, err, ingestion.ErrNoText)
	assert.Equal(t, MsgUnreadable, UserMessage(err))
}

func TestRunWrapsForeignExtractionErrors(t *testing.T) {
	p := NewPipeline(&countingExtractor{err: errors.New("disk on fire")})
	_, err := p.Run(context.Background(), textDoc(""), Options{})
	var xe *ingestion.ExtractionError
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, "note.txt", xe.Name)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex := &countingExtractor{text: "x"}
	_, err := NewPipeline(ex).Run(ctx, textDoc(""), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, ex.calls.Load())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "", UserMessage(ErrSuperseded))
	assert.Equal(t, "", UserMessage(fmt.Errorf("run: %w", context.Canceled)))
	assert.Equal(t, MsgUnreadable, UserMessage(fmt.Errorf("wrap: %w", &ingestion.ExtractionError{Err: ingestion.ErrNoText})))
	assert.Equal(t, MsgNoReadAloud, UserMessage(&speech.SpeechUnavailableError{}))
	assert.Equal(t, MsgUnsimplified, UserMessage(errors.New("anything else")))
}
