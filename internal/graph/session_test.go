package graph

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/processing"
	"github.com/Divas-Gupta30/readease/internal/progress"
	"github.com/Divas-Gupta30/readease/internal/speech"
)

type blockingExtractor struct {
	started chan struct{}
}

func (b *blockingExtractor) Extract(ctx context.Context, _ *ingestion.SourceDocument, _ string, _ progress.Observer) (ingestion.ExtractedText, error) {
	close(b.started)
	<-ctx.Done()
	return ingestion.ExtractedText{}, ctx.Err()
}

type switchExtractor struct {
	first  *blockingExtractor
	second *countingExtractor
	n      int
}

func (s *switchExtractor) Extract(ctx context.Context, doc *ingestion.SourceDocument, lang string, obs progress.Observer) (ingestion.ExtractedText, error) {
	s.n++
	if s.n == 1 {
		return s.first.Extract(ctx, doc, lang, obs)
	}
	return s.second.Extract(ctx, doc, lang, obs)
}

func TestSessionProcessSupersedes(t *testing.T) {
	ex := &switchExtractor{
		first:  &blockingExtractor{started: make(chan struct{})},
		second: &countingExtractor{text: scenarioText},
	}
	sess := NewSession(NewPipeline(ex), nil)

	firstErr := make(chan error, 1)
	go func() {
		_, err := sess.Process(context.Background(), textDoc(""), Options{})
		firstErr <- err
	}()
	<-ex.first.started

	res, err := sess.Process(context.Background(), textDoc(""), Options{})
	require.NoError(t, err)
	assert.Equal(t, scenarioText, res.Display)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSuperseded)
		assert.Equal(t, "", UserMessage(err))
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request did not return")
	}
	assert.Same(t, res, sess.Result())
}

func TestSessionResimplifyDoesNotRerunStages(t *testing.T) {
	ex := &countingExtractor{text: "Kids played games in the park near the school after lunch every single day of the long summer holiday."}
	sess := NewSession(NewPipeline(ex), nil)

	_, err := sess.Resimplify(2)
	assert.ErrorIs(t, err, ErrNoDocument)

	first, err := sess.Process(context.Background(), textDoc(""), Options{Level: 1})
	require.NoError(t, err)

	hard, err := sess.Resimplify(5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ex.calls.Load())
	assert.Equal(t, first.Summary, hard.Summary)
	assert.Equal(t, 5, hard.Level)
	assert.Equal(t, processing.Simplify(first.Summary, 5), hard.Display)
	assert.Len(t, strings.Fields(hard.Display), 12)

	back, err := sess.Resimplify(1)
	require.NoError(t, err)
	assert.Equal(t, first.Display, back.Display)
	assert.Equal(t, 1, first.Level, "earlier results are not mutated")
}

func TestSessionReadAloud(t *testing.T) {
	reader := speech.NewReader(speech.NewPacedEngine(time.Millisecond), nil)
	sess := NewSession(NewPipeline(&countingExtractor{text: "Birds sang songs."}), reader)

	assert.ErrorIs(t, sess.ReadAloud(), ErrNoDocument)

	_, err := sess.Process(context.Background(), textDoc(""), Options{})
	require.NoError(t, err)

	var words []int
	done := make(chan struct{})
	unsubscribe := sess.Reader().Subscribe(func(w int) {
		words = append(words, w)
		if w == speech.NoWord {
			close(done)
		}
	})
	defer unsubscribe()

	require.NoError(t, sess.ReadAloud())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}
	assert.Equal(t, []int{0, 1, 2, speech.NoWord}, words)
}

func TestSessionReadAloudUnavailable(t *testing.T) {
	sess := NewSession(NewPipeline(&countingExtractor{text: "Hello there."}), nil)
	_, err := sess.Process(context.Background(), textDoc(""), Options{})
	require.NoError(t, err)

	err = sess.ReadAloud()
	assert.Equal(t, MsgNoReadAloud, UserMessage(err))
	assert.Equal(t, speech.Idle, sess.Reader().State())
}

func TestSessionControlsDelegate(t *testing.T) {
	reader := speech.NewReader(speech.NewPacedEngine(time.Hour), nil)
	sess := NewSession(NewPipeline(&countingExtractor{text: "one two three"}), reader)
	_, err := sess.Process(context.Background(), textDoc(""), Options{})
	require.NoError(t, err)

	require.NoError(t, sess.ReadAloud())
	sess.Pause()
	assert.Equal(t, speech.Paused, reader.State())
	sess.Resume()
	assert.Equal(t, speech.Speaking, reader.State())

	_, err = sess.Resimplify(4)
	require.NoError(t, err)
	assert.Equal(t, speech.Idle, reader.State(), "changing the display text stops speech")

	require.NoError(t, sess.ReadAloud())
	sess.Stop()
	assert.Equal(t, speech.Idle, reader.State())
	assert.Equal(t, speech.NoWord, reader.Current())
}
