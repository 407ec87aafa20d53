package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizingClampsAndRounds(t *testing.T) {
	assert.Equal(t, "Recognizing: 0%", Recognizing(-0.5).Message)
	assert.Equal(t, 100, Recognizing(2).Percent)
	assert.Equal(t, 43, Recognizing(0.426).Percent)
	assert.Equal(t, StageOCR, Recognizing(0.5).Stage)
}

func TestPageEvent(t *testing.T) {
	e := PageEvent(2, 5)
	assert.Equal(t, "Processing PDF page 2/5…", e.Message)
	assert.Equal(t, 2, e.Page)
	assert.Equal(t, 5, e.Pages)
	assert.Equal(t, -1, e.Percent)
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	var got []Event
	obs := OrDiscard(Func(func(e Event) { got = append(got, e) }))
	obs.Notify(Status(StageExtract, "Extracting…"))
	require.Len(t, got, 1)
	assert.Equal(t, "Extracting…", got[0].Message)
}

func TestStreamPreservesOrderAndStops(t *testing.T) {
	obs, ch, stop := Stream(context.Background(), 4)
	obs.Notify(Status(StageExtract, "one"))
	obs.Notify(Status(StageNormalize, "two"))
	assert.Equal(t, "one", (<-ch).Message)
	assert.Equal(t, "two", (<-ch).Message)

	stop()
	stop()
	obs.Notify(Status(StageDone, "dropped"))
	_, open := <-ch
	assert.False(t, open)
}

func TestStreamUnblocksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	obs, _, stop := Stream(ctx, 0)
	defer stop()
	cancel()
	// would block forever on an unbuffered channel without the ctx branch
	obs.Notify(Status(StageExtract, "late"))
}
