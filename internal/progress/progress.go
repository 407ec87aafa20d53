// Package progress carries status and progress notifications out of the
// document pipeline. Notifications are UI-facing only; nothing in the
// pipeline branches on them.
package progress

import (
	"context"
	"fmt"
	"sync"
)

type Stage string

const (
	StageExtract   Stage = "extract"
	StageOCR       Stage = "ocr"
	StageNormalize Stage = "normalize"
	StageCondense  Stage = "condense"
	StageSummarize Stage = "summarize"
	StageFallback  Stage = "fallback"
	StageSimplify  Stage = "simplify"
	StageDone      Stage = "done"
)

// Event is a single status update. Page and Pages are set for PDF work,
// Percent for OCR recognition (-1 when not applicable).
type Event struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Page    int    `json:"page,omitempty"`
	Pages   int    `json:"pages,omitempty"`
	Percent int    `json:"percent"`
}

func Status(stage Stage, msg string) Event {
	return Event{Stage: stage, Message: msg, Percent: -1}
}

func PageEvent(page, pages int) Event {
	return Event{
		Stage:   StageExtract,
		Message: fmt.Sprintf("Processing PDF page %d/%d…", page, pages),
		Page:    page,
		Pages:   pages,
		Percent: -1,
	}
}

func Recognizing(fraction float64) Event {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	pct := int(fraction*100 + 0.5)
	return Event{
		Stage:   StageOCR,
		Message: fmt.Sprintf("Recognizing: %d%%", pct),
		Percent: pct,
	}
}

// Observer receives events in the order they are produced.
type Observer interface {
	Notify(Event)
}

type Func func(Event)

func (f Func) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Observer = Func(func(Event) {})

// OrDiscard returns o, or Discard when o is nil.
func OrDiscard(o Observer) Observer {
	if o == nil {
		return Discard
	}
	return o
}

// Stream returns an Observer that forwards events to a buffered channel.
// Sends block while the buffer is full until ctx is done or stop is called;
// stop closes the channel and later events are dropped, so a superseded
// request can unsubscribe without blocking the producer.
func Stream(ctx context.Context, buffer int) (Observer, <-chan Event, func()) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Event, buffer)
	var (
		mu      sync.Mutex
		stopped bool
	)
	obs := Func(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		select {
		case ch <- e:
		case <-ctx.Done():
		}
	})
	stop := func() {
		cancel()
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			stopped = true
			close(ch)
		}
	}
	return obs, ch, stop
}
