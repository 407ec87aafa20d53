package speech

import (
	"fmt"
	"sync"
	"time"
)

type Utterance struct {
	Text  string
	Lang  string
	Voice *Voice
	Rate  float64
}

// Callbacks receive engine events. Boundary gets a rune offset into the
// utterance text; End fires once on natural completion only.
type Callbacks struct {
	Boundary func(charIndex int)
	End      func()
}

// Playback controls one utterance in flight.
type Playback interface {
	Pause()
	Resume()
	Cancel()
}

// Engine is a speech synthesis backend.
type Engine interface {
	Available() bool
	// Voices may change over the life of the engine.
	Voices() []Voice
	Speak(u Utterance, cb Callbacks) (Playback, error)
}

// SpeechUnavailableError means the runtime has no synthesis capability.
type SpeechUnavailableError struct {
	Reason string
}

func (e *SpeechUnavailableError) Error() string {
	if e.Reason == "" {
		return "speech synthesis unavailable"
	}
	return fmt.Sprintf("speech synthesis unavailable: %s", e.Reason)
}

// Unavailable is the engine for runtimes without synthesis.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }
func (Unavailable) Voices() []Voice { return nil }
func (Unavailable) Speak(Utterance, Callbacks) (Playback, error) {
	return nil, &SpeechUnavailableError{Reason: "no engine"}
}

// PacedEngine is a headless engine that emits a boundary event per word at a
// fixed pace scaled by the utterance rate. It produces no audio.
type PacedEngine struct {
	WordDelay time.Duration
	VoiceList []Voice
}

func NewPacedEngine(wordDelay time.Duration) *PacedEngine {
	return &PacedEngine{
		WordDelay: wordDelay,
		VoiceList: []Voice{
			{Name: "paced-en", Lang: "en-IN"},
			{Name: "paced-hi", Lang: "hi-IN"},
			{Name: "paced-ta", Lang: "ta-IN"},
		},
	}
}

func (e *PacedEngine) Available() bool { return true }

func (e *PacedEngine) Voices() []Voice {
	return append([]Voice(nil), e.VoiceList...)
}

func (e *PacedEngine) Speak(u Utterance, cb Callbacks) (Playback, error) {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	p := &pacedPlayback{
		done:    make(chan struct{}),
		changed: make(chan struct{}, 1),
	}
	go p.run(BuildWordTable(u.Text), time.Duration(float64(e.WordDelay)/rate), cb)
	return p, nil
}

type pacedPlayback struct {
	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
	done    chan struct{}
	changed chan struct{}
	once    sync.Once
}

func (p *pacedPlayback) run(table WordTable, delay time.Duration, cb Callbacks) {
	for _, start := range table {
		if !p.wait(0) {
			return
		}
		if cb.Boundary != nil {
			cb.Boundary(start)
		}
		if !p.wait(delay) {
			return
		}
	}
	if cb.End != nil {
		cb.End()
	}
}

// wait sleeps for d of unpaused time. It reports false once cancelled.
func (p *pacedPlayback) wait(d time.Duration) bool {
	for {
		p.mu.Lock()
		paused, resumed := p.paused, p.resumed
		p.mu.Unlock()

		if paused {
			select {
			case <-p.done:
				return false
			case <-resumed:
			}
			continue
		}
		if d <= 0 {
			select {
			case <-p.done:
				return false
			default:
				return true
			}
		}

		began := time.Now()
		t := time.NewTimer(d)
		select {
		case <-p.done:
			t.Stop()
			return false
		case <-t.C:
			return true
		case <-p.changed:
			t.Stop()
			d -= time.Since(began)
		}
	}
}

func (p *pacedPlayback) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return
	}
	p.paused = true
	p.resumed = make(chan struct{})
	select {
	case p.changed <- struct{}{}:
	default:
	}
}

func (p *pacedPlayback) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return
	}
	p.paused = false
	close(p.resumed)
}

func (p *pacedPlayback) Cancel() {
	p.once.Do(func() { close(p.done) })
}
