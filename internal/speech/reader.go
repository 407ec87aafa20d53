package speech

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/readease/internal/logging"
)

var ErrEmptyText = errors.New("speech: nothing to read")

type State int

const (
	Idle State = iota
	Speaking
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Speaking:
		return "speaking"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// Reader owns at most one utterance at a time and publishes the index of the
// word being spoken to its subscribers. Events from a superseded utterance
// are dropped.
type Reader struct {
	engine Engine
	log    *zap.Logger

	mu       sync.Mutex
	state    State
	gen      uint64
	playback Playback
	table    WordTable
	current  int
	subs     map[int]func(int)
	nextSub  int
}

func NewReader(engine Engine, log *zap.Logger) *Reader {
	if engine == nil {
		engine = Unavailable{}
	}
	return &Reader{
		engine:  engine,
		log:     logging.OrNop(log),
		current: NoWord,
		subs:    make(map[int]func(int)),
	}
}

// Subscribe registers fn for highlight changes; NoWord means none. The
// returned func unsubscribes.
func (r *Reader) Subscribe(fn func(word int)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Current returns the highlighted word index, or NoWord.
func (r *Reader) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Start cancels any utterance in flight and speaks text. When the engine is
// unavailable it returns *SpeechUnavailableError and leaves state untouched.
func (r *Reader) Start(text, lang string, level int) error {
	if !r.engine.Available() {
		return &SpeechUnavailableError{Reason: "engine not available"}
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	text = strings.Join(strings.Fields(text), " ")

	tag := LangTag(lang)
	voice := PickVoice(r.engine.Voices(), tag)
	u := Utterance{Text: text, Lang: tag, Voice: voice, Rate: Rate(level)}
	if voice != nil {
		u.Lang = voice.Lang
	}

	r.mu.Lock()
	cleared := r.resetLocked()
	r.gen++
	gen := r.gen
	r.table = BuildWordTable(text)
	r.state = Speaking
	subs := r.subscribersLocked()
	r.mu.Unlock()
	if cleared {
		publish(subs, NoWord)
	}

	pb, err := r.engine.Speak(u, Callbacks{
		Boundary: func(i int) { r.onBoundary(gen, i) },
		End:      func() { r.onEnd(gen) },
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if r.gen == gen {
			r.resetLocked()
		}
		return err
	}
	if r.gen != gen || r.state == Idle {
		// stopped or superseded while Speak was starting
		pb.Cancel()
		return nil
	}
	r.playback = pb
	if r.state == Paused {
		// paused while Speak was starting
		pb.Pause()
	}
	r.log.Debug("speech started",
		zap.String("lang", u.Lang),
		zap.Float64("rate", u.Rate),
		zap.Int("words", len(r.table)),
	)
	return nil
}

// Pause is a no-op unless speaking.
func (r *Reader) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Speaking {
		return
	}
	if r.playback != nil {
		r.playback.Pause()
	}
	r.state = Paused
}

// Resume is a no-op unless paused.
func (r *Reader) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Paused {
		return
	}
	if r.playback != nil {
		r.playback.Resume()
	}
	r.state = Speaking
}

// Stop cancels playback unconditionally and clears the highlight.
func (r *Reader) Stop() {
	r.mu.Lock()
	r.gen++
	cleared := r.resetLocked()
	subs := r.subscribersLocked()
	r.mu.Unlock()
	if cleared {
		publish(subs, NoWord)
	}
}

func (r *Reader) onBoundary(gen uint64, charIndex int) {
	r.mu.Lock()
	if gen != r.gen || r.state == Idle {
		r.mu.Unlock()
		return
	}
	word := r.table.WordAt(charIndex)
	changed := word != r.current
	r.current = word
	subs := r.subscribersLocked()
	r.mu.Unlock()
	if changed {
		publish(subs, word)
	}
}

func (r *Reader) onEnd(gen uint64) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.gen++
	cleared := r.resetLocked()
	subs := r.subscribersLocked()
	r.mu.Unlock()
	if cleared {
		publish(subs, NoWord)
	}
}

// resetLocked returns to Idle and reports whether anything was cleared.
func (r *Reader) resetLocked() bool {
	active := r.state != Idle || r.current != NoWord
	if r.playback != nil {
		r.playback.Cancel()
		r.playback = nil
	}
	r.state = Idle
	r.current = NoWord
	r.table = nil
	return active
}

func (r *Reader) subscribersLocked() []func(int) {
	out := make([]func(int), 0, len(r.subs))
	for _, fn := range r.subs {
		out = append(out, fn)
	}
	return out
}

func publish(subs []func(int), word int) {
	for _, fn := range subs {
		fn(word)
	}
}
