package extensibility

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/core"
)

// NopRenderer discards everything.
type NopRenderer struct{}

func (NopRenderer) Render([]core.Frame)  {}
func (NopRenderer) FadeOut([]core.Fade) {}

// LoggingRenderer wraps a Renderer and logs each call at debug level.
type LoggingRenderer struct {
	inner core.Renderer
	log   zerolog.Logger
}

// NewLoggingRenderer wraps inner. A nil inner logs only.
func NewLoggingRenderer(inner core.Renderer, log zerolog.Logger) *LoggingRenderer {
	if inner == nil {
		inner = NopRenderer{}
	}
	return &LoggingRenderer{inner: inner, log: log.With().Str("component", "renderer").Logger()}
}

// Render logs the frame count and the leading participant before delegating.
func (r *LoggingRenderer) Render(frames []core.Frame) {
	start := time.Now()
	r.inner.Render(frames)
	ev := r.log.Debug().Int("frames", len(frames)).Dur("took", time.Since(start))
	if len(frames) > 0 {
		ev = ev.Str("lead", frames[0].ParticipantID).
			Float64("x", frames[0].Position.X).
			Float64("y", frames[0].Position.Y)
	}
	ev.Msg("render")
}

// FadeOut logs the plan size and total span before delegating.
func (r *LoggingRenderer) FadeOut(plan []core.Fade) {
	var span time.Duration
	if n := len(plan); n > 0 {
		span = plan[n-1].Delay + plan[n-1].Duration
	}
	r.log.Info().Int("participants", len(plan)).Dur("span", span).Msg("fade out")
	r.inner.FadeOut(plan)
}

// MultiRenderer fans calls out to several renderers in order.
type MultiRenderer []core.Renderer

func (m MultiRenderer) Render(frames []core.Frame) {
	for _, r := range m {
		r.Render(frames)
	}
}

func (m MultiRenderer) FadeOut(plan []core.Fade) {
	for _, r := range m {
		r.FadeOut(plan)
	}
}

// RecordingRenderer keeps the latest frames and every fade plan. Safe for use
// from a scheduler goroutine while a UI goroutine reads.
type RecordingRenderer struct {
	mu     sync.Mutex
	latest []core.Frame
	calls  int
	fades  [][]core.Fade
}

func (r *RecordingRenderer) Render(frames []core.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = append(r.latest[:0], frames...)
	r.calls++
}

func (r *RecordingRenderer) FadeOut(plan []core.Fade) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fades = append(r.fades, append([]core.Fade(nil), plan...))
}

// Latest returns a copy of the last rendered frames.
func (r *RecordingRenderer) Latest() []core.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Frame(nil), r.latest...)
}

// Calls returns the number of Render calls.
func (r *RecordingRenderer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Fades returns every fade plan received.
func (r *RecordingRenderer) Fades() [][]core.Fade {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]core.Fade(nil), r.fades...)
}

// ChannelRenderer forwards frames to a channel for a consumer on another
// goroutine. Sends never block: when the consumer lags, frames are dropped.
type ChannelRenderer struct {
	frames chan []core.Frame
	fades  chan []core.Fade
}

// NewChannelRenderer creates a ChannelRenderer with the given buffer size.
func NewChannelRenderer(buffer int) *ChannelRenderer {
	return &ChannelRenderer{
		frames: make(chan []core.Frame, buffer),
		fades:  make(chan []core.Fade, 1),
	}
}

func (r *ChannelRenderer) Render(frames []core.Frame) {
	select {
	case r.frames <- append([]core.Frame(nil), frames...):
	default:
		// drop if full
	}
}

func (r *ChannelRenderer) FadeOut(plan []core.Fade) {
	select {
	case r.fades <- plan:
	default:
	}
}

// Frames returns the receive side of the frame channel.
func (r *ChannelRenderer) Frames() <-chan []core.Frame { return r.frames }

// Fades returns the receive side of the fade channel.
func (r *ChannelRenderer) Fades() <-chan []core.Fade { return r.fades }
