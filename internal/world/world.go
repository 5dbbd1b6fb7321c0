// Package world holds the shared context passed to every engine component in
// place of global state: the current actor, the year, the clock, the logger and
// the event bus.
package world

import (
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/bus"
	"github.com/comalice/procession/internal/primitives"
)

// Context is built once per session and handed to the builder and controller.
// The actor and year may change between processions; access is synchronised.
type Context struct {
	Clock primitives.Clock
	Log   zerolog.Logger
	Bus   *bus.Bus

	mu      sync.RWMutex
	actor   *primitives.Actor
	year    int
	rand    Rand
	history []primitives.HistoricalEvent
}

// Option configures a Context.
type Option func(*Context)

func WithClock(c primitives.Clock) Option {
	return func(w *Context) { w.Clock = c }
}

func WithLogger(log zerolog.Logger) Option {
	return func(w *Context) { w.Log = log }
}

func WithBus(b *bus.Bus) Option {
	return func(w *Context) { w.Bus = b }
}

func WithActor(a primitives.Actor) Option {
	return func(w *Context) { w.actor = &a }
}

func WithYear(year int) Option {
	return func(w *Context) { w.year = year }
}

// WithRand replaces the clock-seeded source used by Advance.
func WithRand(r Rand) Option {
	return func(w *Context) { w.rand = r }
}

// New returns a Context with a system clock, a no-op logger and a fresh bus
// unless overridden. A bus created here shares the context's clock and logger.
func New(opts ...Option) *Context {
	w := &Context{
		Clock: primitives.SystemClock{},
		Log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.Bus == nil {
		w.Bus = bus.New(bus.WithClock(w.Clock), bus.WithLogger(w.Log))
	}
	if w.year == 0 {
		w.year = w.Clock.Now().Year()
	}
	if w.rand == nil {
		seed := uint64(w.Clock.Now().UnixNano())
		w.rand = rand.New(rand.NewPCG(seed, seed>>32))
	}
	return w
}

// Actor returns a copy of the current actor, or nil.
func (w *Context) Actor() *primitives.Actor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.actor.Clone()
}

// SetActor replaces the current actor.
func (w *Context) SetActor(a *primitives.Actor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actor = a.Clone()
}

// Year returns the simulated year.
func (w *Context) Year() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.year
}

// SetYear changes the simulated year without aging anyone. It restores saved
// sessions; Advance is the way time passes in play.
func (w *Context) SetYear(year int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.year = year
}

// Logger returns a child logger tagged with component.
func (w *Context) Logger(component string) zerolog.Logger {
	return w.Log.With().Str("component", component).Logger()
}
