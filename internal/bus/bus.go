// Package bus is the typed, synchronous event bus that carries builder and
// procession notifications to UI, persistence and test observers.
//
// Handlers run on the emitting goroutine in subscription order. A handler may
// emit, subscribe or cancel from inside its callback; the set of handlers for an
// emission is fixed when Emit is called.
package bus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/primitives"
)

// Handler receives one event.
type Handler func(primitives.Event)

// Option configures a Bus.
type Option func(*Bus)

// WithClock stamps events with c instead of the system clock.
func WithClock(c primitives.Clock) Option {
	return func(b *Bus) {
		b.clock = c
	}
}

// WithLogger routes handler panic reports to log.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Bus) {
		b.log = log
	}
}

type entry struct {
	id      uint64
	name    primitives.EventName // empty for OnAll
	handler Handler
}

// Bus fans out events to subscribers. Safe for concurrent use.
type Bus struct {
	mu      sync.RWMutex
	entries []entry
	nextID  uint64
	seq     atomic.Uint64
	clock   primitives.Clock
	log     zerolog.Logger
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		clock: primitives.SystemClock{},
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription is the handle returned by On, OnAll and Subscribe.
type Subscription struct {
	bus  *Bus
	id   uint64
	once sync.Once
}

// Cancel removes the handler. Calling it more than once is a no-op.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}

// On subscribes h to events named name.
func (b *Bus) On(name primitives.EventName, h Handler) *Subscription {
	return b.add(name, h)
}

// OnAll subscribes h to every event.
func (b *Bus) OnAll(h Handler) *Subscription {
	return b.add("", h)
}

// Subscribe registers a handler for the payload type T.
func Subscribe[T primitives.Payload](b *Bus, h func(T)) *Subscription {
	var zero T
	return b.On(zero.EventName(), func(ev primitives.Event) {
		if p, ok := ev.Payload.(T); ok {
			h(p)
		}
	})
}

func (b *Bus) add(name primitives.EventName, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.entries = append(b.entries, entry{id: b.nextID, name: name, handler: h})
	return &Subscription{bus: b, id: b.nextID}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i:i], b.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Emit delivers payload to matching handlers and returns the envelope.
// A nil bus swallows the event.
func (b *Bus) Emit(payload primitives.Payload) primitives.Event {
	if b == nil {
		return primitives.Event{Name: payload.EventName(), Payload: payload}
	}
	ev := primitives.NewEvent(payload, b.seq.Add(1), b.clock.Now())

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.entries))
	for _, e := range b.entries {
		if e.name == "" || e.name == ev.Name {
			targets = append(targets, e.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range targets {
		b.dispatch(h, ev)
	}
	return ev
}

func (b *Bus) dispatch(h Handler, ev primitives.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("component", "bus").
				Str("event", string(ev.Name)).
				Uint64("seq", ev.Seq).
				Str("panic", fmt.Sprint(r)).
				Msg("event handler panicked")
		}
	}()
	h(ev)
}
