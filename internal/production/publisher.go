package production

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/comalice/procession/internal/bus"
	"github.com/comalice/procession/internal/primitives"
)

// PublishedEvent bundles an event with the publisher's source label.
type PublishedEvent struct {
	Event  primitives.Event
	Source string
}

// ChannelPublisher forwards events to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch      chan PublishedEvent
	source  string
	sub     *bus.Subscription
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewChannelPublisher creates a ChannelPublisher with a buffered output channel.
func NewChannelPublisher(source string, buffer int) *ChannelPublisher {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelPublisher{ch: make(chan PublishedEvent, buffer), source: source}
}

// Attach subscribes the publisher to every event on b. Attaching again
// replaces the previous subscription.
func (p *ChannelPublisher) Attach(b *bus.Bus) *ChannelPublisher {
	p.sub.Cancel()
	p.sub = b.OnAll(func(ev primitives.Event) {
		_ = p.Publish(context.Background(), ev)
	})
	return p
}

// Publish offers ev to the channel. A full channel drops the event.
func (p *ChannelPublisher) Publish(ctx context.Context, ev primitives.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil
	}
	select {
	case p.ch <- PublishedEvent{Event: ev, Source: p.source}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.dropped.Add(1)
		return nil
	}
}

// Events is the receiving side.
func (p *ChannelPublisher) Events() <-chan PublishedEvent { return p.ch }

// Dropped counts events discarded because the channel was full.
func (p *ChannelPublisher) Dropped() uint64 { return p.dropped.Load() }

// Close detaches from the bus and closes the channel.
func (p *ChannelPublisher) Close() error {
	p.sub.Cancel()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}
