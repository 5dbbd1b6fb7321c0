package bus

import (
	"fmt"
	"strings"
	"sync"

	"github.com/comalice/procession/internal/primitives"
)

// Recorder keeps every event it sees, in order. Tests and the CLI use it to
// assert on or summarise what a run emitted.
type Recorder struct {
	mu     sync.Mutex
	events []primitives.Event
	sub    *Subscription
}

// Record attaches a new Recorder to b.
func Record(b *Bus) *Recorder {
	r := &Recorder{}
	r.sub = b.OnAll(r.add)
	return r
}

func (r *Recorder) add(ev primitives.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Stop detaches the recorder; recorded events are kept.
func (r *Recorder) Stop() { r.sub.Cancel() }

// Events returns a copy of every recorded event.
func (r *Recorder) Events() []primitives.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]primitives.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the events with the given name. An empty name matches all.
func (r *Recorder) Filter(name primitives.EventName) []primitives.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []primitives.Event
	for _, ev := range r.events {
		if name == "" || ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Count returns how many events named name were recorded.
func (r *Recorder) Count(name primitives.EventName) int {
	return len(r.Filter(name))
}

// Last returns the most recent event named name.
func (r *Recorder) Last(name primitives.EventName) (primitives.Event, bool) {
	evs := r.Filter(name)
	if len(evs) == 0 {
		return primitives.Event{}, false
	}
	return evs[len(evs)-1], true
}

// Names returns the sequence of recorded event names.
func (r *Recorder) Names() []primitives.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]primitives.EventName, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// String formats the log one event per line:
//
//	[#003] ROUTE_POINT_ADDED        {PointIndex:1 ...}
func (r *Recorder) String() string {
	var sb strings.Builder
	for _, ev := range r.Events() {
		fmt.Fprintf(&sb, "[#%03d] %-25s %+v\n", ev.Seq, ev.Name, ev.Payload)
	}
	return sb.String()
}
