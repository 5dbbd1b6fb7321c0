package bus

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/comalice/procession/internal/primitives"
)

// JournalLine is one JSON line of an event journal.
type JournalLine struct {
	Timestamp string               `json:"ts"`
	Seq       uint64               `json:"seq"`
	Type      primitives.EventName `json:"type"`
	Payload   primitives.Payload   `json:"payload,omitempty"`
}

// Journal appends every event on a bus to w as JSON lines. Writes are
// best-effort: the first write error is kept and reported by Err, later events
// are dropped.
type Journal struct {
	mu  sync.Mutex
	w   io.Writer
	err error
	sub *Subscription
}

// NewJournal attaches a journal writing to w.
func NewJournal(b *Bus, w io.Writer) *Journal {
	j := &Journal{w: w}
	j.sub = b.OnAll(j.write)
	return j
}

func (j *Journal) write(ev primitives.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	data, err := json.Marshal(JournalLine{
		Timestamp: ev.At.UTC().Format(time.RFC3339Nano),
		Seq:       ev.Seq,
		Type:      ev.Name,
		Payload:   ev.Payload,
	})
	if err != nil {
		j.err = fmt.Errorf("marshaling event: %w", err)
		return
	}
	data = append(data, '\n')
	if _, err := j.w.Write(data); err != nil {
		j.err = fmt.Errorf("writing event: %w", err)
	}
}

// Err returns the first write failure, if any.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Close detaches the journal from its bus. It does not close the writer.
func (j *Journal) Close() error {
	j.sub.Cancel()
	return j.Err()
}
