package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/primitives"
)

// ErrQueueFull is returned by Send when the tick's command batch is full.
var ErrQueueFull = errors.New("command queue full")

// Driver is what the runtime ticks. *core.Controller satisfies it.
type Driver interface {
	Start(a *primitives.Actor, r *primitives.Route) error
	Tick(deltaMs float64)
	TogglePause() (bool, error)
	Cancel() error
}

// Config configures the runtime.
type Config struct {
	TickRate           time.Duration // wall time between ticks (default 100ms)
	DeltaMs            float64       // simulated ms per tick (default TickRate in ms)
	MaxCommandsPerTick int           // command queue capacity (default 64)
	Logger             zerolog.Logger
}

// Runtime ticks a Driver on a fixed schedule.
type Runtime struct {
	driver   Driver
	tickRate time.Duration
	deltaMs  float64
	log      zerolog.Logger

	mu          sync.Mutex
	batch       []CommandWithMeta
	sequenceNum uint64
	tickNum     uint64

	ticker     *time.Ticker
	tickCtx    context.Context
	tickCancel context.CancelFunc
	stopped    chan struct{}
}

// NewRuntime creates a runtime around d.
func NewRuntime(d Driver, cfg Config) *Runtime {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 100 * time.Millisecond
	}
	if cfg.DeltaMs <= 0 {
		cfg.DeltaMs = float64(cfg.TickRate) / float64(time.Millisecond)
	}
	if cfg.MaxCommandsPerTick <= 0 {
		cfg.MaxCommandsPerTick = 64
	}
	return &Runtime{
		driver:   d,
		tickRate: cfg.TickRate,
		deltaMs:  cfg.DeltaMs,
		log:      cfg.Logger.With().Str("component", "realtime").Logger(),
		batch:    make([]CommandWithMeta, 0, cfg.MaxCommandsPerTick),
	}
}

// Start begins ticking until ctx is done or Stop is called.
func (rt *Runtime) Start(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.stopped != nil {
		return errors.New("runtime already started")
	}
	rt.tickCtx, rt.tickCancel = context.WithCancel(ctx)
	rt.ticker = time.NewTicker(rt.tickRate)
	rt.stopped = make(chan struct{})
	go rt.tickLoop(rt.tickCtx, rt.ticker, rt.stopped)
	return nil
}

// Stop halts the tick loop and waits for it to exit. Stopping a runtime that
// never started is a no-op.
func (rt *Runtime) Stop() {
	rt.mu.Lock()
	cancel, ticker, stopped := rt.tickCancel, rt.ticker, rt.stopped
	rt.mu.Unlock()
	if stopped == nil {
		return
	}
	cancel()
	ticker.Stop()
	<-stopped
}

// Done is closed when the tick loop exits. It is nil before Start.
func (rt *Runtime) Done() <-chan struct{} {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.stopped
}

func (rt *Runtime) tickLoop(ctx context.Context, ticker *time.Ticker, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.Step()
		}
	}
}

// Send queues cmd for the next tick.
func (rt *Runtime) Send(cmd Command) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if len(rt.batch) >= cap(rt.batch) {
		return ErrQueueFull
	}
	rt.batch = append(rt.batch, CommandWithMeta{Command: cmd, SequenceNum: rt.sequenceNum})
	rt.sequenceNum++
	return nil
}

// TickNumber returns the number of completed ticks.
func (rt *Runtime) TickNumber() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.tickNum
}

// DeltaMs is the simulated time advanced per tick.
func (rt *Runtime) DeltaMs() float64 { return rt.deltaMs }
