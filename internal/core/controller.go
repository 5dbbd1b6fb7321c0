// Package core owns the procession lifecycle: it starts a formation on a
// route, advances it on every scheduler tick, aggregates progress and publishes
// lifecycle notifications on the world bus.
//
// The controller has no timers of its own. Callers drive it with Tick(deltaMs)
// from a scheduler goroutine (realtime.Runtime, a viewer frame loop or a
// headless driver) and may call the other methods from any goroutine.
package core

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/formation"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/movement"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/world"
)

const (
	DefaultProgressInterval = 30 * time.Second
	DefaultFadeStagger      = 100 * time.Millisecond
	DefaultFadeDuration     = time.Second
)

// Controller runs at most one procession at a time.
type Controller struct {
	w         *world.Context
	log       zerolog.Logger
	lifecycle primitives.Lifecycle

	composer Composer
	mover    Mover
	assets   AssetProvider
	renderer Renderer

	progressInterval time.Duration
	fadeStagger      time.Duration
	fadeDuration     time.Duration

	mu             sync.Mutex
	state          primitives.LifecycleState
	proc           *primitives.Procession
	lastProgressMs float64
	faulted        map[string]bool // participants already reported as failing
}

// outbox collects side effects produced under the lock; they are delivered
// after it is released so handlers may call back into the controller.
type outbox struct {
	events []primitives.Payload
	frames []Frame
	render bool
	fades  []Fade
}

func (o *outbox) emit(p primitives.Payload) { o.events = append(o.events, p) }

// NewController creates an idle controller bound to w.
func NewController(w *world.Context, opts ...Option) *Controller {
	c := &Controller{
		w:                w,
		log:              w.Logger("procession"),
		lifecycle:        primitives.ProcessionLifecycle(),
		progressInterval: DefaultProgressInterval,
		fadeStagger:      DefaultFadeStagger,
		fadeDuration:     DefaultFadeDuration,
		state:            primitives.StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.composer == nil {
		c.composer = formation.Default()
	}
	if c.mover == nil {
		c.mover = movement.Default()
	}
	return c
}

// Start composes a formation for a on r and makes it Active.
func (c *Controller) Start(a *primitives.Actor, r *primitives.Route) error {
	var out outbox
	c.mu.Lock()
	err := c.start(a, r, &out)
	c.mu.Unlock()
	c.flush(&out)
	return err
}

func (c *Controller) start(a *primitives.Actor, r *primitives.Route, out *outbox) error {
	if c.state.Running() {
		return c.fail(out, fmt.Errorf("%w: a procession is already %s", primitives.ErrState, c.state))
	}
	if a == nil {
		return c.fail(out, fmt.Errorf("%w: no actor selected", primitives.ErrValidation))
	}
	if r == nil || len(r.Points) < primitives.MinRoutePoints {
		n := 0
		if r != nil {
			n = len(r.Points)
		}
		return c.fail(out, fmt.Errorf("%w: route needs at least %d points, got %d", primitives.ErrValidation, primitives.MinRoutePoints, n))
	}
	if err := c.ensureAssets(a); err != nil {
		return c.fail(out, err)
	}
	next, err := c.lifecycle.Next(c.state, primitives.TriggerStart)
	if err != nil {
		return c.fail(out, err)
	}
	parts, err := c.composer.Compose(a, r)
	if err != nil {
		return c.fail(out, err)
	}

	c.state = next
	c.proc = &primitives.Procession{
		Actor:        a.Clone(),
		Route:        r,
		Participants: parts,
		State:        next,
	}
	c.lastProgressMs = 0
	c.faulted = make(map[string]bool)

	c.log.Info().
		Str("actor", a.ID).
		Str("route", r.ID).
		Int("participants", len(parts)).
		Float64("length", r.Length()).
		Msg("procession started")
	out.emit(primitives.Started{
		ParticipantCount: len(parts),
		ActorID:          a.ID,
		RouteID:          r.ID,
		RouteLength:      r.Length(),
	})
	out.frames, out.render = c.framesAt(parts, r, 0), true
	return nil
}

// ensureAssets checks the required asset set plus any extra keys the composer
// asks for, generating fallbacks for missing ones. It runs before any state
// changes.
func (c *Controller) ensureAssets(a *primitives.Actor) error {
	if c.assets == nil {
		return nil
	}
	keys := append([]string(nil), formation.RequiredAssets...)
	for _, key := range c.composer.AssetsFor(a) {
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		if c.assets.AssetExists(key) {
			continue
		}
		c.log.Warn().Str("asset", key).Msg("asset missing, generating fallback")
		if err := c.assets.GenerateFallback(key); err != nil {
			return fmt.Errorf("%w: %s: fallback failed: %v", primitives.ErrAsset, key, err)
		}
		if !c.assets.AssetExists(key) {
			return fmt.Errorf("%w: %s unavailable after fallback", primitives.ErrAsset, key)
		}
	}
	return nil
}

// Tick advances an Active procession by deltaMs. It is a no-op in any other
// state.
func (c *Controller) Tick(deltaMs float64) {
	var out outbox
	c.mu.Lock()
	c.tick(deltaMs, &out)
	c.mu.Unlock()
	c.flush(&out)
}

func (c *Controller) tick(deltaMs float64, out *outbox) {
	if c.state != primitives.StateActive || c.proc == nil {
		return
	}
	if deltaMs < 0 || math.IsNaN(deltaMs) || math.IsInf(deltaMs, 0) {
		c.log.Warn().Float64("delta_ms", deltaMs).Msg("ignoring invalid tick delta")
		return
	}
	p := c.proc
	p.StepCount++
	p.ElapsedMs += deltaMs

	frames := make([]Frame, 0, len(p.Participants))
	for _, part := range p.Participants {
		st, err := c.advance(part, p.Route, deltaMs, p.StepCount)
		if err != nil {
			c.contain(part, err, out)
			continue
		}
		if st.JustCompleted {
			p.CompletedCount++
			c.log.Debug().Str("participant", part.ID).Float64("elapsed_ms", p.ElapsedMs).Msg("participant reached the end")
		}
		frames = append(frames, frameOf(part, st))
	}
	out.frames, out.render = frames, true

	if p.CompletedCount >= len(p.Participants) {
		c.complete(out)
		return
	}
	if p.ElapsedMs-c.lastProgressMs >= float64(c.progressInterval.Milliseconds()) {
		c.lastProgressMs = p.ElapsedMs
		out.emit(primitives.Progress{
			Progress:         p.Progress(),
			ElapsedMs:        p.ElapsedMs,
			CompletedCount:   p.CompletedCount,
			ParticipantCount: len(p.Participants),
		})
	}
}

// advance ticks one participant, converting a panic into ErrRuntime. A failed
// participant keeps its previous state.
func (c *Controller) advance(part *primitives.Participant, r *primitives.Route, deltaMs float64, step int) (st movement.Step, err error) {
	saved := *part
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: participant %s panicked: %v", primitives.ErrRuntime, part.ID, rec)
		}
		if err != nil {
			*part = saved
		}
	}()
	return c.mover.Tick(part, r, deltaMs, step)
}

func (c *Controller) contain(part *primitives.Participant, err error, out *outbox) {
	c.log.Error().Err(err).Str("participant", part.ID).Int("step", c.proc.StepCount).Msg("participant tick failed, skipping")
	if c.faulted[part.ID] {
		return
	}
	c.faulted[part.ID] = true
	out.emit(primitives.ErrorPayload("procession", err))
}

func (c *Controller) complete(out *outbox) {
	p := c.proc
	next, err := c.lifecycle.Next(c.state, primitives.TriggerComplete)
	if err != nil {
		c.fail(out, err)
		return
	}
	c.state = next
	p.State = next
	out.fades = c.fadePlan(p.Participants)

	c.log.Info().
		Str("actor", p.Actor.ID).
		Float64("elapsed_ms", p.ElapsedMs).
		Int("steps", p.StepCount).
		Msg("procession completed")
	out.emit(primitives.Completed{
		ElapsedMs:        p.ElapsedMs,
		ActorID:          p.Actor.ID,
		ParticipantCount: len(p.Participants),
	})
}

func (c *Controller) fadePlan(parts []*primitives.Participant) []Fade {
	plan := make([]Fade, len(parts))
	for i, part := range parts {
		plan[i] = Fade{
			ParticipantID: part.ID,
			Delay:         time.Duration(i) * c.fadeStagger,
			Duration:      c.fadeDuration,
		}
	}
	return plan
}

// TogglePause flips Active and Paused and reports whether the procession is
// now paused.
func (c *Controller) TogglePause() (bool, error) {
	var out outbox
	c.mu.Lock()
	paused, err := c.togglePause(&out)
	c.mu.Unlock()
	c.flush(&out)
	return paused, err
}

func (c *Controller) togglePause(out *outbox) (bool, error) {
	trigger := primitives.TriggerPause
	if c.state == primitives.StatePaused {
		trigger = primitives.TriggerResume
	}
	next, err := c.lifecycle.Next(c.state, trigger)
	if err != nil {
		return false, c.fail(out, err)
	}
	c.state = next
	c.proc.State = next
	paused := next == primitives.StatePaused

	c.log.Info().Bool("paused", paused).Float64("elapsed_ms", c.proc.ElapsedMs).Msg("procession pause toggled")
	out.emit(primitives.PauseChanged{IsPaused: paused, ElapsedMs: c.proc.ElapsedMs})
	return paused, nil
}

// Cancel stops a running procession and releases its participants. Cancelling
// an already cancelled procession does nothing.
func (c *Controller) Cancel() error {
	var out outbox
	c.mu.Lock()
	err := c.cancel(&out)
	c.mu.Unlock()
	c.flush(&out)
	return err
}

func (c *Controller) cancel(out *outbox) error {
	if c.state == primitives.StateCancelled {
		return nil
	}
	next, err := c.lifecycle.Next(c.state, primitives.TriggerCancel)
	if err != nil {
		return c.fail(out, err)
	}
	c.state = next
	p := c.proc
	p.State = next
	p.Participants = nil

	c.log.Info().Str("actor", p.Actor.ID).Float64("elapsed_ms", p.ElapsedMs).Msg("procession cancelled")
	out.emit(primitives.Cancelled{ElapsedMs: p.ElapsedMs, ActorID: p.Actor.ID})
	out.frames, out.render = nil, true
	return nil
}

// Progress is the mean route fraction over all participants; 1 once completed.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == primitives.StateCompleted {
		return 1
	}
	return c.proc.Progress()
}

// State returns the lifecycle state.
func (c *Controller) State() primitives.LifecycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Lifecycle returns the transition table the controller enforces.
func (c *Controller) Lifecycle() primitives.Lifecycle { return c.lifecycle }

// Snapshot returns a deep copy of the current procession, or nil.
func (c *Controller) Snapshot() *primitives.Procession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proc.Clone()
}

// Adopt installs a restored procession, e.g. after loading a save. The
// procession resumes in its recorded state; an Active one continues on the
// next Tick.
func (c *Controller) Adopt(p *primitives.Procession) error {
	var out outbox
	c.mu.Lock()
	err := c.adopt(p, &out)
	c.mu.Unlock()
	c.flush(&out)
	return err
}

func (c *Controller) adopt(p *primitives.Procession, out *outbox) error {
	if c.state.Running() {
		return c.fail(out, fmt.Errorf("%w: cannot adopt while a procession is %s", primitives.ErrState, c.state))
	}
	if err := validateProcession(p); err != nil {
		return c.fail(out, err)
	}
	proc := p.Clone()
	proc.CompletedCount = 0
	for _, part := range proc.Participants {
		if part.Completed {
			proc.CompletedCount++
		}
	}
	c.proc = proc
	c.state = proc.State
	c.faulted = make(map[string]bool)
	if ms := float64(c.progressInterval.Milliseconds()); ms > 0 {
		c.lastProgressMs = math.Floor(proc.ElapsedMs/ms) * ms
	}

	c.log.Info().
		Str("actor", proc.Actor.ID).
		Str("state", string(proc.State)).
		Float64("elapsed_ms", proc.ElapsedMs).
		Msg("procession adopted")
	if proc.State.Running() {
		out.frames, out.render = c.framesAt(proc.Participants, proc.Route, proc.StepCount), true
	}
	return nil
}

func validateProcession(p *primitives.Procession) error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil procession", primitives.ErrValidation)
	case p.Actor == nil:
		return fmt.Errorf("%w: procession has no actor", primitives.ErrValidation)
	case p.Route == nil || len(p.Route.Points) < primitives.MinRoutePoints:
		return fmt.Errorf("%w: procession route is missing or too short", primitives.ErrValidation)
	case !p.State.Valid():
		return fmt.Errorf("%w: unknown procession state %q", primitives.ErrValidation, p.State)
	}
	for i, part := range p.Participants {
		if part == nil {
			return fmt.Errorf("%w: participant %d is nil", primitives.ErrValidation, i)
		}
		if !part.Type.Valid() {
			return fmt.Errorf("%w: participant %s has unknown type %q", primitives.ErrValidation, part.ID, part.Type)
		}
		if part.SegmentIndex < 0 || part.SegmentIndex > len(p.Route.Points)-2 {
			return fmt.Errorf("%w: participant %s segment %d out of range", primitives.ErrValidation, part.ID, part.SegmentIndex)
		}
		if part.Progress < 0 || part.Progress > 1 {
			return fmt.Errorf("%w: participant %s progress %v out of range", primitives.ErrValidation, part.ID, part.Progress)
		}
	}
	return nil
}

func (c *Controller) framesAt(parts []*primitives.Participant, r *primitives.Route, step int) []Frame {
	frames := make([]Frame, 0, len(parts))
	for _, part := range parts {
		seg := min(part.SegmentIndex, len(r.Points)-2)
		frames = append(frames, frameOf(part, movement.Step{
			Position: part.Position,
			Heading:  geometry.Heading(r.Points[seg], r.Points[seg+1]),
			Sway:     swayOf(c.mover, part.Type, step),
		}))
	}
	return frames
}

func swayOf(m Mover, typ primitives.ParticipantType, step int) float64 {
	if e, ok := m.(*movement.Engine); ok {
		return e.Sway(typ, step)
	}
	return 0
}

func frameOf(part *primitives.Participant, st movement.Step) Frame {
	return Frame{
		ParticipantID: part.ID,
		Type:          part.Type,
		Position:      st.Position,
		Orientation:   st.Heading,
		Sway:          st.Sway,
		AssetKey:      part.AssetKey,
		Depth:         part.Depth,
		Completed:     part.Completed,
	}
}

// fail logs err and queues an ERROR event. It returns err.
func (c *Controller) fail(out *outbox, err error) error {
	c.log.Warn().Err(err).Str("kind", primitives.ErrorKind(err)).Str("state", string(c.state)).Msg("procession operation rejected")
	out.emit(primitives.ErrorPayload("procession", err))
	return err
}

func (c *Controller) flush(out *outbox) {
	if c.renderer != nil {
		if out.render {
			c.renderer.Render(out.frames)
		}
		if out.fades != nil {
			c.renderer.FadeOut(out.fades)
		}
	}
	for _, ev := range out.events {
		c.w.Bus.Emit(ev)
	}
}
