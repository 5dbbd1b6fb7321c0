// Package route implements interactive route authoring: a session anchored at
// an actor's seat accumulates points until it is closed into an immutable
// primitives.Route.
package route

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/world"
)

const (
	DefaultProximityThreshold = 50.0
	idPrefix                  = "route_"
)

// Phase is the builder session state.
type Phase string

const (
	PhaseInactive Phase = "inactive"
	PhaseEmpty    Phase = "empty"    // session open, no points
	PhaseSeeded   Phase = "seeded"   // anchor placed, not yet finishable
	PhaseBuilding Phase = "building" // enough points to finish
)

// AddResult describes the outcome of AddPoint.
type AddResult struct {
	Added         bool
	SuggestFinish bool
	Index         int // index of the appended point; -1 when nothing was appended
}

// Option configures a Builder.
type Option func(*Builder)

// WithProximityThreshold sets the seat radius used for finish suggestions and
// closure.
func WithProximityThreshold(r float64) Option {
	return func(b *Builder) { b.threshold = r }
}

// WithMinPoints raises the minimum route size.
func WithMinPoints(n int) Option {
	return func(b *Builder) {
		if n >= primitives.MinRoutePoints {
			b.minPoints = n
		}
	}
}

// WithIDGenerator replaces the uuid-based route id suffix.
func WithIDGenerator(gen func() string) Option {
	return func(b *Builder) { b.newID = gen }
}

// Builder owns the point buffer of one authoring session at a time.
// It is safe for concurrent use but intended for a single UI owner.
type Builder struct {
	w         *world.Context
	log       zerolog.Logger
	threshold float64
	minPoints int
	newID     func() string

	mu     sync.Mutex
	phase  Phase
	owner  string
	anchor geometry.Point
	points []geometry.Point
}

// NewBuilder returns an inactive builder publishing on w.Bus.
func NewBuilder(w *world.Context, opts ...Option) *Builder {
	b := &Builder{
		w:         w,
		log:       w.Logger("route"),
		threshold: DefaultProximityThreshold,
		minPoints: primitives.MinRoutePoints,
		newID:     func() string { return uuid.New().String() },
		phase:     PhaseInactive,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// StartSession opens a session for ownerID anchored at anchor.
func (b *Builder) StartSession(ownerID string, anchor *geometry.Point) error {
	b.mu.Lock()
	if b.phase != PhaseInactive {
		b.mu.Unlock()
		return b.fail(fmt.Errorf("%w: route session already active for %q", primitives.ErrState, b.owner))
	}
	if anchor == nil {
		b.mu.Unlock()
		return b.fail(fmt.Errorf("%w: actor %q has no seat to anchor the route", primitives.ErrValidation, ownerID))
	}
	b.phase = PhaseEmpty
	b.owner = ownerID
	b.anchor = *anchor
	b.points = b.points[:0]
	b.mu.Unlock()

	b.log.Info().Str("actor", ownerID).Float64("x", anchor.X).Float64("y", anchor.Y).Msg("route session started")
	b.w.Bus.Emit(primitives.RouteCreationStarted{ActorID: ownerID, Anchor: *anchor})
	return nil
}

// StartForActor opens a session for a, or for the context's current actor when
// a is nil.
func (b *Builder) StartForActor(a *primitives.Actor) error {
	if a == nil {
		a = b.w.Actor()
	}
	if a == nil {
		return b.fail(fmt.Errorf("%w: no actor selected", primitives.ErrValidation))
	}
	anchor := a.Anchor
	return b.StartSession(a.ID, &anchor)
}

// AddPoint appends p to the session. The first point seeds the buffer with the
// anchor. A point near the anchor once at least two points exist is not
// appended; the result suggests finishing instead.
func (b *Builder) AddPoint(p geometry.Point) (AddResult, error) {
	b.mu.Lock()
	if b.phase == PhaseInactive {
		b.mu.Unlock()
		return AddResult{Index: -1}, b.fail(fmt.Errorf("%w: no active route session", primitives.ErrValidation))
	}

	if b.phase == PhaseEmpty {
		b.points = append(b.points, b.anchor, p)
		b.phase = b.phaseFor(len(b.points))
		anchor, total := b.anchor, len(b.points)
		b.mu.Unlock()

		b.log.Debug().Int("total", total).Msg("route seeded at seat")
		b.w.Bus.Emit(primitives.RoutePointAdded{PointIndex: 0, Point: anchor, TotalPoints: total})
		b.w.Bus.Emit(primitives.RoutePointAdded{PointIndex: 1, Point: p, TotalPoints: total})
		return AddResult{Added: true, Index: 1}, nil
	}

	if geometry.Within(p, b.anchor, b.threshold) && len(b.points) >= 2 {
		count := len(b.points)
		b.mu.Unlock()

		b.log.Debug().Int("points", count).Msg("point near seat, suggesting finish")
		b.w.Bus.Emit(primitives.RouteFinishSuggested{PointCount: count})
		return AddResult{SuggestFinish: true, Index: -1}, nil
	}

	b.points = append(b.points, p)
	b.phase = b.phaseFor(len(b.points))
	idx, total := len(b.points)-1, len(b.points)
	b.mu.Unlock()

	b.w.Bus.Emit(primitives.RoutePointAdded{PointIndex: idx, Point: p, TotalPoints: total})
	return AddResult{Added: true, Index: idx}, nil
}

// RemoveLastPoint pops the newest point. It reports false when there is no
// session or nothing to remove.
func (b *Builder) RemoveLastPoint() (geometry.Point, bool) {
	b.mu.Lock()
	if b.phase == PhaseInactive || len(b.points) == 0 {
		b.mu.Unlock()
		return geometry.Point{}, false
	}
	last := b.points[len(b.points)-1]
	b.points = b.points[:len(b.points)-1]
	b.phase = b.phaseFor(len(b.points))
	remaining := len(b.points)
	b.mu.Unlock()

	b.w.Bus.Emit(primitives.RoutePointRemoved{Point: last, RemainingPoints: remaining})
	return last, true
}

// Finish validates the buffer, closes it at the anchor and returns the route.
// With too few points the session stays open.
func (b *Builder) Finish() (*primitives.Route, error) {
	b.mu.Lock()
	if b.phase == PhaseInactive {
		b.mu.Unlock()
		return nil, b.fail(fmt.Errorf("%w: no active route session", primitives.ErrState))
	}
	if n := len(b.points); n < b.minPoints {
		b.mu.Unlock()
		reason := fmt.Sprintf("at least %d points are needed for a valid route, got %d", b.minPoints, n)
		b.w.Bus.Emit(primitives.RouteCreationError{Reason: reason, PointCount: n})
		return nil, b.fail(fmt.Errorf("%w: %s", primitives.ErrValidation, reason))
	}

	pts := make([]geometry.Point, 0, len(b.points)+2)
	if !geometry.Within(b.points[0], b.anchor, b.threshold) {
		pts = append(pts, b.anchor)
	}
	pts = append(pts, b.points...)
	if !geometry.Within(pts[len(pts)-1], b.anchor, b.threshold) {
		pts = append(pts, b.anchor)
	}

	r := primitives.NewRoute(idPrefix+b.newID(), b.owner, pts, b.w.Clock.Now())
	b.reset()
	b.mu.Unlock()

	b.log.Info().
		Str("route", r.ID).
		Str("actor", r.OwnerID).
		Int("points", len(r.Points)).
		Float64("length", r.Length()).
		Msg("route created")
	b.w.Bus.Emit(primitives.RouteCreated{Route: r})
	return r, nil
}

// Cancel discards the session. It is a no-op without one.
func (b *Builder) Cancel() {
	b.mu.Lock()
	if b.phase == PhaseInactive {
		b.mu.Unlock()
		return
	}
	owner := b.owner
	b.reset()
	b.mu.Unlock()

	b.log.Info().Str("actor", owner).Msg("route session cancelled")
	b.w.Bus.Emit(primitives.RouteCreationCancelled{ActorID: owner})
}

// Phase returns the session phase.
func (b *Builder) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Active reports whether a session is open.
func (b *Builder) Active() bool { return b.Phase() != PhaseInactive }

// Points returns a copy of the point buffer.
func (b *Builder) Points() []geometry.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]geometry.Point, len(b.points))
	copy(out, b.points)
	return out
}

// Anchor returns the session anchor and whether a session is open.
func (b *Builder) Anchor() (geometry.Point, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.anchor, b.phase != PhaseInactive
}

// ProximityThreshold returns the seat radius.
func (b *Builder) ProximityThreshold() float64 { return b.threshold }

func (b *Builder) phaseFor(n int) Phase {
	switch {
	case n == 0:
		return PhaseEmpty
	case n < b.minPoints:
		return PhaseSeeded
	default:
		return PhaseBuilding
	}
}

// reset must be called with mu held.
func (b *Builder) reset() {
	b.phase = PhaseInactive
	b.owner = ""
	b.anchor = geometry.Point{}
	b.points = nil
}

func (b *Builder) fail(err error) error {
	b.log.Warn().Err(err).Str("kind", primitives.ErrorKind(err)).Msg("route builder rejected operation")
	b.w.Bus.Emit(primitives.ErrorPayload("route", err))
	return err
}
