// Package movement advances participants along a route, one tick at a time.
//
// A participant's place on the route is (SegmentIndex, Progress): the index of
// the segment it walks and the fraction of that segment covered. Each tick adds
// deltaMs*0.001*SpeedFactor to Progress and carries whole segments forward, so
// speed is measured in segments per second regardless of segment length.
package movement

import (
	"fmt"
	"math"

	"github.com/comalice/procession/internal/config"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
)

// Epsilon absorbs float accumulation at segment boundaries: ten 0.1 steps
// must land on exactly one segment.
const Epsilon = 1e-9

// Step is the result of one participant tick.
type Step struct {
	Position      geometry.Point
	SegmentIndex  int
	Progress      float64
	JustCompleted bool
	Heading       float64 // radians of the current segment
	Sway          float64 // visual lateral offset; never fed back into position
}

// Engine implements the canonical movement algorithm.
type Engine struct {
	cfg config.MovementConfig
}

// NewEngine returns an engine with the given sway tuning.
func NewEngine(cfg config.MovementConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Default returns an engine with the stock sway tuning.
func Default() *Engine { return NewEngine(config.Default().Movement) }

// Tick advances p by deltaMs along r and mutates p in place. globalStep only
// drives the sway phase. Invalid inputs return an error wrapping ErrRuntime and
// leave p untouched.
func (e *Engine) Tick(p *primitives.Participant, r *primitives.Route, deltaMs float64, globalStep int) (Step, error) {
	if err := validate(p, r, deltaMs); err != nil {
		return Step{}, err
	}
	pts := r.Points
	last := len(pts) - 2 // index of the final segment

	if p.Completed {
		return e.step(p, pts, globalStep, false), nil
	}

	p.Progress += deltaMs * 0.001 * p.SpeedFactor
	for p.Progress >= 1-Epsilon && p.SegmentIndex < last {
		p.SegmentIndex++
		p.Progress = math.Max(0, p.Progress-1)
	}

	if p.SegmentIndex >= last && p.Progress >= 1-Epsilon {
		p.SegmentIndex = last
		p.Progress = 1
		p.Position = pts[len(pts)-1]
		p.Completed = true
		return e.step(p, pts, globalStep, true), nil
	}

	p.Position = geometry.Lerp(pts[p.SegmentIndex], pts[p.SegmentIndex+1], p.Progress)
	return e.step(p, pts, globalStep, false), nil
}

// Sway returns the lateral oscillation of a participant type at globalStep.
func (e *Engine) Sway(typ primitives.ParticipantType, globalStep int) float64 {
	amp := e.cfg.WalkerSway
	if typ == primitives.Float {
		amp = e.cfg.FloatSway
	}
	period := e.cfg.SwayPeriod
	if period <= 0 {
		period = 10
	}
	return math.Sin(float64(globalStep)/period) * amp
}

func (e *Engine) step(p *primitives.Participant, pts []geometry.Point, globalStep int, just bool) Step {
	seg := min(p.SegmentIndex, len(pts)-2)
	return Step{
		Position:      p.Position,
		SegmentIndex:  p.SegmentIndex,
		Progress:      p.Progress,
		JustCompleted: just,
		Heading:       geometry.Heading(pts[seg], pts[seg+1]),
		Sway:          e.Sway(p.Type, globalStep),
	}
}

func validate(p *primitives.Participant, r *primitives.Route, deltaMs float64) error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil participant", primitives.ErrRuntime)
	case r == nil || len(r.Points) < 2:
		return fmt.Errorf("%w: participant %s: route needs at least 2 points", primitives.ErrRuntime, p.ID)
	case !(p.SpeedFactor > 0) || math.IsInf(p.SpeedFactor, 0):
		return fmt.Errorf("%w: participant %s: speed factor %v must be positive", primitives.ErrRuntime, p.ID, p.SpeedFactor)
	case deltaMs < 0 || math.IsNaN(deltaMs) || math.IsInf(deltaMs, 0):
		return fmt.Errorf("%w: participant %s: invalid delta %vms", primitives.ErrRuntime, p.ID, deltaMs)
	case p.SegmentIndex < 0 || p.SegmentIndex > len(r.Points)-2:
		return fmt.Errorf("%w: participant %s: segment %d outside route of %d points", primitives.ErrRuntime, p.ID, p.SegmentIndex, len(r.Points))
	}
	return nil
}
