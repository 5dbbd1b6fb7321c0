// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/config"
	"github.com/comalice/procession/internal/core"
	"github.com/comalice/procession/internal/formation"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/movement"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/world"
)

var epoch = time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

// GenActor returns a brotherhood with the given popularity seated at
// (400, 400).
func GenActor(popularity int, secondary bool) *primitives.Actor {
	return &primitives.Actor{
		ID:                fmt.Sprintf("bench-%d", popularity),
		Popularity:        popularity,
		Anchor:            geometry.Pt(400, 400),
		HasSecondaryStage: secondary,
		Kind:              primitives.StageMisterio,
	}
}

// GenRoute returns a closed route of n waypoints on a circle of radius 300
// around the actor's seat.
func GenRoute(a *primitives.Actor, n int) *primitives.Route {
	if n < 2 {
		n = 2
	}
	pts := make([]geometry.Point, 0, n+2)
	pts = append(pts, a.Anchor)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		pts = append(pts, a.Anchor.Add(geometry.Pt(300*math.Cos(angle), 300*math.Sin(angle))))
	}
	pts = append(pts, a.Anchor)
	return primitives.NewRoute(fmt.Sprintf("route_bench_%d", n), a.ID, pts, epoch)
}

// NewController returns a controller on a silent world with the default
// formation and movement tuning.
func NewController() *core.Controller {
	cfg := config.Default()
	w := world.New(
		world.WithLogger(zerolog.Nop()),
		world.WithClock(primitives.ClockFunc(func() time.Time { return epoch })),
	)
	return core.NewController(w,
		core.WithComposer(formation.NewComposer(cfg.Formation)),
		core.WithMover(movement.NewEngine(cfg.Movement)),
		core.WithConfig(cfg.Procession),
	)
}

// StartedController returns a controller already running a procession of
// popularity on a route of waypoints points.
func StartedController(popularity, waypoints int) (*core.Controller, error) {
	c := NewController()
	a := GenActor(popularity, true)
	if err := c.Start(a, GenRoute(a, waypoints)); err != nil {
		return nil, err
	}
	return c, nil
}
