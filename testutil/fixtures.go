// Package testutil holds fixtures shared by the procession test suites: a
// manual clock, canonical actors and routes, an asset provider double and a
// world wired for tests.
package testutil

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/bus"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/logging"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/world"
)

// Epoch is the default start time of FakeClock.
var Epoch = time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)

// FakeClock is a manually advanced clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock stopped at start, or Epoch when start is zero.
func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = Epoch
	}
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FixedRand is a random source that always returns its value. 0 is the
// unluckiest year (no growth, popularity -4); 0.99 the luckiest.
type FixedRand float64

func (r FixedRand) Float64() float64 { return float64(r) }

// Actor returns an actor anchored at (100,100) with the given popularity.
func Actor(popularity int, secondary bool) *primitives.Actor {
	return &primitives.Actor{
		ID:                "macarena",
		Name:              "Hermandad de la Macarena",
		Popularity:        popularity,
		Anchor:            geometry.Pt(100, 100),
		HasSecondaryStage: secondary,
		Kind:              primitives.StageMisterio,
	}
}

// SquareRoute returns a closed square route of side size starting and ending
// at anchor.
func SquareRoute(anchor geometry.Point, size float64) *primitives.Route {
	return primitives.NewRoute("route_square", "macarena", []geometry.Point{
		anchor,
		anchor.Add(geometry.Pt(size, 0)),
		anchor.Add(geometry.Pt(size, size)),
		anchor.Add(geometry.Pt(0, size)),
		anchor,
	}, Epoch)
}

// LineRoute returns the three-point route (0,0) (100,0) (100,100).
func LineRoute() *primitives.Route {
	return primitives.NewRoute("route_line", "macarena", []geometry.Point{
		geometry.Pt(0, 0), geometry.Pt(100, 0), geometry.Pt(100, 100),
	}, Epoch)
}

// Logger returns a logger writing to the test log with the test profile.
func Logger(t testing.TB) zerolog.Logger {
	opts := logging.DefaultOptions(logging.ProfileTest)
	return logging.New(zerolog.NewTestWriter(t), opts)
}

// World returns a world with a FakeClock, a test logger and a recorder
// attached to its bus.
func World(t testing.TB, opts ...world.Option) (*world.Context, *FakeClock, *bus.Recorder) {
	t.Helper()
	clock := NewFakeClock(time.Time{})
	base := []world.Option{world.WithClock(clock), world.WithLogger(Logger(t))}
	w := world.New(append(base, opts...)...)
	rec := bus.Record(w.Bus)
	t.Cleanup(rec.Stop)
	return w, clock, rec
}

// ErrNoSurface is what Assets.GenerateFallback returns when fallbacks are off.
var ErrNoSurface = errors.New("no drawing surface")

// Assets is an in-memory asset provider.
type Assets struct {
	mu        sync.Mutex
	have      map[string]bool
	fallback  bool
	generated []string
}

// NewAssets returns a provider holding keys. When fallback is true missing
// keys can be generated.
func NewAssets(fallback bool, keys ...string) *Assets {
	a := &Assets{have: make(map[string]bool), fallback: fallback}
	for _, k := range keys {
		a.have[k] = true
	}
	return a
}

func (a *Assets) AssetExists(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.have[key]
}

func (a *Assets) GenerateFallback(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generated = append(a.generated, key)
	if !a.fallback {
		return ErrNoSurface
	}
	a.have[key] = true
	return nil
}

// Generated lists the keys GenerateFallback was asked for, sorted.
func (a *Assets) Generated() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := append([]string(nil), a.generated...)
	sort.Strings(out)
	return out
}
