package movement

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
)

func scenarioRoute() *primitives.Route {
	return primitives.NewRoute("r", "a", []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}, time.Time{})
}

func walker(speed float64) *primitives.Participant {
	return &primitives.Participant{ID: "p", Type: primitives.Bearer, SpeedFactor: speed}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestTenTicksCrossOneSegment(t *testing.T) {
	e := Default()
	r := scenarioRoute()
	p := walker(1.0)
	for i := range 10 {
		if _, err := e.Tick(p, r, 100, i); err != nil {
			t.Fatal(err)
		}
	}
	if p.SegmentIndex != 1 || !near(p.Progress, 0) {
		t.Errorf("after 1000ms: seg=%d progress=%v, want seg=1 progress=0", p.SegmentIndex, p.Progress)
	}
	if p.Position.X != 100 || math.Abs(p.Position.Y) > 1e-6 {
		t.Errorf("position = %v, want (100,0)", p.Position)
	}
}

func TestVanguardScenario(t *testing.T) {
	e := Default()
	r := scenarioRoute()
	p := &primitives.Participant{ID: "vanguard", Type: primitives.Vanguard, SpeedFactor: 1.1}
	for i := range 10 {
		_, _ = e.Tick(p, r, 100, i)
	}
	if p.SegmentIndex != 1 || !near(p.Progress, 0.1) {
		t.Errorf("seg=%d progress=%v, want seg=1 progress=0.1", p.SegmentIndex, p.Progress)
	}
}

func TestCompletionAtLastPoint(t *testing.T) {
	e := Default()
	r := scenarioRoute()
	p := walker(1.0)
	justCount := 0
	for i := range 25 {
		st, err := e.Tick(p, r, 100, i)
		if err != nil {
			t.Fatal(err)
		}
		if st.JustCompleted {
			justCount++
			if i != 19 {
				t.Errorf("completed at tick %d, want 19", i)
			}
		}
	}
	if justCount != 1 {
		t.Errorf("JustCompleted reported %d times, want 1", justCount)
	}
	if !p.Completed || p.Position != geometry.Pt(100, 100) || p.Progress != 1 || p.SegmentIndex != 1 {
		t.Errorf("final participant = %+v", p)
	}
}

func TestMonotonicProgress(t *testing.T) {
	e := Default()
	r := primitives.NewRoute("r", "a", []geometry.Point{{}, {X: 10}, {X: 10, Y: 10}, {Y: 10}, {}}, time.Time{})
	for _, speed := range []float64{0.3, 0.75, 1, 1.1, 2.5, 7} {
		p := walker(speed)
		prev := 0.0
		for i := range 100 {
			if _, err := e.Tick(p, r, 100, i); err != nil {
				t.Fatal(err)
			}
			cur := float64(p.SegmentIndex) + p.Progress
			if cur < prev {
				t.Fatalf("speed %v tick %d: position went back from %v to %v", speed, i, prev, cur)
			}
			if !p.Completed && (p.Progress < 0 || p.Progress >= 1) {
				t.Fatalf("speed %v tick %d: progress %v outside [0,1)", speed, i, p.Progress)
			}
			prev = cur
		}
	}
}

func TestLargeDeltaSkipsSegments(t *testing.T) {
	e := Default()
	r := primitives.NewRoute("r", "a", []geometry.Point{{}, {X: 10}, {X: 20}, {X: 30}, {X: 40}}, time.Time{})
	p := walker(1)
	st, _ := e.Tick(p, r, 2500, 0)
	if st.SegmentIndex != 2 || !near(st.Progress, 0.5) {
		t.Errorf("step = %+v, want seg 2 progress 0.5", st)
	}
	if !near(st.Position.X, 25) {
		t.Errorf("position = %v, want x=25", st.Position)
	}
	st, _ = e.Tick(p, r, 60000, 1)
	if !st.JustCompleted || st.Position != geometry.Pt(40, 0) {
		t.Errorf("step = %+v, want completion at (40,0)", st)
	}
}

func TestTwoPointRoute(t *testing.T) {
	e := Default()
	r := primitives.NewRoute("r", "a", []geometry.Point{{}, {X: 0, Y: 50}}, time.Time{})
	p := walker(2)
	st, _ := e.Tick(p, r, 250, 0)
	if st.JustCompleted || !near(st.Position.Y, 25) {
		t.Errorf("step = %+v", st)
	}
	if !near(st.Heading, math.Pi/2) {
		t.Errorf("Heading = %v, want pi/2", st.Heading)
	}
	st, _ = e.Tick(p, r, 250, 1)
	if !st.JustCompleted {
		t.Errorf("step = %+v, want completion", st)
	}
}

func TestCompletedParticipantIsStable(t *testing.T) {
	e := Default()
	r := scenarioRoute()
	p := walker(1)
	p.SegmentIndex, p.Progress, p.Completed, p.Position = 1, 1, true, geometry.Pt(100, 100)
	st, err := e.Tick(p, r, 100, 3)
	if err != nil {
		t.Fatal(err)
	}
	if st.JustCompleted || p.Position != geometry.Pt(100, 100) || p.Progress != 1 {
		t.Errorf("completed participant moved: %+v", st)
	}
}

func TestSway(t *testing.T) {
	e := Default()
	if got := e.Sway(primitives.Float, 0); got != 0 {
		t.Errorf("Sway at step 0 = %v", got)
	}
	step := 15 // sin(1.5) close to its peak
	f := e.Sway(primitives.Float, step)
	w := e.Sway(primitives.Bearer, step)
	if !near(f, math.Sin(1.5)*0.05) || !near(w, math.Sin(1.5)*0.02) {
		t.Errorf("Sway float=%v walker=%v", f, w)
	}
	p := walker(1)
	st, _ := e.Tick(p, scenarioRoute(), 100, step)
	if !near(st.Sway, w) || !near(p.Position.Y, 0) {
		t.Errorf("sway leaked into position: %+v", st)
	}
}

func TestTickRejectsInvalidInput(t *testing.T) {
	e := Default()
	r := scenarioRoute()
	tests := []struct {
		name  string
		p     *primitives.Participant
		r     *primitives.Route
		delta float64
	}{
		{"nil participant", nil, r, 100},
		{"nil route", walker(1), nil, 100},
		{"one point", walker(1), primitives.NewRoute("r", "a", []geometry.Point{{}}, time.Time{}), 100},
		{"zero speed", walker(0), r, 100},
		{"nan speed", walker(math.NaN()), r, 100},
		{"negative delta", walker(1), r, -1},
		{"segment out of range", &primitives.Participant{ID: "x", SpeedFactor: 1, SegmentIndex: 5}, r, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Tick(tt.p, tt.r, tt.delta, 0); !errors.Is(err, primitives.ErrRuntime) {
				t.Errorf("Tick() = %v, want ErrRuntime", err)
			}
		})
	}
}
