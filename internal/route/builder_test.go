package route

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/comalice/procession/internal/bus"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/world"
)

var created = time.Date(2026, 3, 29, 17, 0, 0, 0, time.UTC)

func newBuilder(t *testing.T) (*Builder, *bus.Recorder) {
	t.Helper()
	w := world.New(world.WithClock(primitives.ClockFunc(func() time.Time { return created })))
	rec := bus.Record(w.Bus)
	b := NewBuilder(w, WithIDGenerator(func() string { return "fixed" }))
	return b, rec
}

func anchorAt(x, y float64) *geometry.Point {
	p := geometry.Pt(x, y)
	return &p
}

func TestStartSession(t *testing.T) {
	b, rec := newBuilder(t)
	if err := b.StartSession("macarena", anchorAt(0, 0)); err != nil {
		t.Fatalf("StartSession() = %v", err)
	}
	if b.Phase() != PhaseEmpty {
		t.Errorf("Phase() = %s, want empty", b.Phase())
	}
	if rec.Count(primitives.EventRouteCreationStarted) != 1 {
		t.Error("ROUTE_CREATION_STARTED not emitted")
	}

	err := b.StartSession("triana", anchorAt(5, 5))
	if !errors.Is(err, primitives.ErrState) {
		t.Errorf("second StartSession() = %v, want ErrState", err)
	}
	if rec.Count(primitives.EventError) != 1 {
		t.Errorf("ERROR events = %d, want 1", rec.Count(primitives.EventError))
	}
}

func TestStartSessionWithoutAnchor(t *testing.T) {
	b, _ := newBuilder(t)
	if err := b.StartSession("x", nil); !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("StartSession(nil anchor) = %v, want ErrValidation", err)
	}
	if b.Active() {
		t.Error("session opened without anchor")
	}
	if err := b.StartForActor(nil); !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("StartForActor(nil) without current actor = %v, want ErrValidation", err)
	}
}

func TestStartForActorUsesContextActor(t *testing.T) {
	w := world.New(world.WithActor(primitives.Actor{ID: "gran-poder", Anchor: geometry.Pt(7, 9)}))
	b := NewBuilder(w)
	if err := b.StartForActor(nil); err != nil {
		t.Fatal(err)
	}
	if a, ok := b.Anchor(); !ok || a != geometry.Pt(7, 9) {
		t.Errorf("Anchor() = %v, %v", a, ok)
	}
}

func TestAddPointSeedsWithAnchor(t *testing.T) {
	b, rec := newBuilder(t)
	_ = b.StartSession("macarena", anchorAt(0, 0))

	res, err := b.AddPoint(geometry.Pt(200, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Added || res.Index != 1 {
		t.Errorf("AddPoint = %+v", res)
	}
	pts := b.Points()
	if len(pts) != 2 || pts[0] != geometry.Pt(0, 0) || pts[1] != geometry.Pt(200, 0) {
		t.Errorf("Points() = %v", pts)
	}
	if b.Phase() != PhaseSeeded {
		t.Errorf("Phase() = %s, want seeded", b.Phase())
	}
	added := rec.Filter(primitives.EventRoutePointAdded)
	if len(added) != 2 {
		t.Fatalf("ROUTE_POINT_ADDED count = %d, want 2", len(added))
	}
	first := added[0].Payload.(primitives.RoutePointAdded)
	if first.PointIndex != 0 || first.Point != geometry.Pt(0, 0) || first.TotalPoints != 2 {
		t.Errorf("first ROUTE_POINT_ADDED = %+v", first)
	}
}

func TestAddPointNearAnchorSuggestsFinish(t *testing.T) {
	b, rec := newBuilder(t)
	_ = b.StartSession("macarena", anchorAt(0, 0))
	_, _ = b.AddPoint(geometry.Pt(200, 0))
	_, _ = b.AddPoint(geometry.Pt(200, 200))

	res, err := b.AddPoint(geometry.Pt(30, 30))
	if err != nil {
		t.Fatal(err)
	}
	if res.Added || !res.SuggestFinish {
		t.Errorf("AddPoint near seat = %+v", res)
	}
	if len(b.Points()) != 3 {
		t.Errorf("near-seat point was appended: %v", b.Points())
	}
	ev, ok := rec.Last(primitives.EventRouteFinishSuggested)
	if !ok || ev.Payload.(primitives.RouteFinishSuggested).PointCount != 3 {
		t.Errorf("ROUTE_FINISH_SUGGESTED = %+v, %v", ev, ok)
	}
}

func TestAddPointWithoutSession(t *testing.T) {
	b, _ := newBuilder(t)
	res, err := b.AddPoint(geometry.Pt(1, 1))
	if !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("AddPoint() = %v, want ErrValidation", err)
	}
	if res.Added || res.Index != -1 {
		t.Errorf("AddPoint result = %+v", res)
	}
}

func TestRemoveLastPoint(t *testing.T) {
	b, rec := newBuilder(t)
	if _, ok := b.RemoveLastPoint(); ok {
		t.Error("RemoveLastPoint without session = true")
	}
	_ = b.StartSession("macarena", anchorAt(0, 0))
	if _, ok := b.RemoveLastPoint(); ok {
		t.Error("RemoveLastPoint on empty buffer = true")
	}
	_, _ = b.AddPoint(geometry.Pt(200, 0))
	_, _ = b.AddPoint(geometry.Pt(200, 200))

	p, ok := b.RemoveLastPoint()
	if !ok || p != geometry.Pt(200, 200) {
		t.Errorf("RemoveLastPoint() = %v, %v", p, ok)
	}
	ev, _ := rec.Last(primitives.EventRoutePointRemoved)
	if got := ev.Payload.(primitives.RoutePointRemoved); got.RemainingPoints != 2 {
		t.Errorf("RemainingPoints = %d, want 2", got.RemainingPoints)
	}
	_, _ = b.RemoveLastPoint()
	_, _ = b.RemoveLastPoint()
	if b.Phase() != PhaseEmpty {
		t.Errorf("Phase() after clearing = %s, want empty", b.Phase())
	}
}

func TestFinishBoundary(t *testing.T) {
	b, rec := newBuilder(t)
	_ = b.StartSession("macarena", anchorAt(0, 0))
	_, _ = b.AddPoint(geometry.Pt(200, 0))

	r, err := b.Finish()
	if !errors.Is(err, primitives.ErrValidation) || r != nil {
		t.Fatalf("Finish() with 2 points = %v, %v; want ErrValidation", r, err)
	}
	if !b.Active() {
		t.Error("session closed after failed Finish")
	}
	ev, ok := rec.Last(primitives.EventRouteCreationError)
	if !ok || !strings.Contains(ev.Payload.(primitives.RouteCreationError).Reason, "at least 3") {
		t.Errorf("ROUTE_CREATION_ERROR = %+v, %v", ev, ok)
	}

	_, _ = b.AddPoint(geometry.Pt(200, 200))
	r, err = b.Finish()
	if err != nil {
		t.Fatalf("Finish() with 3 points = %v", err)
	}
	if len(r.Points) < 3 {
		t.Errorf("route has %d points", len(r.Points))
	}
	if b.Active() {
		t.Error("session still active after Finish")
	}
}

func TestFinishClosesAtAnchor(t *testing.T) {
	b, rec := newBuilder(t)
	_ = b.StartSession("macarena", anchorAt(0, 0))
	for _, p := range []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}} {
		if _, err := b.AddPoint(p); err != nil {
			t.Fatal(err)
		}
	}

	r, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := []geometry.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 0}}
	if len(r.Points) != len(want) {
		t.Fatalf("Points = %v, want %v", r.Points, want)
	}
	for i := range want {
		if r.Points[i] != want[i] {
			t.Errorf("Points[%d] = %v, want %v", i, r.Points[i], want[i])
		}
	}
	if r.ID != "route_fixed" || r.OwnerID != "macarena" || !r.CreatedAt.Equal(created) {
		t.Errorf("route = %+v", r)
	}
	if !r.ClosedAt(geometry.Pt(0, 0), DefaultProximityThreshold) {
		t.Error("route not closed at seat")
	}
	ev, ok := rec.Last(primitives.EventRouteCreated)
	if !ok || ev.Payload.(primitives.RouteCreated).Route != r {
		t.Error("ROUTE_CREATED does not carry the route")
	}
}

func TestFinishPrependsAnchorWhenFirstPointFar(t *testing.T) {
	b, _ := newBuilder(t)
	_ = b.StartSession("macarena", anchorAt(0, 0))
	_, _ = b.AddPoint(geometry.Pt(300, 0))
	_, _ = b.AddPoint(geometry.Pt(300, 300))
	// Drop the seeded anchor so the buffer starts away from the seat.
	b.mu.Lock()
	b.points = append([]geometry.Point{geometry.Pt(400, 400)}, b.points[1:]...)
	b.mu.Unlock()
	_, _ = b.AddPoint(geometry.Pt(0, 300))

	r, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if r.First() != geometry.Pt(0, 0) || r.Last() != geometry.Pt(0, 0) {
		t.Errorf("route ends = %v, %v; want seat at both", r.First(), r.Last())
	}
}

func TestFinishWithoutSession(t *testing.T) {
	b, _ := newBuilder(t)
	if _, err := b.Finish(); !errors.Is(err, primitives.ErrState) {
		t.Errorf("Finish() = %v, want ErrState", err)
	}
}

func TestCancel(t *testing.T) {
	b, rec := newBuilder(t)
	b.Cancel()
	if rec.Count(primitives.EventRouteCreationCancelled) != 0 {
		t.Error("Cancel without session emitted an event")
	}
	_ = b.StartSession("macarena", anchorAt(0, 0))
	_, _ = b.AddPoint(geometry.Pt(200, 0))
	b.Cancel()
	if b.Active() || len(b.Points()) != 0 {
		t.Error("Cancel kept the session")
	}
	if rec.Count(primitives.EventRouteCreationCancelled) != 1 {
		t.Error("ROUTE_CREATION_CANCELLED not emitted")
	}
	if err := b.StartSession("macarena", anchorAt(0, 0)); err != nil {
		t.Errorf("StartSession after Cancel = %v", err)
	}
}

func TestWithMinPoints(t *testing.T) {
	w := world.New()
	b := NewBuilder(w, WithMinPoints(4), WithProximityThreshold(10))
	_ = b.StartSession("a", anchorAt(0, 0))
	_, _ = b.AddPoint(geometry.Pt(100, 0))
	_, _ = b.AddPoint(geometry.Pt(100, 100))
	if _, err := b.Finish(); !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("Finish() with 3 of 4 points = %v", err)
	}
	if b.Phase() != PhaseSeeded {
		t.Errorf("Phase() = %s, want seeded", b.Phase())
	}
	if b.ProximityThreshold() != 10 {
		t.Errorf("ProximityThreshold() = %v", b.ProximityThreshold())
	}
}
