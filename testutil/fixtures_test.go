package testutil

import (
	"errors"
	"testing"
	"time"

	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
)

func TestFakeClock(t *testing.T) {
	c := NewFakeClock(time.Time{})
	if !c.Now().Equal(Epoch) {
		t.Fatalf("Now() = %v, want %v", c.Now(), Epoch)
	}
	c.Advance(1500 * time.Millisecond)
	if got := c.Now().Sub(Epoch); got != 1500*time.Millisecond {
		t.Errorf("advanced %v, want 1.5s", got)
	}
}

func TestRoutes(t *testing.T) {
	sq := SquareRoute(geometry.Pt(10, 10), 50)
	if len(sq.Points) != 5 || !sq.ClosedAt(geometry.Pt(10, 10), 1) {
		t.Errorf("SquareRoute = %+v", sq.Points)
	}
	if sq.Length() != 200 {
		t.Errorf("SquareRoute length = %v, want 200", sq.Length())
	}
	if LineRoute().Segments() != 2 {
		t.Errorf("LineRoute segments = %d, want 2", LineRoute().Segments())
	}
}

func TestWorldRecordsEvents(t *testing.T) {
	w, clock, rec := World(t)
	if w.Year() != Epoch.Year() {
		t.Errorf("Year() = %d, want %d", w.Year(), Epoch.Year())
	}
	clock.Advance(time.Second)
	ev := w.Bus.Emit(primitives.Cancelled{ActorID: "a"})
	if !ev.At.Equal(Epoch.Add(time.Second)) {
		t.Errorf("event at %v", ev.At)
	}
	if rec.Count(primitives.EventCancelled) != 1 {
		t.Errorf("recorded %d cancelled events, want 1", rec.Count(primitives.EventCancelled))
	}
}

func TestAssets(t *testing.T) {
	a := NewAssets(false, "nazareno")
	if !a.AssetExists("nazareno") || a.AssetExists("cruz_guia") {
		t.Fatal("unexpected asset set")
	}
	if err := a.GenerateFallback("cruz_guia"); !errors.Is(err, ErrNoSurface) {
		t.Errorf("GenerateFallback error = %v", err)
	}
	b := NewAssets(true)
	if err := b.GenerateFallback("cruz_guia"); err != nil || !b.AssetExists("cruz_guia") {
		t.Errorf("GenerateFallback = %v", err)
	}
	if got := b.Generated(); len(got) != 1 || got[0] != "cruz_guia" {
		t.Errorf("Generated() = %v", got)
	}
}
