package scene

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/comalice/procession/internal/core"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/testutil"
)

func TestRenderKeepsLatestFrames(t *testing.T) {
	s := New(testutil.NewFakeClock(testutil.Epoch))
	s.Render([]core.Frame{{ParticipantID: "a"}, {ParticipantID: "b"}})
	s.Render([]core.Frame{{ParticipantID: "c"}})

	got := s.Frames()
	if len(got) != 1 || got[0].ParticipantID != "c" {
		t.Fatalf("Frames() = %+v, want only c", got)
	}
	got[0].ParticipantID = "mutated"
	if s.Frames()[0].ParticipantID != "c" {
		t.Error("Frames() returned internal storage")
	}
}

func TestFadeAlpha(t *testing.T) {
	clock := testutil.NewFakeClock(testutil.Epoch)
	s := New(clock)
	start := clock.Now()
	s.FadeOut([]core.Fade{
		{ParticipantID: "a", Delay: 0, Duration: time.Second},
		{ParticipantID: "b", Delay: time.Second, Duration: time.Second},
		{ParticipantID: "c", Delay: 0, Duration: 0},
	})

	tests := []struct {
		id   string
		at   time.Duration
		want float64
	}{
		{"a", 0, 1},
		{"a", 500 * time.Millisecond, 0.5},
		{"a", 2 * time.Second, 0},
		{"b", 500 * time.Millisecond, 1},
		{"b", 1500 * time.Millisecond, 0.5},
		{"c", 0, 0},
		{"unknown", time.Hour, 1},
	}
	for _, tt := range tests {
		got := s.Alpha(tt.id, start.Add(tt.at))
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Alpha(%s, +%v) = %v, want %v", tt.id, tt.at, got, tt.want)
		}
	}

	if s.Faded(start.Add(1500 * time.Millisecond)) {
		t.Error("Faded() before the last fade ends")
	}
	if !s.Faded(start.Add(2 * time.Second)) {
		t.Error("Faded() = false after every fade ended")
	}
}

func TestNewProcessionClearsFades(t *testing.T) {
	clock := testutil.NewFakeClock(testutil.Epoch)
	s := New(clock)
	s.FadeOut([]core.Fade{{ParticipantID: "a", Duration: time.Millisecond}})

	s.Render([]core.Frame{{ParticipantID: "a", Completed: true}})
	if s.Alpha("a", clock.Now().Add(time.Second)) != 0 {
		t.Fatal("completed frames dropped the fade")
	}

	s.Render([]core.Frame{{ParticipantID: "a"}})
	if s.Alpha("a", clock.Now().Add(time.Second)) != 1 {
		t.Error("fresh frames kept the old fade")
	}
	if s.Faded(clock.Now().Add(time.Second)) {
		t.Error("Faded() with no fades scheduled")
	}
}

func TestStatusIsBounded(t *testing.T) {
	s := New(nil)
	for i := 0; i < maxStatus+3; i++ {
		s.Notify(strings.Repeat("x", i+1))
	}
	got := s.Status()
	if len(got) != maxStatus {
		t.Fatalf("len(Status()) = %d, want %d", len(got), maxStatus)
	}
	if got[0] != strings.Repeat("x", 4) {
		t.Errorf("oldest line = %q", got[0])
	}

	s.Observe(primitives.NewEvent(primitives.Progress{Progress: 0.5}, 1, testutil.Epoch))
	if len(s.Status()) != maxStatus || s.Status()[maxStatus-1] != strings.Repeat("x", maxStatus+3) {
		t.Error("progress events reached the status lines")
	}
}

func TestDescribe(t *testing.T) {
	route := &primitives.Route{ID: "route_1", Points: []geometry.Point{{}, {X: 1}, {}}}
	tests := []struct {
		payload primitives.Payload
		want    string
	}{
		{primitives.RouteCreated{Route: route}, "route route_1 created (3 points)"},
		{primitives.RouteFinishSuggested{}, "Enter"},
		{primitives.Started{ActorID: "macarena", ParticipantCount: 25}, "macarena leaves with 25"},
		{primitives.PauseChanged{IsPaused: true}, "paused"},
		{primitives.Completed{ActorID: "macarena", ElapsedMs: 61_400}, "home after 1m1s"},
		{primitives.Cancelled{ActorID: "macarena"}, "called off"},
		{primitives.ErrorPayload("route", primitives.ErrValidation), "route error"},
		{primitives.TimeAdvanced{ToYear: 2031, ActorID: "rocio", Popularity: 9}, "year 2031, rocio popularity 9"},
		{primitives.TimeAdvanced{ToYear: 2031, Events: []primitives.HistoricalEvent{{Description: "the city lives through war"}}}, "2031; the city lives through war"},
		{primitives.Progress{}, ""},
	}
	for _, tt := range tests {
		got := Describe(primitives.NewEvent(tt.payload, 1, testutil.Epoch))
		if tt.want == "" {
			if got != "" {
				t.Errorf("Describe(%T) = %q, want empty", tt.payload, got)
			}
			continue
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("Describe(%T) = %q, want it to contain %q", tt.payload, got, tt.want)
		}
	}
}

func TestPointsText(t *testing.T) {
	pts := []geometry.Point{geometry.Pt(100, 100), geometry.Pt(250.5, 80), geometry.Pt(-3, 0)}
	text := FormatPoints(pts)
	if text != "100,100 250.5,80 -3,0" {
		t.Fatalf("FormatPoints() = %q", text)
	}
	got, err := ParsePoints(text)
	if err != nil {
		t.Fatalf("ParsePoints() = %v", err)
	}
	for i := range pts {
		if got[i] != pts[i] {
			t.Errorf("point %d = %v, want %v", i, got[i], pts[i])
		}
	}

	if got, err := ParsePoints("1,2;3,4\n5,6"); err != nil || len(got) != 3 {
		t.Errorf("ParsePoints(mixed separators) = %v, %v", got, err)
	}
	for _, bad := range []string{"", "  ", "1;2", "a,1", "1,b"} {
		if _, err := ParsePoints(bad); !errors.Is(err, primitives.ErrValidation) {
			t.Errorf("ParsePoints(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestRouteText(t *testing.T) {
	anchor := geometry.Pt(100, 100)
	closed := testutil.SquareRoute(anchor, 50)
	want := FormatPoints(closed.Points[1 : len(closed.Points)-1])
	if got := RouteText(closed); got != want {
		t.Errorf("RouteText(closed) = %q, want %q", got, want)
	}
	if got := RouteText(nil); got != "" {
		t.Errorf("RouteText(nil) = %q", got)
	}
	open := &primitives.Route{Points: []geometry.Point{anchor, geometry.Pt(1, 2), geometry.Pt(3, 4)}}
	if got := RouteText(open); got != "1,2 3,4" {
		t.Errorf("RouteText(open) = %q", got)
	}
}
