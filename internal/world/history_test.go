package world_test

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/world"
	"github.com/comalice/procession/testutil"
)

func TestAdvanceRejectsBadYears(t *testing.T) {
	w, _, rec := testutil.World(t, world.WithYear(2000), world.WithRand(testutil.FixedRand(0)))
	tests := []struct {
		name string
		run  func() error
	}{
		{"zero years", func() error { _, err := w.Advance(0); return err }},
		{"negative years", func() error { _, err := w.Advance(-3); return err }},
		{"backwards", func() error { _, err := w.AdvanceTo(1999); return err }},
		{"before min", func() error { _, err := w.AdvanceTo(world.MinYear - 1); return err }},
		{"after max", func() error { _, err := w.AdvanceTo(world.MaxYear + 1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, primitives.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
	if w.Year() != 2000 || rec.Count(primitives.EventTimeAdvanced) != 0 {
		t.Errorf("year = %d events = %v after rejected advances", w.Year(), rec.Names())
	}
}

func TestAdvanceRecordsFoundingFirst(t *testing.T) {
	a := *testutil.Actor(20, false)
	a.FoundingYear = 1600
	w, _, rec := testutil.World(t, world.WithActor(a), world.WithYear(1599), world.WithRand(testutil.FixedRand(0)))

	ta, err := w.Advance(5)
	if err != nil {
		t.Fatalf("Advance() = %v", err)
	}
	if ta.FromYear != 1599 || ta.ToYear != 1604 || w.Year() != 1604 {
		t.Errorf("advanced %d->%d, year %d", ta.FromYear, ta.ToYear, w.Year())
	}
	if len(ta.Events) != 1 || ta.Events[0].Kind != "founding" || ta.Events[0].Year != 1600 {
		t.Fatalf("events = %+v, want only the founding", ta.Events)
	}
	if ta.Popularity != 20 || ta.Members != world.DefaultMembers {
		t.Errorf("popularity = %d members = %d, want unchanged 20 and %d", ta.Popularity, ta.Members, world.DefaultMembers)
	}

	// Two bad years after the founding.
	ta, _ = w.Advance(2)
	if ta.Popularity != 12 || len(ta.Events) != 0 {
		t.Errorf("popularity = %d events = %+v, want 12 and none", ta.Popularity, ta.Events)
	}
	if got := w.Actor(); got.Popularity != 12 || got.ChronicleYear != 1606 {
		t.Errorf("actor = %+v", got)
	}

	ev, ok := rec.Last(primitives.EventTimeAdvanced)
	if !ok {
		t.Fatal("no TIME_ADVANCED published")
	}
	if p := ev.Payload.(primitives.TimeAdvanced); p.ActorID != "macarena" || p.ToYear != 1606 {
		t.Errorf("payload = %+v", p)
	}
	if rec.Count(primitives.EventTimeAdvanced) != 2 {
		t.Errorf("TIME_ADVANCED count = %d, want 2", rec.Count(primitives.EventTimeAdvanced))
	}
}

func TestAdvanceGoodYear(t *testing.T) {
	a := *testutil.Actor(20, false)
	a.Members = 200
	w, _, _ := testutil.World(t, world.WithActor(a), world.WithYear(2026), world.WithRand(testutil.FixedRand(0.99)))

	ta, err := w.Advance(1)
	if err != nil {
		t.Fatal(err)
	}
	if ta.Members != 229 || ta.Popularity != 25 {
		t.Errorf("members = %d popularity = %d, want 229 and 25", ta.Members, ta.Popularity)
	}
	want := []primitives.HistoricalEvent{
		{Year: 2027, Kind: "growth", ActorID: "macarena"},
		{Year: 2027, Kind: "seat change", ActorID: "macarena"},
		{Year: 2026, Kind: "religious reform", Impact: 5},
	}
	if len(ta.Events) != len(want) {
		t.Fatalf("events = %+v", ta.Events)
	}
	for i, ev := range ta.Events {
		if ev.Year != want[i].Year || ev.Kind != want[i].Kind || ev.ActorID != want[i].ActorID || ev.Impact != want[i].Impact {
			t.Errorf("event %d = %+v, want %+v", i, ev, want[i])
		}
		if ev.Description == "" {
			t.Errorf("event %d has no description", i)
		}
	}

	hist := w.History()
	if len(hist) != 3 || hist[0].Kind != "religious reform" {
		t.Errorf("History() = %+v, want the 2026 event first", hist)
	}
}

func TestAdvanceClampsPopularity(t *testing.T) {
	tests := []struct {
		name  string
		start int
		rand  float64
		years int
		want  int
	}{
		{"ceiling", 98, 0.99, 3, 100},
		{"floor", 5, 0, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, _ := testutil.World(t,
				world.WithActor(*testutil.Actor(tt.start, false)),
				world.WithYear(2000),
				world.WithRand(testutil.FixedRand(tt.rand)))
			ta, err := w.Advance(tt.years)
			if err != nil {
				t.Fatal(err)
			}
			if ta.Popularity != tt.want {
				t.Errorf("popularity = %d, want %d", ta.Popularity, tt.want)
			}
		})
	}
}

func TestAdvanceStopsAtMaxYear(t *testing.T) {
	w, _, rec := testutil.World(t, world.WithYear(world.MaxYear-1), world.WithRand(testutil.FixedRand(0)))
	ta, err := w.Advance(10)
	if err != nil || ta.ToYear != world.MaxYear {
		t.Fatalf("Advance(10) = %+v, %v", ta, err)
	}
	if ta.ActorID != "" {
		t.Errorf("ActorID = %q with no actor selected", ta.ActorID)
	}
	ta, err = w.Advance(1)
	if err != nil || ta.FromYear != ta.ToYear {
		t.Errorf("Advance at MaxYear = %+v, %v", ta, err)
	}
	if rec.Count(primitives.EventTimeAdvanced) != 1 {
		t.Errorf("TIME_ADVANCED count = %d, want 1", rec.Count(primitives.EventTimeAdvanced))
	}
}

func TestAdvanceIsDeterministicForASeed(t *testing.T) {
	run := func() ([]primitives.HistoricalEvent, *primitives.Actor) {
		a := *testutil.Actor(20, false)
		w, _, _ := testutil.World(t, world.WithActor(a), world.WithYear(1700),
			world.WithRand(rand.New(rand.NewPCG(7, 11))))
		for range 10 {
			if _, err := w.Advance(25); err != nil {
				t.Fatal(err)
			}
		}
		return w.History(), w.Actor()
	}
	h1, a1 := run()
	h2, a2 := run()
	if !reflect.DeepEqual(h1, h2) || *a1 != *a2 {
		t.Error("same seed produced different chronicles")
	}
	if a1.Popularity < 1 || a1.Popularity > 100 || a1.Members < world.DefaultMembers {
		t.Errorf("actor out of range after 250 years: %+v", a1)
	}
}
