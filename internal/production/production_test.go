package production

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/comalice/procession/internal/bus"
	"github.com/comalice/procession/internal/core"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
)

var savedAt = time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)

func sampleRoute() *primitives.Route {
	return primitives.NewRoute("route_1", "macarena", []geometry.Point{
		geometry.Pt(100, 100), geometry.Pt(200, 100), geometry.Pt(200, 200), geometry.Pt(100, 100),
	}, savedAt)
}

func sampleActor() *primitives.Actor {
	return &primitives.Actor{
		ID:                "macarena",
		Name:              "Hermandad de la Macarena",
		Popularity:        60,
		Anchor:            geometry.Pt(100, 100),
		HasSecondaryStage: true,
		Kind:              primitives.StageMisterio,
		HabitColor:        "#7E1E9C",
		FoundingYear:      1595,
	}
}

func sampleProcession() *primitives.Procession {
	return &primitives.Procession{
		Actor: sampleActor(),
		Route: sampleRoute(),
		Participants: []*primitives.Participant{
			{ID: "vanguard", Type: primitives.Vanguard, SpeedFactor: 1.1, SegmentIndex: 2, Progress: 1, Completed: true, Position: geometry.Pt(100, 100), AssetKey: "cruz_guia"},
			{ID: "bearer-01", Type: primitives.Bearer, SpeedFactor: 0.995, SegmentIndex: 1, Progress: 0.25, Position: geometry.Pt(200, 125), AssetKey: "nazareno", Depth: 1},
		},
		State:          primitives.StatePaused,
		ElapsedMs:      1800,
		StepCount:      18,
		CompletedCount: 1,
	}
}

func TestRouteRoundTrip(t *testing.T) {
	r := sampleRoute()
	data, err := SerializeRoute(r)
	if err != nil {
		t.Fatalf("SerializeRoute: %v", err)
	}
	got, err := RestoreRoute(data)
	if err != nil {
		t.Fatalf("RestoreRoute: %v", err)
	}
	if !got.Equal(r) {
		t.Errorf("RestoreRoute() = %+v, want %+v", got, r)
	}
	if !got.CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, r.CreatedAt)
	}
}

func TestRestoreRouteRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"id":`},
		{"no id", `{"points":[{"x":0,"y":0},{"x":1,"y":0},{"x":0,"y":0}]}`},
		{"too few points", `{"id":"r","points":[{"x":0,"y":0},{"x":1,"y":0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RestoreRoute([]byte(tt.data))
			if !errors.Is(err, primitives.ErrValidation) {
				t.Errorf("RestoreRoute() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestProcessionRoundTrip(t *testing.T) {
	p := sampleProcession()
	data, err := SerializeProcession(p)
	if err != nil {
		t.Fatalf("SerializeProcession: %v", err)
	}
	got, err := RestoreProcession(data)
	if err != nil {
		t.Fatalf("RestoreProcession: %v", err)
	}
	if got.State != p.State || got.ElapsedMs != p.ElapsedMs || got.StepCount != p.StepCount || got.CompletedCount != p.CompletedCount {
		t.Errorf("counters = %+v, want %+v", got, p)
	}
	if *got.Actor != *p.Actor {
		t.Errorf("actor = %+v, want %+v", got.Actor, p.Actor)
	}
	if len(got.Participants) != len(p.Participants) {
		t.Fatalf("participants = %d, want %d", len(got.Participants), len(p.Participants))
	}
	for i := range p.Participants {
		if *got.Participants[i] != *p.Participants[i] {
			t.Errorf("participant %d = %+v, want %+v", i, got.Participants[i], p.Participants[i])
		}
	}
}

func TestRestoreProcessionRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProcessionRecord)
	}{
		{"state", func(r *ProcessionRecord) { r.State = "marching" }},
		{"type", func(r *ProcessionRecord) { r.Participants[0].Type = "band" }},
		{"segment", func(r *ProcessionRecord) { r.Participants[1].SegmentIndex = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewProcessionRecord(sampleProcession())
			tt.mutate(&rec)
			if _, err := rec.Procession(); !errors.Is(err, primitives.ErrValidation) {
				t.Errorf("Procession() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSerializeNil(t *testing.T) {
	if _, err := SerializeRoute(nil); !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("SerializeRoute(nil) error = %v", err)
	}
	if _, err := SerializeProcession(&primitives.Procession{}); !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("SerializeProcession(empty) error = %v", err)
	}
}

func TestPersisters(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		new  func(dir string) (core.Store, error)
		ext  string
	}{
		{"json", func(dir string) (core.Store, error) { return NewJSONPersister(dir) }, ".json"},
		{"yaml", func(dir string) (core.Store, error) { return NewYAMLPersister(dir) }, ".yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s, err := tt.new(dir)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			snap := core.GameSnapshot{
				ID:         "slot1",
				Actor:      sampleActor(),
				Year:       2026,
				Routes:     []*primitives.Route{sampleRoute()},
				Procession: sampleProcession(),
				SavedAt:    savedAt,
			}
			if err := s.Save(ctx, snap); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if _, err := os.Stat(filepath.Join(dir, "slot1"+tt.ext)); err != nil {
				t.Errorf("save file missing: %v", err)
			}

			got, err := s.Load(ctx, "slot1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.ID != "slot1" || got.Year != 2026 || !got.SavedAt.Equal(savedAt) {
				t.Errorf("Load() = %+v", got)
			}
			if len(got.Routes) != 1 || !got.Routes[0].Equal(snap.Routes[0]) {
				t.Errorf("routes = %+v", got.Routes)
			}
			if got.Procession == nil || got.Procession.Progress() != snap.Procession.Progress() {
				t.Errorf("procession = %+v", got.Procession)
			}

			ids, err := s.List(ctx)
			if err != nil || len(ids) != 1 || ids[0] != "slot1" {
				t.Errorf("List() = %v, %v", ids, err)
			}

			if err := s.Delete(ctx, "slot1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Load(ctx, "slot1"); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("Load after delete error = %v, want ErrNotExist", err)
			}
			if err := s.Delete(ctx, "slot1"); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("second Delete error = %v, want ErrNotExist", err)
			}
		})
	}
}

func TestPersisterRejectsBadID(t *testing.T) {
	s, err := NewJSONPersister(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"", "..", "a/b"} {
		if err := s.Save(context.Background(), core.GameSnapshot{ID: id}); !errors.Is(err, primitives.ErrValidation) {
			t.Errorf("Save(%q) error = %v, want ErrValidation", id, err)
		}
	}
}

func TestPersisterCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONPersister(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background(), "bad"); !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("Load(bad) error = %v, want ErrValidation", err)
	}
}

func TestPersisterLockTimeout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONPersister(dir, WithLockTimeout(150*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	held := flock.New(filepath.Join(dir, lockFileName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	err = s.Save(context.Background(), core.GameSnapshot{ID: "slot"})
	if err == nil || !strings.Contains(err.Error(), "lock") {
		t.Errorf("Save with held lock error = %v, want lock error", err)
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	if s, err := NewStore("yaml", dir); err != nil {
		t.Errorf("NewStore(yaml) error = %v", err)
	} else if _, ok := s.(*YAMLPersister); !ok {
		t.Errorf("NewStore(yaml) = %T", s)
	}
	if _, err := NewStore("xml", dir); !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("NewStore(xml) error = %v", err)
	}
}

func TestChannelPublisher(t *testing.T) {
	b := bus.New()
	p := NewChannelPublisher("test", 1).Attach(b)

	b.Emit(primitives.Cancelled{ElapsedMs: 10, ActorID: "a"})
	b.Emit(primitives.Cancelled{ElapsedMs: 20, ActorID: "a"})

	got := <-p.Events()
	if got.Source != "test" || got.Event.Name != primitives.EventCancelled {
		t.Errorf("event = %+v", got)
	}
	if p.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", p.Dropped())
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 {
		t.Errorf("bus still has %d handlers after Close", b.Len())
	}
	if _, ok := <-p.Events(); ok {
		t.Error("channel still open after Close")
	}
	if err := p.Publish(context.Background(), primitives.Event{}); err != nil {
		t.Errorf("Publish after Close error = %v", err)
	}
}

func TestExportDOT(t *testing.T) {
	v := &DefaultVisualizer{}
	dot := v.ExportDOT(primitives.ProcessionLifecycle(), primitives.StatePaused)
	for _, want := range []string{
		`digraph Lifecycle {`,
		`"__start" -> "idle";`,
		`"paused" [label="paused" style=filled fillcolor=lightgreen];`,
		`"completed" [label="completed" shape=doublecircle];`,
		`"active" -> "paused" [label="pause"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ExportDOT missing %q in:\n%s", want, dot)
		}
	}
}

func TestExportJSON(t *testing.T) {
	data, err := (&DefaultVisualizer{}).ExportJSON(primitives.ProcessionLifecycle())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"initial": "idle"`) {
		t.Errorf("ExportJSON = %s", data)
	}
}

func TestRouteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "route.yaml")
	r := sampleRoute()
	if err := WriteRouteFile(path, r); err != nil {
		t.Fatalf("WriteRouteFile: %v", err)
	}
	got, err := ReadRouteFile(path)
	if err != nil {
		t.Fatalf("ReadRouteFile: %v", err)
	}
	if !got.Equal(r) {
		t.Errorf("ReadRouteFile() = %+v, want %+v", got, r)
	}
	if _, err := ReadRouteFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}
