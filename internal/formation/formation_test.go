package formation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
)

var testTime = time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

func route() *primitives.Route {
	return primitives.NewRoute("r", "a", []geometry.Point{{X: 10, Y: 20}, {X: 100, Y: 0}, {X: 100, Y: 100}}, testTime)
}

func TestBearerCount(t *testing.T) {
	tests := []struct {
		popularity int
		want       int
	}{
		{-5, 0},
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{20, 10},
		{99, 50},
		{100, 50},
		{1000, 50},
	}
	for _, tt := range tests {
		if got := BearerCount(tt.popularity, 50); got != tt.want {
			t.Errorf("BearerCount(%d) = %d, want %d", tt.popularity, got, tt.want)
		}
	}
}

func TestParticipantCountFormula(t *testing.T) {
	c := Default()
	for _, pop := range []int{-3, 0, 1, 7, 20, 101, 400} {
		for _, secondary := range []bool{false, true} {
			a := &primitives.Actor{ID: "a", Popularity: pop, HasSecondaryStage: secondary}
			parts, err := c.Compose(a, route())
			if err != nil {
				t.Fatal(err)
			}
			want := 2 + BearerCount(pop, 50)
			if secondary {
				want++
			}
			if len(parts) != want || c.ParticipantCount(a) != want {
				t.Errorf("pop=%d secondary=%v: got %d participants, want %d", pop, secondary, len(parts), want)
			}
		}
	}
}

func TestComposeOrderAndSpeeds(t *testing.T) {
	a := &primitives.Actor{ID: "macarena", Popularity: 20}
	parts, err := Default().Compose(a, route())
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 12 {
		t.Fatalf("got %d participants, want 12", len(parts))
	}

	if parts[0].ID != VanguardID || parts[0].Type != primitives.Vanguard || math.Abs(parts[0].SpeedFactor-1.1) > 1e-12 {
		t.Errorf("vanguard = %+v", parts[0])
	}
	for i := 1; i <= 10; i++ {
		p := parts[i]
		want := 1 - float64(i-1)*0.005
		if p.Type != primitives.Bearer || math.Abs(p.SpeedFactor-want) > 1e-12 {
			t.Errorf("bearer %d = %+v, want speed %v", i, p, want)
		}
		if p.ID != BearerID(i-1) || p.AssetKey != AssetBearer {
			t.Errorf("bearer %d id/asset = %s/%s", i, p.ID, p.AssetKey)
		}
		if parts[i].SpeedFactor > parts[i-1].SpeedFactor && i > 1 {
			t.Errorf("bearer speeds increase at %d", i)
		}
	}
	last := parts[11]
	if last.ID != PrimaryFloatID || last.Type != primitives.Float || last.SpeedFactor != 0.8 || last.AssetKey != AssetMisterio {
		t.Errorf("float = %+v", last)
	}
	for i, p := range parts {
		if p.Position != geometry.Pt(10, 20) || p.SegmentIndex != 0 || p.Progress != 0 || p.Completed {
			t.Errorf("participant %s not at origin: %+v", p.ID, p)
		}
		if p.Depth != i {
			t.Errorf("participant %s depth = %d, want %d", p.ID, p.Depth, i)
		}
	}
}

func TestComposeSecondaryAndGloria(t *testing.T) {
	a := &primitives.Actor{ID: "rocio", Popularity: 0, HasSecondaryStage: true, Kind: primitives.StageGloria}
	parts, err := Default().Compose(a, route())
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 3 {
		t.Fatalf("got %d participants, want 3", len(parts))
	}
	if parts[1].AssetKey != AssetGloria || parts[2].ID != SecondaryFloatID || parts[2].SpeedFactor != 0.75 {
		t.Errorf("floats = %+v, %+v", parts[1], parts[2])
	}
	assets := Default().AssetsFor(a)
	if len(assets) != 2 || assets[0] != AssetVanguard || assets[1] != AssetGloria {
		t.Errorf("AssetsFor = %v", assets)
	}
}

func TestComposeValidation(t *testing.T) {
	c := Default()
	if _, err := c.Compose(nil, route()); !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("Compose(nil actor) = %v", err)
	}
	if _, err := c.Compose(&primitives.Actor{}, nil); !errors.Is(err, primitives.ErrValidation) {
		t.Errorf("Compose(nil route) = %v", err)
	}
}

func TestSlowestBearerStaysPositive(t *testing.T) {
	parts, _ := Default().Compose(&primitives.Actor{Popularity: 1000}, route())
	for _, p := range parts {
		if p.SpeedFactor <= 0 {
			t.Errorf("%s speed = %v", p.ID, p.SpeedFactor)
		}
	}
}
