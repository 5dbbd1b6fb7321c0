package core

import (
	"context"
	"time"

	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/movement"
	"github.com/comalice/procession/internal/primitives"
)

// Pluggable collaborators. Nil collaborators are replaced by defaults in
// NewController (formation.Default, movement.Default) or skipped (assets,
// renderer).

// Composer builds the ordered participants of a procession.
type Composer interface {
	Compose(a *primitives.Actor, r *primitives.Route) ([]*primitives.Participant, error)
	AssetsFor(a *primitives.Actor) []string
}

// Mover advances one participant by one tick.
type Mover interface {
	Tick(p *primitives.Participant, r *primitives.Route, deltaMs float64, globalStep int) (movement.Step, error)
}

// AssetProvider answers whether a visual asset can be drawn and can create a
// placeholder for a missing one.
type AssetProvider interface {
	AssetExists(key string) bool
	GenerateFallback(key string) error
}

// Renderer draws participants. Render is called once per Active tick with every
// participant in depth order; FadeOut once when the procession completes.
// An empty Render clears the scene.
type Renderer interface {
	Render(frames []Frame)
	FadeOut(plan []Fade)
}

// Frame is the drawable state of one participant after a tick.
type Frame struct {
	ParticipantID string                     `json:"participantId"`
	Type          primitives.ParticipantType `json:"type"`
	Position      geometry.Point             `json:"position"`
	Orientation   float64                    `json:"orientation"`
	Sway          float64                    `json:"sway"`
	AssetKey      string                     `json:"assetKey"`
	Depth         int                        `json:"depth"`
	Completed     bool                       `json:"completed"`
}

// Fade schedules the disappearance of one participant.
type Fade struct {
	ParticipantID string        `json:"participantId"`
	Delay         time.Duration `json:"delay"`
	Duration      time.Duration `json:"duration"`
}

// GameSnapshot is the persisted state of a session: the selected actor, the
// simulated year, authored routes and the procession, if any.
type GameSnapshot struct {
	ID         string                 `json:"id" yaml:"id"`
	Actor      *primitives.Actor      `json:"actor,omitempty" yaml:"actor,omitempty"`
	Year       int                    `json:"year" yaml:"year"`
	Routes     []*primitives.Route    `json:"routes,omitempty" yaml:"routes,omitempty"`
	Procession *primitives.Procession `json:"procession,omitempty" yaml:"procession,omitempty"`
	SavedAt    time.Time              `json:"savedAt" yaml:"savedAt"`
}

// Store persists game snapshots under an id (a save slot).
type Store interface {
	Save(ctx context.Context, snap GameSnapshot) error
	Load(ctx context.Context, id string) (GameSnapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}
