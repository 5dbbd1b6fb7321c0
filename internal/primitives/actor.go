package primitives

import "github.com/comalice/procession/internal/geometry"

// StageKind selects the visual style of an actor's primary float.
type StageKind string

const (
	StageMisterio StageKind = "misterio"
	StageGloria   StageKind = "gloria"
)

// Actor is the brotherhood that owns routes and processions.
type Actor struct {
	ID                string         `json:"id" yaml:"id"`
	Name              string         `json:"name" yaml:"name"`
	Popularity        int            `json:"popularity" yaml:"popularity"`
	Anchor            geometry.Point `json:"anchor" yaml:"anchor"` // the seat; routes start and end here
	HasSecondaryStage bool           `json:"hasSecondaryStage" yaml:"hasSecondaryStage"`
	Kind              StageKind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	HabitColor        string         `json:"habitColor,omitempty" yaml:"habitColor,omitempty"` // hex, e.g. "#7e1e9c"
	FoundingYear      int            `json:"foundingYear,omitempty" yaml:"foundingYear,omitempty"`

	// Grown by world.Context.Advance. ChronicleYear is the last year aged;
	// zero means the actor has not aged yet.
	Members       int `json:"members,omitempty" yaml:"members,omitempty"`
	ChronicleYear int `json:"chronicleYear,omitempty" yaml:"chronicleYear,omitempty"`
}

// Clone returns a copy of a. A nil actor clones to nil.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
