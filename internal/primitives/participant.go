package primitives

import (
	"math"

	"github.com/comalice/procession/internal/geometry"
)

// ParticipantType classifies a moving entity of the formation.
type ParticipantType string

const (
	Vanguard ParticipantType = "vanguard" // guiding cross, leads the formation
	Bearer   ParticipantType = "bearer"
	Float    ParticipantType = "float"
)

// Valid reports whether t is a known participant type.
func (t ParticipantType) Valid() bool {
	switch t {
	case Vanguard, Bearer, Float:
		return true
	}
	return false
}

// Participant is one moving entity of a procession.
// Only the movement engine mutates SegmentIndex, Progress, Completed and Position.
type Participant struct {
	ID           string          `json:"id" yaml:"id"`
	Type         ParticipantType `json:"type" yaml:"type"`
	SpeedFactor  float64         `json:"speedFactor" yaml:"speedFactor"`
	SegmentIndex int             `json:"segmentIndex" yaml:"segmentIndex"`
	Progress     float64         `json:"progress" yaml:"progress"`
	Completed    bool            `json:"completed" yaml:"completed"`
	Position     geometry.Point  `json:"position" yaml:"position"`
	AssetKey     string          `json:"assetKey,omitempty" yaml:"assetKey,omitempty"`
	Depth        int             `json:"depth" yaml:"depth"` // formation order; also draw order
}

// RouteFraction returns min(1, (SegmentIndex+Progress)/segments).
func (p *Participant) RouteFraction(segments int) float64 {
	if segments <= 0 {
		return 0
	}
	return math.Min(1, (float64(p.SegmentIndex)+p.Progress)/float64(segments))
}

// Clone returns a copy of p.
func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
