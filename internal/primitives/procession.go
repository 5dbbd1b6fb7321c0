package primitives

// LifecycleState is the state of a procession controller.
type LifecycleState string

const (
	StateIdle      LifecycleState = "idle"
	StateActive    LifecycleState = "active"
	StatePaused    LifecycleState = "paused"
	StateCompleted LifecycleState = "completed"
	StateCancelled LifecycleState = "cancelled"
)

// Running reports whether a procession is live (Active or Paused).
func (s LifecycleState) Running() bool {
	return s == StateActive || s == StatePaused
}

// Terminal reports whether s ends a procession.
func (s LifecycleState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Valid reports whether s is a known lifecycle state.
func (s LifecycleState) Valid() bool {
	switch s {
	case StateIdle, StateActive, StatePaused, StateCompleted, StateCancelled:
		return true
	}
	return false
}

// Procession is the live record of one actor walking one route.
type Procession struct {
	Actor          *Actor         `json:"actor" yaml:"actor"`
	Route          *Route         `json:"route" yaml:"route"`
	Participants   []*Participant `json:"participants" yaml:"participants"`
	State          LifecycleState `json:"state" yaml:"state"`
	ElapsedMs      float64        `json:"elapsedMs" yaml:"elapsedMs"`
	StepCount      int            `json:"stepCount" yaml:"stepCount"`
	CompletedCount int            `json:"completedCount" yaml:"completedCount"`
}

// Progress averages every participant's route fraction. An empty formation
// reports 0.
func (p *Procession) Progress() float64 {
	if p == nil || len(p.Participants) == 0 || p.Route == nil {
		return 0
	}
	segments := p.Route.Segments()
	total := 0.0
	for _, part := range p.Participants {
		total += part.RouteFraction(segments)
	}
	return total / float64(len(p.Participants))
}

// Clone deep-copies the procession. The route is shared because routes are
// immutable.
func (p *Procession) Clone() *Procession {
	if p == nil {
		return nil
	}
	c := *p
	c.Actor = p.Actor.Clone()
	c.Participants = make([]*Participant, len(p.Participants))
	for i, part := range p.Participants {
		c.Participants[i] = part.Clone()
	}
	return &c
}
