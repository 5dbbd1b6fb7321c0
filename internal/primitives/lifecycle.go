package primitives

import (
	"fmt"
	"sort"
)

// Trigger names an operation that drives the procession lifecycle.
type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerPause    Trigger = "pause"
	TriggerResume   Trigger = "resume"
	TriggerComplete Trigger = "complete"
	TriggerCancel   Trigger = "cancel"
)

// LifecycleTransition is one edge of the lifecycle table.
type LifecycleTransition struct {
	From    LifecycleState `json:"from" yaml:"from"`
	Trigger Trigger        `json:"trigger" yaml:"trigger"`
	To      LifecycleState `json:"to" yaml:"to"`
}

// Lifecycle is a flat transition table with an initial state.
type Lifecycle struct {
	Initial     LifecycleState        `json:"initial" yaml:"initial"`
	Transitions []LifecycleTransition `json:"transitions" yaml:"transitions"`
}

// ProcessionLifecycle is the table the controller enforces:
// Idle -> Active <-> Paused -> {Completed | Cancelled}, with Start accepted
// again from either terminal state.
func ProcessionLifecycle() Lifecycle {
	return Lifecycle{
		Initial: StateIdle,
		Transitions: []LifecycleTransition{
			{From: StateIdle, Trigger: TriggerStart, To: StateActive},
			{From: StateCompleted, Trigger: TriggerStart, To: StateActive},
			{From: StateCancelled, Trigger: TriggerStart, To: StateActive},
			{From: StateActive, Trigger: TriggerPause, To: StatePaused},
			{From: StatePaused, Trigger: TriggerResume, To: StateActive},
			{From: StateActive, Trigger: TriggerComplete, To: StateCompleted},
			{From: StateActive, Trigger: TriggerCancel, To: StateCancelled},
			{From: StatePaused, Trigger: TriggerCancel, To: StateCancelled},
		},
	}
}

// Next resolves the target of trigger fired in state from. The returned error
// wraps ErrState when the table has no such edge.
func (l Lifecycle) Next(from LifecycleState, trigger Trigger) (LifecycleState, error) {
	for _, t := range l.Transitions {
		if t.From == from && t.Trigger == trigger {
			return t.To, nil
		}
	}
	return from, fmt.Errorf("%w: cannot %s while %s", ErrState, trigger, from)
}

// States returns every state named by the table, sorted.
func (l Lifecycle) States() []LifecycleState {
	seen := map[LifecycleState]bool{l.Initial: true}
	for _, t := range l.Transitions {
		seen[t.From] = true
		seen[t.To] = true
	}
	out := make([]LifecycleState, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks that every state is known, no (from, trigger) pair is
// ambiguous and every state is reachable from Initial.
func (l Lifecycle) Validate() error {
	if !l.Initial.Valid() {
		return fmt.Errorf("initial state %q is not a lifecycle state", l.Initial)
	}
	edges := make(map[LifecycleState][]LifecycleState)
	seen := make(map[string]bool)
	for i, t := range l.Transitions {
		if !t.From.Valid() || !t.To.Valid() {
			return fmt.Errorf("transition %d: unknown state (%q -> %q)", i, t.From, t.To)
		}
		if t.Trigger == "" {
			return fmt.Errorf("transition %d: trigger is required", i)
		}
		key := string(t.From) + "/" + string(t.Trigger)
		if seen[key] {
			return fmt.Errorf("transition %d: duplicate edge %s on %s", i, t.From, t.Trigger)
		}
		seen[key] = true
		edges[t.From] = append(edges[t.From], t.To)
	}

	visited := map[LifecycleState]bool{}
	var mark func(LifecycleState)
	mark = func(s LifecycleState) {
		if visited[s] {
			return
		}
		visited[s] = true
		for _, next := range edges[s] {
			mark(next)
		}
	}
	mark(l.Initial)
	for _, s := range l.States() {
		if !visited[s] {
			return fmt.Errorf("orphaned state %q (not reachable from %q)", s, l.Initial)
		}
	}
	return nil
}
