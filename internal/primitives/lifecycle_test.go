package primitives

import (
	"errors"
	"testing"
)

func TestProcessionLifecycleValidate(t *testing.T) {
	if err := ProcessionLifecycle().Validate(); err != nil {
		t.Fatalf("ProcessionLifecycle().Validate() = %v", err)
	}
}

func TestLifecycleNext(t *testing.T) {
	l := ProcessionLifecycle()
	tests := []struct {
		name    string
		from    LifecycleState
		trigger Trigger
		want    LifecycleState
		wantErr bool
	}{
		{"start from idle", StateIdle, TriggerStart, StateActive, false},
		{"restart after completion", StateCompleted, TriggerStart, StateActive, false},
		{"restart after cancel", StateCancelled, TriggerStart, StateActive, false},
		{"double start", StateActive, TriggerStart, StateActive, true},
		{"start while paused", StatePaused, TriggerStart, StatePaused, true},
		{"pause", StateActive, TriggerPause, StatePaused, false},
		{"resume", StatePaused, TriggerResume, StateActive, false},
		{"pause idle", StateIdle, TriggerPause, StateIdle, true},
		{"complete", StateActive, TriggerComplete, StateCompleted, false},
		{"complete paused", StatePaused, TriggerComplete, StatePaused, true},
		{"cancel active", StateActive, TriggerCancel, StateCancelled, false},
		{"cancel paused", StatePaused, TriggerCancel, StateCancelled, false},
		{"cancel idle", StateIdle, TriggerCancel, StateIdle, true},
		{"cancel completed", StateCompleted, TriggerCancel, StateCompleted, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Next(tt.from, tt.trigger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Next(%s, %s) error = %v, wantErr %v", tt.from, tt.trigger, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrState) {
				t.Errorf("error %v does not wrap ErrState", err)
			}
			if got != tt.want {
				t.Errorf("Next(%s, %s) = %s, want %s", tt.from, tt.trigger, got, tt.want)
			}
		})
	}
}

func TestLifecycleValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		l    Lifecycle
	}{
		{"unknown initial", Lifecycle{Initial: "nowhere"}},
		{"unknown target", Lifecycle{Initial: StateIdle, Transitions: []LifecycleTransition{
			{From: StateIdle, Trigger: TriggerStart, To: "limbo"},
		}}},
		{"missing trigger", Lifecycle{Initial: StateIdle, Transitions: []LifecycleTransition{
			{From: StateIdle, To: StateActive},
		}}},
		{"duplicate edge", Lifecycle{Initial: StateIdle, Transitions: []LifecycleTransition{
			{From: StateIdle, Trigger: TriggerStart, To: StateActive},
			{From: StateIdle, Trigger: TriggerStart, To: StatePaused},
		}}},
		{"orphan", Lifecycle{Initial: StateIdle, Transitions: []LifecycleTransition{
			{From: StateIdle, Trigger: TriggerStart, To: StateActive},
			{From: StatePaused, Trigger: TriggerResume, To: StateActive},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.l.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLifecycleStateHelpers(t *testing.T) {
	if !StateActive.Running() || !StatePaused.Running() || StateIdle.Running() {
		t.Error("Running() misclassifies states")
	}
	if !StateCompleted.Terminal() || !StateCancelled.Terminal() || StateActive.Terminal() {
		t.Error("Terminal() misclassifies states")
	}
}
