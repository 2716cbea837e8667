package formo

import "testing"

func TestNewTransition(t *testing.T) {
	transition := NewTransition("idle", "submitting", "SUBMIT")

	if transition.SourceState != "idle" || transition.TargetState != "submitting" {
		t.Errorf("Unexpected endpoints: %s -> %s", transition.SourceState, transition.TargetState)
	}
	if transition.EventName != "SUBMIT" {
		t.Errorf("Unexpected event name '%s'", transition.EventName)
	}
	if transition.Guard != nil || transition.Action != nil {
		t.Error("Expected bare transition without guard or action")
	}
}

func TestTransitionWithers(t *testing.T) {
	transition := NewTransition("a", "b", "go").
		WithGuard(func(ctx Context) bool { return true }).
		WithAction(func(ctx Context) error { return nil })

	if transition.Guard == nil {
		t.Error("Expected WithGuard to attach the guard")
	}
	if transition.Action == nil {
		t.Error("Expected WithAction to attach the action")
	}
}

func TestTransitionIsSelf(t *testing.T) {
	if !NewTransition("idle", "idle", "SET_FIELD_VALUE").IsSelf() {
		t.Error("Expected same-endpoint transition to be a self transition")
	}
	if NewTransition("idle", "submitting", "SUBMIT").IsSelf() {
		t.Error("Expected cross-state transition not to be a self transition")
	}
}

func TestTransitionIsCompletion(t *testing.T) {
	done := NewTransition("submitting", "submitValid", DoneEventName("submitting"))
	if !done.IsCompletion() {
		t.Error("Expected done transition to be a completion transition")
	}

	failed := NewTransition("submitting", "idle", ErrorEventName("submitting"))
	if !failed.IsCompletion() {
		t.Error("Expected error transition to be a completion transition")
	}

	if NewTransition("idle", "submitting", "SUBMIT").IsCompletion() {
		t.Error("Expected regular transition not to be a completion transition")
	}
}
