package formo

import (
	"errors"
	"testing"
)

func TestStateErrorMessages(t *testing.T) {
	err := NewStateNotFoundError("ghost")
	if err.Error() != "state error [ghost]: state 'ghost' not found" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if err.Code != ErrCodeStateNotFound {
		t.Error("Expected state not found code")
	}

	invalid := NewInvalidStateError("submitting", "already submitting")
	if invalid.Code != ErrCodeInvalidState {
		t.Error("Expected invalid state code")
	}
}

func TestTransitionErrorMessages(t *testing.T) {
	err := NewTransitionNotAllowedError("idle", "submitValid", "SUBMIT_SUCCESS")
	if err.Error() != "transition error [idle->submitValid on SUBMIT_SUCCESS]: transition not allowed" {
		t.Errorf("Unexpected message: %s", err.Error())
	}

	noTransition := NewNoTransitionError("idle", "SUBMIT_SUCCESS")
	if noTransition.Code != ErrCodeTransitionNotAllowed {
		t.Error("Expected transition not allowed code")
	}
	if noTransition.Reason != "no transition defined for event 'SUBMIT_SUCCESS' in state 'idle'" {
		t.Errorf("Unexpected reason: %s", noTransition.Reason)
	}
}

func TestGuardErrorMessage(t *testing.T) {
	err := NewGuardRejectedError("idle", "validatingField", "CHANGE_FIELD")
	if err.Error() != "guard rejected transition [idle->validatingField on CHANGE_FIELD]" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := NewConfigurationError("MachineBuilder", "no initial state defined")
	if err.Error() != "configuration error in MachineBuilder: no initial state defined" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestMachineErrorMessages(t *testing.T) {
	err := NewMachineNotStartedError("HandleEvent")
	if err.Error() != "machine error during HandleEvent: machine has not been started" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if err.Code != ErrCodeMachineNotStarted {
		t.Error("Expected machine not started code")
	}
}

func TestActionErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewActionError("entry", "submitting", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected action error to unwrap to its cause")
	}
	if err.Error() != "action 'entry' failed in state 'submitting': boom" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestInvocationErrorMessage(t *testing.T) {
	err := NewInvocationInterruptedError("validatingForm", "state exited")
	if err.Error() != "invocation error in state 'validatingForm': state exited" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if err.Code != ErrCodeInvocationInterrupted {
		t.Error("Expected invocation interrupted code")
	}
}

func TestUnknownFieldErrorMessage(t *testing.T) {
	err := NewUnknownFieldError("nickname")
	if err.Error() != "unknown field 'nickname'" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestErrorPredicates(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		predicate func(error) bool
	}{
		{"state", NewStateNotFoundError("x"), IsStateError},
		{"transition", NewNoTransitionError("a", "go"), IsTransitionError},
		{"guard", NewGuardRejectedError("a", "b", "go"), IsGuardError},
		{"configuration", NewConfigurationError("c", "bad"), IsConfigurationError},
		{"machine", NewMachineNotStartedError("op"), IsMachineError},
		{"action", NewActionError("a", "s", errors.New("x")), IsActionError},
		{"invocation", NewInvocationInterruptedError("s", "stop"), IsInvocationError},
		{"unknownField", NewUnknownFieldError("f"), IsUnknownFieldError},
	}

	for _, c := range cases {
		if !c.predicate(c.err) {
			t.Errorf("Expected %s predicate to match its own error", c.name)
		}
		if c.predicate(errors.New("plain")) {
			t.Errorf("Expected %s predicate to reject a plain error", c.name)
		}
	}
}

func TestGetErrorCode(t *testing.T) {
	cases := []struct {
		err      error
		expected ErrorCode
	}{
		{NewStateNotFoundError("x"), ErrCodeStateNotFound},
		{NewNoTransitionError("a", "go"), ErrCodeTransitionNotAllowed},
		{NewGuardRejectedError("a", "b", "go"), ErrCodeGuardRejected},
		{NewConfigurationError("c", "bad"), ErrCodeInvalidConfiguration},
		{NewMachineNotStartedError("op"), ErrCodeMachineNotStarted},
		{NewActionError("a", "s", errors.New("x")), ErrCodeActionFailed},
		{NewInvocationInterruptedError("s", "stop"), ErrCodeInvocationInterrupted},
		{NewUnknownFieldError("f"), ErrCodeUnknownField},
		{errors.New("plain"), ErrCodeNone},
		{nil, ErrCodeNone},
	}

	for _, c := range cases {
		if code := GetErrorCode(c.err); code != c.expected {
			t.Errorf("Expected code %d for %v, got %d", c.expected, c.err, code)
		}
	}
}
