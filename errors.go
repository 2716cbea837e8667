package formo

import "fmt"

// ErrorCode represents specific error conditions in the state machine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// State was not found in the machine
	ErrCodeStateNotFound
	// Transition is not allowed from current state
	ErrCodeTransitionNotAllowed
	// Guard condition rejected the transition
	ErrCodeGuardRejected
	// Event is invalid for current context
	ErrCodeInvalidEvent
	// Machine is not in started state
	ErrCodeMachineNotStarted
	// Action execution failed
	ErrCodeActionFailed
	// Machine configuration is invalid
	ErrCodeInvalidConfiguration
	// State is in invalid condition
	ErrCodeInvalidState
	// Invoked task was canceled or superseded before settling
	ErrCodeInvocationInterrupted
	// Event referenced a field the form does not know
	ErrCodeUnknownField
)

// StateError represents state-related errors
type StateError struct {
	Code    ErrorCode
	StateID string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error [%s]: %s", e.StateID, e.Message)
}

// NewStateNotFoundError creates a new state not found error
func NewStateNotFoundError(stateID string) *StateError {
	return &StateError{
		Code:    ErrCodeStateNotFound,
		StateID: stateID,
		Message: fmt.Sprintf("state '%s' not found", stateID),
	}
}

// NewStateError creates a new state error with custom values
func NewStateError(code ErrorCode, stateID string, message string) *StateError {
	return &StateError{
		Code:    code,
		StateID: stateID,
		Message: message,
	}
}

// NewInvalidStateError creates a new invalid state error
func NewInvalidStateError(stateID string, message string) *StateError {
	return &StateError{
		Code:    ErrCodeInvalidState,
		StateID: stateID,
		Message: message,
	}
}

// TransitionError represents transition-related errors
type TransitionError struct {
	Code   ErrorCode
	From   string
	To     string
	Event  string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition error [%s->%s on %s]: %s", e.From, e.To, e.Event, e.Reason)
}

// NewTransitionNotAllowedError creates a new transition not allowed error
func NewTransitionNotAllowedError(from, to, event string) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeTransitionNotAllowed,
		From:   from,
		To:     to,
		Event:  event,
		Reason: "transition not allowed",
	}
}

// NewTransitionError creates a new transition error with custom values
func NewTransitionError(code ErrorCode, from, to, event, reason string) *TransitionError {
	return &TransitionError{
		Code:   code,
		From:   from,
		To:     to,
		Event:  event,
		Reason: reason,
	}
}

// NewNoTransitionError creates an error for when no transition matches an event
func NewNoTransitionError(from, event string) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeTransitionNotAllowed,
		From:   from,
		To:     "",
		Event:  event,
		Reason: fmt.Sprintf("no transition defined for event '%s' in state '%s'", event, from),
	}
}

// GuardError represents guard evaluation failures
type GuardError struct {
	From  string
	To    string
	Event string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("guard rejected transition [%s->%s on %s]", e.From, e.To, e.Event)
}

// NewGuardRejectedError creates a new guard rejected error
func NewGuardRejectedError(from, to, event string) *GuardError {
	return &GuardError{
		From:  from,
		To:    to,
		Event: event,
	}
}

// ConfigurationError represents machine configuration errors
type ConfigurationError struct {
	Component string
	Issue     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Issue)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(component, issue string) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Issue:     issue,
	}
}

// MachineError represents machine-level operational errors
type MachineError struct {
	Code      ErrorCode
	Operation string
	Message   string
}

func (e *MachineError) Error() string {
	return fmt.Sprintf("machine error during %s: %s", e.Operation, e.Message)
}

// NewMachineNotStartedError creates a new machine not started error
func NewMachineNotStartedError(operation string) *MachineError {
	return &MachineError{
		Code:      ErrCodeMachineNotStarted,
		Operation: operation,
		Message:   "machine has not been started",
	}
}

// NewMachineError creates a new machine error with custom values
func NewMachineError(code ErrorCode, operation, message string) *MachineError {
	return &MachineError{
		Code:      code,
		Operation: operation,
		Message:   message,
	}
}

// ActionError represents action execution failures
type ActionError struct {
	Action      string
	State       string
	OriginalErr error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action '%s' failed in state '%s': %v", e.Action, e.State, e.OriginalErr)
}

func (e *ActionError) Unwrap() error {
	return e.OriginalErr
}

// NewActionError creates a new action error
func NewActionError(action, state string, err error) *ActionError {
	return &ActionError{
		Action:      action,
		State:       state,
		OriginalErr: err,
	}
}

// InvocationError represents invoked-task lifecycle errors
type InvocationError struct {
	Code    ErrorCode
	StateID string
	Reason  string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation error in state '%s': %s", e.StateID, e.Reason)
}

// NewInvocationInterruptedError creates an error for an invocation that was
// canceled or superseded before its settlement could be applied
func NewInvocationInterruptedError(stateID, reason string) *InvocationError {
	return &InvocationError{
		Code:    ErrCodeInvocationInterrupted,
		StateID: stateID,
		Reason:  reason,
	}
}

// UnknownFieldError reports an event that referenced a field outside the
// form's fixed key set
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field '%s'", e.Field)
}

// NewUnknownFieldError creates a new unknown field error
func NewUnknownFieldError(field string) *UnknownFieldError {
	return &UnknownFieldError{Field: field}
}

// IsStateError checks whether the error is a StateError
func IsStateError(err error) bool {
	_, ok := err.(*StateError)
	return ok
}

// IsTransitionError checks whether the error is a TransitionError
func IsTransitionError(err error) bool {
	_, ok := err.(*TransitionError)
	return ok
}

// IsGuardError checks whether the error is a GuardError
func IsGuardError(err error) bool {
	_, ok := err.(*GuardError)
	return ok
}

// IsConfigurationError checks whether the error is a ConfigurationError
func IsConfigurationError(err error) bool {
	_, ok := err.(*ConfigurationError)
	return ok
}

// IsMachineError checks whether the error is a MachineError
func IsMachineError(err error) bool {
	_, ok := err.(*MachineError)
	return ok
}

// IsActionError checks whether the error is an ActionError
func IsActionError(err error) bool {
	_, ok := err.(*ActionError)
	return ok
}

// IsInvocationError checks whether the error is an InvocationError
func IsInvocationError(err error) bool {
	_, ok := err.(*InvocationError)
	return ok
}

// IsUnknownFieldError checks whether the error is an UnknownFieldError
func IsUnknownFieldError(err error) bool {
	_, ok := err.(*UnknownFieldError)
	return ok
}

// GetErrorCode extracts the error code from any machine error type
func GetErrorCode(err error) ErrorCode {
	switch e := err.(type) {
	case *StateError:
		return e.Code
	case *TransitionError:
		return e.Code
	case *GuardError:
		return ErrCodeGuardRejected
	case *ConfigurationError:
		return ErrCodeInvalidConfiguration
	case *MachineError:
		return e.Code
	case *ActionError:
		return ErrCodeActionFailed
	case *InvocationError:
		return e.Code
	case *UnknownFieldError:
		return ErrCodeUnknownField
	}
	return ErrCodeNone
}
