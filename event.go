package formo

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event represents a trigger for transitions in the state machine
type Event interface {
	GetID() string
	GetName() string
	GetData() any
	GetTimestamp() time.Time
	GetMetadata() map[string]any
}

// BaseEvent provides a basic implementation of the Event interface
type BaseEvent struct {
	id        string
	name      string
	data      any
	timestamp time.Time
	metadata  map[string]any
}

// NewEvent creates a new basic event
func NewEvent(name string, data any) Event {
	return &BaseEvent{
		id:        uuid.New().String(),
		name:      name,
		data:      data,
		timestamp: time.Now(),
		metadata:  make(map[string]any),
	}
}

// NewEventWithMetadata creates a new event with metadata
func NewEventWithMetadata(name string, data any, metadata map[string]any) Event {
	return &BaseEvent{
		id:        uuid.New().String(),
		name:      name,
		data:      data,
		timestamp: time.Now(),
		metadata:  metadata,
	}
}

// GetID returns the unique event identifier
func (e *BaseEvent) GetID() string {
	return e.id
}

// GetName returns the event name
func (e *BaseEvent) GetName() string {
	return e.name
}

// GetData returns the event data
func (e *BaseEvent) GetData() any {
	return e.data
}

// GetTimestamp returns the event timestamp
func (e *BaseEvent) GetTimestamp() time.Time {
	return e.timestamp
}

// GetMetadata returns the event metadata
func (e *BaseEvent) GetMetadata() map[string]any {
	if e.metadata == nil {
		return make(map[string]any)
	}
	result := make(map[string]any)
	for k, v := range e.metadata {
		result[k] = v
	}
	return result
}

// Internal completion events delivered when an invoked task settles.
// The prefix keeps them out of the namespace of caller-defined events.
const (
	doneEventPrefix  = "__done_"
	errorEventPrefix = "__error_"
)

// DoneEventName returns the internal event name delivered when the invoked
// task of the given state succeeds
func DoneEventName(stateID string) string {
	return doneEventPrefix + stateID
}

// ErrorEventName returns the internal event name delivered when the invoked
// task of the given state fails
func ErrorEventName(stateID string) string {
	return errorEventPrefix + stateID
}

// IsCompletionEventName reports whether the event name is an internal
// invocation-completion event
func IsCompletionEventName(name string) bool {
	return strings.HasPrefix(name, doneEventPrefix) || strings.HasPrefix(name, errorEventPrefix)
}

// EventResult represents the result of processing an event
type EventResult struct {
	Processed       bool
	StateChanged    bool
	PreviousState   string
	CurrentState    string
	Error           error
	RejectionReason string

	// Invocation is set when processing the event entered a state that
	// started an invoked task. Callers can Wait on it to observe the
	// completion event being applied.
	Invocation *Invocation
}

// NewEventResult creates a new event result
func NewEventResult(processed, stateChanged bool, prevState, currentState string) *EventResult {
	return &EventResult{
		Processed:     processed,
		StateChanged:  stateChanged,
		PreviousState: prevState,
		CurrentState:  currentState,
	}
}

// WithError adds an error to the event result
func (r *EventResult) WithError(err error) *EventResult {
	r.Error = err
	return r
}

// WithRejection adds a rejection reason to the event result
func (r *EventResult) WithRejection(reason string) *EventResult {
	r.RejectionReason = reason
	r.Processed = false
	return r
}

// Success returns true if the event was processed successfully
func (r *EventResult) Success() bool {
	return r.Processed && r.Error == nil
}
