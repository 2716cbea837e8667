package formo

import (
	"context"
	"sync"
)

// Context provides access to the machine's shared data and to information
// about the transition being processed. It embeds context.Context so invoked
// tasks can honor cancellation and deadlines.
type Context interface {
	context.Context

	// Data access
	Get(key string) (any, bool)
	Set(key string, value any)
	GetAll() map[string]any

	// Machine access
	GetMachine() Machine
	GetCurrentState() string
	GetPreviousState() string

	// Transition information, valid while an event is being processed
	GetSourceState() string
	GetTargetState() string
	GetCurrentEvent() Event
	GetEventName() string
	GetEventData() any
	GetEventDataAs(target any) bool

	// Derivation
	WithValue(key string, value any) Context
	Fork(parent context.Context) Context
}

// StateMachineContext is the default Context implementation. Forked contexts
// share the same data store as their origin.
type StateMachineContext struct {
	context.Context
	mu            *sync.RWMutex
	data          map[string]any
	machine       Machine
	currentState  string
	previousState string
	sourceState   string
	targetState   string
	currentEvent  Event
}

// NewContext creates a machine context on top of a parent context.Context
func NewContext(parent context.Context, machine Machine) *StateMachineContext {
	if parent == nil {
		parent = context.Background()
	}
	return &StateMachineContext{
		Context: parent,
		mu:      &sync.RWMutex{},
		data:    make(map[string]any),
		machine: machine,
	}
}

// NewSimpleContext creates a standalone context without a machine
func NewSimpleContext() *StateMachineContext {
	return NewContext(context.Background(), nil)
}

// Get returns the value stored under key
func (c *StateMachineContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.data[key]
	return value, ok
}

// Set stores a value under key
func (c *StateMachineContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// GetAll returns a copy of all stored data
func (c *StateMachineContext) GetAll() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[string]any, len(c.data))
	for k, v := range c.data {
		result[k] = v
	}
	return result
}

// GetMachine returns the owning machine, nil for standalone contexts
func (c *StateMachineContext) GetMachine() Machine {
	return c.machine
}

// GetCurrentState returns the state the machine is in
func (c *StateMachineContext) GetCurrentState() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentState
}

// GetPreviousState returns the state before the last transition
func (c *StateMachineContext) GetPreviousState() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.previousState
}

// GetSourceState returns the source state of the transition in progress
func (c *StateMachineContext) GetSourceState() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sourceState
}

// GetTargetState returns the target state of the transition in progress
func (c *StateMachineContext) GetTargetState() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.targetState
}

// GetCurrentEvent returns the event being processed
func (c *StateMachineContext) GetCurrentEvent() Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentEvent
}

// GetEventName returns the name of the event being processed
func (c *StateMachineContext) GetEventName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.currentEvent == nil {
		return ""
	}
	return c.currentEvent.GetName()
}

// GetEventData returns the payload of the event being processed
func (c *StateMachineContext) GetEventData() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.currentEvent == nil {
		return nil
	}
	return c.currentEvent.GetData()
}

// GetEventDataAs extracts the event payload into target, which must be a
// pointer of the payload's type. Returns false when types do not match.
func (c *StateMachineContext) GetEventDataAs(target any) bool {
	data := c.GetEventData()
	if data == nil {
		return false
	}
	switch t := target.(type) {
	case *string:
		if v, ok := data.(string); ok {
			*t = v
			return true
		}
	case *int:
		if v, ok := data.(int); ok {
			*t = v
			return true
		}
	case *bool:
		if v, ok := data.(bool); ok {
			*t = v
			return true
		}
	case *float64:
		if v, ok := data.(float64); ok {
			*t = v
			return true
		}
	case *error:
		if v, ok := data.(error); ok {
			*t = v
			return true
		}
	}
	return false
}

// WithValue stores a value and returns the context for chaining
func (c *StateMachineContext) WithValue(key string, value any) Context {
	c.Set(key, value)
	return c
}

// Fork derives a context bound to a different parent context.Context. The
// fork shares the data store with its origin, so values set through either
// are visible to both. Transition information is snapshotted at fork time.
func (c *StateMachineContext) Fork(parent context.Context) Context {
	if parent == nil {
		parent = context.Background()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &StateMachineContext{
		Context:       parent,
		mu:            c.mu,
		data:          c.data,
		machine:       c.machine,
		currentState:  c.currentState,
		previousState: c.previousState,
		sourceState:   c.sourceState,
		targetState:   c.targetState,
		currentEvent:  c.currentEvent,
	}
}

// Internal updates performed by the machine while holding its own lock.

func (c *StateMachineContext) updateCurrentEvent(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentEvent = event
}

func (c *StateMachineContext) updateTransitionInfo(source, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sourceState = source
	c.targetState = target
}

func (c *StateMachineContext) updateCurrentState(state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previousState = c.currentState
	c.currentState = state
}

func (c *StateMachineContext) resetState(initial string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previousState = ""
	c.currentState = initial
	c.sourceState = ""
	c.targetState = ""
	c.currentEvent = nil
}
