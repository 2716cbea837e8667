package formo

import (
	"fmt"
	"strings"
)

// MachineBuilder provides the main entry point for building state machines
type MachineBuilder interface {
	State(id string) StateBuilder
	Build() MachineDefinition
}

// StateBuilder handles state configuration
type StateBuilder interface {
	To(target string) TransitionBuilder
	ToSelf() TransitionBuilder

	OnEntry(action ActionFunc) StateBuilder
	OnExit(action ActionFunc) StateBuilder
	Invoke(task InvokeFunc) StateBuilder
	Final() StateBuilder
	Initial() StateBuilder

	State(id string) StateBuilder
	Build() MachineDefinition
}

// TransitionBuilder handles transition configuration with inline guards and
// actions
type TransitionBuilder interface {
	// Event binding
	On(event string) TransitionBuilder
	// OnDone binds the transition to the source state's invoked-task success
	OnDone() TransitionBuilder
	// OnError binds the transition to the source state's invoked-task failure
	OnError() TransitionBuilder

	// Conditions
	When(guard GuardFunc) TransitionBuilder
	Unless(guard GuardFunc) TransitionBuilder

	// Actions
	Do(action ActionFunc) TransitionBuilder

	// Multiple transitions from the same state
	To(target string) TransitionBuilder
	ToSelf() TransitionBuilder

	// Navigation back
	State(id string) StateBuilder
	Build() MachineDefinition
}

// MachineDefinition represents the validated configuration of a state
// machine. Instances created from one definition share states and
// transitions but have independent dynamic state.
type MachineDefinition interface {
	CreateInstance() Machine

	GetInitialState() string
	GetStates() map[string]State
	GetTransitions() map[string][]Transition
}

// NewMachine creates a new machine builder
func NewMachine() MachineBuilder {
	return &machineBuilder{
		states: make(map[string]*StateImpl),
	}
}

type machineBuilder struct {
	initialState string
	states       map[string]*StateImpl
	transitions  []Transition
}

func (b *machineBuilder) State(id string) StateBuilder {
	return &stateBuilder{builder: b, state: b.stateFor(id)}
}

func (b *machineBuilder) stateFor(id string) *StateImpl {
	if state, ok := b.states[id]; ok {
		return state
	}
	state := NewState(id)
	b.states[id] = state
	return state
}

// addTransition appends a transition, keeping declaration order. A repeated
// (source, target, event) triple updates the existing entry instead of
// shadowing it.
func (b *machineBuilder) addTransition(t Transition) int {
	for i := range b.transitions {
		existing := &b.transitions[i]
		if existing.SourceState == t.SourceState &&
			existing.TargetState == t.TargetState &&
			existing.EventName == t.EventName {
			if t.Guard != nil {
				existing.Guard = t.Guard
			}
			if t.Action != nil {
				existing.Action = t.Action
			}
			return i
		}
	}
	b.transitions = append(b.transitions, t)
	return len(b.transitions) - 1
}

// Build validates the configuration and returns an immutable definition.
// Invalid configurations panic: a machine that cannot be built is a
// programming error, not a runtime condition.
func (b *machineBuilder) Build() MachineDefinition {
	if err := b.validate(); err != nil {
		panic(fmt.Sprintf("Failed to build machine: %v", err))
	}

	states := make(map[string]State, len(b.states))
	for id, state := range b.states {
		states[id] = state
	}
	transitions := make([]Transition, len(b.transitions))
	copy(transitions, b.transitions)

	return &machineDefinition{
		initialState: b.initialState,
		states:       states,
		transitions:  transitions,
	}
}

func (b *machineBuilder) validate() error {
	if b.initialState == "" {
		return NewConfigurationError("MachineBuilder", "no initial state defined")
	}
	if _, ok := b.states[b.initialState]; !ok {
		return NewConfigurationError("MachineBuilder", fmt.Sprintf("initial state '%s' does not exist", b.initialState))
	}

	for i := range b.transitions {
		t := &b.transitions[i]
		if strings.TrimSpace(t.EventName) == "" {
			return NewConfigurationError("MachineBuilder",
				fmt.Sprintf("transition from '%s' to '%s' has no trigger event", t.SourceState, t.TargetState))
		}
		if _, ok := b.states[t.SourceState]; !ok {
			return NewConfigurationError("MachineBuilder",
				fmt.Sprintf("source state '%s' does not exist for transition", t.SourceState))
		}
		if _, ok := b.states[t.TargetState]; !ok {
			return NewConfigurationError("MachineBuilder",
				fmt.Sprintf("target state '%s' does not exist for transition", t.TargetState))
		}
	}

	// Every invoking state must declare where its settlement goes, or the
	// machine would wedge there.
	for id, state := range b.states {
		if state.Invoke() == nil {
			continue
		}
		if !b.hasTransitionOn(id, DoneEventName(id)) {
			return NewConfigurationError("MachineBuilder",
				fmt.Sprintf("state '%s' invokes a task but defines no OnDone transition", id))
		}
		if !b.hasTransitionOn(id, ErrorEventName(id)) {
			return NewConfigurationError("MachineBuilder",
				fmt.Sprintf("state '%s' invokes a task but defines no OnError transition", id))
		}
	}

	return nil
}

func (b *machineBuilder) hasTransitionOn(source, event string) bool {
	for i := range b.transitions {
		if b.transitions[i].SourceState == source && b.transitions[i].EventName == event {
			return true
		}
	}
	return false
}

type stateBuilder struct {
	builder *machineBuilder
	state   *StateImpl
}

func (sb *stateBuilder) Initial() StateBuilder {
	sb.builder.initialState = sb.state.ID()
	return sb
}

func (sb *stateBuilder) Final() StateBuilder {
	sb.state.WithFinal()
	return sb
}

func (sb *stateBuilder) OnEntry(action ActionFunc) StateBuilder {
	sb.state.WithEntryAction(action)
	return sb
}

func (sb *stateBuilder) OnExit(action ActionFunc) StateBuilder {
	sb.state.WithExitAction(action)
	return sb
}

func (sb *stateBuilder) Invoke(task InvokeFunc) StateBuilder {
	sb.state.WithInvoke(task)
	return sb
}

func (sb *stateBuilder) To(target string) TransitionBuilder {
	return newTransitionBuilder(sb.builder, sb.state.ID(), target)
}

func (sb *stateBuilder) ToSelf() TransitionBuilder {
	return sb.To(sb.state.ID())
}

func (sb *stateBuilder) State(id string) StateBuilder {
	return sb.builder.State(id)
}

func (sb *stateBuilder) Build() MachineDefinition {
	return sb.builder.Build()
}

type transitionBuilder struct {
	builder *machineBuilder
	source  string
	target  string
	index   int
	guard   GuardFunc
	action  ActionFunc
}

func newTransitionBuilder(b *machineBuilder, source, target string) *transitionBuilder {
	return &transitionBuilder{builder: b, source: source, target: target, index: -1}
}

func (tb *transitionBuilder) On(event string) TransitionBuilder {
	if tb.index >= 0 {
		tb.builder.transitions[tb.index].EventName = event
		return tb
	}
	tb.index = tb.builder.addTransition(Transition{
		SourceState: tb.source,
		TargetState: tb.target,
		EventName:   event,
		Guard:       tb.guard,
		Action:      tb.action,
	})
	return tb
}

func (tb *transitionBuilder) OnDone() TransitionBuilder {
	return tb.On(DoneEventName(tb.source))
}

func (tb *transitionBuilder) OnError() TransitionBuilder {
	return tb.On(ErrorEventName(tb.source))
}

func (tb *transitionBuilder) When(guard GuardFunc) TransitionBuilder {
	if tb.index >= 0 {
		tb.builder.transitions[tb.index].Guard = guard
	} else {
		tb.guard = guard
	}
	return tb
}

func (tb *transitionBuilder) Unless(guard GuardFunc) TransitionBuilder {
	return tb.When(func(ctx Context) bool {
		return !guard(ctx)
	})
}

func (tb *transitionBuilder) Do(action ActionFunc) TransitionBuilder {
	if tb.index >= 0 {
		tb.builder.transitions[tb.index].Action = action
	} else {
		tb.action = action
	}
	return tb
}

func (tb *transitionBuilder) To(target string) TransitionBuilder {
	return newTransitionBuilder(tb.builder, tb.source, target)
}

func (tb *transitionBuilder) ToSelf() TransitionBuilder {
	return tb.To(tb.source)
}

func (tb *transitionBuilder) State(id string) StateBuilder {
	return tb.builder.State(id)
}

func (tb *transitionBuilder) Build() MachineDefinition {
	return tb.builder.Build()
}

type machineDefinition struct {
	initialState string
	states       map[string]State
	transitions  []Transition
}

func (d *machineDefinition) CreateInstance() Machine {
	sm := newStateMachine()
	sm.initialState = d.initialState
	for id, state := range d.states {
		sm.states[id] = state
	}
	sm.transitions = append(sm.transitions, d.transitions...)
	sm.definition = d
	return sm
}

func (d *machineDefinition) GetInitialState() string {
	return d.initialState
}

func (d *machineDefinition) GetStates() map[string]State {
	result := make(map[string]State, len(d.states))
	for id, state := range d.states {
		result[id] = state
	}
	return result
}

func (d *machineDefinition) GetTransitions() map[string][]Transition {
	result := make(map[string][]Transition)
	for _, t := range d.transitions {
		result[t.SourceState] = append(result[t.SourceState], t)
	}
	return result
}
