package formo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Machine represents a state machine instance
type Machine interface {
	Start() error
	Stop() error
	Reset() error

	ID() string
	CurrentState() string
	SetState(state string) error
	IsInState(stateID string) bool
	History() []string

	SendEvent(eventName string, eventData any) *EventResult
	SendEventWithContext(ctx context.Context, eventName string, eventData any) *EventResult
	HandleEvent(eventName string, eventData any) *EventResult
	HandleEventWithContext(ctx context.Context, eventName string, eventData any) *EventResult

	PendingInvocation() *Invocation

	AddObserver(observer Observer)
	RemoveObserver(observer Observer)

	Context() Context
	Definition() MachineDefinition

	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}

// MachineState represents the current state of the machine
type MachineState int

const (
	// Machine is stopped and not processing events
	MachineStateStopped MachineState = iota
	// Machine is running and processing events
	MachineStateStarted
	// Machine is in error state
	MachineStateError
)

// StateMachine implements the Machine interface
type StateMachine struct {
	id           string
	currentState string
	initialState string
	states       map[string]State
	transitions  []Transition
	context      Context
	observers    *ObserverManager
	machineState MachineState
	history      []string
	pending      *Invocation
	definition   MachineDefinition
	mutex        sync.RWMutex
}

// newStateMachine creates a new state machine instance
func newStateMachine() *StateMachine {
	sm := &StateMachine{
		id:           uuid.New().String(),
		states:       make(map[string]State),
		transitions:  make([]Transition, 0),
		observers:    NewObserverManager(),
		machineState: MachineStateStopped,
		history:      make([]string, 0),
	}
	sm.context = NewContext(context.Background(), sm)
	return sm
}

// safeEvaluateGuard safely evaluates a guard function with panic recovery
func safeEvaluateGuard(guard GuardFunc, ctx Context) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = fmt.Errorf("guard panic: %v", r)
		}
	}()

	result = guard(ctx)
	return result, nil
}

// safeExecuteAction safely executes an action function with panic recovery
func safeExecuteAction(action ActionFunc, ctx Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()

	err = action(ctx)
	return err
}

// safeInvokeTask safely runs an invoked task with panic recovery
func safeInvokeTask(task InvokeFunc, ctx Context) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("invoked task panic: %v", r)
		}
	}()

	data, err = task(ctx)
	return data, err
}

// Start starts the state machine
func (sm *StateMachine) Start() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.machineState == MachineStateStarted {
		return NewMachineError(ErrCodeInvalidState, "Start", "machine is already started")
	}

	if sm.initialState == "" {
		return NewConfigurationError("StateMachine", "no initial state defined")
	}

	initial, exists := sm.states[sm.initialState]
	if !exists {
		return NewConfigurationError("StateMachine", fmt.Sprintf("initial state '%s' does not exist", sm.initialState))
	}

	sm.machineState = MachineStateStarted
	sm.currentState = sm.initialState
	sm.history = append(sm.history, sm.initialState)

	if smCtx, ok := sm.context.(*StateMachineContext); ok {
		smCtx.updateCurrentState(sm.currentState)
	}

	initial.Enter(sm.context)
	sm.observers.NotifyStateEnter(sm.currentState, sm.context)
	sm.observers.NotifyMachineStarted(sm.context)

	sm.beginInvocation(initial)

	return nil
}

// Stop stops the state machine
func (sm *StateMachine) Stop() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.machineState != MachineStateStarted {
		return NewMachineNotStartedError("Stop")
	}

	sm.cancelPending("machine stopped")

	if sm.currentState != "" {
		sm.observers.NotifyStateExit(sm.currentState, sm.context)
	}
	sm.observers.NotifyMachineStopped(sm.context)

	sm.machineState = MachineStateStopped
	return nil
}

// Reset returns the machine to its initial state and stops it. Context data
// is preserved; any in-flight invocation is interrupted.
func (sm *StateMachine) Reset() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.cancelPending("machine reset")

	previousState := sm.currentState
	sm.currentState = sm.initialState
	sm.machineState = MachineStateStopped
	sm.history = sm.history[:0]

	if smCtx, ok := sm.context.(*StateMachineContext); ok {
		smCtx.resetState(sm.currentState)
	}

	if previousState != sm.currentState {
		if previousState != "" {
			sm.observers.NotifyStateExit(previousState, sm.context)
		}
		if sm.currentState != "" {
			sm.observers.NotifyStateEnter(sm.currentState, sm.context)
			sm.observers.NotifyTransition(previousState, sm.currentState, nil, sm.context)
		}
	}

	return nil
}

// ID returns the unique machine identifier
func (sm *StateMachine) ID() string {
	return sm.id
}

// CurrentState returns the current state
func (sm *StateMachine) CurrentState() string {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

// IsInState reports whether the machine is currently in the given state
func (sm *StateMachine) IsInState(stateID string) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState == stateID
}

// History returns the sequence of states visited since the machine started
func (sm *StateMachine) History() []string {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	result := make([]string, len(sm.history))
	copy(result, sm.history)
	return result
}

// SetState sets the current state without running transition actions
func (sm *StateMachine) SetState(state string) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.states[state]; !exists {
		return NewStateNotFoundError(state)
	}

	sm.cancelPending("state forced")

	previousState := sm.currentState
	sm.currentState = state
	sm.history = append(sm.history, state)

	if smCtx, ok := sm.context.(*StateMachineContext); ok {
		smCtx.updateCurrentState(sm.currentState)
	}

	if previousState != "" && previousState != state {
		sm.observers.NotifyStateExit(previousState, sm.context)
	}

	sm.observers.NotifyStateEnter(state, sm.context)

	if previousState != state {
		sm.observers.NotifyTransition(previousState, state, nil, sm.context)
	}

	return nil
}

// SendEvent sends an event to the machine
func (sm *StateMachine) SendEvent(eventName string, eventData any) *EventResult {
	return sm.SendEventWithContext(context.Background(), eventName, eventData)
}

// SendEventWithContext sends an event to the machine with context
func (sm *StateMachine) SendEventWithContext(ctx context.Context, eventName string, eventData any) *EventResult {
	return sm.HandleEventWithContext(ctx, eventName, eventData)
}

// HandleEvent handles an event synchronously
func (sm *StateMachine) HandleEvent(eventName string, eventData any) *EventResult {
	return sm.HandleEventWithContext(context.Background(), eventName, eventData)
}

// HandleEventWithContext handles an event synchronously with context
func (sm *StateMachine) HandleEventWithContext(ctx context.Context, eventName string, eventData any) *EventResult {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return NewEventResult(false, false, sm.currentState, sm.currentState).
			WithRejection("context canceled").
			WithError(err)
	}

	return sm.handleEventLocked(NewEvent(eventName, eventData))
}

// handleEventLocked is the dispatch core. The caller must hold the write
// lock; invocation settlements re-enter here under the same lock.
func (sm *StateMachine) handleEventLocked(event Event) *EventResult {
	if sm.machineState != MachineStateStarted {
		return NewEventResult(false, false, sm.currentState, sm.currentState).
			WithRejection("machine is not started")
	}

	eventName := event.GetName()

	if strings.TrimSpace(eventName) == "" {
		reason := "event name cannot be empty"
		sm.observers.NotifyEventRejected(event, reason, sm.context)
		return NewEventResult(false, false, sm.currentState, sm.currentState).
			WithRejection(reason).
			WithError(errors.New(reason))
	}

	if smCtx, ok := sm.context.(*StateMachineContext); ok {
		smCtx.updateCurrentEvent(event)
	}

	matchingTransition := sm.findMatchingTransition(event)
	if matchingTransition == nil {
		reason := fmt.Sprintf("no valid transition found for event '%s' in state '%s'", eventName, sm.currentState)
		sm.observers.NotifyEventRejected(event, reason, sm.context)
		return NewEventResult(false, false, sm.currentState, sm.currentState).
			WithRejection(reason).
			WithError(NewNoTransitionError(sm.currentState, eventName))
	}

	previousState := sm.currentState
	targetState := matchingTransition.TargetState

	target, exists := sm.states[targetState]
	if !exists {
		err := NewStateNotFoundError(targetState)
		sm.observers.NotifyError(err, sm.context)
		return NewEventResult(false, false, previousState, previousState).
			WithError(err)
	}

	if smCtx, ok := sm.context.(*StateMachineContext); ok {
		smCtx.updateTransitionInfo(previousState, targetState)
	}

	// Execute transition action BEFORE state change - if it fails, abort transition
	if matchingTransition.Action != nil {
		sm.observers.NotifyActionExecution("transition", previousState, event, sm.context)
		if err := safeExecuteAction(matchingTransition.Action, sm.context); err != nil {
			reason := fmt.Sprintf("transition action failed: %v", err)
			sm.observers.NotifyEventRejected(event, reason, sm.context)
			return NewEventResult(false, false, previousState, previousState).
				WithError(err)
		}
	}

	if matchingTransition.IsSelf() {
		// Self-transitions do not re-run entry or exit actions
		sm.observers.NotifyTransition(previousState, targetState, event, sm.context)
		return NewEventResult(true, false, previousState, targetState)
	}

	// The pending invocation belongs to the state being exited
	sm.cancelPending("state exited")

	if source, ok := sm.states[previousState]; ok {
		source.Exit(sm.context)
	}

	sm.currentState = targetState
	sm.history = append(sm.history, targetState)

	if smCtx, ok := sm.context.(*StateMachineContext); ok {
		smCtx.updateCurrentState(sm.currentState)
	}

	target.Enter(sm.context)

	sm.observers.NotifyStateExit(previousState, sm.context)
	sm.observers.NotifyTransition(previousState, targetState, event, sm.context)
	sm.observers.NotifyStateEnter(targetState, sm.context)

	result := NewEventResult(true, true, previousState, targetState)
	result.Invocation = sm.beginInvocation(target)

	return result
}

// findMatchingTransition returns the first transition out of the current
// state whose event name matches and whose guard, if any, passes. The caller
// must hold the lock.
func (sm *StateMachine) findMatchingTransition(event Event) *Transition {
	for i := range sm.transitions {
		transition := &sm.transitions[i]
		if transition.SourceState != sm.currentState || transition.EventName != event.GetName() {
			continue
		}
		if transition.Guard != nil {
			passed, err := safeEvaluateGuard(transition.Guard, sm.context)
			if err != nil {
				sm.observers.NotifyError(err, sm.context)
			}
			sm.observers.NotifyGuardEvaluation(transition.SourceState, transition.TargetState, event, passed, sm.context)
			if !passed {
				continue
			}
		}
		return transition
	}
	return nil
}

// beginInvocation starts the invoked task of the given state, if it has one.
// The caller must hold the lock.
func (sm *StateMachine) beginInvocation(state State) *Invocation {
	task := state.Invoke()
	if task == nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	inv := newInvocation(state.ID(), cancel)
	sm.pending = inv

	taskCtx := sm.context.Fork(runCtx)
	sm.observers.NotifyInvocationStarted(state.ID(), sm.context)

	go func() {
		data, err := safeInvokeTask(task, taskCtx)
		sm.settleInvocation(inv, data, err)
	}()

	return inv
}

// settleInvocation delivers a task settlement back into the machine as an
// internal completion event. Settlements of superseded invocations are
// dropped; the machine state they were racing against has already moved on.
func (sm *StateMachine) settleInvocation(inv *Invocation, data any, err error) {
	sm.mutex.Lock()

	if sm.pending != inv {
		sm.mutex.Unlock()
		inv.resolve(nil, NewInvocationInterruptedError(inv.stateID, "superseded before settlement"))
		return
	}
	sm.pending = nil

	sm.observers.NotifyInvocationSettled(inv.stateID, err, sm.context)

	var result *EventResult
	if err != nil {
		result = sm.handleEventLocked(NewEvent(ErrorEventName(inv.stateID), err))
	} else {
		result = sm.handleEventLocked(NewEvent(DoneEventName(inv.stateID), data))
	}

	sm.mutex.Unlock()
	inv.resolve(result, nil)
}

// cancelPending interrupts the in-flight invocation, if any. The caller must
// hold the lock.
func (sm *StateMachine) cancelPending(reason string) {
	if sm.pending == nil {
		return
	}
	inv := sm.pending
	sm.pending = nil
	inv.interrupt(reason)
	sm.observers.NotifyInvocationSettled(inv.stateID, NewInvocationInterruptedError(inv.stateID, reason), sm.context)
}

// PendingInvocation returns the in-flight invocation, nil when idle
func (sm *StateMachine) PendingInvocation() *Invocation {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.pending
}

// AddObserver registers an observer
func (sm *StateMachine) AddObserver(observer Observer) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.observers.AddObserver(observer)
}

// RemoveObserver unregisters an observer
func (sm *StateMachine) RemoveObserver(observer Observer) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.observers.RemoveObserver(observer)
}

// Context returns the machine's context
func (sm *StateMachine) Context() Context {
	return sm.context
}

// Definition returns the definition this instance was created from
func (sm *StateMachine) Definition() MachineDefinition {
	return sm.definition
}

// MarshalJSON serializes the machine's dynamic state
func (sm *StateMachine) MarshalJSON() ([]byte, error) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	machineState := "stopped"
	if sm.machineState == MachineStateStarted {
		machineState = "started"
	}

	snapshot := map[string]any{
		"id":           sm.id,
		"currentState": sm.currentState,
		"initialState": sm.initialState,
		"machineState": machineState,
		"contextData":  sm.context.GetAll(),
	}
	return json.Marshal(snapshot)
}

// UnmarshalJSON restores the machine's dynamic state from a snapshot
func (sm *StateMachine) UnmarshalJSON(data []byte) error {
	var snapshot struct {
		ID           string         `json:"id"`
		CurrentState string         `json:"currentState"`
		MachineState string         `json:"machineState"`
		ContextData  map[string]any `json:"contextData"`
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}

	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if snapshot.CurrentState != "" {
		if _, exists := sm.states[snapshot.CurrentState]; !exists {
			return NewStateNotFoundError(snapshot.CurrentState)
		}
		sm.cancelPending("state restored")
		sm.currentState = snapshot.CurrentState
		if smCtx, ok := sm.context.(*StateMachineContext); ok {
			smCtx.updateCurrentState(sm.currentState)
		}
	}

	if snapshot.ID != "" {
		sm.id = snapshot.ID
	}
	if snapshot.MachineState == "started" {
		sm.machineState = MachineStateStarted
	} else {
		sm.machineState = MachineStateStopped
	}

	for k, v := range snapshot.ContextData {
		sm.context.Set(k, v)
	}

	return nil
}
