package formo

import (
	"encoding/json"
	"sync"
)

// Field machine states.
const (
	FieldStatePristine   = "pristine"
	FieldStateFocused    = "focused"
	FieldStateBlurred    = "blurred"
	FieldStateValidating = "validating"
	FieldStateInvalid    = "invalid"
	FieldStateValid      = "valid"
)

// Field machine events.
const (
	FieldEventFocus         = "FOCUS"
	FieldEventBlur          = "BLUR"
	FieldEventChange        = "CHANGE"
	FieldEventValidate      = "VALIDATE"
	FieldEventSetError      = "SET_ERROR"
	FieldEventClearError    = "CLEAR_ERROR"
	FieldEventSubmitAttempt = "SUBMIT_ATTEMPT"
	FieldEventReset         = "RESET"
)

// Field error kinds.
const (
	FieldErrorValidation = "validation"
	FieldErrorCustom     = "custom"
)

// FieldError is a structured error attached to a single field.
type FieldError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewFieldError builds a field error of the given kind.
func NewFieldError(kind, message string) *FieldError {
	return &FieldError{Kind: kind, Message: message}
}

// FieldSnapshot is an immutable view of one field's interaction state.
type FieldSnapshot struct {
	State      string      `json:"state,omitempty"`
	Value      string      `json:"value"`
	Error      *FieldError `json:"error,omitempty"`
	Touched    bool        `json:"touched"`
	Dirty      bool        `json:"dirty"`
	Validating bool        `json:"validating"`
	Focused    bool        `json:"focused"`
}

// contextKeyField is the machine-context key for the field core.
const contextKeyField = "field"

// fieldCore owns one field's mutable interaction state. State entry and
// exit actions keep the focused/touched/validating flags aligned with the
// chart so snapshots never disagree with the current state.
type fieldCore struct {
	mu           sync.RWMutex
	initialValue string
	value        string
	err          *FieldError
	touched      bool
	dirty        bool
	validating   bool
	focused      bool
}

func (c *fieldCore) snapshot(state string) FieldSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var fieldErr *FieldError
	if c.err != nil {
		copied := *c.err
		fieldErr = &copied
	}
	return FieldSnapshot{
		State:      state,
		Value:      c.value,
		Error:      fieldErr,
		Touched:    c.touched,
		Dirty:      c.dirty,
		Validating: c.validating,
		Focused:    c.focused,
	}
}

// MarshalJSON renders the core as a snapshot for machine serialization.
func (c *fieldCore) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.snapshot(""))
}

// --- entry and exit actions ---

func (c *fieldCore) enterFocused(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = true
	return nil
}

func (c *fieldCore) exitFocused(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = false
	return nil
}

func (c *fieldCore) markTouched(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched = true
	return nil
}

func (c *fieldCore) enterValidating(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validating = true
	return nil
}

func (c *fieldCore) exitValidating(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validating = false
	return nil
}

// --- transition actions ---

// applyChange stores the new value, marks the field dirty and clears any
// standing error.
func (c *fieldCore) applyChange(ctx Context) error {
	value, ok := ctx.GetEventData().(string)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, FieldEventChange, "payload must be a string value")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.dirty = true
	c.err = nil
	return nil
}

func (c *fieldCore) applyError(ctx Context) error {
	var fieldErr *FieldError
	switch data := ctx.GetEventData().(type) {
	case *FieldError:
		fieldErr = data
	case FieldError:
		fieldErr = &data
	case string:
		fieldErr = NewFieldError(FieldErrorCustom, data)
	}
	if fieldErr == nil {
		return NewMachineError(ErrCodeInvalidEvent, FieldEventSetError, "payload must be a FieldError or message string")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = fieldErr
	return nil
}

func (c *fieldCore) clearError(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	return nil
}

func (c *fieldCore) resetAll(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = c.initialValue
	c.err = nil
	c.touched = false
	c.dirty = false
	c.validating = false
	c.focused = false
	return nil
}

// fieldStates lists every field machine state, in build order.
var fieldStates = []string{
	FieldStatePristine,
	FieldStateFocused,
	FieldStateBlurred,
	FieldStateValidating,
	FieldStateInvalid,
	FieldStateValid,
}

// newFieldDefinition wires the field interaction chart. Only the listed
// transitions exist; any other event in a state is rejected.
func newFieldDefinition(core *fieldCore) MachineDefinition {
	builder := NewMachine()

	builder.State(FieldStatePristine).Initial().
		To(FieldStateFocused).On(FieldEventFocus).
		To(FieldStateBlurred).On(FieldEventSubmitAttempt)

	builder.State(FieldStateFocused).
		OnEntry(core.enterFocused).
		OnExit(core.exitFocused).
		To(FieldStateBlurred).On(FieldEventBlur).
		ToSelf().On(FieldEventChange).Do(core.applyChange)

	builder.State(FieldStateBlurred).
		OnEntry(core.markTouched).
		To(FieldStateFocused).On(FieldEventFocus).
		To(FieldStateValidating).On(FieldEventValidate).
		To(FieldStateInvalid).On(FieldEventSetError).Do(core.applyError).
		To(FieldStateValid).On(FieldEventClearError).Do(core.clearError)

	builder.State(FieldStateValidating).
		OnEntry(core.enterValidating).
		OnExit(core.exitValidating).
		To(FieldStateInvalid).On(FieldEventSetError).Do(core.applyError).
		To(FieldStateValid).On(FieldEventClearError).Do(core.clearError)

	builder.State(FieldStateInvalid).
		To(FieldStateFocused).On(FieldEventFocus).
		To(FieldStateFocused).On(FieldEventChange).Do(core.applyChange)

	builder.State(FieldStateValid).
		To(FieldStateFocused).On(FieldEventFocus).
		To(FieldStateInvalid).On(FieldEventSetError).Do(core.applyError)

	// RESET returns to pristine from anywhere, restoring the initial value.
	for _, state := range fieldStates {
		builder.State(state).To(FieldStatePristine).On(FieldEventReset).Do(core.resetAll)
	}

	return builder.Build()
}

// FieldMachine tracks a single input's interaction state independently of
// any form machine.
type FieldMachine struct {
	machine Machine
	core    *fieldCore
}

// NewFieldMachine builds and starts a field machine with the given initial
// value.
func NewFieldMachine(initialValue string, observers ...Observer) (*FieldMachine, error) {
	core := &fieldCore{initialValue: initialValue, value: initialValue}
	machine := newFieldDefinition(core).CreateInstance()
	machine.Context().Set(contextKeyField, core)
	for _, observer := range observers {
		machine.AddObserver(observer)
	}
	if err := machine.Start(); err != nil {
		return nil, err
	}
	return &FieldMachine{machine: machine, core: core}, nil
}

// Machine exposes the underlying statechart.
func (m *FieldMachine) Machine() Machine {
	return m.machine
}

// Definition returns the chart structure for rendering.
func (m *FieldMachine) Definition() MachineDefinition {
	return m.machine.Definition()
}

// CurrentState returns the active field state.
func (m *FieldMachine) CurrentState() string {
	return m.machine.CurrentState()
}

// Snapshot captures the chart state and field flags together.
func (m *FieldMachine) Snapshot() FieldSnapshot {
	return m.core.snapshot(m.machine.CurrentState())
}

// MarshalJSON serializes the machine, including the field context.
func (m *FieldMachine) MarshalJSON() ([]byte, error) {
	return m.machine.MarshalJSON()
}

// --- typed event dispatchers ---

// Focus moves the field into the focused state.
func (m *FieldMachine) Focus() *EventResult {
	return m.machine.HandleEvent(FieldEventFocus, nil)
}

// Blur leaves the focused state and marks the field touched.
func (m *FieldMachine) Blur() *EventResult {
	return m.machine.HandleEvent(FieldEventBlur, nil)
}

// Change records a new value while focused or invalid. The field becomes
// dirty and any standing error is cleared.
func (m *FieldMachine) Change(value string) *EventResult {
	return m.machine.HandleEvent(FieldEventChange, value)
}

// Validate moves a blurred field into the validating state.
func (m *FieldMachine) Validate() *EventResult {
	return m.machine.HandleEvent(FieldEventValidate, nil)
}

// SetError records a validation outcome and moves the field to invalid.
func (m *FieldMachine) SetError(err *FieldError) *EventResult {
	return m.machine.HandleEvent(FieldEventSetError, err)
}

// ClearError records a clean validation outcome and moves the field to
// valid.
func (m *FieldMachine) ClearError() *EventResult {
	return m.machine.HandleEvent(FieldEventClearError, nil)
}

// SubmitAttempt marks a pristine field touched when the enclosing form is
// submitted before the field was ever visited.
func (m *FieldMachine) SubmitAttempt() *EventResult {
	return m.machine.HandleEvent(FieldEventSubmitAttempt, nil)
}

// Reset restores the field to pristine with its initial value.
func (m *FieldMachine) Reset() *EventResult {
	return m.machine.HandleEvent(FieldEventReset, nil)
}

// --- selectors ---

// Value returns the current value.
func (m *FieldMachine) Value() string {
	return m.Snapshot().Value
}

// FieldError returns the standing error, or nil.
func (m *FieldMachine) FieldError() *FieldError {
	return m.Snapshot().Error
}

// Touched reports whether the user has interacted with the field.
func (m *FieldMachine) Touched() bool {
	return m.Snapshot().Touched
}

// Dirty reports whether the value differs from the initial value.
func (m *FieldMachine) Dirty() bool {
	return m.Snapshot().Dirty
}

// Validating reports whether a validation run is in progress.
func (m *FieldMachine) Validating() bool {
	return m.Snapshot().Validating
}

// Focused reports whether the field currently has focus.
func (m *FieldMachine) Focused() bool {
	return m.Snapshot().Focused
}
