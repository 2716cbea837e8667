package formo

// formStates lists every form machine state, in build order.
var formStates = []string{
	StateIdle,
	StateValidatingForm,
	StateValidatingField,
	StateSubmitting,
	StateSubmitValid,
}

// newFormDefinition wires the form statechart over the given core.
// Transition order matters in idle: the guarded variant of an event is
// declared before its unguarded fallback so dispatch picks it first.
func newFormDefinition(core *formCore) MachineDefinition {
	builder := NewMachine()

	builder.State(StateIdle).Initial().
		To(StateValidatingField).On(EventChangeField).When(core.shouldValidateChange).Do(core.applyChange).
		ToSelf().On(EventChangeField).Do(core.applyChange).
		To(StateValidatingField).On(EventBlurField).When(core.shouldValidateBlur).Do(core.applyBlur).
		ToSelf().On(EventBlurField).Do(core.applyBlur).
		ToSelf().On(EventSetFieldValue).Do(core.applySetValue).
		ToSelf().On(EventSetFieldError).Do(core.applySetFieldError).
		ToSelf().On(EventSetErrors).Do(core.applyMergeErrors).
		ToSelf().On(EventResetField).Do(core.applyResetField).
		To(StateSubmitting).On(EventSubmit).
		To(StateValidatingForm).On(EventValidateForm).
		To(StateValidatingField).On(EventValidateField).When(core.hasTargetField).Do(core.recordValidationTarget)

	builder.State(StateValidatingForm).
		Invoke(core.runFormValidation).
		To(StateIdle).OnDone().Do(core.applyFormValidationResult).
		To(StateIdle).OnError()

	builder.State(StateValidatingField).
		Invoke(core.runFieldValidation).
		To(StateIdle).OnDone().Do(core.applyFieldValidationResult).
		To(StateIdle).OnError()

	builder.State(StateSubmitting).
		OnEntry(core.beginSubmit).
		Invoke(core.runFormValidation).
		To(StateSubmitValid).OnDone().When(core.resultIsClean).Do(core.applyFormValidationResult).
		To(StateIdle).OnDone().Do(core.applySubmitValidationFailure).
		To(StateIdle).OnError().Do(core.clearSubmitting)

	builder.State(StateSubmitValid).
		To(StateIdle).On(EventSubmitSuccess).Do(core.clearSubmitting).
		To(StateIdle).On(EventSubmitFailure).Do(core.clearSubmitting)

	// RESET returns to idle from anywhere, restoring the initial context.
	for _, state := range formStates {
		builder.State(state).To(StateIdle).On(EventReset).Do(core.applyReset)
	}

	return builder.Build()
}

// FormMachine is the form statechart plus its context. It wraps rather
// than embeds Machine so the RESET event dispatcher and the machine
// lifecycle Reset stay distinct.
type FormMachine struct {
	machine Machine
	core    *formCore
}

// NewFormMachine builds and starts a form machine over the given initial
// values. The key set of initialValues fixes the form's fields for its
// whole lifetime.
func NewFormMachine(initialValues Values, opts ...Option) (*FormMachine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newFormMachine(initialValues, cfg)
}

func newFormMachine(initialValues Values, cfg *config) (*FormMachine, error) {
	core := newFormCore(initialValues, cfg.validator, cfg.validateOnChange, cfg.validateOnBlur)
	machine := newFormDefinition(core).CreateInstance()
	machine.Context().Set(contextKeyForm, core)
	for _, observer := range cfg.observers {
		machine.AddObserver(observer)
	}
	if err := machine.Start(); err != nil {
		return nil, err
	}
	return &FormMachine{machine: machine, core: core}, nil
}

// Machine exposes the underlying statechart for observers, serialization
// and visualization.
func (m *FormMachine) Machine() Machine {
	return m.machine
}

// Definition returns the chart structure for rendering.
func (m *FormMachine) Definition() MachineDefinition {
	return m.machine.Definition()
}

// CurrentState returns the active form state.
func (m *FormMachine) CurrentState() string {
	return m.machine.CurrentState()
}

// Snapshot captures the chart state and form context together.
func (m *FormMachine) Snapshot() Snapshot {
	return m.core.snapshot(m.machine.CurrentState())
}

// Stop halts the machine and interrupts any in-flight validation.
func (m *FormMachine) Stop() error {
	return m.machine.Stop()
}

// AddObserver registers an observer on the underlying machine.
func (m *FormMachine) AddObserver(observer Observer) {
	m.machine.AddObserver(observer)
}

// RemoveObserver drops a previously registered observer.
func (m *FormMachine) RemoveObserver(observer Observer) {
	m.machine.RemoveObserver(observer)
}

// HandleEvent dispatches a raw named event. The typed dispatchers below
// are the usual entry points.
func (m *FormMachine) HandleEvent(eventName string, data any) *EventResult {
	return m.machine.HandleEvent(eventName, data)
}

// MarshalJSON serializes the machine, including the form context.
func (m *FormMachine) MarshalJSON() ([]byte, error) {
	return m.machine.MarshalJSON()
}

// --- typed event dispatchers ---

// ChangeField records a user edit: the value is stored and the field is
// marked touched. When change validation applies, the machine moves to
// validatingField and the result carries the run's Invocation.
func (m *FormMachine) ChangeField(field string, value any) *EventResult {
	return m.machine.HandleEvent(EventChangeField, ChangeFieldPayload{Field: field, Value: value})
}

// BlurField marks the field touched and, when blur validation is enabled,
// starts a single-field validation run.
func (m *FormMachine) BlurField(field string) *EventResult {
	return m.machine.HandleEvent(EventBlurField, BlurFieldPayload{Field: field})
}

// SetFieldValue writes a value without marking the field touched and
// without triggering validation.
func (m *FormMachine) SetFieldValue(field string, value any) *EventResult {
	return m.machine.HandleEvent(EventSetFieldValue, SetFieldValuePayload{Field: field, Value: value})
}

// SetFieldError sets one field's error message directly. An empty message
// clears the entry.
func (m *FormMachine) SetFieldError(field, message string) *EventResult {
	return m.machine.HandleEvent(EventSetFieldError, SetFieldErrorPayload{Field: field, Message: message})
}

// SetErrors merges a batch of messages into the error map. Entries with
// empty messages clear their fields.
func (m *FormMachine) SetErrors(errs Errors) *EventResult {
	return m.machine.HandleEvent(EventSetErrors, errs)
}

// Submit starts a submission attempt: all fields are marked touched and a
// whole-form validation run decides between submitValid and idle.
func (m *FormMachine) Submit() *EventResult {
	return m.machine.HandleEvent(EventSubmit, nil)
}

// SubmitSuccess acknowledges a completed submission and returns to idle.
func (m *FormMachine) SubmitSuccess() *EventResult {
	return m.machine.HandleEvent(EventSubmitSuccess, nil)
}

// SubmitFailure reports a failed submission and returns to idle. The
// error travels as event data for observers.
func (m *FormMachine) SubmitFailure(err error) *EventResult {
	return m.machine.HandleEvent(EventSubmitFailure, err)
}

// Reset restores values, errors, touched flags and the submitting flag to
// their construction-time state.
func (m *FormMachine) Reset() *EventResult {
	return m.machine.HandleEvent(EventReset, nil)
}

// ResetField restores one field's initial value and clears its error and
// touched flag.
func (m *FormMachine) ResetField(field string) *EventResult {
	return m.machine.HandleEvent(EventResetField, ResetFieldPayload{Field: field})
}

// ValidateForm starts an explicit whole-form validation run.
func (m *FormMachine) ValidateForm() *EventResult {
	return m.machine.HandleEvent(EventValidateForm, nil)
}

// ValidateField starts a validation run scoped to one field. The event is
// rejected when field is empty.
func (m *FormMachine) ValidateField(field string) *EventResult {
	return m.machine.HandleEvent(EventValidateField, ValidateFieldPayload{Field: field})
}

// --- selectors ---

// Values returns a copy of the current field values.
func (m *FormMachine) Values() Values {
	return m.Snapshot().Values
}

// Errors returns a copy of the current error map.
func (m *FormMachine) Errors() Errors {
	return m.Snapshot().Errors
}

// FieldError returns one field's message and whether it is set.
func (m *FormMachine) FieldError(field string) (string, bool) {
	return m.Snapshot().FieldError(field)
}

// FieldTouched reports whether the field has been interacted with.
func (m *FormMachine) FieldTouched(field string) bool {
	return m.Snapshot().FieldTouched(field)
}

// IsSubmitting reports whether a submission attempt is in flight.
func (m *FormMachine) IsSubmitting() bool {
	return m.Snapshot().Submitting
}

// IsValid reports whether the error map is empty.
func (m *FormMachine) IsValid() bool {
	return m.Snapshot().Valid()
}

// IsDirty reports whether any value differs from its initial value.
func (m *FormMachine) IsDirty() bool {
	return m.Snapshot().Dirty()
}
