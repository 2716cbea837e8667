package formo

import (
	"encoding/json"
	"reflect"
	"sync"
)

// contextKeyForm is the machine-context key under which the form core is
// stored, so machine snapshots include the form state.
const contextKeyForm = "form"

// Snapshot is an immutable view of the form at one point in time. Maps are
// copies; mutating them does not affect the live form.
type Snapshot struct {
	State         string          `json:"state,omitempty"`
	Values        Values          `json:"values"`
	InitialValues Values          `json:"initialValues"`
	Errors        Errors          `json:"errors"`
	Touched       map[string]bool `json:"touched"`
	Submitting    bool            `json:"submitting"`
}

// FieldError returns the message for one field and whether it is set.
func (s Snapshot) FieldError(field string) (string, bool) {
	message, ok := s.Errors[field]
	return message, ok
}

// FieldTouched reports whether the user has interacted with the field.
func (s Snapshot) FieldTouched(field string) bool {
	return s.Touched[field]
}

// Valid reports whether the error map is empty.
func (s Snapshot) Valid() bool {
	return len(s.Errors) == 0
}

// Dirty reports whether any value differs from its initial value.
func (s Snapshot) Dirty() bool {
	return !reflect.DeepEqual(s.Values, s.InitialValues)
}

// formCore owns the form's mutable context. Guard and action methods run
// under the machine's dispatch lock; the core's own lock makes snapshots
// safe from any goroutine.
type formCore struct {
	mu               sync.RWMutex
	initialValues    Values
	values           Values
	errors           Errors
	touched          map[string]bool
	submitting       bool
	validator        Validator
	validateOnChange bool
	validateOnBlur   bool

	// pendingField is the target of the validation run currently being
	// prepared or awaited in validatingField.
	pendingField string
}

func newFormCore(initialValues Values, validator Validator, validateOnChange, validateOnBlur bool) *formCore {
	return &formCore{
		initialValues:    initialValues.Clone(),
		values:           initialValues.Clone(),
		errors:           Errors{},
		touched:          make(map[string]bool),
		validator:        validator,
		validateOnChange: validateOnChange,
		validateOnBlur:   validateOnBlur,
	}
}

func (c *formCore) snapshot(state string) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	touched := make(map[string]bool, len(c.touched))
	for field, ok := range c.touched {
		touched[field] = ok
	}
	return Snapshot{
		State:         state,
		Values:        c.values.Clone(),
		InitialValues: c.initialValues.Clone(),
		Errors:        c.errors.Clone(),
		Touched:       touched,
		Submitting:    c.submitting,
	}
}

// MarshalJSON renders the core as a snapshot so machine serialization
// carries the form state alongside the chart state.
func (c *formCore) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.snapshot(""))
}

// knownField reports whether the field exists in the fixed key set.
// Callers hold c.mu.
func (c *formCore) knownField(field string) bool {
	_, ok := c.values[field]
	return ok
}

// --- guards ---

// shouldValidateChange passes when change-triggered validation is enabled
// and the field was already touched before this event.
func (c *formCore) shouldValidateChange(ctx Context) bool {
	payload, ok := ctx.GetEventData().(ChangeFieldPayload)
	if !ok {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validateOnChange && c.touched[payload.Field]
}

func (c *formCore) shouldValidateBlur(ctx Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validateOnBlur
}

// hasTargetField passes when a VALIDATE_FIELD event names a field. An
// event without one is rejected rather than guessed at.
func (c *formCore) hasTargetField(ctx Context) bool {
	payload, ok := ctx.GetEventData().(ValidateFieldPayload)
	return ok && payload.Field != ""
}

// resultIsClean passes when a settled validation run produced no errors.
func (c *formCore) resultIsClean(ctx Context) bool {
	errs, ok := ctx.GetEventData().(Errors)
	return ok && len(errs) == 0
}

// --- transition actions ---

func (c *formCore) applyChange(ctx Context) error {
	payload, ok := ctx.GetEventData().(ChangeFieldPayload)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, EventChangeField, "payload must be a ChangeFieldPayload")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.knownField(payload.Field) {
		return NewUnknownFieldError(payload.Field)
	}
	c.values[payload.Field] = payload.Value
	c.touched[payload.Field] = true
	c.pendingField = payload.Field
	return nil
}

func (c *formCore) applyBlur(ctx Context) error {
	payload, ok := ctx.GetEventData().(BlurFieldPayload)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, EventBlurField, "payload must be a BlurFieldPayload")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.knownField(payload.Field) {
		return NewUnknownFieldError(payload.Field)
	}
	c.touched[payload.Field] = true
	c.pendingField = payload.Field
	return nil
}

func (c *formCore) applySetValue(ctx Context) error {
	payload, ok := ctx.GetEventData().(SetFieldValuePayload)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, EventSetFieldValue, "payload must be a SetFieldValuePayload")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.knownField(payload.Field) {
		return NewUnknownFieldError(payload.Field)
	}
	c.values[payload.Field] = payload.Value
	return nil
}

func (c *formCore) applySetFieldError(ctx Context) error {
	payload, ok := ctx.GetEventData().(SetFieldErrorPayload)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, EventSetFieldError, "payload must be a SetFieldErrorPayload")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if payload.Message == "" {
		delete(c.errors, payload.Field)
		return nil
	}
	c.errors[payload.Field] = payload.Message
	return nil
}

func (c *formCore) applyMergeErrors(ctx Context) error {
	errs, ok := ctx.GetEventData().(Errors)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, EventSetErrors, "payload must be an Errors map")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for field, message := range errs {
		if message == "" {
			delete(c.errors, field)
			continue
		}
		c.errors[field] = message
	}
	return nil
}

func (c *formCore) applyResetField(ctx Context) error {
	payload, ok := ctx.GetEventData().(ResetFieldPayload)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, EventResetField, "payload must be a ResetFieldPayload")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.knownField(payload.Field) {
		return NewUnknownFieldError(payload.Field)
	}
	c.values[payload.Field] = c.initialValues[payload.Field]
	delete(c.errors, payload.Field)
	delete(c.touched, payload.Field)
	return nil
}

func (c *formCore) applyReset(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = c.initialValues.Clone()
	c.errors = Errors{}
	c.touched = make(map[string]bool)
	c.submitting = false
	c.pendingField = ""
	return nil
}

// recordValidationTarget remembers which field a VALIDATE_FIELD run is for.
func (c *formCore) recordValidationTarget(ctx Context) error {
	payload, ok := ctx.GetEventData().(ValidateFieldPayload)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, EventValidateField, "payload must be a ValidateFieldPayload")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.knownField(payload.Field) {
		return NewUnknownFieldError(payload.Field)
	}
	c.pendingField = payload.Field
	return nil
}

// beginSubmit is the submitting state's entry action: every known field is
// marked touched so all errors become visible, and the submitting flag is
// raised for the duration of the attempt.
func (c *formCore) beginSubmit(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for field := range c.values {
		c.touched[field] = true
	}
	c.submitting = true
	return nil
}

// applyFormValidationResult replaces the error map wholesale with a
// settled validator result.
func (c *formCore) applyFormValidationResult(ctx Context) error {
	errs, ok := ctx.GetEventData().(Errors)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, ctx.GetEventName(), "payload must be an Errors map")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = errs.Clone()
	return nil
}

// applySubmitValidationFailure records the errors of a failed submission
// attempt and lowers the submitting flag.
func (c *formCore) applySubmitValidationFailure(ctx Context) error {
	errs, ok := ctx.GetEventData().(Errors)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, ctx.GetEventName(), "payload must be an Errors map")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = errs.Clone()
	c.submitting = false
	return nil
}

func (c *formCore) clearSubmitting(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	return nil
}

// applyFieldValidationResult sets or clears exactly one field's error from
// a settled single-field run. Other fields' errors are left alone.
func (c *formCore) applyFieldValidationResult(ctx Context) error {
	result, ok := ctx.GetEventData().(fieldValidationResult)
	if !ok {
		return NewMachineError(ErrCodeInvalidEvent, ctx.GetEventName(), "payload must be a field validation result")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if result.Failed {
		c.errors[result.Field] = result.Message
		return nil
	}
	delete(c.errors, result.Field)
	return nil
}

// --- invoked tasks ---

// runFormValidation executes the validator against a copy of the current
// values. A nil validator yields a clean result immediately.
func (c *formCore) runFormValidation(ctx Context) (any, error) {
	c.mu.RLock()
	validator := c.validator
	values := c.values.Clone()
	c.mu.RUnlock()

	if validator == nil {
		return Errors{}, nil
	}
	errs, err := validator(ctx, values)
	if err != nil {
		return nil, err
	}
	return errs.Clone(), nil
}

// runFieldValidation executes the whole-form validator and keeps only the
// entry for the recorded target field.
func (c *formCore) runFieldValidation(ctx Context) (any, error) {
	c.mu.RLock()
	field := c.pendingField
	validator := c.validator
	values := c.values.Clone()
	c.mu.RUnlock()

	if field == "" {
		return nil, NewMachineError(ErrCodeInvalidState, StateValidatingField, "no field recorded for validation")
	}
	if validator == nil {
		return fieldValidationResult{Field: field}, nil
	}
	errs, err := validator(ctx, values)
	if err != nil {
		return nil, err
	}
	message, failed := errs[field]
	return fieldValidationResult{Field: field, Message: message, Failed: failed}, nil
}
