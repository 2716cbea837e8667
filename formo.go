// Package formo provides form-state management built on a small statechart
// runtime. A form is modeled as a state machine whose context carries the
// field values, validation errors and touched flags; consumers dispatch
// events (change, blur, submit) and read immutable snapshots back.
//
// The package has three layers:
//
//   - a generic statechart runtime (Machine, MachineBuilder, Observer) with
//     guarded transitions, entry/exit actions and invoked async tasks
//   - two prebuilt charts, FormMachine for whole-form state and FieldMachine
//     for a single input's interaction state
//   - a binding layer (Form) that exposes handler-shaped methods and
//     resolves asynchronous validation through Invocation futures
package formo

import (
	"context"
	"maps"
)

// Values holds the form's field values keyed by field name. The key set is
// fixed at construction from the initial values; operations that reference
// a field outside that set fail with an UnknownFieldError.
type Values map[string]any

// Clone returns an independent copy. A nil receiver yields an empty map.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Errors holds validation messages keyed by field name. The map is sparse:
// a field with no entry has no error, and an empty map means the form is
// valid.
type Errors map[string]string

// Clone returns an independent copy. A nil receiver yields an empty map.
func (e Errors) Clone() Errors {
	if e == nil {
		return Errors{}
	}
	return maps.Clone(e)
}

// Validator inspects a full set of values and reports per-field messages.
// An empty (or nil) Errors result means the values are valid. A non-nil
// error marks the validation run itself as failed; the form state is left
// untouched in that case.
type Validator func(ctx context.Context, values Values) (Errors, error)

// SubmitHandler receives the validated values once submission-time
// validation has passed.
type SubmitHandler func(ctx context.Context, values Values) error
