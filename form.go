package formo

import (
	"context"
	"fmt"
	"log/slog"
)

// config collects the construction options shared by Form and FormMachine.
type config struct {
	validator        Validator
	validateOnChange bool
	validateOnBlur   bool
	onSubmit         SubmitHandler
	logger           *slog.Logger
	observers        []Observer
}

func defaultConfig() *config {
	return &config{
		validateOnChange: true,
		validateOnBlur:   true,
		logger:           slog.Default(),
	}
}

// Option configures a Form or FormMachine at construction time.
type Option func(*config)

// WithValidator sets the whole-form validator used by every validation
// run, including single-field runs.
func WithValidator(validator Validator) Option {
	return func(cfg *config) {
		cfg.validator = validator
	}
}

// WithValidateOnChange toggles validation after edits to already-touched
// fields. Enabled by default.
func WithValidateOnChange(enabled bool) Option {
	return func(cfg *config) {
		cfg.validateOnChange = enabled
	}
}

// WithValidateOnBlur toggles validation when a field loses focus. Enabled
// by default.
func WithValidateOnBlur(enabled bool) Option {
	return func(cfg *config) {
		cfg.validateOnBlur = enabled
	}
}

// WithSubmitHandler sets the callback that receives validated values on
// submission. Without one, submissions succeed as soon as validation
// passes.
func WithSubmitHandler(handler SubmitHandler) Option {
	return func(cfg *config) {
		cfg.onSubmit = handler
	}
}

// WithLogger sets the logger used for submission failures. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithObserver registers an observer before the machine starts, so it
// sees the initial state entry.
func WithObserver(observer Observer) Option {
	return func(cfg *config) {
		cfg.observers = append(cfg.observers, observer)
	}
}

// Form binds a form machine to handler-shaped methods. Event dispatchers
// return plain errors, and asynchronous validation is resolved through
// Invocation futures so results can be awaited with a context.
type Form struct {
	machine  *FormMachine
	onSubmit SubmitHandler
	logger   *slog.Logger
}

// New builds and starts a form over the given initial values. The key set
// of initialValues fixes the form's fields for its whole lifetime.
func New(initialValues Values, opts ...Option) (*Form, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	machine, err := newFormMachine(initialValues, cfg)
	if err != nil {
		return nil, err
	}
	return &Form{
		machine:  machine,
		onSubmit: cfg.onSubmit,
		logger:   cfg.logger,
	}, nil
}

// Machine exposes the underlying form machine for direct event dispatch,
// observation and serialization.
func (f *Form) Machine() *FormMachine {
	return f.machine
}

// Close stops the machine and interrupts any in-flight validation.
func (f *Form) Close() error {
	return f.machine.Stop()
}

// dispatchErr reduces an event result to an error: action failures pass
// through, rejections become a MachineError, success is nil.
func dispatchErr(result *EventResult) error {
	if result.Error != nil {
		return result.Error
	}
	if !result.Processed {
		reason := result.RejectionReason
		if reason == "" {
			reason = "event rejected"
		}
		return NewMachineError(ErrCodeTransitionNotAllowed, result.CurrentState, reason)
	}
	return nil
}

// awaitInvocation blocks until a validation run started by result settles.
// Results without a run resolve immediately.
func awaitInvocation(ctx context.Context, result *EventResult) error {
	if result.Invocation == nil {
		return nil
	}
	_, err := result.Invocation.Wait(ctx)
	return err
}

// --- event handlers ---

// HandleChange records a user edit. When change validation applies the
// returned error only covers dispatch; the validation run settles in the
// background.
func (f *Form) HandleChange(field string, value any) error {
	return dispatchErr(f.machine.ChangeField(field, value))
}

// HandleBlur marks the field touched and may start a blur validation run
// in the background.
func (f *Form) HandleBlur(field string) error {
	return dispatchErr(f.machine.BlurField(field))
}

// SetFieldValue writes a value without marking the field touched.
func (f *Form) SetFieldValue(field string, value any) error {
	return dispatchErr(f.machine.SetFieldValue(field, value))
}

// SetFieldError sets one field's error message. An empty message clears
// the entry.
func (f *Form) SetFieldError(field, message string) error {
	return dispatchErr(f.machine.SetFieldError(field, message))
}

// SetErrors merges a batch of messages into the error map.
func (f *Form) SetErrors(errs Errors) error {
	return dispatchErr(f.machine.SetErrors(errs))
}

// Reset restores the form to its construction-time state.
func (f *Form) Reset() error {
	return dispatchErr(f.machine.Reset())
}

// ResetField restores one field to its initial value.
func (f *Form) ResetField(field string) error {
	return dispatchErr(f.machine.ResetField(field))
}

// Validate runs whole-form validation and blocks until it settles,
// returning the resulting error map. A validator failure or an
// interrupted run leaves the form state untouched and returns the error.
func (f *Form) Validate(ctx context.Context) (Errors, error) {
	result := f.machine.ValidateForm()
	if err := dispatchErr(result); err != nil {
		return nil, err
	}
	if err := awaitInvocation(ctx, result); err != nil {
		return nil, err
	}
	return f.machine.Errors(), nil
}

// ValidateField runs validation scoped to one field and blocks until it
// settles. The returned message is empty when the field is valid.
func (f *Form) ValidateField(ctx context.Context, field string) (string, error) {
	result := f.machine.ValidateField(field)
	if err := dispatchErr(result); err != nil {
		return "", err
	}
	if err := awaitInvocation(ctx, result); err != nil {
		return "", err
	}
	message, _ := f.machine.FieldError(field)
	return message, nil
}

// Submit runs the full submission protocol: every field is marked
// touched, whole-form validation settles, and only a clean result reaches
// the submit handler. Validation failures are not errors; they are
// reported through Errors(). A handler failure (return or panic) is
// logged, acknowledged as SUBMIT_FAILURE and also not returned.
func (f *Form) Submit(ctx context.Context) error {
	result := f.machine.Submit()
	if err := dispatchErr(result); err != nil {
		return err
	}
	if err := awaitInvocation(ctx, result); err != nil {
		return err
	}
	if f.machine.CurrentState() != StateSubmitValid {
		return nil
	}
	if err := f.runSubmitHandler(ctx); err != nil {
		f.logger.Error("form submission failed", "error", err)
		f.machine.SubmitFailure(err)
		return nil
	}
	f.machine.SubmitSuccess()
	return nil
}

func (f *Form) runSubmitHandler(ctx context.Context) (err error) {
	if f.onSubmit == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submit handler panic: %v", r)
		}
	}()
	return f.onSubmit(ctx, f.machine.Values())
}

// --- selectors ---

// Snapshot captures the chart state and form context together.
func (f *Form) Snapshot() Snapshot {
	return f.machine.Snapshot()
}

// CurrentState returns the active form state.
func (f *Form) CurrentState() string {
	return f.machine.CurrentState()
}

// Values returns a copy of the current field values.
func (f *Form) Values() Values {
	return f.machine.Values()
}

// Errors returns a copy of the current error map.
func (f *Form) Errors() Errors {
	return f.machine.Errors()
}

// FieldError returns one field's message and whether it is set.
func (f *Form) FieldError(field string) (string, bool) {
	return f.machine.FieldError(field)
}

// FieldTouched reports whether the field has been interacted with.
func (f *Form) FieldTouched(field string) bool {
	return f.machine.FieldTouched(field)
}

// IsSubmitting reports whether a submission attempt is in flight.
func (f *Form) IsSubmitting() bool {
	return f.machine.IsSubmitting()
}

// IsValid reports whether the error map is empty.
func (f *Form) IsValid() bool {
	return f.machine.IsValid()
}

// IsDirty reports whether any value differs from its initial value.
func (f *Form) IsDirty() bool {
	return f.machine.IsDirty()
}
