package formo

// Form machine states.
const (
	StateIdle            = "idle"
	StateValidatingForm  = "validatingForm"
	StateValidatingField = "validatingField"
	StateSubmitting      = "submitting"
	StateSubmitValid     = "submitValid"
)

// Form machine events. The FormMachine dispatchers wrap these with typed
// payloads; HandleEvent accepts them raw for callers that route events by
// name.
const (
	EventChangeField   = "CHANGE_FIELD"
	EventBlurField     = "BLUR_FIELD"
	EventSetFieldValue = "SET_FIELD_VALUE"
	EventSetFieldError = "SET_FIELD_ERROR"
	EventSetErrors     = "SET_ERRORS"
	EventSubmit        = "SUBMIT"
	EventSubmitSuccess = "SUBMIT_SUCCESS"
	EventSubmitFailure = "SUBMIT_FAILURE"
	EventReset         = "RESET"
	EventResetField    = "RESET_FIELD"
	EventValidateForm  = "VALIDATE_FORM"
	EventValidateField = "VALIDATE_FIELD"
)

// ChangeFieldPayload carries a user edit to one field.
type ChangeFieldPayload struct {
	Field string
	Value any
}

// BlurFieldPayload reports that a field lost focus.
type BlurFieldPayload struct {
	Field string
}

// SetFieldValuePayload writes a field value without touching the field.
type SetFieldValuePayload struct {
	Field string
	Value any
}

// SetFieldErrorPayload sets or clears one field's error message. An empty
// message removes the entry so the error map stays sparse.
type SetFieldErrorPayload struct {
	Field   string
	Message string
}

// ResetFieldPayload restores one field to its initial value.
type ResetFieldPayload struct {
	Field string
}

// ValidateFieldPayload requests validation of a single field.
type ValidateFieldPayload struct {
	Field string
}

// fieldValidationResult is the settlement payload of a single-field
// validation run: the whole-form validator output filtered down to the
// requested field.
type fieldValidationResult struct {
	Field   string
	Message string
	Failed  bool
}
