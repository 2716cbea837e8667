package formo_test

import (
	"context"
	"testing"

	"github.com/anggasct/formo"
	"github.com/anggasct/formo/pkg/observers"
	"github.com/anggasct/formo/validators"
)

func TestIntegration_SignupFormLifecycle(t *testing.T) {
	var submitted formo.Values

	metrics := observers.NewMetricsObserver()

	form, err := formo.New(
		formo.Values{"name": "", "email": "", "cpf": "", "phone": ""},
		formo.WithValidator(validators.ForFields(map[string][]validators.Rule{
			"name":  {validators.Required(), validators.MinLength(3)},
			"email": {validators.Required(), validators.Email()},
			"cpf":   {validators.CPF()},
			"phone": {validators.Phone()},
		})),
		formo.WithSubmitHandler(func(ctx context.Context, values formo.Values) error {
			submitted = values
			return nil
		}),
		formo.WithObserver(metrics),
	)
	if err != nil {
		t.Fatalf("Failed to create form: %v", err)
	}
	defer form.Close()

	ctx := context.Background()
	machine := form.Machine()

	// First pass over the fields; first edits do not validate
	if err := form.HandleChange("name", "An"); err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	if err := form.HandleChange("email", "ana"); err != nil {
		t.Fatalf("Change failed: %v", err)
	}

	// Leaving the email field validates it
	formo.AwaitSettlement(t, machine.BlurField("email"))
	if message, _ := form.FieldError("email"); message != "E-mail inválido" {
		t.Errorf("Expected invalid email message, got '%s'", message)
	}

	// Submitting with bad values touches everything and reports all errors
	if err := form.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if submitted != nil {
		t.Fatal("Expected the handler not to run on invalid values")
	}
	errs := form.Errors()
	if errs["name"] != "Mínimo de 3 caracteres" {
		t.Errorf("Expected name length error, got '%s'", errs["name"])
	}
	if errs["email"] != "E-mail inválido" {
		t.Errorf("Expected email error, got '%s'", errs["email"])
	}
	if !form.FieldTouched("cpf") || !form.FieldTouched("phone") {
		t.Error("Expected submission to touch untouched fields")
	}
	// Blank optional fields pass their format rules
	if _, ok := form.FieldError("cpf"); ok {
		t.Error("Expected blank cpf to pass")
	}

	// Fixing a touched field revalidates it on change
	formo.AwaitSettlement(t, machine.ChangeField("email", "ana@example.com"))
	if _, ok := form.FieldError("email"); ok {
		t.Error("Expected fixed email to pass revalidation")
	}

	// Complete the form; every field is touched now, so each edit settles
	// a single-field run
	formo.AwaitSettlement(t, machine.ChangeField("name", "Ana Souza"))
	formo.AwaitSettlement(t, machine.ChangeField("cpf", "390.533.447-05"))
	formo.AwaitSettlement(t, machine.ChangeField("phone", "(11) 98765-4321"))

	if err := form.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if submitted == nil {
		t.Fatal("Expected the handler to receive the validated values")
	}
	if submitted["name"] != "Ana Souza" {
		t.Errorf("Expected submitted name, got '%v'", submitted["name"])
	}
	if form.CurrentState() != formo.StateIdle {
		t.Errorf("Expected idle after acknowledged success, got '%s'", form.CurrentState())
	}
	if !form.IsValid() {
		t.Errorf("Expected clean form after success, got %v", form.Errors())
	}

	// The metrics observer saw the whole session
	visits := metrics.GetStateVisitCounts()
	if visits[formo.StateSubmitting] != 2 {
		t.Errorf("Expected 2 visits to submitting, got %d", visits[formo.StateSubmitting])
	}
	if visits[formo.StateSubmitValid] != 1 {
		t.Errorf("Expected 1 visit to submitValid, got %d", visits[formo.StateSubmitValid])
	}
	started, failed := metrics.GetInvocationCounts()
	if started == 0 {
		t.Error("Expected validation runs to be counted")
	}
	if failed != 0 {
		t.Errorf("Expected no failed runs, got %d", failed)
	}
}

func TestIntegration_ServerSideErrors(t *testing.T) {
	form, err := formo.New(formo.Values{"username": "", "email": ""})
	if err != nil {
		t.Fatalf("Failed to create form: %v", err)
	}
	defer form.Close()

	form.HandleChange("username", "ana")
	form.HandleChange("email", "ana@example.com")

	// An API rejection lands as a batch of field errors
	if err := form.SetErrors(formo.Errors{
		"username": "nome já em uso",
		"email":    "",
	}); err != nil {
		t.Fatalf("SetErrors failed: %v", err)
	}

	if message, _ := form.FieldError("username"); message != "nome já em uso" {
		t.Errorf("Expected server error, got '%s'", message)
	}
	if form.IsValid() {
		t.Error("Expected form with a server error to be invalid")
	}

	// Editing the rejected field revalidates it; without a validator the
	// run settles clean and clears the server error
	formo.AwaitSettlement(t, form.Machine().ChangeField("username", "ana_souza"))
	if message, ok := form.FieldError("username"); ok {
		t.Errorf("Expected revalidation to clear the server error, got '%s'", message)
	}
	if !form.IsValid() {
		t.Error("Expected form to be valid again")
	}
}

func TestIntegration_ConformanceObserver(t *testing.T) {
	conformance := observers.NewConformanceObserver()
	for _, state := range []string{
		formo.StateIdle,
		formo.StateSubmitting,
		formo.StateSubmitValid,
	} {
		conformance.ExpectState(state)
	}
	conformance.AllowTransition(formo.StateIdle, formo.StateSubmitting)
	conformance.AllowTransition(formo.StateSubmitting, formo.StateSubmitValid)
	conformance.AllowTransition(formo.StateSubmitValid, formo.StateIdle)

	form, err := formo.New(formo.Values{"name": "ana"},
		formo.WithObserver(conformance))
	if err != nil {
		t.Fatalf("Failed to create form: %v", err)
	}
	defer form.Close()

	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if conformance.HasViolations() {
		t.Errorf("Expected no violations, got %v", conformance.GetViolations())
	}
	if unvisited := conformance.GetUnvisitedStates(); len(unvisited) != 0 {
		t.Errorf("Expected all expected states visited, missing %v", unvisited)
	}
}

func TestIntegration_FieldMachineSession(t *testing.T) {
	field, err := formo.NewFieldMachine("")
	if err != nil {
		t.Fatalf("Failed to create field machine: %v", err)
	}
	defer field.Machine().Stop()

	// A typical editing session for one input
	field.Focus()
	field.Change("a")
	field.Change("an")
	field.Change("ana@example")
	field.Blur()
	field.Validate()
	field.SetError(formo.NewFieldError(formo.FieldErrorValidation, "E-mail inválido"))

	if field.CurrentState() != formo.FieldStateInvalid {
		t.Fatalf("Expected invalid, got '%s'", field.CurrentState())
	}

	// The user comes back and fixes it
	field.Change("ana@example.com")
	field.Blur()
	field.Validate()
	field.ClearError()

	snapshot := field.Snapshot()
	if snapshot.State != formo.FieldStateValid {
		t.Fatalf("Expected valid, got '%s'", snapshot.State)
	}
	if snapshot.Value != "ana@example.com" {
		t.Errorf("Unexpected value '%s'", snapshot.Value)
	}
	if !snapshot.Touched || !snapshot.Dirty {
		t.Error("Expected touched and dirty flags after the session")
	}
	if snapshot.Error != nil {
		t.Error("Expected no standing error")
	}
}
