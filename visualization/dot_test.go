package visualization_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anggasct/formo"
	"github.com/anggasct/formo/visualization"
)

func TestDOTGeneration(t *testing.T) {
	machineDefinition := formo.NewMachine().
		State("idle").Initial().
		To("running").On("start").
		State("running").
		To("stopped").On("stop").
		State("stopped").
		To("idle").On("reset").
		Build()

	generator := visualization.NewDOTGenerator(machineDefinition)

	dotContent, err := generator.Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	if !strings.Contains(dotContent, "digraph StateMachine") {
		t.Error("DOT content should contain graph declaration")
	}

	if !strings.Contains(dotContent, "\"idle\"") {
		t.Error("DOT content should contain idle state")
	}

	if !strings.Contains(dotContent, "\"running\"") {
		t.Error("DOT content should contain running state")
	}

	if !strings.Contains(dotContent, "\"idle\" -> \"running\"") {
		t.Error("DOT content should contain transition from idle to running")
	}

	if !strings.Contains(dotContent, "lightgreen") {
		t.Error("DOT content should highlight initial state")
	}

	if !strings.Contains(dotContent, "label=\"start\"") {
		t.Error("DOT content should label edges with event names")
	}

	t.Logf("Generated DOT content:\n%s", dotContent)
}

func TestDOTGenerationWithInvokedTask(t *testing.T) {
	machineDefinition := formo.NewMachine().
		State("loading").Initial().
		Invoke(func(ctx formo.Context) (any, error) { return nil, nil }).
		To("ready").OnDone().
		To("failed").OnError().
		State("ready").Final().
		State("failed").
		Build()

	generator := visualization.NewDOTGenerator(machineDefinition)

	dotContent, err := generator.Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	if !strings.Contains(dotContent, "(invokes task)") {
		t.Error("DOT content should annotate invoking states")
	}

	if !strings.Contains(dotContent, "style=dashed") {
		t.Error("DOT content should render completion transitions dashed")
	}

	if !strings.Contains(dotContent, "label=\"done\"") {
		t.Error("DOT content should label success completion edges")
	}

	if !strings.Contains(dotContent, "label=\"error\"") {
		t.Error("DOT content should label failure completion edges")
	}

	if !strings.Contains(dotContent, "doublecircle") {
		t.Error("DOT content should render final states as double circles")
	}
}

func TestDOTGenerationWithGuardsAndActions(t *testing.T) {
	machineDefinition := formo.NewMachine().
		State("a").Initial().
		To("b").On("go").
		When(func(ctx formo.Context) bool { return true }).
		Do(func(ctx formo.Context) error { return nil }).
		State("b").
		Build()

	generator := visualization.NewDOTGenerator(machineDefinition)

	dotContent, err := generator.Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	if !strings.Contains(dotContent, "[guard]") {
		t.Error("DOT content should mark guarded transitions")
	}

	if !strings.Contains(dotContent, "/ action") {
		t.Error("DOT content should mark transitions with actions")
	}
}

func TestDOTGenerationCompactMode(t *testing.T) {
	machineDefinition := formo.NewMachine().
		State("a").Initial().
		To("b").On("go").
		State("b").
		Build()

	options := visualization.DefaultDOTOptions()
	options.CompactMode = true
	generator := visualization.NewDOTGenerator(machineDefinition, options)

	dotContent, err := generator.Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	if strings.Contains(dotContent, "label=\"go\"") {
		t.Error("Compact mode should omit edge labels")
	}
}

func TestFormMachineDOT(t *testing.T) {
	form, err := formo.NewFormMachine(formo.Values{"name": ""})
	if err != nil {
		t.Fatalf("Failed to build form machine: %v", err)
	}
	defer form.Stop()

	generator := visualization.NewDOTGenerator(form.Definition())

	dotContent, err := generator.Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	for _, state := range []string{"idle", "validatingForm", "validatingField", "submitting", "submitValid"} {
		if !strings.Contains(dotContent, "\""+state+"\"") {
			t.Errorf("DOT content should contain state %s", state)
		}
	}

	if !strings.Contains(dotContent, "\"submitting\" -> \"submitValid\"") {
		t.Error("DOT content should contain the submission success path")
	}
}

func TestGenerateToFile(t *testing.T) {
	machineDefinition := formo.NewMachine().
		State("a").Initial().
		To("b").On("go").
		State("b").
		Build()

	path := filepath.Join(t.TempDir(), "machine.dot")
	generator := visualization.NewDOTGenerator(machineDefinition)

	if err := generator.GenerateToFile(path); err != nil {
		t.Fatalf("Failed to write DOT file: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read DOT file: %v", err)
	}

	if !strings.Contains(string(content), "digraph StateMachine") {
		t.Error("Written file should contain graph declaration")
	}
}
