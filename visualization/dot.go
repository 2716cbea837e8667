// Package visualization renders machine definitions as Graphviz DOT and,
// when the dot binary is available, SVG.
package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/formo"
)

// DOTGenerator generates Graphviz DOT representations of machine
// definitions.
type DOTGenerator struct {
	machineDefinition formo.MachineDefinition
	options           DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowGuardConditions bool
	ShowActions         bool
	CompactMode         bool
	RankDirection       string // "TB", "LR", "BT", "RL"
	NodeShape           string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowGuardConditions: true,
		ShowActions:         true,
		CompactMode:         false,
		RankDirection:       "TB",
		NodeShape:           "box",
	}
}

// NewDOTGenerator creates a new DOT generator for the given machine definition
func NewDOTGenerator(machineDefinition formo.MachineDefinition, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		machineDefinition: machineDefinition,
		options:           opts,
	}
}

// Generate creates a DOT representation of the state machine
func (g *DOTGenerator) Generate() (string, error) {
	var dot strings.Builder

	dot.WriteString("digraph StateMachine {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString("  node [shape=box];\n")
	dot.WriteString("  edge [fontsize=10];\n\n")

	g.generateStates(&dot)
	g.generateTransitions(&dot)

	dot.WriteString("}\n")

	return dot.String(), nil
}

// generateStates generates DOT nodes for all states
func (g *DOTGenerator) generateStates(dot *strings.Builder) {
	states := g.machineDefinition.GetStates()
	initialState := g.machineDefinition.GetInitialState()

	dot.WriteString("  // States\n")

	for stateID, state := range states {
		g.generateStateNode(dot, stateID, state, stateID == initialState)
	}
}

// generateStateNode generates a DOT node for a single state. Initial
// states render green, final states as double circles, and states with an
// invoked task carry an annotation.
func (g *DOTGenerator) generateStateNode(dot *strings.Builder, stateID string, state formo.State, isInitial bool) {
	shape := g.options.NodeShape
	fillColor := "lightblue"
	label := stateID

	if isInitial {
		fillColor = "lightgreen"
		label += "\\n(initial)"
	}

	if state.IsFinal() {
		shape = "doublecircle"
		fillColor = "lightcoral"
	} else if state.Invoke() != nil {
		fillColor = "lightyellow"
		label += "\\n(invokes task)"
	}

	dot.WriteString(fmt.Sprintf("  \"%s\" [shape=%s style=\"filled\" fillcolor=%s label=\"%s\"];\n",
		stateID, shape, fillColor, label))
}

// generateTransitions generates DOT edges for all transitions. Completion
// transitions render dashed and labeled done or error; other edges carry
// the event name plus guard and action markers in statechart notation.
func (g *DOTGenerator) generateTransitions(dot *strings.Builder) {
	transitions := g.machineDefinition.GetTransitions()

	dot.WriteString("  // Transitions\n")

	for from, outgoing := range transitions {
		for _, transition := range outgoing {
			attrs := g.edgeAttributes(transition)
			dot.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\"%s;\n", from, transition.TargetState, attrs))
		}
	}
}

func (g *DOTGenerator) edgeAttributes(transition formo.Transition) string {
	if g.options.CompactMode {
		if transition.IsCompletion() {
			return " [style=dashed]"
		}
		return ""
	}

	label := transition.EventName
	style := ""
	if transition.IsCompletion() {
		style = " style=dashed"
		switch transition.EventName {
		case formo.DoneEventName(transition.SourceState):
			label = "done"
		case formo.ErrorEventName(transition.SourceState):
			label = "error"
		}
	}

	if g.options.ShowGuardConditions && transition.Guard != nil {
		label += " [guard]"
	}
	if g.options.ShowActions && transition.Action != nil {
		label += " / action"
	}

	return fmt.Sprintf(" [label=\"%s\"%s]", label, style)
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// SVGGenerator generates SVG representations by calling Graphviz
type SVGGenerator struct {
	dotGenerator *DOTGenerator
}

// NewSVGGenerator creates a new SVG generator
func NewSVGGenerator(machineDefinition formo.MachineDefinition, options ...DOTOptions) *SVGGenerator {
	return &SVGGenerator{
		dotGenerator: NewDOTGenerator(machineDefinition, options...),
	}
}

// Generate creates an SVG representation of the state machine
func (g *SVGGenerator) Generate() (string, error) {
	dotContent, err := g.dotGenerator.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}

// GenerateSVG creates an SVG representation of the state machine
// This is a convenience method on DOTGenerator for compatibility
func (g *DOTGenerator) GenerateSVG() (string, error) {
	svgGen := &SVGGenerator{dotGenerator: g}
	return svgGen.Generate()
}
