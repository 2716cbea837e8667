// Package formdef loads declarative form definitions from JSON or YAML
// and builds live forms from them. A definition names the fields, their
// initial values and their validation rules; labels are sanitized so
// definitions from untrusted sources cannot smuggle markup into a UI.
package formdef

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"
)

// Definition describes one form. The validation toggles are optional;
// when absent the form keeps its defaults (both enabled).
type Definition struct {
	Name             string  `json:"name,omitempty" yaml:"name,omitempty"`
	Fields           []Field `json:"fields" yaml:"fields"`
	ValidateOnChange *bool   `json:"validateOnChange,omitempty" yaml:"validateOnChange,omitempty"`
	ValidateOnBlur   *bool   `json:"validateOnBlur,omitempty" yaml:"validateOnBlur,omitempty"`
}

// Field describes one form field.
type Field struct {
	Name    string     `json:"name" yaml:"name"`
	Label   string     `json:"label,omitempty" yaml:"label,omitempty"`
	Type    string     `json:"type,omitempty" yaml:"type,omitempty"`
	Initial any        `json:"initial,omitempty" yaml:"initial,omitempty"`
	Rules   []RuleSpec `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// RuleSpec names a validation rule and its parameters. Kind must be one of
// required, email, minLength, maxLength, pattern, cpf or phone.
type RuleSpec struct {
	Kind    string            `json:"kind" yaml:"kind"`
	Message string            `json:"message,omitempty" yaml:"message,omitempty"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// labelPolicy strips all markup from labels.
var labelPolicy = bluemonday.StrictPolicy()

// Parse decodes a definition from JSON or YAML and normalizes it.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		def = Definition{}
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("formdef: parse: %w", err)
		}
	}
	if err := def.normalize(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formdef: read %s: %w", path, err)
	}
	return Parse(data)
}

// normalize trims names, rejects duplicates, defaults labels and types and
// sanitizes labels.
func (d *Definition) normalize() error {
	if len(d.Fields) == 0 {
		return fmt.Errorf("formdef: definition %q has no fields", d.Name)
	}
	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		field := &d.Fields[i]
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return fmt.Errorf("formdef: field %d has no name", i)
		}
		if seen[field.Name] {
			return fmt.Errorf("formdef: duplicate field %q", field.Name)
		}
		seen[field.Name] = true

		if field.Label == "" {
			field.Label = field.Name
		}
		field.Label = strings.TrimSpace(labelPolicy.Sanitize(field.Label))
		if field.Type == "" {
			field.Type = "text"
		}
	}
	return nil
}

// FieldNames returns the field names in declaration order.
func (d *Definition) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, field := range d.Fields {
		names[i] = field.Name
	}
	return names
}
