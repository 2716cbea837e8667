package formdef

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/anggasct/formo"
	"github.com/anggasct/formo/validators"
)

// compileRule turns one spec into an executable rule.
func compileRule(field string, spec RuleSpec) (validators.Rule, error) {
	var opts []validators.Option
	if spec.Message != "" {
		opts = append(opts, validators.WithMessage(spec.Message))
	}

	switch spec.Kind {
	case "required":
		return validators.Required(opts...), nil
	case "email":
		return validators.Email(opts...), nil
	case "minLength":
		min, err := strconv.Atoi(spec.Params["min"])
		if err != nil {
			return nil, fmt.Errorf("formdef: field %q: minLength needs an integer min param: %w", field, err)
		}
		return validators.MinLength(min, opts...), nil
	case "maxLength":
		max, err := strconv.Atoi(spec.Params["max"])
		if err != nil {
			return nil, fmt.Errorf("formdef: field %q: maxLength needs an integer max param: %w", field, err)
		}
		return validators.MaxLength(max, opts...), nil
	case "pattern":
		re, err := regexp.Compile(spec.Params["pattern"])
		if err != nil {
			return nil, fmt.Errorf("formdef: field %q: invalid pattern: %w", field, err)
		}
		return validators.Pattern(re, opts...), nil
	case "cpf":
		return validators.CPF(opts...), nil
	case "phone":
		return validators.Phone(opts...), nil
	default:
		return nil, fmt.Errorf("formdef: field %q: unknown rule kind %q", field, spec.Kind)
	}
}

// Rules compiles the definition's rule table for use with
// validators.ForFields.
func (d *Definition) Rules() (map[string][]validators.Rule, error) {
	table := make(map[string][]validators.Rule)
	for _, field := range d.Fields {
		for _, spec := range field.Rules {
			rule, err := compileRule(field.Name, spec)
			if err != nil {
				return nil, err
			}
			table[field.Name] = append(table[field.Name], rule)
		}
	}
	return table, nil
}

// InitialValues returns the definition's starting values. Fields without
// an initial value start as empty strings.
func (d *Definition) InitialValues() formo.Values {
	values := make(formo.Values, len(d.Fields))
	for _, field := range d.Fields {
		if field.Initial == nil {
			values[field.Name] = ""
			continue
		}
		values[field.Name] = field.Initial
	}
	return values
}

// Build compiles the definition into a started form. The definition's
// rules become the form's validator and its toggles the validation flags;
// extra options are applied after them, so callers can override either and
// attach submit handlers and observers.
func (d *Definition) Build(opts ...formo.Option) (*formo.Form, error) {
	table, err := d.Rules()
	if err != nil {
		return nil, err
	}
	allOpts := make([]formo.Option, 0, len(opts)+3)
	if len(table) > 0 {
		allOpts = append(allOpts, formo.WithValidator(validators.ForFields(table)))
	}
	if d.ValidateOnChange != nil {
		allOpts = append(allOpts, formo.WithValidateOnChange(*d.ValidateOnChange))
	}
	if d.ValidateOnBlur != nil {
		allOpts = append(allOpts, formo.WithValidateOnBlur(*d.ValidateOnBlur))
	}
	allOpts = append(allOpts, opts...)
	return formo.New(d.InitialValues(), allOpts...)
}
