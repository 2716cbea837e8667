// Package validators provides composable field rules and an adapter that
// turns a per-field rule table into a whole-form validator.
//
// Every rule except Required skips blank values, so optional fields only
// fail the rules they opt into. Default messages are in Portuguese and can
// be replaced per rule with WithMessage.
package validators

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/anggasct/formo"
)

// Rule checks a single value and returns a message, or "" when the value
// passes.
type Rule func(value any) string

type options struct {
	message string
}

// Option customizes a rule at construction time.
type Option func(*options)

// WithMessage replaces the rule's default message.
func WithMessage(message string) Option {
	return func(o *options) {
		o.message = message
	}
}

func buildOptions(defaultMessage string, opts []Option) options {
	o := options{message: defaultMessage}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stringValue coerces a value for the string-shaped rules. Non-string,
// non-Stringer values report ok=false and fail those rules outright.
func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// blank reports whether a value counts as "not provided": nil, a
// whitespace-only string, or a zero-length slice, map or array.
func blank(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

// Required fails on missing values: nil, blank strings, empty collections
// and zero numbers or booleans.
func Required(opts ...Option) Rule {
	o := buildOptions("Campo obrigatório", opts)
	return func(value any) string {
		if blank(value) {
			return o.message
		}
		if rv := reflect.ValueOf(value); rv.IsZero() {
			return o.message
		}
		return ""
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email checks the value against a permissive address shape. Blank values
// pass.
func Email(opts ...Option) Rule {
	o := buildOptions("E-mail inválido", opts)
	return func(value any) string {
		if blank(value) {
			return ""
		}
		s, ok := stringValue(value)
		if !ok || !emailPattern.MatchString(s) {
			return o.message
		}
		return ""
	}
}

// MinLength fails when the value has fewer than min characters. Length is
// counted in runes. Blank values pass.
func MinLength(min int, opts ...Option) Rule {
	o := buildOptions(fmt.Sprintf("Mínimo de %d caracteres", min), opts)
	return func(value any) string {
		if blank(value) {
			return ""
		}
		s, ok := stringValue(value)
		if !ok || utf8.RuneCountInString(s) < min {
			return o.message
		}
		return ""
	}
}

// MaxLength fails when the value has more than max characters. Length is
// counted in runes. Blank values pass.
func MaxLength(max int, opts ...Option) Rule {
	o := buildOptions(fmt.Sprintf("Máximo de %d caracteres", max), opts)
	return func(value any) string {
		if blank(value) {
			return ""
		}
		s, ok := stringValue(value)
		if !ok || utf8.RuneCountInString(s) > max {
			return o.message
		}
		return ""
	}
}

// Pattern fails when the value does not match the expression. Blank
// values pass.
func Pattern(re *regexp.Regexp, opts ...Option) Rule {
	o := buildOptions("Formato inválido", opts)
	return func(value any) string {
		if blank(value) {
			return ""
		}
		s, ok := stringValue(value)
		if !ok || !re.MatchString(s) {
			return o.message
		}
		return ""
	}
}

// digits strips everything but decimal digits.
func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CPF checks that the value carries exactly 11 digits once punctuation is
// stripped. Check digits are not verified. Blank values pass.
func CPF(opts ...Option) Rule {
	o := buildOptions("CPF inválido", opts)
	return func(value any) string {
		if blank(value) {
			return ""
		}
		s, ok := stringValue(value)
		if !ok || len(digits(s)) != 11 {
			return o.message
		}
		return ""
	}
}

// Phone checks that the value carries 10 or 11 digits once punctuation is
// stripped, covering Brazilian landline and mobile numbers. Blank values
// pass.
func Phone(opts ...Option) Rule {
	o := buildOptions("Telefone inválido", opts)
	return func(value any) string {
		if blank(value) {
			return ""
		}
		s, ok := stringValue(value)
		if !ok {
			return o.message
		}
		if n := len(digits(s)); n != 10 && n != 11 {
			return o.message
		}
		return ""
	}
}

// Chain combines rules into one; the first failure wins.
func Chain(rules ...Rule) Rule {
	return func(value any) string {
		for _, rule := range rules {
			if message := rule(value); message != "" {
				return message
			}
		}
		return ""
	}
}

// ForFields adapts a per-field rule table into a whole-form validator.
// Each field reports at most one message: the first failing rule's. Fields
// without rules are never reported.
func ForFields(rules map[string][]Rule) formo.Validator {
	compiled := make(map[string]Rule, len(rules))
	for field, fieldRules := range rules {
		compiled[field] = Chain(fieldRules...)
	}
	return func(ctx context.Context, values formo.Values) (formo.Errors, error) {
		errs := formo.Errors{}
		for field, rule := range compiled {
			if message := rule(values[field]); message != "" {
				errs[field] = message
			}
		}
		return errs, nil
	}
}
