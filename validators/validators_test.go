package validators_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/anggasct/formo"
	"github.com/anggasct/formo/validators"
	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	rule := validators.Required()

	t.Run("Fails on missing values", func(t *testing.T) {
		assert.Equal(t, "Campo obrigatório", rule(nil))
		assert.Equal(t, "Campo obrigatório", rule(""))
		assert.Equal(t, "Campo obrigatório", rule("   "))
		assert.Equal(t, "Campo obrigatório", rule([]string{}))
		assert.Equal(t, "Campo obrigatório", rule(map[string]int{}))
	})

	t.Run("Fails on zero numbers and booleans", func(t *testing.T) {
		assert.Equal(t, "Campo obrigatório", rule(0))
		assert.Equal(t, "Campo obrigatório", rule(0.0))
		assert.Equal(t, "Campo obrigatório", rule(false))
	})

	t.Run("Passes on present values", func(t *testing.T) {
		assert.Empty(t, rule("Ana"))
		assert.Empty(t, rule(42))
		assert.Empty(t, rule(true))
		assert.Empty(t, rule([]string{"a"}))
	})

	t.Run("Custom message", func(t *testing.T) {
		custom := validators.Required(validators.WithMessage("Informe o nome"))
		assert.Equal(t, "Informe o nome", custom(""))
	})
}

func TestEmail(t *testing.T) {
	rule := validators.Email()

	t.Run("Passes valid addresses and blanks", func(t *testing.T) {
		assert.Empty(t, rule("ana@example.com"))
		assert.Empty(t, rule("a.b+c@sub.domain.org"))
		assert.Empty(t, rule(""))
		assert.Empty(t, rule(nil))
	})

	t.Run("Fails malformed addresses", func(t *testing.T) {
		assert.Equal(t, "E-mail inválido", rule("ana"))
		assert.Equal(t, "E-mail inválido", rule("ana@"))
		assert.Equal(t, "E-mail inválido", rule("ana@example"))
		assert.Equal(t, "E-mail inválido", rule("ana example@mail.com"))
	})

	t.Run("Fails non-string values", func(t *testing.T) {
		assert.Equal(t, "E-mail inválido", rule(123))
	})
}

func TestLengthRules(t *testing.T) {
	t.Run("MinLength counts runes", func(t *testing.T) {
		rule := validators.MinLength(3)
		assert.Equal(t, "Mínimo de 3 caracteres", rule("ab"))
		assert.Empty(t, rule("abc"))
		assert.Empty(t, rule("ção"))
		assert.Empty(t, rule(""))
	})

	t.Run("MaxLength counts runes", func(t *testing.T) {
		rule := validators.MaxLength(5)
		assert.Empty(t, rule("abcde"))
		assert.Equal(t, "Máximo de 5 caracteres", rule("abcdef"))
	})
}

func TestPattern(t *testing.T) {
	rule := validators.Pattern(regexp.MustCompile(`^\d{5}-\d{3}$`))

	assert.Empty(t, rule("01310-100"))
	assert.Empty(t, rule(""))
	assert.Equal(t, "Formato inválido", rule("01310100"))
}

func TestCPF(t *testing.T) {
	rule := validators.CPF()

	t.Run("Accepts eleven digits with or without punctuation", func(t *testing.T) {
		assert.Empty(t, rule("529.982.247-25"))
		assert.Empty(t, rule("52998224725"))
		assert.Empty(t, rule(""))
	})

	t.Run("Rejects wrong digit counts", func(t *testing.T) {
		assert.Equal(t, "CPF inválido", rule("5299822472"))
		assert.Equal(t, "CPF inválido", rule("529.982.247-256"))
		assert.Equal(t, "CPF inválido", rule("abc"))
	})
}

func TestPhone(t *testing.T) {
	rule := validators.Phone()

	t.Run("Accepts landline and mobile digit counts", func(t *testing.T) {
		assert.Empty(t, rule("(11) 3456-7890"))
		assert.Empty(t, rule("(11) 93456-7890"))
		assert.Empty(t, rule("1134567890"))
	})

	t.Run("Rejects other digit counts", func(t *testing.T) {
		assert.Equal(t, "Telefone inválido", rule("123"))
		assert.Equal(t, "Telefone inválido", rule("(11) 93456-78901"))
	})
}

func TestChain(t *testing.T) {
	rule := validators.Chain(
		validators.Required(),
		validators.MinLength(3),
	)

	t.Run("First failure wins", func(t *testing.T) {
		assert.Equal(t, "Campo obrigatório", rule(""))
		assert.Equal(t, "Mínimo de 3 caracteres", rule("ab"))
	})

	t.Run("Passes when every rule passes", func(t *testing.T) {
		assert.Empty(t, rule("abc"))
	})
}

func TestForFields(t *testing.T) {
	validate := validators.ForFields(map[string][]validators.Rule{
		"name":  {validators.Required(), validators.MinLength(3)},
		"email": {validators.Required(), validators.Email()},
		"phone": {validators.Phone()},
	})

	t.Run("Reports first failing rule per field", func(t *testing.T) {
		errs, err := validate(context.Background(), formo.Values{
			"name":  "",
			"email": "ana",
			"phone": "",
		})
		assert.NoError(t, err)
		assert.Equal(t, formo.Errors{
			"name":  "Campo obrigatório",
			"email": "E-mail inválido",
		}, errs)
	})

	t.Run("Clean values yield an empty map", func(t *testing.T) {
		errs, err := validate(context.Background(), formo.Values{
			"name":  "Ana",
			"email": "ana@example.com",
			"phone": "(11) 93456-7890",
		})
		assert.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("Fields without rules are never reported", func(t *testing.T) {
		errs, err := validate(context.Background(), formo.Values{
			"name":  "Ana",
			"email": "ana@example.com",
			"notes": "",
		})
		assert.NoError(t, err)
		assert.Empty(t, errs)
	})
}
