package formdef_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/anggasct/formo"
	"github.com/anggasct/formo/formdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signupJSON = `{
	"name": "signup",
	"fields": [
		{"name": "name", "label": "Nome", "rules": [{"kind": "required"}, {"kind": "minLength", "params": {"min": "3"}}]},
		{"name": "email", "rules": [{"kind": "required"}, {"kind": "email"}]},
		{"name": "phone", "initial": "(11) 93456-7890", "rules": [{"kind": "phone"}]}
	]
}`

const signupYAML = `
name: signup
fields:
  - name: name
    label: Nome
    rules:
      - kind: required
      - kind: minLength
        params: {min: "3"}
  - name: email
    rules:
      - kind: required
      - kind: email
  - name: phone
    initial: "(11) 93456-7890"
    rules:
      - kind: phone
`

func TestParse(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		def, err := formdef.Parse([]byte(signupJSON))
		require.NoError(t, err)
		assert.Equal(t, "signup", def.Name)
		assert.Equal(t, []string{"name", "email", "phone"}, def.FieldNames())
	})

	t.Run("YAML", func(t *testing.T) {
		def, err := formdef.Parse([]byte(signupYAML))
		require.NoError(t, err)
		assert.Equal(t, "signup", def.Name)
		assert.Equal(t, []string{"name", "email", "phone"}, def.FieldNames())
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		_, err := formdef.Parse([]byte("{not json: [not yaml"))
		assert.ErrorContains(t, err, "formdef: parse")
	})
}

func TestNormalize(t *testing.T) {
	t.Run("Definition needs fields", func(t *testing.T) {
		_, err := formdef.Parse([]byte(`{"name": "empty", "fields": []}`))
		assert.ErrorContains(t, err, "has no fields")
	})

	t.Run("Fields need names", func(t *testing.T) {
		_, err := formdef.Parse([]byte(`{"fields": [{"label": "Nome"}]}`))
		assert.ErrorContains(t, err, "has no name")
	})

	t.Run("Duplicate names are rejected", func(t *testing.T) {
		_, err := formdef.Parse([]byte(`{"fields": [{"name": "a"}, {"name": "a"}]}`))
		assert.ErrorContains(t, err, `duplicate field "a"`)
	})

	t.Run("Labels default to the field name", func(t *testing.T) {
		def, err := formdef.Parse([]byte(`{"fields": [{"name": "email"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "email", def.Fields[0].Label)
		assert.Equal(t, "text", def.Fields[0].Type)
	})

	t.Run("Labels are stripped of markup", func(t *testing.T) {
		def, err := formdef.Parse([]byte(`{"fields": [{"name": "name", "label": "<script>alert(1)</script>Nome"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "Nome", def.Fields[0].Label)
	})
}

func TestRuleCompilation(t *testing.T) {
	t.Run("Unknown kinds are rejected", func(t *testing.T) {
		def, err := formdef.Parse([]byte(`{"fields": [{"name": "a", "rules": [{"kind": "creditCard"}]}]}`))
		require.NoError(t, err)
		_, err = def.Rules()
		assert.ErrorContains(t, err, `unknown rule kind "creditCard"`)
	})

	t.Run("Length params must be integers", func(t *testing.T) {
		def, err := formdef.Parse([]byte(`{"fields": [{"name": "a", "rules": [{"kind": "minLength", "params": {"min": "three"}}]}]}`))
		require.NoError(t, err)
		_, err = def.Rules()
		assert.ErrorContains(t, err, "minLength needs an integer min param")
	})

	t.Run("Patterns must compile", func(t *testing.T) {
		def, err := formdef.Parse([]byte(`{"fields": [{"name": "a", "rules": [{"kind": "pattern", "params": {"pattern": "(["}}]}]}`))
		require.NoError(t, err)
		_, err = def.Rules()
		assert.ErrorContains(t, err, "invalid pattern")
	})

	t.Run("Custom messages are carried through", func(t *testing.T) {
		def, err := formdef.Parse([]byte(`{"fields": [{"name": "a", "rules": [{"kind": "required", "message": "Informe o valor"}]}]}`))
		require.NoError(t, err)
		table, err := def.Rules()
		require.NoError(t, err)
		assert.Equal(t, "Informe o valor", table["a"][0](""))
	})
}

func TestBuild(t *testing.T) {
	def, err := formdef.Parse([]byte(signupJSON))
	require.NoError(t, err)

	form, err := def.Build()
	require.NoError(t, err)
	defer form.Close()

	t.Run("Initial values come from the definition", func(t *testing.T) {
		assert.Equal(t, formo.Values{
			"name":  "",
			"email": "",
			"phone": "(11) 93456-7890",
		}, form.Values())
	})

	t.Run("Rules are wired as the validator", func(t *testing.T) {
		errs, err := form.Validate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, formo.Errors{
			"name":  "Campo obrigatório",
			"email": "Campo obrigatório",
		}, errs)
	})
}

func TestBuildValidationToggles(t *testing.T) {
	def, err := formdef.Parse([]byte(`{
		"fields": [{"name": "name", "rules": [{"kind": "required"}]}],
		"validateOnBlur": false
	}`))
	require.NoError(t, err)
	require.NotNil(t, def.ValidateOnBlur)
	assert.False(t, *def.ValidateOnBlur)

	form, err := def.Build()
	require.NoError(t, err)
	defer form.Close()

	// Blur validation is off: the field is touched but no run starts, so
	// the required error never lands
	require.NoError(t, form.HandleBlur("name"))
	assert.Equal(t, formo.StateIdle, form.CurrentState())
	assert.True(t, form.FieldTouched("name"))
	assert.True(t, form.IsValid())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(signupYAML), 0o644))

	def, err := formdef.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "signup", def.Name)

	_, err = formdef.Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "formdef: read")
}
