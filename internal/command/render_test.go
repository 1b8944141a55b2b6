package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderNoPlaceholders(t *testing.T) {
	tmpl := "ls -la /tmp"
	assert.Equal(t, tmpl, Render(tmpl, nil, nil))
	assert.Equal(t, tmpl, Render(tmpl, []Variable{}, Values{}))
}

func TestRenderSubstitution(t *testing.T) {
	vars := []Variable{
		{Name: "env"},
		{Name: "svc", Format: FormatUpperCase},
	}
	values := Values{"env": "staging", "svc": "my service"}

	got := Render("deploy {{env}} --name={{svc}}", vars, values)
	assert.Equal(t, "deploy staging --name=MY_SERVICE", got)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	assert.Equal(t, "{{missing}}", Render("{{missing}}", nil, nil))
	assert.Equal(t, "a {{missing}} b", Render("a {{missing}} {{x}}", []Variable{{Name: "x"}}, Values{"x": "b"}))
}

func TestRenderReplacesEveryOccurrence(t *testing.T) {
	vars := []Variable{{Name: "n", Format: FormatKebabCase}}
	got := Render("mkdir {{n}} && cd {{n}}", vars, Values{"n": "new dir"})
	assert.Equal(t, "mkdir new-dir && cd new-dir", got)

	// A capital after a space yields two separators.
	got = Render("mkdir {{n}} && cd {{n}}", vars, Values{"n": "New Dir"})
	assert.Equal(t, "mkdir new--dir && cd new--dir", got)
}

func TestRenderBlankValues(t *testing.T) {
	vars := []Variable{{Name: "a", Format: FormatUpperCase}, {Name: "b"}}
	got := Render("[{{a}}][{{b}}]", vars, Values{"a": "   "})
	assert.Equal(t, "[][]", got)
}

func TestRenderMetacharacterNames(t *testing.T) {
	vars := []Variable{{Name: "a.b*"}, {Name: "(x)"}}
	got := Render("{{a.b*}} {{aXb}} {{(x)}}", vars, Values{"a.b*": "1", "(x)": "2"})
	assert.Equal(t, "1 {{aXb}} 2", got)
}

func TestRenderUnusedVariable(t *testing.T) {
	vars := []Variable{{Name: "unused"}}
	assert.Equal(t, "echo hi", Render("echo hi", vars, Values{"unused": "x"}))
}

func TestRenderStep(t *testing.T) {
	s := Step{
		Command:   "git checkout -b {{branch}}",
		Variables: []Variable{{Name: "branch", Format: FormatKebabCase}},
	}
	assert.Equal(t, "git checkout -b fix-login-bug", RenderStep(s, Values{"branch": "Fix login bug"}))
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{{b}} {{a}} {{b}} {{ }} {not} {{c}}")
	assert.Equal(t, []string{"b", "a", " ", "c"}, got)
	assert.Nil(t, Placeholders("plain"))
}

func TestUnresolved(t *testing.T) {
	vars := []Variable{{Name: "a"}}
	assert.Equal(t, []string{"b"}, Unresolved("{{a}} {{b}}", vars))
	assert.Nil(t, Unresolved("{{a}}", vars))
}

func TestMissing(t *testing.T) {
	vars := []Variable{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	got := Missing(vars, Values{"a": "x", "b": "  "})
	assert.Equal(t, []string{"b", "c"}, got)
	assert.Nil(t, Missing(vars, Values{"a": "1", "b": "2", "c": "3"}))
}

func TestValidateValue(t *testing.T) {
	num := Variable{Name: "port", Type: TypeNumber}
	require.NoError(t, ValidateValue(num, "8080"))
	require.NoError(t, ValidateValue(num, "1.5"))
	require.NoError(t, ValidateValue(num, ""))
	assert.Error(t, ValidateValue(num, "eighty"))

	flag := Variable{Name: "force", Type: TypeBoolean}
	require.NoError(t, ValidateValue(flag, "true"))
	assert.Error(t, ValidateValue(flag, "yes"))

	opt := Variable{Name: "env", Type: TypeOption, Options: []string{"dev", "prod"}}
	require.NoError(t, ValidateValue(opt, "prod"))
	assert.Error(t, ValidateValue(opt, "staging"))

	require.NoError(t, ValidateValue(Variable{Name: "s", Type: TypeString}, "anything"))
}

func TestValidateValues(t *testing.T) {
	vars := []Variable{{Name: "n", Type: TypeNumber}, {Name: "s"}}
	require.NoError(t, ValidateValues(vars, Values{"n": "3"}))
	assert.Error(t, ValidateValues(vars, Values{"n": "x"}))
}

func TestStepValidate(t *testing.T) {
	ok := Step{Variables: []Variable{
		{Name: "a", Type: TypeString},
		{Name: "b", Type: TypeOption, Options: []string{"x"}, Format: FormatSnakeCase},
	}}
	require.NoError(t, ok.Validate())

	dup := Step{Variables: []Variable{{Name: "a"}, {Name: "a"}}}
	assert.ErrorIs(t, dup.Validate(), ErrDuplicateVariable)

	noOpts := Step{Variables: []Variable{{Name: "a", Type: TypeOption}}}
	assert.ErrorIs(t, noOpts.Validate(), ErrInvalidVariable)

	badType := Step{Variables: []Variable{{Name: "a", Type: "date"}}}
	assert.ErrorIs(t, badType.Validate(), ErrInvalidVariable)

	badFormat := Step{Variables: []Variable{{Name: "a", Format: "Title"}}}
	assert.ErrorIs(t, badFormat.Validate(), ErrInvalidVariable)

	unnamed := Step{Variables: []Variable{{}}}
	assert.ErrorIs(t, unnamed.Validate(), ErrInvalidVariable)
}
