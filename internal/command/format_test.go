package command

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFormatEmpty(t *testing.T) {
	for _, f := range append(Formats(), FormatNone) {
		assert.Equal(t, "", ApplyFormat("", f), "format %q", f)
	}
}

func TestApplyFormat(t *testing.T) {
	tests := []struct {
		raw    string
		format Format
		want   string
	}{
		{"my-variable-name", FormatSnakeCase, "my_variable_name"},
		{"my_variable_name", FormatCamelCase, "myVariableName"},
		{"my variable", FormatUpperCamelCase, "MyVariable"},
		{"MyVariable", FormatKebabCase, "my-variable"},
		{"my-variable", FormatUpperCase, "MY_VARIABLE"},
		{"my service", FormatUpperCase, "MY_SERVICE"},

		{"As Is", FormatNone, "As Is"},
		{"As Is", Format("title"), "As Is"},

		{"myVariable", FormatSnakeCase, "my_variable"},
		{"HTTPServer", FormatSnakeCase, "h_t_t_p_server"},
		{"a \t b", FormatSnakeCase, "a_b"},
		{"a -b", FormatSnakeCase, "a__b"},
		{"__x", FormatSnakeCase, "_x"},

		{"my_var-name", FormatKebabCase, "my-var-name"},
		{"some  words", FormatKebabCase, "some-words"},

		{"--lead", FormatCamelCase, "lead"},
		{"trail__", FormatCamelCase, "trail"},
		{"Already Camel", FormatCamelCase, "alreadyCamel"},
		{"x-1", FormatCamelCase, "x1"},

		{"db host", FormatUpperCamelCase, "DbHost"},
		{"myVar", FormatUpperCase, "MY_VAR"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format)+"/"+tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyFormat(tt.raw, tt.format))
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		value  string
		format Format
		want   bool
	}{
		{"my_var", FormatSnakeCase, true},
		{"My_var", FormatSnakeCase, false},
		{"1var", FormatSnakeCase, false},
		{"myVar2", FormatCamelCase, true},
		{"my_var", FormatCamelCase, false},
		{"MyVar", FormatUpperCamelCase, true},
		{"myVar", FormatUpperCamelCase, false},
		{"my-var", FormatKebabCase, true},
		{"my_var", FormatKebabCase, false},
		{"MY_VAR", FormatUpperCase, true},
		{"MY-VAR", FormatUpperCase, false},
		{"anything goes", FormatNone, true},
		{"", FormatNone, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateFormat(tt.value, tt.format), "%q as %q", tt.value, tt.format)
	}
}

func TestValidateFormatRejectsEmpty(t *testing.T) {
	for _, f := range Formats() {
		assert.False(t, ValidateFormat("", f), "format %q", f)
	}
}

// Transforming then validating must succeed for inputs that start with a
// letter and otherwise contain only alphanumerics and separators.
func TestApplyThenValidate(t *testing.T) {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	const rest = letters + "0123456789 _-"

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := 1 + rng.Intn(16)
		b := make([]byte, n)
		b[0] = letters[rng.Intn(len(letters))]
		for j := 1; j < n; j++ {
			b[j] = rest[rng.Intn(len(rest))]
		}
		in := string(b)
		for _, f := range Formats() {
			out := ApplyFormat(in, f)
			require.Truef(t, ValidateFormat(out, f), "ApplyFormat(%q, %q) = %q does not validate", in, f, out)
		}
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("kebab-case")
	require.NoError(t, err)
	assert.Equal(t, FormatKebabCase, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatNone, f)

	_, err = ParseFormat("Title Case")
	assert.Error(t, err)
}
