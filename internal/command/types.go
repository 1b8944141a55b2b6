// Package command holds the command template model and the pure logic that
// turns a stored step plus variable values into a runnable shell string.
package command

import (
	"errors"
	"fmt"
)

// Format is a canonical textual convention applied to a variable value
// before it is substituted into a command.
type Format string

const (
	FormatNone           Format = ""
	FormatSnakeCase      Format = "snake_case"
	FormatCamelCase      Format = "camelCase"
	FormatUpperCamelCase Format = "upperCamelCase"
	FormatKebabCase      Format = "kebab-case"
	FormatUpperCase      Format = "UPPER_CASE"
)

var formats = []Format{
	FormatSnakeCase,
	FormatCamelCase,
	FormatUpperCamelCase,
	FormatKebabCase,
	FormatUpperCase,
}

// Formats returns the declared formats in display order.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// Valid reports whether f is FormatNone or one of the five conventions.
func (f Format) Valid() bool {
	if f == FormatNone {
		return true
	}
	for _, known := range formats {
		if f == known {
			return true
		}
	}
	return false
}

// ParseFormat converts s to a Format. The empty string is FormatNone.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return FormatNone, fmt.Errorf("unknown format %q", s)
	}
	return f, nil
}

// VariableType is the semantic type of a variable.
type VariableType string

const (
	TypeString  VariableType = "string"
	TypeNumber  VariableType = "number"
	TypeBoolean VariableType = "boolean"
	TypeOption  VariableType = "option"
)

// Valid reports whether t is a known type. An empty type counts as string.
func (t VariableType) Valid() bool {
	switch t {
	case "", TypeString, TypeNumber, TypeBoolean, TypeOption:
		return true
	}
	return false
}

// Variable is a named input of a step. Name doubles as the placeholder key.
type Variable struct {
	Name    string       `json:"name"`
	Type    VariableType `json:"type"`
	Detail  string       `json:"detail"`
	Format  Format       `json:"format,omitempty"`
	Options []string     `json:"options,omitempty"`
}

// Step is one shell command string plus the variables it needs.
type Step struct {
	Name      string     `json:"name"`
	Detail    string     `json:"detail"`
	Command   string     `json:"command"`
	Variables []Variable `json:"variables"`
}

var (
	ErrInvalidVariable   = errors.New("invalid variable")
	ErrDuplicateVariable = errors.New("duplicate variable")
)

// Validate checks the variable declaration itself, not a value for it.
func (v Variable) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidVariable)
	}
	if !v.Type.Valid() {
		return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidVariable, v.Name, v.Type)
	}
	if !v.Format.Valid() {
		return fmt.Errorf("%w: %s has unknown format %q", ErrInvalidVariable, v.Name, v.Format)
	}
	if v.Type == TypeOption && len(v.Options) == 0 {
		return fmt.Errorf("%w: option variable %s has no options", ErrInvalidVariable, v.Name)
	}
	return nil
}

// Validate checks every variable and that names are unique within the step.
func (s Step) Validate() error {
	seen := make(map[string]bool, len(s.Variables))
	for _, v := range s.Variables {
		if err := v.Validate(); err != nil {
			return err
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateVariable, v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}
