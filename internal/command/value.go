package command

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidateValue checks raw against the variable's type. Blank values pass;
// whether a value is required is decided by Missing.
func ValidateValue(v Variable, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	switch v.Type {
	case TypeNumber:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Errorf("%s must be a number", v.Name)
		}
	case TypeBoolean:
		if raw != "true" && raw != "false" {
			return fmt.Errorf("%s must be true or false", v.Name)
		}
	case TypeOption:
		if !slices.Contains(v.Options, raw) {
			return fmt.Errorf("%s must be one of %s", v.Name, strings.Join(v.Options, ", "))
		}
	}
	return nil
}

// ValidateValues runs ValidateValue for every variable and returns the first
// failure, if any.
func ValidateValues(vars []Variable, values Values) error {
	for _, v := range vars {
		if err := ValidateValue(v, values[v.Name]); err != nil {
			return err
		}
	}
	return nil
}
