package command

import (
	"regexp"
	"strings"
)

// Values maps a variable name to its raw, unformatted value.
type Values map[string]string

// Placeholder returns the literal token for name, e.g. "{{env}}".
func Placeholder(name string) string {
	return "{{" + name + "}}"
}

// Render substitutes each declared variable into tmpl, in declaration order.
// Absent or blank values become "". Placeholders with no declared variable
// are left verbatim and variables with no placeholder are ignored.
func Render(tmpl string, vars []Variable, values Values) string {
	result := tmpl
	for _, v := range vars {
		raw := values[v.Name]
		formatted := ""
		if strings.TrimSpace(raw) != "" {
			formatted = ApplyFormat(raw, v.Format)
		}
		result = strings.ReplaceAll(result, Placeholder(v.Name), formatted)
	}
	return result
}

// RenderStep renders the step's command with its own variables.
func RenderStep(s Step, values Values) string {
	return Render(s.Command, s.Variables, values)
}

var placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Placeholders lists the distinct placeholder names in tmpl in order of
// first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		names = append(names, m[1])
	}
	return names
}

// Unresolved lists the placeholders in tmpl that no variable declares.
func Unresolved(tmpl string, vars []Variable) []string {
	declared := make(map[string]bool, len(vars))
	for _, v := range vars {
		declared[v.Name] = true
	}
	var out []string
	for _, name := range Placeholders(tmpl) {
		if !declared[name] {
			out = append(out, name)
		}
	}
	return out
}

// Missing lists the declared variables whose value is absent or blank.
func Missing(vars []Variable, values Values) []string {
	var out []string
	for _, v := range vars {
		if strings.TrimSpace(values[v.Name]) == "" {
			out = append(out, v.Name)
		}
	}
	return out
}
