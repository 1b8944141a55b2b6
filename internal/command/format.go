package command

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ApplyFormat converts raw to the given convention. FormatNone and unknown
// formats return raw unchanged. Every input has an output; "" maps to "".
func ApplyFormat(raw string, f Format) string {
	switch f {
	case FormatSnakeCase:
		return toSeparated(raw, '_')
	case FormatKebabCase:
		return toSeparated(raw, '-')
	case FormatCamelCase:
		return toCamel(raw)
	case FormatUpperCamelCase:
		return upperFirst(toCamel(raw))
	case FormatUpperCase:
		return strings.ToUpper(toSeparated(raw, '_'))
	}
	return raw
}

// toSeparated puts sep before every ASCII capital, collapses whitespace runs
// and the other separator into sep, lowercases, then drops one leading sep.
func toSeparated(s string, sep rune) string {
	other := '-'
	if sep == '-' {
		other = '_'
	}

	var b strings.Builder
	b.Grow(len(s) + 4)
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteRune(sep)
			}
			inSpace = true
			continue
		}
		inSpace = false
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(sep)
			b.WriteRune(r)
		case r == other:
			b.WriteRune(sep)
		default:
			b.WriteRune(r)
		}
	}
	out := strings.ToLower(b.String())
	return strings.TrimPrefix(out, string(sep))
}

func isCamelSeparator(r rune) bool {
	return r == '-' || r == '_' || unicode.IsSpace(r)
}

// toCamel deletes separator runs, uppercasing the character after each run,
// then lowercases the first character.
func toCamel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upperNext := false
	for _, r := range s {
		if isCamelSeparator(r) {
			upperNext = true
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}
	return lowerFirst(b.String())
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

var formatPatterns = map[Format]*regexp.Regexp{
	FormatSnakeCase:      regexp.MustCompile(`^[a-z][a-z0-9_]*$`),
	FormatCamelCase:      regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`),
	FormatUpperCamelCase: regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`),
	FormatKebabCase:      regexp.MustCompile(`^[a-z][a-z0-9-]*$`),
	FormatUpperCase:      regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`),
}

// ValidateFormat reports whether value already conforms to f. It is
// advisory: the renderer never calls it. FormatNone accepts anything.
func ValidateFormat(value string, f Format) bool {
	re, ok := formatPatterns[f]
	if !ok {
		return true
	}
	return re.MatchString(value)
}
