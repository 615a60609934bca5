package schema

import (
	"fmt"
	"strings"
	"unicode"
)

// Style is an identifier case convention for emitted field names.
type Style string

const (
	// StyleSnake emits snake_case field names.
	StyleSnake Style = "snake"
	// StyleCamel emits camelCase field names.
	StyleCamel Style = "camel"
	// StylePascal emits PascalCase field names.
	StylePascal Style = "pascal"
	// StyleKeep keeps the original key, sanitized only as far as identifier
	// syntax requires.
	StyleKeep Style = "keep"
)

// ParseStyle converts a user-supplied naming style into a Style.
// The empty string is accepted and means "renderer default".
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(s)) {
	case StyleSnake, StyleCamel, StylePascal, StyleKeep:
		return Style(strings.ToLower(s)), nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unsupported naming style %q (supported: snake, camel, pascal, keep)", s)
	}
}

// TypeName normalizes a mapping key into a PascalCase type name.
// Keys starting with a digit are prefixed to stay valid identifiers.
func TypeName(key string) string {
	name := convert(key, StylePascal)
	if name == "" {
		return "Record"
	}

	if unicode.IsDigit(rune(name[0])) {
		name = "X" + name
	}

	return name
}

// Identifier normalizes a mapping key into a field identifier in the given
// style. Names colliding with a reserved word receive a trailing underscore;
// names starting with a digit are prefixed. The caller keeps the original
// key alongside the identifier so generated loaders can map back to it.
func Identifier(key string, style Style, reserved map[string]bool) string {
	name := convert(key, style)
	if name == "" {
		name = "field"
	}

	if unicode.IsDigit(rune(name[0])) {
		name = "x" + name
		if style == StylePascal {
			name = "X" + name[1:]
		}
	}

	if reserved[name] {
		name += "_"
	}

	return name
}

// convert splits key into words and joins them in the requested style.
func convert(key string, style Style) string {
	if style == StyleKeep {
		return sanitize(key)
	}

	words := splitWords(key)
	if len(words) == 0 {
		return ""
	}

	switch style {
	case StyleSnake:
		return strings.Join(words, "_")
	case StyleCamel:
		var b strings.Builder

		b.WriteString(words[0])

		for _, w := range words[1:] {
			b.WriteString(capitalize(w))
		}

		return b.String()
	default: // pascal
		var b strings.Builder

		for _, w := range words {
			b.WriteString(capitalize(w))
		}

		return b.String()
	}
}

// splitWords breaks a key into lowercase words on non-alphanumeric runes and
// lower-to-upper case boundaries.
func splitWords(key string) []string {
	var (
		words []string
		cur   strings.Builder
	)

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	var prev rune

	for _, r := range key {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}

		prev = r
	}

	flush()

	return words
}

// sanitize keeps the key as close to the original as identifier syntax
// allows: invalid runes become underscores, consecutive underscores collapse.
func sanitize(key string) string {
	var b strings.Builder

	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	s := b.String()
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}

	return strings.Trim(s, "_")
}

func capitalize(w string) string {
	if w == "" {
		return w
	}

	return strings.ToUpper(w[:1]) + w[1:]
}
