package rust

import (
	"strings"
	"unicode"
)

// Rust strict and reserved keywords.
var reservedWords = map[string]bool{
	"as": true, "async": true, "await": true, "box": true, "break": true,
	"const": true, "continue": true, "crate": true, "dyn": true, "else": true,
	"enum": true, "extern": true, "false": true, "fn": true, "for": true,
	"if": true, "impl": true, "in": true, "let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true, "pub": true,
	"ref": true, "return": true, "self": true, "static": true, "struct": true,
	"super": true, "trait": true, "true": true, "type": true, "unsafe": true,
	"use": true, "where": true, "while": true, "yield": true,
}

// SanitizeIdent makes a name a valid Rust identifier, escaping keywords with
// a trailing underscore.
func SanitizeIdent(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	if unicode.IsDigit(rune(name[0])) {
		b.WriteRune('_')
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	s := b.String()
	if reservedWords[s] {
		s += "_"
	}
	return s
}

// SnakeCase converts a CamelCase name to snake_case. An uppercase run ends a
// word before its last letter, so "QPoint" becomes "q_point" and "HTTPServer"
// becomes "http_server".
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (prevUpper && nextLower) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return SanitizeIdent(b.String())
}

// ScreamingSnakeCase converts a name to SCREAMING_SNAKE_CASE for constants.
func ScreamingSnakeCase(name string) string {
	return strings.ToUpper(SnakeCase(name))
}
