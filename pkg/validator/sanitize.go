package validator

import "strings"

// Sanitize strips the denylisted characters from free-text input before it
// is validated, stored, or sent over the wire: HTML angle brackets, single
// and double quotes, statement terminators, backslashes, SQL comment
// markers, control characters, and surrounding whitespace.
//
// This is a character strip, not escaping. It reduces stored-payload risk
// only; the repository layer still uses parameterized queries and clients
// still encode on output.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch r {
		case '<', '>', '\'', '"', ';', '\\':
			continue
		}
		if r < 32 && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}

	out := b.String()

	// Removing a stripped character can join two dashes into a fresh
	// comment marker, so collapse runs after the character pass.
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "")
	}

	return strings.TrimSpace(out)
}
