package validator

import (
	"strings"
	"testing"
)

func TestSanitize_StripsDenylist(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"script tag", "<script>alert(1)</script>"},
		{"quotes", `it's a "quoted" value`},
		{"sql injection", "'; DROP TABLE flows; --"},
		{"backslash", `a\b\c`},
		{"comment marker", "value -- trailing comment"},
		{"mixed", `<img src="x"> '; --`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Sanitize(tt.input)
			for _, bad := range []string{"<", ">", "'", `"`, ";", `\`, "--"} {
				if strings.Contains(out, bad) {
					t.Errorf("Sanitize(%q) = %q, still contains %q", tt.input, out, bad)
				}
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"'; DROP TABLE flows; --",
		"<script>x</script>Flow",
		"-;-",   // stripping ';' joins the dashes into a comment marker
		"--;--", // two markers joined by a stripped terminator
		"plain text stays put",
		"",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestSanitize_PreservesSafeContent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Morning run", "Morning run"},
		{"  padded  ", "padded"},
		{"dash-separated", "dash-separated"},
		{"'; DROP TABLE flows; --", "DROP TABLE flows"},
		{"<script>x</script>Flow", "scriptx/scriptFlow"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.input); got != tt.expected {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitize_StripsControlCharacters(t *testing.T) {
	out := Sanitize("a\x00b\x01c\nd\te")
	if out != "abc\nd\te" {
		t.Errorf("Sanitize control strip = %q, want %q", out, "abc\nd\te")
	}
}
