package validator

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_Email(t *testing.T) {
	tests := []struct {
		input any
		valid bool
	}{
		{"user@domain.com", true},
		{"first.last@sub.domain.org", true},
		{"invalid-email", false},
		{"missing@domain", false},
		{"@domain.com", false},
		{"user@.com", false},
		{"", false},
		{nil, false},
		{42, false},
	}

	for _, tt := range tests {
		res := Validate(FieldEmail, tt.input)
		if res.Valid != tt.valid {
			t.Errorf("Validate(FieldEmail, %v) valid = %v, want %v (error: %q)",
				tt.input, res.Valid, tt.valid, res.Error)
		}
	}
}

func TestValidate_PasswordBoundary(t *testing.T) {
	if res := Validate(FieldPassword, "12345"); res.Valid {
		t.Error("5-character password should be invalid")
	}
	if res := Validate(FieldPassword, "123456"); !res.Valid {
		t.Errorf("6-character password should be valid, got error %q", res.Error)
	}

	// No composition rules and no maximum at this layer.
	long := strings.Repeat("x", 300)
	if res := Validate(FieldPassword, long); !res.Valid {
		t.Errorf("long password should be valid, got error %q", res.Error)
	}
}

func TestValidate_PasswordNotSanitized(t *testing.T) {
	pw := `pa;ss"wo'rd`
	res := Validate(FieldPassword, pw)
	if !res.Valid {
		t.Fatalf("password with special characters should be valid, got %q", res.Error)
	}
	if res.Sanitized != pw {
		t.Errorf("password must round-trip untouched: got %q, want %q", res.Sanitized, pw)
	}
}

func TestValidate_TitleContexts(t *testing.T) {
	// Flow titles cap at 20; general titles at 100.
	tooShort := "ab"
	twentyOne := strings.Repeat("a", 21)

	if res := Validate(FieldFlowTitle, tooShort); res.Valid {
		t.Error("2-character flow title should be invalid")
	}
	if res := Validate(FieldFlowTitle, twentyOne); res.Valid {
		t.Error("21-character flow title should be invalid")
	}
	if res := Validate(FieldFlowTitle, strings.Repeat("a", 20)); !res.Valid {
		t.Errorf("20-character flow title should be valid, got %q", res.Error)
	}

	if res := Validate(FieldTitle, twentyOne); !res.Valid {
		t.Errorf("21-character general title should be valid, got %q", res.Error)
	}
	if res := Validate(FieldTitle, strings.Repeat("a", 101)); res.Valid {
		t.Error("101-character general title should be invalid")
	}
}

func TestValidate_TitleCeilingSeesRawLength(t *testing.T) {
	// 22 raw characters, 18 after stripping: stripping must not rescue
	// an oversized flow title.
	res := Validate(FieldFlowTitle, "<script>x</script>Flow")
	if res.Valid {
		t.Error("injection-bearing 22-character flow title should be invalid")
	}
	if res.Sanitized != "scriptx/scriptFlow" {
		t.Errorf("Sanitized = %q, want %q", res.Sanitized, "scriptx/scriptFlow")
	}
}

func TestValidate_MultibyteLengths(t *testing.T) {
	// Bounds count characters, not bytes. "漢" is one character in three
	// bytes, so byte counting would let a one-character title through the
	// three-character floor and bounce a ten-character one off the ceiling.
	if res := Validate(FieldFlowTitle, "漢"); res.Valid {
		t.Error("1-character multibyte flow title should be invalid")
	}
	if res := Validate(FieldFlowTitle, "漢字日"); !res.Valid {
		t.Errorf("3-character multibyte flow title should be valid, got %q", res.Error)
	}
	if res := Validate(FieldFlowTitle, strings.Repeat("漢", 10)); !res.Valid {
		t.Errorf("10-character multibyte flow title should be valid, got %q", res.Error)
	}
	if res := Validate(FieldFlowTitle, strings.Repeat("漢", 21)); res.Valid {
		t.Error("21-character multibyte flow title should be invalid")
	}
	if res := Validate(FieldFlowDescription, strings.Repeat("漢", 200)); !res.Valid {
		t.Errorf("200-character multibyte description should be valid, got %q", res.Error)
	}
}

func TestValidate_Username(t *testing.T) {
	tests := []struct {
		input any
		valid bool
	}{
		{"gideon_1", true},
		{"a-b-c", true},
		{"ab", false},
		{strings.Repeat("a", 26), false},
		{"has space", false},
		{"has@sign", false},
		{"bang!", false},
		{nil, false},
		{[]string{"x"}, false},
	}

	for _, tt := range tests {
		res := Validate(FieldUsername, tt.input)
		if res.Valid != tt.valid {
			t.Errorf("Validate(FieldUsername, %v) valid = %v, want %v", tt.input, res.Valid, tt.valid)
		}
	}
}

func TestValidate_OptionalDescription(t *testing.T) {
	if res := Validate(FieldFlowDescription, nil); !res.Valid {
		t.Errorf("absent description should be valid, got %q", res.Error)
	}
	if res := Validate(FieldFlowDescription, ""); !res.Valid {
		t.Errorf("empty description should be valid, got %q", res.Error)
	}
	if res := Validate(FieldFlowDescription, strings.Repeat("d", 201)); res.Valid {
		t.Error("201-character flow description should be invalid")
	}
	if res := Validate(FieldDescription, strings.Repeat("d", 201)); !res.Valid {
		t.Errorf("201-character general description should be valid, got %q", res.Error)
	}
}

func TestValidate_TypeMismatch(t *testing.T) {
	values := []any{42, 4.2, true, map[string]any{}, []any{"x"}}
	for _, v := range values {
		if res := Validate(FieldTitle, v); res.Valid {
			t.Errorf("Validate(FieldTitle, %T) should be invalid", v)
		}
	}
}

func TestValidateNumeric(t *testing.T) {
	tests := []struct {
		value any
		min   float64
		max   float64
		valid bool
	}{
		{0, 1, 10, false},
		{1, 1, 10, true},
		{10, 1, 10, true}, // upper bound inclusive
		{11, 1, 10, false},
		{"7", 1, 10, true},
		{"abc", 1, 10, false},
		{nil, 1, 10, false},
		{true, 1, 10, false},
		{23, 0, 23, true},
		{24, 0, 23, false},
		{59, 0, 59, true},
		{9999, 0, 9999, true},
		{10000, 0, 9999, false},
	}

	for _, tt := range tests {
		res := ValidateNumeric(tt.value, tt.min, tt.max, "Score")
		if res.Valid != tt.valid {
			t.Errorf("ValidateNumeric(%v, %v, %v) valid = %v, want %v",
				tt.value, tt.min, tt.max, res.Valid, tt.valid)
		}
	}
}

func TestValidateNumeric_NoSilentCoercion(t *testing.T) {
	res := ValidateNumeric("abc", 0, 10, "goal")
	if res.Valid {
		t.Fatal("non-numeric string should be invalid")
	}
	if !strings.Contains(res.Error, "must be a number") {
		t.Errorf("expected a must-be-a-number error, got %q", res.Error)
	}
}

func TestValidateSessionToken(t *testing.T) {
	res := ValidateSessionToken("")
	if res.Valid {
		t.Error("empty token should be invalid")
	}
	if !strings.Contains(res.Error, "required") {
		t.Errorf("empty token error = %q, want a required error", res.Error)
	}

	res = ValidateSessionToken("short")
	if res.Valid {
		t.Error("short token should be invalid")
	}
	if !strings.Contains(res.Error, "too short") {
		t.Errorf("short token error = %q, want a too-short error", res.Error)
	}

	if res := ValidateSessionToken(strings.Repeat("t", MinSessionTokenLength-1)); res.Valid {
		t.Error("15-character token should be invalid")
	}
	if res := ValidateSessionToken(strings.Repeat("t", MinSessionTokenLength)); !res.Valid {
		t.Errorf("16-character token should be valid, got %q", res.Error)
	}

	if res := ValidateSessionToken("valid.token.12345"); !res.Valid {
		t.Errorf("17-character token should be valid, got %q", res.Error)
	}
}

func TestValidateDateOfBirthAt(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		valid bool
	}{
		{"exactly 18 today", "2008-03-15", true},
		{"18 tomorrow", "2008-03-16", false}, // 17 years and 364 days
		{"well over 18", "1990-07-01", true},
		{"under 18", "2010-01-01", false},
		{"future date", "2030-01-01", false},
		{"garbage", "not-a-date", false},
		{"wrong type", 19900701, false},
		{"nil", nil, false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateDateOfBirthAt(tt.value, now)
			if res.Valid != tt.valid {
				t.Errorf("ValidateDateOfBirthAt(%v) valid = %v, want %v (error: %q)",
					tt.value, res.Valid, tt.valid, res.Error)
			}
		})
	}
}

func TestValidate_Deterministic(t *testing.T) {
	inputs := []any{"user@domain.com", "bad", nil, 42, strings.Repeat("a", 30)}
	for _, in := range inputs {
		first := Validate(FieldEmail, in)
		for i := 0; i < 3; i++ {
			if got := Validate(FieldEmail, in); got != first {
				t.Errorf("Validate(FieldEmail, %v) not deterministic: %+v vs %+v", in, first, got)
			}
		}
	}
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		expected Strength
	}{
		{"abc", StrengthWeak},
		{"abcdefgh", StrengthWeak},
		{"Abcdef12", StrengthFair},
		{"Abcdef12345!", StrengthStrong},
	}

	for _, tt := range tests {
		if got := PasswordStrength(tt.password); got != tt.expected {
			t.Errorf("PasswordStrength(%q) = %s, want %s", tt.password, got, tt.expected)
		}
	}
}

func TestPasswordStrength_DoesNotGateValidity(t *testing.T) {
	// Weak but six characters: valid.
	if res := Validate(FieldPassword, "aaaaaa"); !res.Valid {
		t.Errorf("weak 6-character password should still be valid, got %q", res.Error)
	}
	if PasswordStrength("aaaaaa") != StrengthWeak {
		t.Error("expected aaaaaa to score weak")
	}
}
