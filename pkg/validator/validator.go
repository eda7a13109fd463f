package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Field is the closed set of free-text field kinds the API validates.
// Flow titles and descriptions carry tighter ceilings than the general
// profile variants; the two contexts are deliberately distinct.
type Field int

const (
	FieldTitle Field = iota
	FieldFlowTitle
	FieldDescription
	FieldFlowDescription
	FieldEmail
	FieldPassword
	FieldUsername
	FieldDisplayName
)

const (
	// MinSessionTokenLength is the floor below which a non-empty session
	// token is rejected as too short.
	MinSessionTokenLength = 16

	// MinAccountAge is the minimum age in years for account creation.
	MinAccountAge = 18
)

var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Result is the outcome of validating a single field. Sanitized is always
// populated with whatever sanitization could be applied, even when Valid is
// false, so callers can redisplay a corrected value. Callers must never
// persist Sanitized from an invalid Result.
type Result struct {
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
	Sanitized string `json:"sanitized"`
}

type fieldSpec struct {
	label      string
	required   bool
	minLen     int
	maxLen     int
	pattern    *regexp.Regexp
	patternMsg string

	// raw skips sanitization. Passwords must round-trip untouched or the
	// stored hash would never match the login attempt.
	raw bool
}

var fieldSpecs = map[Field]fieldSpec{
	FieldTitle: {
		label:    "title",
		required: true,
		minLen:   3,
		maxLen:   100,
	},
	FieldFlowTitle: {
		label:    "title",
		required: true,
		minLen:   3,
		maxLen:   20,
	},
	FieldDescription: {
		label:  "description",
		maxLen: 500,
	},
	FieldFlowDescription: {
		label:  "description",
		maxLen: 200,
	},
	FieldEmail: {
		label:      "email",
		required:   true,
		maxLen:     254,
		pattern:    emailRegex,
		patternMsg: "email must be a valid address",
	},
	FieldPassword: {
		label:    "password",
		required: true,
		minLen:   6,
		raw:      true,
	},
	FieldUsername: {
		label:      "username",
		required:   true,
		minLen:     3,
		maxLen:     25,
		pattern:    usernameRegex,
		patternMsg: "username may only contain letters, digits, underscore, and hyphen",
	},
	FieldDisplayName: {
		label:  "display name",
		minLen: 1,
		maxLen: 50,
	},
}

// Validate runs the single-field rules for the given field kind against a
// raw input value. Non-string values (numbers, booleans, objects, arrays)
// are invalid, never coerced. Minimum lengths are checked against the
// sanitized value; maximum lengths against the raw value, so stripping
// cannot rescue an oversized or injection-bearing input.
func Validate(field Field, value any) Result {
	spec, ok := fieldSpecs[field]
	if !ok {
		return Result{Error: "unknown field"}
	}

	if value == nil {
		if spec.required {
			return Result{Error: spec.label + " is required"}
		}
		return Result{Valid: true}
	}

	s, isString := value.(string)
	if !isString {
		return Result{Error: spec.label + " must be a string"}
	}

	sanitized := s
	if !spec.raw {
		sanitized = Sanitize(s)
	}
	res := Result{Sanitized: sanitized}

	if sanitized == "" {
		if spec.required {
			res.Error = spec.label + " is required"
			return res
		}
		res.Valid = true
		return res
	}

	if utf8.RuneCountInString(sanitized) < spec.minLen {
		res.Error = fmt.Sprintf("%s must be at least %d characters", spec.label, spec.minLen)
		return res
	}
	if spec.maxLen > 0 && utf8.RuneCountInString(s) > spec.maxLen {
		res.Error = fmt.Sprintf("%s must be at most %d characters", spec.label, spec.maxLen)
		return res
	}
	if spec.pattern != nil && !spec.pattern.MatchString(sanitized) {
		res.Error = spec.patternMsg
		return res
	}

	res.Valid = true
	return res
}

// ValidateNumeric checks that value parses as a number and falls within the
// inclusive [min, max] range. Numeric strings parse; booleans, nil, and
// composite types are errors, never coerced to zero.
func ValidateNumeric(value any, min, max float64, label string) Result {
	f, ok := toNumber(value)
	if !ok {
		res := Result{Error: label + " must be a number"}
		if s, isString := value.(string); isString {
			res.Sanitized = Sanitize(s)
		}
		return res
	}

	res := Result{Sanitized: formatNumber(f)}
	if f < min || f > max {
		res.Error = fmt.Sprintf("%s must be between %s and %s", label, formatNumber(min), formatNumber(max))
		return res
	}

	res.Valid = true
	return res
}

// ValidateSessionToken checks a bearer token before any store lookup. An
// empty token is a distinct error from a present-but-too-short one.
func ValidateSessionToken(token string) Result {
	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Error: "session token is required"}
	}

	res := Result{Sanitized: token}
	if len(token) < MinSessionTokenLength {
		res.Error = "session token is too short"
		return res
	}

	res.Valid = true
	return res
}

// ValidateDateOfBirth parses a YYYY-MM-DD date of birth and checks account
// age eligibility as of the current time.
func ValidateDateOfBirth(value any) Result {
	return ValidateDateOfBirthAt(value, time.Now().UTC())
}

// ValidateDateOfBirthAt is ValidateDateOfBirth with an explicit "now",
// so eligibility boundaries can be pinned in tests.
func ValidateDateOfBirthAt(value any, now time.Time) Result {
	if value == nil {
		return Result{Error: "date of birth is required"}
	}

	s, isString := value.(string)
	if !isString {
		return Result{Error: "date of birth must be a string"}
	}

	sanitized := Sanitize(s)
	res := Result{Sanitized: sanitized}
	if sanitized == "" {
		res.Error = "date of birth is required"
		return res
	}

	dob, err := time.Parse("2006-01-02", sanitized)
	if err != nil {
		res.Error = "date of birth must be a valid date (YYYY-MM-DD)"
		return res
	}

	if dob.After(now) {
		res.Error = "date of birth must be in the past"
		return res
	}

	if ageAt(dob, now) < MinAccountAge {
		res.Error = fmt.Sprintf("you must be at least %d years old", MinAccountAge)
		return res
	}

	res.Valid = true
	return res
}

// ValidateOneOf checks membership in a fixed set of allowed values, used for
// enum-like fields such as tracking type and frequency.
func ValidateOneOf(value any, allowed []string, label string) Result {
	message := fmt.Sprintf("%s must be one of: %s", label, strings.Join(allowed, ", "))

	if value == nil {
		return Result{Error: label + " is required"}
	}

	s, isString := value.(string)
	if !isString {
		return Result{Error: message}
	}

	sanitized := Sanitize(s)
	res := Result{Sanitized: sanitized}
	if sanitized == "" {
		res.Error = label + " is required"
		return res
	}

	for _, a := range allowed {
		if sanitized == a {
			res.Valid = true
			return res
		}
	}

	res.Error = message
	return res
}

// Strength is the advisory password strength score. It never gates
// validity; the only hard rule is the six character minimum.
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthFair
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthFair:
		return "fair"
	case StrengthStrong:
		return "strong"
	default:
		return "weak"
	}
}

// PasswordStrength scores a password on length and character variety.
func PasswordStrength(password string) Strength {
	score := 0
	if len(password) >= 8 {
		score++
	}
	if len(password) >= 12 {
		score++
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if hasUpper && hasLower {
		score++
	}
	if hasDigit {
		score++
	}
	if hasSymbol {
		score++
	}

	switch {
	case score < 3:
		return StrengthWeak
	case score < 5:
		return StrengthFair
	default:
		return StrengthStrong
	}
}

// ageAt computes whole years between dob and now, accounting for a
// month/day not yet reached this year.
func ageAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
