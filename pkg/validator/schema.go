package validator

import (
	"time"

	"github.com/google/uuid"
)

// Flow enum fields accepted by the API.
var (
	TrackingTypes = []string{"boolean", "quantity", "duration"}
	Frequencies   = []string{"daily", "weekly", "monthly"}
)

// Flow numeric bounds.
const (
	MaxGoal           = 9999
	MaxReminderHour   = 23
	MaxReminderMinute = 59
)

// RecordResult is the outcome of validating a whole record. Every field is
// checked (no short-circuit) so a form can surface all errors at once, and
// Sanitized carries each field's sanitized value regardless of that field's
// individual validity. Valid is true iff Errors is empty; callers must never
// persist Sanitized when Valid is false.
type RecordResult struct {
	Valid     bool              `json:"valid"`
	Errors    map[string]string `json:"errors"`
	Sanitized map[string]string `json:"sanitized_data"`
}

type schemaField struct {
	key      string
	optional bool // skipped entirely when the key is absent
	check    func(value any) Result
}

// validateRecord runs a schema's fields in declaration order against a
// decoded request body. A nil record fails every required field rather than
// panicking; composite validators never throw.
func validateRecord(data map[string]any, fields []schemaField) RecordResult {
	rr := RecordResult{
		Errors:    make(map[string]string),
		Sanitized: make(map[string]string),
	}

	for _, f := range fields {
		value, present := data[f.key]
		if !present && f.optional {
			rr.Sanitized[f.key] = ""
			continue
		}

		res := f.check(value)
		rr.Sanitized[f.key] = res.Sanitized
		if !res.Valid {
			rr.Errors[f.key] = res.Error
		}
	}

	rr.Valid = len(rr.Errors) == 0
	return rr
}

func fieldCheck(field Field) func(any) Result {
	return func(value any) Result {
		return Validate(field, value)
	}
}

func numericCheck(min, max float64, label string) func(any) Result {
	return func(value any) Result {
		return ValidateNumeric(value, min, max, label)
	}
}

func oneOfCheck(allowed []string, label string) func(any) Result {
	return func(value any) Result {
		return ValidateOneOf(value, allowed, label)
	}
}

// ValidateFlow validates a flow create/update body. Flow titles and
// descriptions use the tighter flow-context ceilings.
func ValidateFlow(data map[string]any) RecordResult {
	return validateRecord(data, []schemaField{
		{key: "title", check: fieldCheck(FieldFlowTitle)},
		{key: "description", check: fieldCheck(FieldFlowDescription)},
		{key: "trackingType", check: oneOfCheck(TrackingTypes, "tracking type")},
		{key: "frequency", check: oneOfCheck(Frequencies, "frequency")},
		{key: "goal", optional: true, check: numericCheck(0, MaxGoal, "goal")},
		{key: "reminderHour", optional: true, check: numericCheck(0, MaxReminderHour, "reminder hour")},
		{key: "reminderMinute", optional: true, check: numericCheck(0, MaxReminderMinute, "reminder minute")},
	})
}

// ValidateRegistration validates an account creation body, including the
// confirmPassword and acceptTerms pseudo-fields.
func ValidateRegistration(data map[string]any) RecordResult {
	rr := validateRecord(data, []schemaField{
		{key: "username", check: fieldCheck(FieldUsername)},
		{key: "email", check: fieldCheck(FieldEmail)},
		{key: "password", check: fieldCheck(FieldPassword)},
		{key: "displayName", optional: true, check: fieldCheck(FieldDisplayName)},
		{key: "dateOfBirth", check: ValidateDateOfBirth},
	})

	// Cross-field: confirm must equal password, independent of the
	// password field's own length rule.
	password, _ := data["password"].(string)
	confirm, confirmIsString := data["confirmPassword"].(string)
	rr.Sanitized["confirmPassword"] = confirm
	if !confirmIsString || confirm != password {
		rr.Errors["confirmPassword"] = "passwords do not match"
	}

	accepted, acceptedIsBool := data["acceptTerms"].(bool)
	if acceptedIsBool && accepted {
		rr.Sanitized["acceptTerms"] = "true"
	} else {
		rr.Sanitized["acceptTerms"] = "false"
		rr.Errors["acceptTerms"] = "terms must be accepted"
	}

	rr.Valid = len(rr.Errors) == 0
	return rr
}

// ValidateProfile validates a profile update body. Profile titles and bios
// use the looser general-context ceilings.
func ValidateProfile(data map[string]any) RecordResult {
	return validateRecord(data, []schemaField{
		{key: "username", check: fieldCheck(FieldUsername)},
		{key: "email", check: fieldCheck(FieldEmail)},
		{key: "displayName", optional: true, check: fieldCheck(FieldDisplayName)},
		{key: "title", optional: true, check: fieldCheck(FieldTitle)},
		{key: "bio", optional: true, check: fieldCheck(FieldDescription)},
	})
}

// ValidateSession validates stored session data before it is trusted.
func ValidateSession(data map[string]any) RecordResult {
	return ValidateSessionAt(data, time.Now().UTC())
}

// ValidateSessionAt is ValidateSession with an explicit "now" for tests.
func ValidateSessionAt(data map[string]any, now time.Time) RecordResult {
	return validateRecord(data, []schemaField{
		{key: "token", check: sessionTokenCheck},
		{key: "userId", check: userIDCheck},
		{key: "expiresAt", check: expiryCheck(now)},
	})
}

func sessionTokenCheck(value any) Result {
	if value == nil {
		return Result{Error: "session token is required"}
	}
	s, isString := value.(string)
	if !isString {
		return Result{Error: "session token must be a string"}
	}
	return ValidateSessionToken(s)
}

func userIDCheck(value any) Result {
	if value == nil {
		return Result{Error: "user id is required"}
	}
	s, isString := value.(string)
	if !isString {
		return Result{Error: "user id must be a string"}
	}

	sanitized := Sanitize(s)
	res := Result{Sanitized: sanitized}
	if sanitized == "" {
		res.Error = "user id is required"
		return res
	}
	if _, err := uuid.Parse(sanitized); err != nil {
		res.Error = "user id must be a valid UUID"
		return res
	}

	res.Valid = true
	return res
}

func expiryCheck(now time.Time) func(any) Result {
	return func(value any) Result {
		if value == nil {
			return Result{Error: "expiry is required"}
		}
		s, isString := value.(string)
		if !isString {
			return Result{Error: "expiry must be a string"}
		}

		sanitized := Sanitize(s)
		res := Result{Sanitized: sanitized}
		if sanitized == "" {
			res.Error = "expiry is required"
			return res
		}

		expires, err := time.Parse(time.RFC3339, sanitized)
		if err != nil {
			res.Error = "expiry must be a valid RFC3339 timestamp"
			return res
		}
		if !expires.After(now) {
			res.Error = "session has expired"
			return res
		}

		res.Valid = true
		return res
	}
}
