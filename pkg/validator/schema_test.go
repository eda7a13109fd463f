package validator

import (
	"strings"
	"testing"
	"time"
)

func validFlowBody() map[string]any {
	return map[string]any{
		"title":        "Morning run",
		"description":  "5k before work",
		"trackingType": "boolean",
		"frequency":    "daily",
		"goal":         1,
		"reminderHour": 7,
	}
}

func TestValidateFlow_Valid(t *testing.T) {
	rr := ValidateFlow(validFlowBody())
	if !rr.Valid {
		t.Fatalf("expected valid flow, got errors: %v", rr.Errors)
	}
	if rr.Sanitized["title"] != "Morning run" {
		t.Errorf("sanitized title = %q", rr.Sanitized["title"])
	}
	if rr.Sanitized["goal"] != "1" {
		t.Errorf("sanitized goal = %q, want %q", rr.Sanitized["goal"], "1")
	}
}

func TestValidateFlow_InjectionPayload(t *testing.T) {
	rr := ValidateFlow(map[string]any{
		"title":        "<script>x</script>Flow",
		"description":  "'; DROP TABLE flows; --",
		"trackingType": "boolean",
		"frequency":    "daily",
	})

	if rr.Valid {
		t.Fatal("injection-bearing flow body should be invalid")
	}
	if _, ok := rr.Errors["title"]; !ok {
		t.Error("expected a title error for the oversized raw value")
	}

	// Sanitized output is still populated so the form can redisplay it.
	if rr.Sanitized["title"] != "scriptx/scriptFlow" {
		t.Errorf("sanitized title = %q, want %q", rr.Sanitized["title"], "scriptx/scriptFlow")
	}
	if rr.Sanitized["description"] != "DROP TABLE flows" {
		t.Errorf("sanitized description = %q, want %q", rr.Sanitized["description"], "DROP TABLE flows")
	}
	for _, bad := range []string{"<", ">", "'", `"`, ";", "--"} {
		if strings.Contains(rr.Sanitized["description"], bad) {
			t.Errorf("sanitized description still contains %q", bad)
		}
	}
}

func TestValidateFlow_CollectsAllErrors(t *testing.T) {
	rr := ValidateFlow(map[string]any{
		"title":        "ab",
		"trackingType": "sometimes",
		"frequency":    "yearly",
		"goal":         -1,
		"reminderHour": 24,
	})

	if rr.Valid {
		t.Fatal("expected invalid result")
	}
	for _, field := range []string{"title", "trackingType", "frequency", "goal", "reminderHour"} {
		if _, ok := rr.Errors[field]; !ok {
			t.Errorf("expected an error for %q, got errors: %v", field, rr.Errors)
		}
	}
}

func TestValidateFlow_NilBody(t *testing.T) {
	rr := ValidateFlow(nil)
	if rr.Valid {
		t.Fatal("nil body should be invalid, not panic")
	}
	if _, ok := rr.Errors["title"]; !ok {
		t.Error("expected required error for title")
	}
	if rr.Sanitized == nil {
		t.Error("sanitized map should always be populated")
	}
}

func TestValidateFlow_OptionalNumericsSkippedWhenAbsent(t *testing.T) {
	body := validFlowBody()
	delete(body, "goal")
	delete(body, "reminderHour")

	rr := ValidateFlow(body)
	if !rr.Valid {
		t.Fatalf("flow without optional numerics should be valid, got %v", rr.Errors)
	}
}

func validRegistrationBody() map[string]any {
	return map[string]any{
		"username":        "flow_fan",
		"email":           "fan@flows.dev",
		"password":        "hunter22",
		"confirmPassword": "hunter22",
		"displayName":     "Flow Fan",
		"dateOfBirth":     "1990-07-01",
		"acceptTerms":     true,
	}
}

func TestValidateRegistration_Valid(t *testing.T) {
	rr := ValidateRegistration(validRegistrationBody())
	if !rr.Valid {
		t.Fatalf("expected valid registration, got errors: %v", rr.Errors)
	}
	if rr.Sanitized["password"] != "hunter22" {
		t.Errorf("password must pass through untouched, got %q", rr.Sanitized["password"])
	}
}

func TestValidateRegistration_ConfirmPasswordMismatch(t *testing.T) {
	body := validRegistrationBody()
	body["confirmPassword"] = "different"

	rr := ValidateRegistration(body)
	if rr.Valid {
		t.Fatal("mismatched confirmation should be invalid")
	}
	if rr.Errors["confirmPassword"] != "passwords do not match" {
		t.Errorf("confirmPassword error = %q", rr.Errors["confirmPassword"])
	}
	if _, ok := rr.Errors["password"]; ok {
		t.Error("password itself satisfies its own rule; its error should be absent")
	}
}

func TestValidateRegistration_ConfirmIndependentOfLengthRule(t *testing.T) {
	// Both too short but equal: only the password length rule fires.
	body := validRegistrationBody()
	body["password"] = "12345"
	body["confirmPassword"] = "12345"

	rr := ValidateRegistration(body)
	if rr.Valid {
		t.Fatal("short password should be invalid")
	}
	if _, ok := rr.Errors["password"]; !ok {
		t.Error("expected a password length error")
	}
	if _, ok := rr.Errors["confirmPassword"]; ok {
		t.Errorf("equal confirmation should not carry its own error, got %q", rr.Errors["confirmPassword"])
	}
}

func TestValidateRegistration_TermsMustBeTrue(t *testing.T) {
	for _, v := range []any{false, nil, "true", 1} {
		body := validRegistrationBody()
		body["acceptTerms"] = v

		rr := ValidateRegistration(body)
		if rr.Valid {
			t.Errorf("acceptTerms=%v should be invalid", v)
		}
		if _, ok := rr.Errors["acceptTerms"]; !ok {
			t.Errorf("expected acceptTerms error for %v", v)
		}
	}
}

func TestValidateRegistration_UnderageRejected(t *testing.T) {
	body := validRegistrationBody()
	body["dateOfBirth"] = time.Now().UTC().AddDate(-17, 0, 0).Format("2006-01-02")

	rr := ValidateRegistration(body)
	if rr.Valid {
		t.Fatal("17-year-old registration should be invalid")
	}
	if _, ok := rr.Errors["dateOfBirth"]; !ok {
		t.Error("expected dateOfBirth error")
	}
}

func TestValidateProfile_GeneralCeilings(t *testing.T) {
	rr := ValidateProfile(map[string]any{
		"username":    "flow_fan",
		"email":       "fan@flows.dev",
		"displayName": "Fan",
		"title":       strings.Repeat("t", 60), // over the flow cap, under the general cap
		"bio":         strings.Repeat("b", 400),
	})
	if !rr.Valid {
		t.Fatalf("expected valid profile, got errors: %v", rr.Errors)
	}

	rr = ValidateProfile(map[string]any{
		"username": "flow_fan",
		"email":    "fan@flows.dev",
		"bio":      strings.Repeat("b", 501),
	})
	if rr.Valid {
		t.Fatal("501-character bio should be invalid")
	}
}

func TestValidateSessionAt(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	userID := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

	rr := ValidateSessionAt(map[string]any{
		"token":     "valid.token.12345",
		"userId":    userID,
		"expiresAt": now.Add(time.Hour).Format(time.RFC3339),
	}, now)
	if !rr.Valid {
		t.Fatalf("expected valid session, got errors: %v", rr.Errors)
	}

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{
			"expired",
			map[string]any{
				"token":     "valid.token.12345",
				"userId":    userID,
				"expiresAt": now.Add(-time.Minute).Format(time.RFC3339),
			},
			"expiresAt",
		},
		{
			"short token",
			map[string]any{
				"token":     "short",
				"userId":    userID,
				"expiresAt": now.Add(time.Hour).Format(time.RFC3339),
			},
			"token",
		},
		{
			"bad user id",
			map[string]any{
				"token":     "valid.token.12345",
				"userId":    "not-a-uuid",
				"expiresAt": now.Add(time.Hour).Format(time.RFC3339),
			},
			"userId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ValidateSessionAt(tt.body, now)
			if rr.Valid {
				t.Fatal("expected invalid session")
			}
			if _, ok := rr.Errors[tt.field]; !ok {
				t.Errorf("expected error on %q, got %v", tt.field, rr.Errors)
			}
		})
	}
}
