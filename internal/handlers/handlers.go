package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/flowhabit/flow-api/internal/middleware"
	"github.com/flowhabit/flow-api/internal/models"
	"github.com/flowhabit/flow-api/internal/repository"
	"github.com/flowhabit/flow-api/internal/services"
	"github.com/flowhabit/flow-api/pkg/cache"
	"github.com/flowhabit/flow-api/pkg/logger"
	"github.com/flowhabit/flow-api/pkg/validator"
)

type Handler struct {
	auth     *services.AuthService
	flows    *services.FlowService
	settings *services.SettingsService
	cache    *cache.Cache
}

func NewHandler(auth *services.AuthService, flows *services.FlowService, settings *services.SettingsService, cache *cache.Cache) *Handler {
	return &Handler{
		auth:     auth,
		flows:    flows,
		settings: settings,
		cache:    cache,
	}
}

// validationFailed maps a failed RecordResult to a 400 carrying every
// field's error, so the client can surface all form errors at once.
func validationFailed(c *fiber.Ctx, rr validator.RecordResult) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validation failed",
		"fields": rr.Errors,
	})
}

func parseBody(c *fiber.Ctx) (map[string]any, error) {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func callerID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(middleware.LocalUserID).(uuid.UUID)
	return id
}

// Register handles POST /v1/auth/register.
func (h *Handler) Register(c *fiber.Ctx) error {
	requestID := uuid.New().String()
	log := logger.WithField("request_id", requestID)

	body, err := parseBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "Invalid request body",
			"request_id": requestID,
		})
	}

	rr := validator.ValidateRegistration(body)
	if !rr.Valid {
		log.Warn("Registration validation failed", map[string]any{
			"fields": rr.Errors,
		})
		return validationFailed(c, rr)
	}

	// Only the sanitized record reaches persistence.
	dob, err := time.Parse("2006-01-02", rr.Sanitized["dateOfBirth"])
	if err != nil {
		return validationFailed(c, rr)
	}

	resp, err := h.auth.Register(c.Context(), models.RegisterInput{
		Username:    rr.Sanitized["username"],
		Email:       rr.Sanitized["email"],
		Password:    rr.Sanitized["password"],
		DisplayName: rr.Sanitized["displayName"],
		DateOfBirth: dob,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "Username or email already taken",
			"request_id": requestID,
		})
	}
	if err != nil {
		log.Error("Registration failed", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":      "Failed to create account",
			"request_id": requestID,
		})
	}

	log.Info("Account created", map[string]any{"user_id": resp.User.UserID})
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /v1/auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	body, err := parseBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	fields := make(map[string]string)
	emailRes := validator.Validate(validator.FieldEmail, body["email"])
	if !emailRes.Valid {
		fields["email"] = emailRes.Error
	}
	passwordRes := validator.Validate(validator.FieldPassword, body["password"])
	if !passwordRes.Valid {
		fields["password"] = passwordRes.Error
	}
	if len(fields) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": fields,
		})
	}

	resp, err := h.auth.Login(c.Context(), emailRes.Sanitized, passwordRes.Sanitized)
	if errors.Is(err, services.ErrInvalidCredentials) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}
	if err != nil {
		logger.Error("Login failed", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log in",
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Logout handles POST /v1/auth/logout.
func (h *Handler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals(middleware.LocalSessionToken).(string)
	if err := h.auth.Logout(c.Context(), token); err != nil {
		logger.Error("Logout failed", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log out",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /v1/me.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.auth.GetUser(c.Context(), callerID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch profile",
		})
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// UpdateProfile handles PUT /v1/me.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	body, err := parseBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rr := validator.ValidateProfile(body)
	if !rr.Valid {
		return validationFailed(c, rr)
	}

	user, err := h.auth.UpdateProfile(c.Context(), callerID(c),
		rr.Sanitized["username"], rr.Sanitized["email"], rr.Sanitized["displayName"])
	if errors.Is(err, repository.ErrDuplicate) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Username or email already taken",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// CreateFlow handles POST /v1/flows.
func (h *Handler) CreateFlow(c *fiber.Ctx) error {
	body, err := parseBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rr := validator.ValidateFlow(body)
	if !rr.Valid {
		return validationFailed(c, rr)
	}

	flow, err := h.flows.Create(c.Context(), callerID(c), flowInputFrom(rr))
	if err != nil {
		logger.Error("Flow creation failed", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create flow",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(flow)
}

// ListFlows handles GET /v1/flows.
func (h *Handler) ListFlows(c *fiber.Ctx) error {
	flows, err := h.flows.List(c.Context(), callerID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list flows",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"flows": flows})
}

// GetFlow handles GET /v1/flows/:id.
func (h *Handler) GetFlow(c *fiber.Ctx) error {
	flowID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid flow id",
		})
	}

	flow, err := h.flows.Get(c.Context(), callerID(c), flowID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Flow not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch flow",
		})
	}

	return c.Status(fiber.StatusOK).JSON(flow)
}

// UpdateFlow handles PUT /v1/flows/:id.
func (h *Handler) UpdateFlow(c *fiber.Ctx) error {
	flowID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid flow id",
		})
	}

	body, err := parseBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rr := validator.ValidateFlow(body)
	if !rr.Valid {
		return validationFailed(c, rr)
	}

	flow, err := h.flows.Update(c.Context(), callerID(c), flowID, flowInputFrom(rr))
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Flow not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update flow",
		})
	}

	return c.Status(fiber.StatusOK).JSON(flow)
}

// ArchiveFlow handles DELETE /v1/flows/:id.
func (h *Handler) ArchiveFlow(c *fiber.Ctx) error {
	flowID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid flow id",
		})
	}

	err = h.flows.Archive(c.Context(), callerID(c), flowID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Flow not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to archive flow",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RecordEntry handles POST /v1/flows/:id/entries.
func (h *Handler) RecordEntry(c *fiber.Ctx) error {
	flowID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid flow id",
		})
	}

	body, err := parseBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	fields := make(map[string]string)

	dateStr, _ := body["date"].(string)
	entryDate, err := time.Parse("2006-01-02", validator.Sanitize(dateStr))
	if err != nil {
		fields["date"] = "date must be a valid date (YYYY-MM-DD)"
	}

	value := 1
	if raw, present := body["value"]; present {
		res := validator.ValidateNumeric(raw, 0, validator.MaxGoal, "value")
		if !res.Valid {
			fields["value"] = res.Error
		} else {
			value = intFrom(res.Sanitized)
		}
	}

	completed := true
	if raw, present := body["completed"]; present {
		b, isBool := raw.(bool)
		if !isBool {
			fields["completed"] = "completed must be a boolean"
		} else {
			completed = b
		}
	}

	if len(fields) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": fields,
		})
	}

	entry, err := h.flows.RecordEntry(c.Context(), callerID(c), flowID, models.EntryInput{
		EntryDate: entryDate,
		Value:     value,
		Completed: completed,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Flow not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record entry",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// FlowStats handles GET /v1/flows/:id/stats.
func (h *Handler) FlowStats(c *fiber.Ctx) error {
	flowID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid flow id",
		})
	}

	stats, err := h.flows.Stats(c.Context(), callerID(c), flowID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Flow not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

// GetNotificationSettings handles GET /v1/settings/notifications.
func (h *Handler) GetNotificationSettings(c *fiber.Ctx) error {
	settings, err := h.settings.Get(c.Context(), callerID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch settings",
		})
	}
	return c.Status(fiber.StatusOK).JSON(settings)
}

// UpdateNotificationSettings handles PUT /v1/settings/notifications.
func (h *Handler) UpdateNotificationSettings(c *fiber.Ctx) error {
	body, err := parseBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	fields := make(map[string]string)

	hourRes := validator.ValidateNumeric(body["reminderHour"], 0, validator.MaxReminderHour, "reminder hour")
	if !hourRes.Valid {
		fields["reminderHour"] = hourRes.Error
	}
	minuteRes := validator.ValidateNumeric(body["reminderMinute"], 0, validator.MaxReminderMinute, "reminder minute")
	if !minuteRes.Valid {
		fields["reminderMinute"] = minuteRes.Error
	}

	in := models.NotificationSettings{}
	for key, dst := range map[string]*bool{
		"remindersEnabled": &in.RemindersEnabled,
		"streakAlerts":     &in.StreakAlerts,
		"weeklySummary":    &in.WeeklySummary,
	} {
		raw, present := body[key]
		if !present {
			continue
		}
		b, isBool := raw.(bool)
		if !isBool {
			fields[key] = key + " must be a boolean"
			continue
		}
		*dst = b
	}

	if len(fields) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": fields,
		})
	}

	in.ReminderHour = intFrom(hourRes.Sanitized)
	in.ReminderMinute = intFrom(minuteRes.Sanitized)

	settings, err := h.settings.Update(c.Context(), callerID(c), in)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update settings",
		})
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}

// Health handles GET /health.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"service": "flow-api",
	})
}

// Metrics handles GET /metrics.
func (h *Handler) Metrics(c *fiber.Ctx) error {
	ctx := c.Context()

	registrations, _ := h.cache.GetMetric(ctx, "registrations")
	logins, _ := h.cache.GetMetric(ctx, "logins")
	flowsCreated, _ := h.cache.GetMetric(ctx, "flows_created")
	entriesRecorded, _ := h.cache.GetMetric(ctx, "entries_recorded")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"registrations":    registrations,
		"logins":           logins,
		"flows_created":    flowsCreated,
		"entries_recorded": entriesRecorded,
	})
}

// flowInputFrom builds the sanitized service input from a passing flow
// validation result. Optional numerics arrive as empty strings when absent.
func flowInputFrom(rr validator.RecordResult) models.FlowInput {
	in := models.FlowInput{
		Title:        rr.Sanitized["title"],
		Description:  rr.Sanitized["description"],
		TrackingType: rr.Sanitized["trackingType"],
		Frequency:    rr.Sanitized["frequency"],
		Goal:         1,
	}

	if s := rr.Sanitized["goal"]; s != "" {
		in.Goal = intFrom(s)
	}
	if s := rr.Sanitized["reminderHour"]; s != "" {
		hour := intFrom(s)
		in.ReminderHour = &hour
	}
	if s := rr.Sanitized["reminderMinute"]; s != "" {
		minute := intFrom(s)
		in.ReminderMinute = &minute
	}

	return in
}

// intFrom parses a validated numeric's sanitized form. JSON numbers decode
// as floats, so the sanitized string may carry a fractional part.
func intFrom(sanitized string) int {
	f, _ := strconv.ParseFloat(sanitized, 64)
	return int(f)
}
