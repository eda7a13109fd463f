package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. PasswordHash never serializes.
type User struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DateOfBirth  time.Time `db:"date_of_birth" json:"date_of_birth"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Session is the Redis-backed bearer session. The cache TTL mirrors
// ExpiresAt; the struct carries it so clients can show expiry.
type Session struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Flow is a tracked habit.
type Flow struct {
	FlowID         uuid.UUID `db:"flow_id" json:"flow_id"`
	OwnerID        uuid.UUID `db:"owner_id" json:"owner_id"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description"`
	TrackingType   string    `db:"tracking_type" json:"tracking_type"` // boolean, quantity, duration
	Frequency      string    `db:"frequency" json:"frequency"`         // daily, weekly, monthly
	Goal           int       `db:"goal" json:"goal"`
	ReminderHour   *int      `db:"reminder_hour" json:"reminder_hour,omitempty"`
	ReminderMinute *int      `db:"reminder_minute" json:"reminder_minute,omitempty"`
	Archived       bool      `db:"archived" json:"archived"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FlowEntry is one day's completion record for a flow. One entry per
// (flow, entry_date); re-recording a day upserts.
type FlowEntry struct {
	EntryID   uuid.UUID `db:"entry_id" json:"entry_id"`
	FlowID    uuid.UUID `db:"flow_id" json:"flow_id"`
	EntryDate time.Time `db:"entry_date" json:"entry_date"`
	Value     int       `db:"value" json:"value"`
	Completed bool      `db:"completed" json:"completed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NotificationSettings are per-user reminder preferences.
type NotificationSettings struct {
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	RemindersEnabled bool      `db:"reminders_enabled" json:"reminders_enabled"`
	ReminderHour     int       `db:"reminder_hour" json:"reminder_hour"`
	ReminderMinute   int       `db:"reminder_minute" json:"reminder_minute"`
	StreakAlerts     bool      `db:"streak_alerts" json:"streak_alerts"`
	WeeklySummary    bool      `db:"weekly_summary" json:"weekly_summary"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterInput is the sanitized payload the auth service persists. It is
// built from a passing validation result, never from the raw body.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	DateOfBirth time.Time
}

// FlowInput is the sanitized payload for flow create/update.
type FlowInput struct {
	Title          string
	Description    string
	TrackingType   string
	Frequency      string
	Goal           int
	ReminderHour   *int
	ReminderMinute *int
}

// EntryInput records a completion for a given day.
type EntryInput struct {
	EntryDate time.Time
	Value     int
	Completed bool
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// FlowStats summarizes a flow's completion history.
type FlowStats struct {
	FlowID           uuid.UUID `json:"flow_id"`
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	TotalCompletions int       `json:"total_completions"`
	LastCompleted    *string   `json:"last_completed,omitempty"`
}
