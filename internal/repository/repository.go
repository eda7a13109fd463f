package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/flowhabit/flow-api/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

type Repository struct {
	db *sqlx.DB
}

func NewRepository(dsn string, maxConns, maxIdleConns int) (*Repository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	return &Repository{db: db}, nil
}

// CreateUser inserts a new account. Username and email carry unique
// indexes; collisions surface as ErrDuplicate.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_id, username, email, display_name, password_hash, date_of_birth, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.UserID, user.Username, user.Email, user.DisplayName,
		user.PasswordHash, user.DateOfBirth, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by ID.
func (r *Repository) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE user_id = $1`

	if err := r.db.GetContext(ctx, &user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email for login.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE email = $1`

	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// UpdateUserProfile updates the mutable profile fields.
func (r *Repository) UpdateUserProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, display_name = $4, updated_at = $5
		WHERE user_id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		user.UserID, user.Username, user.Email, user.DisplayName, time.Now(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// CreateFlow inserts a new flow.
func (r *Repository) CreateFlow(ctx context.Context, flow *models.Flow) error {
	query := `
		INSERT INTO flows
		(flow_id, owner_id, title, description, tracking_type, frequency, goal, reminder_hour, reminder_minute, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		flow.FlowID, flow.OwnerID, flow.Title, flow.Description,
		flow.TrackingType, flow.Frequency, flow.Goal,
		flow.ReminderHour, flow.ReminderMinute, flow.Archived,
		flow.CreatedAt, flow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create flow: %w", err)
	}

	return nil
}

// GetFlow retrieves a flow by ID.
func (r *Repository) GetFlow(ctx context.Context, flowID uuid.UUID) (*models.Flow, error) {
	var flow models.Flow
	query := `SELECT * FROM flows WHERE flow_id = $1`

	if err := r.db.GetContext(ctx, &flow, query, flowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	return &flow, nil
}

// ListFlows retrieves a user's active flows, newest first.
func (r *Repository) ListFlows(ctx context.Context, ownerID uuid.UUID) ([]models.Flow, error) {
	query := `
		SELECT * FROM flows
		WHERE owner_id = $1 AND archived = FALSE
		ORDER BY created_at DESC
	`

	var flows []models.Flow
	if err := r.db.SelectContext(ctx, &flows, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	return flows, nil
}

// UpdateFlow updates a flow's mutable fields.
func (r *Repository) UpdateFlow(ctx context.Context, flow *models.Flow) error {
	query := `
		UPDATE flows
		SET title = $2, description = $3, tracking_type = $4, frequency = $5,
		    goal = $6, reminder_hour = $7, reminder_minute = $8, updated_at = $9
		WHERE flow_id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		flow.FlowID, flow.Title, flow.Description, flow.TrackingType,
		flow.Frequency, flow.Goal, flow.ReminderHour, flow.ReminderMinute,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update flow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update flow: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ArchiveFlow soft-deletes a flow. Entries stay for stats.
func (r *Repository) ArchiveFlow(ctx context.Context, flowID uuid.UUID) error {
	query := `UPDATE flows SET archived = TRUE, updated_at = $2 WHERE flow_id = $1`

	result, err := r.db.ExecContext(ctx, query, flowID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to archive flow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to archive flow: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// UpsertEntry records a completion for a day. Recording the same day again
// replaces the previous value.
func (r *Repository) UpsertEntry(ctx context.Context, entry *models.FlowEntry) error {
	query := `
		INSERT INTO flow_entries (entry_id, flow_id, entry_date, value, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (flow_id, entry_date)
		DO UPDATE SET value = EXCLUDED.value, completed = EXCLUDED.completed
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.EntryID, entry.FlowID, entry.EntryDate,
		entry.Value, entry.Completed, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}

	return nil
}

// ListEntries retrieves a flow's entries, most recent day first.
func (r *Repository) ListEntries(ctx context.Context, flowID uuid.UUID, limit int) ([]models.FlowEntry, error) {
	query := `
		SELECT * FROM flow_entries
		WHERE flow_id = $1
		ORDER BY entry_date DESC
		LIMIT $2
	`

	var entries []models.FlowEntry
	if err := r.db.SelectContext(ctx, &entries, query, flowID, limit); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	return entries, nil
}

// GetNotificationSettings retrieves a user's reminder preferences, falling
// back to defaults for users who never saved any.
func (r *Repository) GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	query := `SELECT * FROM notification_settings WHERE user_id = $1`

	err := r.db.GetContext(ctx, &settings, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.NotificationSettings{
			UserID:           userID,
			RemindersEnabled: true,
			ReminderHour:     9,
			ReminderMinute:   0,
			StreakAlerts:     true,
			WeeklySummary:    false,
			UpdatedAt:        time.Now(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification settings: %w", err)
	}

	return &settings, nil
}

// UpsertNotificationSettings saves a user's reminder preferences.
func (r *Repository) UpsertNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error {
	query := `
		INSERT INTO notification_settings
		(user_id, reminders_enabled, reminder_hour, reminder_minute, streak_alerts, weekly_summary, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id)
		DO UPDATE SET reminders_enabled = EXCLUDED.reminders_enabled,
		              reminder_hour = EXCLUDED.reminder_hour,
		              reminder_minute = EXCLUDED.reminder_minute,
		              streak_alerts = EXCLUDED.streak_alerts,
		              weekly_summary = EXCLUDED.weekly_summary,
		              updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		settings.UserID, settings.RemindersEnabled, settings.ReminderHour,
		settings.ReminderMinute, settings.StreakAlerts, settings.WeeklySummary,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert notification settings: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// BeginTx starts a transaction.
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}
