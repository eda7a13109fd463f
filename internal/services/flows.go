package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/flowhabit/flow-api/internal/models"
	"github.com/flowhabit/flow-api/internal/repository"
	"github.com/flowhabit/flow-api/pkg/cache"
)

const dateLayout = "2006-01-02"

// statsWindow caps how much history feeds streak computation.
const statsWindow = 366

type FlowService struct {
	repo  *repository.Repository
	cache *cache.Cache
}

func NewFlowService(repo *repository.Repository, cache *cache.Cache) *FlowService {
	return &FlowService{
		repo:  repo,
		cache: cache,
	}
}

// Create stores a new flow from a sanitized input.
func (s *FlowService) Create(ctx context.Context, ownerID uuid.UUID, in models.FlowInput) (*models.Flow, error) {
	now := time.Now().UTC()
	flow := &models.Flow{
		FlowID:         uuid.New(),
		OwnerID:        ownerID,
		Title:          in.Title,
		Description:    in.Description,
		TrackingType:   in.TrackingType,
		Frequency:      in.Frequency,
		Goal:           in.Goal,
		ReminderHour:   in.ReminderHour,
		ReminderMinute: in.ReminderMinute,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateFlow(ctx, flow); err != nil {
		return nil, err
	}

	_ = s.cache.IncrementMetric(ctx, "flows_created")

	return flow, nil
}

// Get fetches a flow owned by the caller. Another user's flow reads as
// not found rather than forbidden, so flow IDs are not probeable.
func (s *FlowService) Get(ctx context.Context, ownerID, flowID uuid.UUID) (*models.Flow, error) {
	flow, err := s.repo.GetFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if flow.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return flow, nil
}

// List returns the caller's active flows.
func (s *FlowService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Flow, error) {
	return s.repo.ListFlows(ctx, ownerID)
}

// Update applies sanitized fields to an owned flow.
func (s *FlowService) Update(ctx context.Context, ownerID, flowID uuid.UUID, in models.FlowInput) (*models.Flow, error) {
	flow, err := s.Get(ctx, ownerID, flowID)
	if err != nil {
		return nil, err
	}

	flow.Title = in.Title
	flow.Description = in.Description
	flow.TrackingType = in.TrackingType
	flow.Frequency = in.Frequency
	flow.Goal = in.Goal
	flow.ReminderHour = in.ReminderHour
	flow.ReminderMinute = in.ReminderMinute

	if err := s.repo.UpdateFlow(ctx, flow); err != nil {
		return nil, err
	}

	return s.repo.GetFlow(ctx, flowID)
}

// Archive soft-deletes an owned flow.
func (s *FlowService) Archive(ctx context.Context, ownerID, flowID uuid.UUID) error {
	if _, err := s.Get(ctx, ownerID, flowID); err != nil {
		return err
	}
	return s.repo.ArchiveFlow(ctx, flowID)
}

// RecordEntry upserts a completion record for a day.
func (s *FlowService) RecordEntry(ctx context.Context, ownerID, flowID uuid.UUID, in models.EntryInput) (*models.FlowEntry, error) {
	if _, err := s.Get(ctx, ownerID, flowID); err != nil {
		return nil, err
	}

	entry := &models.FlowEntry{
		EntryID:   uuid.New(),
		FlowID:    flowID,
		EntryDate: in.EntryDate.UTC().Truncate(24 * time.Hour),
		Value:     in.Value,
		Completed: in.Completed,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.UpsertEntry(ctx, entry); err != nil {
		return nil, err
	}

	_ = s.cache.IncrementMetric(ctx, "entries_recorded")

	return entry, nil
}

// Stats summarizes an owned flow's completion history.
func (s *FlowService) Stats(ctx context.Context, ownerID, flowID uuid.UUID) (*models.FlowStats, error) {
	if _, err := s.Get(ctx, ownerID, flowID); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListEntries(ctx, flowID, statsWindow)
	if err != nil {
		return nil, err
	}

	return computeStats(flowID, entries, time.Now().UTC()), nil
}

// computeStats derives streaks and totals from entries. The current streak
// is anchored at today, or yesterday when today has not been recorded yet,
// so a streak does not read as broken before the day is over.
func computeStats(flowID uuid.UUID, entries []models.FlowEntry, now time.Time) *models.FlowStats {
	completed := make(map[string]bool)
	var days []time.Time
	for _, e := range entries {
		if !e.Completed {
			continue
		}
		day := e.EntryDate.UTC().Truncate(24 * time.Hour)
		key := day.Format(dateLayout)
		if !completed[key] {
			completed[key] = true
			days = append(days, day)
		}
	}

	stats := &models.FlowStats{
		FlowID:           flowID,
		TotalCompletions: len(days),
	}
	if len(days) == 0 {
		return stats
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	last := days[len(days)-1].Format(dateLayout)
	stats.LastCompleted = &last

	run, longest := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	stats.LongestStreak = longest

	anchor := now.UTC().Truncate(24 * time.Hour)
	if !completed[anchor.Format(dateLayout)] {
		anchor = anchor.AddDate(0, 0, -1)
	}
	for completed[anchor.Format(dateLayout)] {
		stats.CurrentStreak++
		anchor = anchor.AddDate(0, 0, -1)
	}

	return stats
}
