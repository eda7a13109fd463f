package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flowhabit/flow-api/internal/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func entriesFor(t *testing.T, flowID uuid.UUID, dates ...string) []models.FlowEntry {
	t.Helper()
	entries := make([]models.FlowEntry, 0, len(dates))
	for _, d := range dates {
		entries = append(entries, models.FlowEntry{
			EntryID:   uuid.New(),
			FlowID:    flowID,
			EntryDate: day(t, d),
			Value:     1,
			Completed: true,
		})
	}
	return entries
}

func TestComputeStats_Empty(t *testing.T) {
	flowID := uuid.New()
	now := day(t, "2026-03-15")

	stats := computeStats(flowID, nil, now)

	if stats.CurrentStreak != 0 || stats.LongestStreak != 0 || stats.TotalCompletions != 0 {
		t.Errorf("empty entries should yield zero stats, got %+v", stats)
	}
	if stats.LastCompleted != nil {
		t.Errorf("expected no last completion, got %v", *stats.LastCompleted)
	}
}

func TestComputeStats_CurrentStreakEndsToday(t *testing.T) {
	flowID := uuid.New()
	now := day(t, "2026-03-15")
	entries := entriesFor(t, flowID, "2026-03-13", "2026-03-14", "2026-03-15")

	stats := computeStats(flowID, entries, now)

	if stats.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3", stats.CurrentStreak)
	}
	if stats.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", stats.LongestStreak)
	}
}

func TestComputeStats_TodayNotYetRecorded(t *testing.T) {
	// Yesterday closed a 2-day run; the streak holds until today ends.
	flowID := uuid.New()
	now := day(t, "2026-03-15")
	entries := entriesFor(t, flowID, "2026-03-13", "2026-03-14")

	stats := computeStats(flowID, entries, now)

	if stats.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", stats.CurrentStreak)
	}
}

func TestComputeStats_BrokenStreak(t *testing.T) {
	flowID := uuid.New()
	now := day(t, "2026-03-15")
	entries := entriesFor(t, flowID, "2026-03-01", "2026-03-02", "2026-03-03", "2026-03-10")

	stats := computeStats(flowID, entries, now)

	if stats.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0 after a gap", stats.CurrentStreak)
	}
	if stats.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", stats.LongestStreak)
	}
	if stats.TotalCompletions != 4 {
		t.Errorf("TotalCompletions = %d, want 4", stats.TotalCompletions)
	}
	if stats.LastCompleted == nil || *stats.LastCompleted != "2026-03-10" {
		t.Errorf("LastCompleted = %v, want 2026-03-10", stats.LastCompleted)
	}
}

func TestComputeStats_IncompleteEntriesIgnored(t *testing.T) {
	flowID := uuid.New()
	now := day(t, "2026-03-15")

	entries := entriesFor(t, flowID, "2026-03-14", "2026-03-15")
	entries = append(entries, models.FlowEntry{
		EntryID:   uuid.New(),
		FlowID:    flowID,
		EntryDate: day(t, "2026-03-13"),
		Completed: false,
	})

	stats := computeStats(flowID, entries, now)

	if stats.TotalCompletions != 2 {
		t.Errorf("TotalCompletions = %d, want 2", stats.TotalCompletions)
	}
	if stats.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", stats.CurrentStreak)
	}
}

func TestComputeStats_DuplicateDaysCountOnce(t *testing.T) {
	flowID := uuid.New()
	now := day(t, "2026-03-15")
	entries := entriesFor(t, flowID, "2026-03-15", "2026-03-15", "2026-03-14")

	stats := computeStats(flowID, entries, now)

	if stats.TotalCompletions != 2 {
		t.Errorf("TotalCompletions = %d, want 2", stats.TotalCompletions)
	}
	if stats.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", stats.CurrentStreak)
	}
}
