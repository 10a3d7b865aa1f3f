package reporting

import (
	"testing"
	"time"

	"timetable-api/domain"
)

func completedOn(dates ...string) []domain.Completion {
	out := make([]domain.Completion, 0, len(dates))
	for i, d := range dates {
		out = append(out, domain.Completion{TaskID: "t" + string(rune('a'+i%26)), Date: d, Status: domain.StatusCompleted})
	}
	return out
}

func hasBadge(stats StreakStats, id string) bool {
	for _, b := range stats.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

var statsNow = time.Date(2025, 6, 10, 15, 4, 5, 0, time.UTC)

func TestStreakThreeConsecutiveDays(t *testing.T) {
	stats, err := StreakAndBadges(completedOn("2025-06-10", "2025-06-09", "2025-06-08"), statsNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CurrentStreak != 3 {
		t.Fatalf("expected streak 3, got %d", stats.CurrentStreak)
	}
	if !hasBadge(stats, "streak_3") {
		t.Fatal("expected streak_3 badge")
	}
	if hasBadge(stats, "streak_7") {
		t.Fatal("streak_7 must not be awarded at streak 3")
	}
}

func TestStreakStartsYesterday(t *testing.T) {
	stats, err := StreakAndBadges(completedOn("2025-06-09", "2025-06-08"), statsNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CurrentStreak != 2 {
		t.Fatalf("expected streak 2, got %d", stats.CurrentStreak)
	}
}

func TestStreakZeroWhenMostRecentTooOld(t *testing.T) {
	// Newest completion is two days back; earlier history is consecutive.
	stats, err := StreakAndBadges(completedOn("2025-06-08", "2025-06-07", "2025-06-06", "2025-06-05"), statsNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CurrentStreak != 0 {
		t.Fatalf("expected streak 0, got %d", stats.CurrentStreak)
	}
}

func TestStreakZeroWhenNewestDateInFuture(t *testing.T) {
	// A record dated past today must not count as a live streak.
	stats, err := StreakAndBadges(completedOn("2025-06-15"), statsNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CurrentStreak != 0 {
		t.Fatalf("expected streak 0, got %d", stats.CurrentStreak)
	}
	if stats.TotalCompleted != 1 {
		t.Fatalf("expected 1 completed, got %d", stats.TotalCompleted)
	}
}

func TestStreakStopsAtFirstGap(t *testing.T) {
	stats, err := StreakAndBadges(completedOn("2025-06-10", "2025-06-09", "2025-06-07", "2025-06-06"), statsNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CurrentStreak != 2 {
		t.Fatalf("expected streak 2, got %d", stats.CurrentStreak)
	}
}

func TestStreakDeduplicatesDates(t *testing.T) {
	completions := []domain.Completion{
		{TaskID: "a", Date: "2025-06-10", Status: domain.StatusCompleted},
		{TaskID: "b", Date: "2025-06-10", Status: domain.StatusCompleted},
		{TaskID: "a", Date: "2025-06-09", Status: domain.StatusCompleted},
	}
	stats, err := StreakAndBadges(completions, statsNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CurrentStreak != 2 {
		t.Fatalf("expected streak 2, got %d", stats.CurrentStreak)
	}
	if stats.TotalCompleted != 3 {
		t.Fatalf("expected 3 completed, got %d", stats.TotalCompleted)
	}
}

func TestMissedRecordsDoNotExtendStreak(t *testing.T) {
	completions := []domain.Completion{
		{TaskID: "a", Date: "2025-06-10", Status: domain.StatusCompleted},
		{TaskID: "a", Date: "2025-06-09", Status: domain.StatusMissed},
		{TaskID: "a", Date: "2025-06-08", Status: domain.StatusCompleted},
	}
	stats, err := StreakAndBadges(completions, statsNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", stats.CurrentStreak)
	}
	if stats.TotalMissed != 1 {
		t.Fatalf("expected 1 missed, got %d", stats.TotalMissed)
	}
}

func TestCompletionBadgeThresholds(t *testing.T) {
	dates := make([]string, 0, 10)
	// Ten completions spread over old dates so no streak badge interferes.
	for day := 1; day <= 10; day++ {
		dates = append(dates, time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC).Format(DateLayout))
	}
	stats, err := StreakAndBadges(completedOn(dates...), statsNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalCompleted != 10 {
		t.Fatalf("expected 10 completed, got %d", stats.TotalCompleted)
	}
	if !hasBadge(stats, "first_win") || !hasBadge(stats, "completed_10") {
		t.Fatalf("expected first_win and completed_10, got %+v", stats.Badges)
	}
	if hasBadge(stats, "completed_50") {
		t.Fatal("completed_50 must not be awarded at 10 completions")
	}
}

func TestStreakNoCompletions(t *testing.T) {
	stats, err := StreakAndBadges(nil, statsNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.CurrentStreak != 0 || stats.TotalCompleted != 0 || stats.TotalMissed != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if len(stats.Badges) != 0 {
		t.Fatalf("expected no badges, got %+v", stats.Badges)
	}
}

func TestStreakMalformedDate(t *testing.T) {
	completions := []domain.Completion{{TaskID: "a", Date: "06/10/2025", Status: domain.StatusCompleted}}
	if _, err := StreakAndBadges(completions, statsNow); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
