package reporting

import (
	"fmt"
	"sort"
	"time"

	"timetable-api/domain"
)

// Badge is an achievement derived from completion history.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StreakStats is the overall progress summary across all of a user's entries.
type StreakStats struct {
	CurrentStreak  int     `json:"currentStreak"`
	TotalCompleted int     `json:"totalCompleted"`
	TotalMissed    int     `json:"totalMissed"`
	Badges         []Badge `json:"badges"`
}

type badgeRule struct {
	badge  Badge
	earned func(streak, completed int) bool
}

// Rules are ordered and non-exclusive; each yields at most one badge.
var badgeRules = []badgeRule{
	{Badge{"streak_3", "On a Roll", "Completed tasks 3 days in a row"}, func(s, _ int) bool { return s >= 3 }},
	{Badge{"streak_7", "Week Warrior", "Completed tasks 7 days in a row"}, func(s, _ int) bool { return s >= 7 }},
	{Badge{"streak_30", "Unstoppable", "Completed tasks 30 days in a row"}, func(s, _ int) bool { return s >= 30 }},
	{Badge{"first_win", "First Win", "Completed your first task"}, func(_, c int) bool { return c >= 1 }},
	{Badge{"completed_10", "Ten Strong", "Completed 10 tasks"}, func(_, c int) bool { return c >= 10 }},
	{Badge{"completed_50", "Half Century", "Completed 50 tasks"}, func(_, c int) bool { return c >= 50 }},
	{Badge{"completed_100", "Centurion", "Completed 100 tasks"}, func(_, c int) bool { return c >= 100 }},
}

// StreakAndBadges computes the running daily-completion streak, overall
// counts and earned badges from every completion record of one user.
//
// The streak walks unique completed dates backwards from today and is only
// live when the newest such date is today or yesterday; several completions
// on one date count as a single streak day, and the walk stops at the first
// gap larger than one day.
func StreakAndBadges(completions []domain.Completion, now time.Time) (StreakStats, error) {
	stats := StreakStats{Badges: []Badge{}}

	seen := make(map[string]struct{})
	dates := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		switch c.Status {
		case domain.StatusCompleted:
			stats.TotalCompleted++
		case domain.StatusMissed:
			stats.TotalMissed++
			continue
		default:
			continue
		}
		if _, ok := seen[c.Date]; ok {
			continue
		}
		seen[c.Date] = struct{}{}
		d, err := ParseDate(c.Date)
		if err != nil {
			return StreakStats{}, fmt.Errorf("completion date %q: %w", c.Date, err)
		}
		dates = append(dates, d)
	}

	if len(dates) > 0 {
		sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
		// Live only when the newest date is today or yesterday; a
		// future-dated record must not activate the streak.
		if d := daysBetween(dates[0], Midnight(now)); d == 0 || d == 1 {
			stats.CurrentStreak = 1
			for i := 1; i < len(dates); i++ {
				if daysBetween(dates[i], dates[i-1]) != 1 {
					break
				}
				stats.CurrentStreak++
			}
		}
	}

	for _, rule := range badgeRules {
		if rule.earned(stats.CurrentStreak, stats.TotalCompleted) {
			stats.Badges = append(stats.Badges, rule.badge)
		}
	}
	return stats, nil
}

// daysBetween counts whole days from a to b; both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
