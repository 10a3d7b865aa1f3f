package reporting

import (
	"math"
	"time"

	"timetable-api/domain"
)

// DayStats summarizes one calendar date: how many entries were due, how many
// of those were marked completed or missed, and the remainder still pending.
type DayStats struct {
	Date           string  `json:"date"`
	Day            int     `json:"day"`
	DayOfWeek      int     `json:"dayOfWeek"`
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Missed         int     `json:"missed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completionRate"`
}

// RangeSummary accumulates DayStats over a span of dates. Its completion rate
// is recomputed from the summed counts, never averaged from daily rates.
type RangeSummary struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Missed         int     `json:"missed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completionRate"`
}

// Rate returns completed/total as a percentage rounded to one decimal place,
// or 0 when nothing was due.
func Rate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

// Aggregate counts completion outcomes for one date. Only records dated that
// day and referencing an entry in the due set are counted; anything else,
// including records for another user's entries, is ignored.
func Aggregate(due []domain.TimetableEntry, completions []domain.Completion, date time.Time) DayStats {
	dueIDs := make(map[string]struct{}, len(due))
	for _, e := range due {
		dueIDs[e.ID] = struct{}{}
	}

	dateStr := date.Format(DateLayout)
	completed, missed := 0, 0
	for _, c := range completions {
		if c.Date != dateStr {
			continue
		}
		if _, ok := dueIDs[c.TaskID]; !ok {
			continue
		}
		switch c.Status {
		case domain.StatusCompleted:
			completed++
		case domain.StatusMissed:
			missed++
		}
	}

	total := len(due)
	return DayStats{
		Date:           dateStr,
		Day:            date.Day(),
		DayOfWeek:      int(date.Weekday()),
		Total:          total,
		Completed:      completed,
		Missed:         missed,
		Pending:        total - completed - missed,
		CompletionRate: Rate(completed, total),
	}
}

// AggregateRange repeats the daily aggregation for the given number of
// consecutive dates starting at start, and sums the counts into a summary.
func AggregateRange(entries []domain.TimetableEntry, completions []domain.Completion, start time.Time, days int) ([]DayStats, RangeSummary) {
	stats := make([]DayStats, 0, days)
	var sum RangeSummary
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		day := Aggregate(ResolveDue(entries, date), completions, date)
		stats = append(stats, day)
		sum.Total += day.Total
		sum.Completed += day.Completed
		sum.Missed += day.Missed
	}
	sum.Pending = sum.Total - sum.Completed - sum.Missed
	sum.CompletionRate = Rate(sum.Completed, sum.Total)
	return stats, sum
}
