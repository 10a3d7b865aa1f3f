package reporting

import (
	"time"

	"timetable-api/domain"
)

// DateLayout is the calendar-date wire format used throughout the API.
const DateLayout = "2006-01-02"

// ResolveDue returns the subset of entries due on the given date. An entry is
// due unless the date's weekday (0=Sunday..6=Saturday) appears in its
// exclusion set. The recurrence flag is not consulted.
func ResolveDue(entries []domain.TimetableEntry, date time.Time) []domain.TimetableEntry {
	weekday := int(date.Weekday())
	due := make([]domain.TimetableEntry, 0, len(entries))
	for _, e := range entries {
		if DueOnWeekday(e, weekday) {
			due = append(due, e)
		}
	}
	return due
}

// DueOnWeekday reports whether the entry occurs on the given weekday number
// (0=Sunday..6=Saturday). This predicate is the single definition of the
// occurrence rule.
func DueOnWeekday(e domain.TimetableEntry, weekday int) bool {
	for _, d := range e.ExcludeDays {
		if d == weekday {
			return false
		}
	}
	return true
}

// ParseDate parses a YYYY-MM-DD string to a UTC midnight instant.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Midnight truncates t to its calendar date at UTC midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of calendar days in the given month; day
// zero of the following month normalizes to its last day, which keeps leap
// Februaries correct.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC).Day()
}
