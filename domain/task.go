package domain

// TimetableEntry is a recurring or one-off scheduled activity. ExcludeDays
// holds weekday numbers (0=Sunday..6=Saturday) on which the entry is not due.
type TimetableEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsRecurring bool   `json:"is_recurring"`
	ExcludeDays []int  `json:"exclude_days"`
}
