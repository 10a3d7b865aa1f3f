package domain

import "time"

// Completion statuses. Any other value is rejected before storage.
const (
	StatusCompleted = "completed"
	StatusMissed    = "missed"
)

// Completion records the outcome of one timetable entry on one calendar date.
// Date uses the YYYY-MM-DD layout; at most one record exists per (task, date)
// pair and marking the same pair again replaces status and notes.
type Completion struct {
	TaskID    string    `json:"timetable_id"`
	UserID    string    `json:"-"`
	Date      string    `json:"completion_date"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	UpdatedAt time.Time `json:"updated_at"`
}
