package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"timetable-api/domain"
	"timetable-api/reporting"
)

type timetableEntryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsRecurring *bool  `json:"is_recurring"`
	ExcludeDays []int  `json:"exclude_days"`
}

// normalizeExcludeDays drops duplicates and reports whether every value is a
// valid weekday number.
func normalizeExcludeDays(days []int) ([]int, bool) {
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, false
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out, true
}

func (r timetableEntryRequest) toEntry(id string) (domain.TimetableEntry, string) {
	if r.Title == "" || r.StartTime == "" || r.EndTime == "" {
		return domain.TimetableEntry{}, "Missing required fields"
	}
	days, ok := normalizeExcludeDays(r.ExcludeDays)
	if !ok {
		return domain.TimetableEntry{}, "exclude_days values must be between 0 and 6"
	}
	recurring := true
	if r.IsRecurring != nil {
		recurring = *r.IsRecurring
	}
	return domain.TimetableEntry{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		IsRecurring: recurring,
		ExcludeDays: days,
	}, ""
}

func getTimetable(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := subscribedUser(c, store, auth)
		if !ok {
			return err
		}
		entries, err := store.FetchTasks(c.Request().Context(), user.ID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, entries)
	}
}

func getTimetableToday(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := subscribedUser(c, store, auth)
		if !ok {
			return err
		}
		entries, err := store.FetchTasks(c.Request().Context(), user.ID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, reporting.ResolveDue(entries, time.Now()))
	}
}

func getTimetableWeek(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := subscribedUser(c, store, auth)
		if !ok {
			return err
		}
		entries, err := store.FetchTasks(c.Request().Context(), user.ID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		week := make(map[int][]domain.TimetableEntry, 7)
		for weekday := 0; weekday < 7; weekday++ {
			due := []domain.TimetableEntry{}
			for _, e := range entries {
				if reporting.DueOnWeekday(e, weekday) {
					due = append(due, e)
				}
			}
			week[weekday] = due
		}
		return c.JSON(http.StatusOK, week)
	}
}

func createTimetableEntry(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := subscribedUser(c, store, auth)
		if !ok {
			return err
		}
		var req timetableEntryRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		entry, msg := req.toEntry(uuid.NewString())
		if msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
		if err := store.InsertTask(c.Request().Context(), user.ID, entry); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, entry)
	}
}

func updateTimetableEntry(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := subscribedUser(c, store, auth)
		if !ok {
			return err
		}
		var req timetableEntryRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		entry, msg := req.toEntry(c.Param("id"))
		if msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
		if err := store.UpdateTask(c.Request().Context(), user.ID, entry); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "Entry not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, entry)
	}
}

func deleteTimetableEntry(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := subscribedUser(c, store, auth)
		if !ok {
			return err
		}
		if err := store.DeleteTask(c.Request().Context(), user.ID, c.Param("id")); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "Entry not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "Entry deleted successfully"})
	}
}
