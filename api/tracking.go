package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"timetable-api/domain"
	"timetable-api/reporting"
)

type markRequest struct {
	TimetableID    string `json:"timetable_id"`
	CompletionDate string `json:"completion_date"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
}

func markCompletion(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok, err := authedUserID(c, auth)
		if !ok {
			return err
		}
		var req markRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		if req.TimetableID == "" || req.CompletionDate == "" || req.Status == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
		}
		if req.Status != domain.StatusCompleted && req.Status != domain.StatusMissed {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": `Status must be "completed" or "missed"`})
		}
		date, err := reporting.ParseDate(req.CompletionDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid completion_date"})
		}

		ctx := c.Request().Context()
		if _, err := store.TaskByID(ctx, userID, req.TimetableID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "Entry not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		record, err := store.UpsertCompletion(ctx, domain.Completion{
			TaskID: req.TimetableID,
			UserID: userID,
			Date:   date.Format(reporting.DateLayout),
			Status: req.Status,
			Notes:  req.Notes,
		})
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, record)
	}
}

type dailyStatsResponse struct {
	reporting.DayStats
	Tasks       []domain.TimetableEntry `json:"tasks"`
	Completions []domain.Completion     `json:"completions"`
}

func dailyStats(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newStatsRequestMetrics(ctx, logger, "/api/tracking/daily")
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		date, parseErr := reporting.ParseDate(c.Param("date"))
		if parseErr != nil {
			metrics.SetErrorStage("invalid_date")
			err = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
			return err
		}
		dateStr := date.Format(reporting.DateLayout)

		fetchStart := time.Now()
		entries, fetchErr := store.FetchTasks(ctx, userID)
		if fetchErr == nil {
			var completions []domain.Completion
			completions, fetchErr = store.CompletionsInRange(ctx, userID, dateStr, dateStr)
			metrics.ObserveFetch(time.Since(fetchStart))
			if fetchErr == nil {
				computeStart := time.Now()
				due := reporting.ResolveDue(entries, date)
				stats := reporting.Aggregate(due, completions, date)
				metrics.ObserveCompute(time.Since(computeStart))
				metrics.SetRecords(len(completions))
				err = c.JSON(http.StatusOK, dailyStatsResponse{DayStats: stats, Tasks: due, Completions: completions})
				return err
			}
		} else {
			metrics.ObserveFetch(time.Since(fetchStart))
		}

		metrics.SetErrorStage("storage")
		c.Logger().Error(fetchErr)
		err = c.String(http.StatusInternalServerError, fetchErr.Error())
		return err
	}
}

type rangeStatsResponse struct {
	StartDate string                 `json:"startDate,omitempty"`
	Year      int                    `json:"year,omitempty"`
	Month     int                    `json:"month,omitempty"`
	Days      []reporting.DayStats   `json:"days"`
	Summary   reporting.RangeSummary `json:"summary"`
}

func weeklyStats(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok, err := authedUserID(c, auth)
		if !ok {
			return err
		}
		start, parseErr := reporting.ParseDate(c.Param("startDate"))
		if parseErr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start date"})
		}
		return rangeStats(c, store, userID, rangeStatsResponse{StartDate: start.Format(reporting.DateLayout)}, start, 7)
	}
}

func monthlyStats(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok, err := authedUserID(c, auth)
		if !ok {
			return err
		}
		year, yearErr := strconv.Atoi(c.Param("year"))
		month, monthErr := strconv.Atoi(c.Param("month"))
		if yearErr != nil || monthErr != nil || month < 1 || month > 12 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year or month"})
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return rangeStats(c, store, userID, rangeStatsResponse{Year: year, Month: month}, start, reporting.DaysInMonth(year, month))
	}
}

func rangeStats(c echo.Context, store Storage, userID string, resp rangeStatsResponse, start time.Time, days int) error {
	ctx := c.Request().Context()
	entries, err := store.FetchTasks(ctx, userID)
	if err != nil {
		c.Logger().Error(err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
	from := start.Format(reporting.DateLayout)
	to := start.AddDate(0, 0, days-1).Format(reporting.DateLayout)
	completions, err := store.CompletionsInRange(ctx, userID, from, to)
	if err != nil {
		c.Logger().Error(err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
	resp.Days, resp.Summary = reporting.AggregateRange(entries, completions, start, days)
	return c.JSON(http.StatusOK, resp)
}

func trackingHistory(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok, err := authedUserID(c, auth)
		if !ok {
			return err
		}
		ctx := c.Request().Context()
		taskID := c.Param("timetableId")
		if _, err := store.TaskByID(ctx, userID, taskID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "Entry not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		history, err := store.CompletionsForTask(ctx, taskID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, history)
	}
}

func overallStats(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newStatsRequestMetrics(ctx, logger, "/api/tracking/stats")
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		fetchStart := time.Now()
		completions, fetchErr := store.CompletionsForUser(ctx, userID)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.String(http.StatusInternalServerError, fetchErr.Error())
			return err
		}
		metrics.SetRecords(len(completions))

		computeStart := time.Now()
		stats, computeErr := reporting.StreakAndBadges(completions, time.Now())
		metrics.ObserveCompute(time.Since(computeStart))
		if computeErr != nil {
			metrics.SetErrorStage("compute")
			c.Logger().Error(computeErr)
			err = c.String(http.StatusInternalServerError, computeErr.Error())
			return err
		}

		err = c.JSON(http.StatusOK, stats)
		return err
	}
}
