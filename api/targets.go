package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"timetable-api/domain"
)

type targetRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
}

func getTargets(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok, err := authedUserID(c, auth)
		if !ok {
			return err
		}
		targets, err := store.FetchTargets(c.Request().Context(), userID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, targets)
	}
}

func createTarget(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok, err := authedUserID(c, auth)
		if !ok {
			return err
		}
		var req targetRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
		}
		if req.Title == "" || req.Deadline.IsZero() {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "title and deadline are required"})
		}
		target := domain.Target{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			Deadline:    req.Deadline,
			CreatedAt:   time.Now().UTC(),
		}
		if err := store.InsertTarget(c.Request().Context(), userID, target); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, target)
	}
}

func toggleTarget(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok, err := authedUserID(c, auth)
		if !ok {
			return err
		}
		ctx := c.Request().Context()
		target, err := store.TargetByID(ctx, userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"message": "Target not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		target.IsCompleted = !target.IsCompleted
		if err := store.UpdateTarget(ctx, userID, target); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, target)
	}
}

func deleteTarget(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok, err := authedUserID(c, auth)
		if !ok {
			return err
		}
		if err := store.DeleteTarget(c.Request().Context(), userID, c.Param("id")); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"message": "Target not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "Target deleted"})
	}
}
