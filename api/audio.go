package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"timetable-api/domain"
)

type audioRequest struct {
	Title        string `json:"title"`
	OriginalLink string `json:"originalLink"`
	FileID       string `json:"fileId"`
}

type audioRetitleRequest struct {
	Title string `json:"title"`
}

func getAudio(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := subscribedUser(c, store, auth)
		if !ok {
			return err
		}
		links, err := store.FetchAudio(c.Request().Context(), user.ID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, links)
	}
}

func createAudio(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := subscribedUser(c, store, auth)
		if !ok {
			return err
		}
		var req audioRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
		}
		if req.Title == "" || req.OriginalLink == "" || req.FileID == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "title, originalLink and fileId are required"})
		}
		audio := domain.Audio{
			ID:           uuid.NewString(),
			Title:        req.Title,
			OriginalLink: req.OriginalLink,
			FileID:       req.FileID,
			AddedAt:      time.Now().UTC(),
		}
		if err := store.InsertAudio(c.Request().Context(), user.ID, audio); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, audio)
	}
}

// No delete handler: audio links are permanent.
func retitleAudio(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := subscribedUser(c, store, auth)
		if !ok {
			return err
		}
		var req audioRetitleRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
		}
		ctx := c.Request().Context()
		audio, err := store.AudioByID(ctx, user.ID, c.Param("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"message": "Audio not found"})
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		audio.Title = req.Title
		if err := store.UpdateAudio(ctx, user.ID, audio); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, audio)
	}
}
