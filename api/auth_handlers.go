package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"timetable-api/domain"
)

const minPasswordLength = 6

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func signup(store Storage, auth Authenticator, cfg Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req signupRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
		}
		if req.Name == "" || req.Email == "" || req.Password == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "name, email and password are required"})
		}
		if len(req.Password) < minPasswordLength {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "password must be at least 6 characters"})
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create user"})
		}

		now := time.Now().UTC()
		user := domain.User{
			ID:                 uuid.NewString(),
			Name:               req.Name,
			Email:              req.Email,
			PasswordHash:       string(hash),
			SubscriptionStatus: domain.SubscriptionTrial,
			TrialEndsAt:        now.Add(time.Duration(cfg.trialDays()) * 24 * time.Hour),
			LastLoginAt:        now,
			CreatedAt:          now,
		}
		if err := store.CreateUser(c.Request().Context(), user); err != nil {
			if errors.Is(err, domain.ErrEmailTaken) {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "User already exists"})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
		}

		token, err := auth.IssueToken(user.ID)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not issue token"})
		}
		return c.JSON(http.StatusCreated, authResponse{
			User:  userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
			Token: token,
		})
	}
}

func login(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
		}

		user, err := store.UserByEmail(c.Request().Context(), req.Email)
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid login credentials"})
		}
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid login credentials"})
		}

		user.LastLoginAt = time.Now().UTC()
		if err := store.UpdateUser(c.Request().Context(), user); err != nil {
			// Login still succeeds; the timestamp is best effort.
			c.Logger().Error(err)
		}

		token, err := auth.IssueToken(user.ID)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not issue token"})
		}
		return c.JSON(http.StatusOK, authResponse{
			User:  userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
			Token: token,
		})
	}
}
