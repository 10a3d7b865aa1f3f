package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"timetable-api/domain"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

// Config carries tunables handlers need beyond their collaborators.
type Config struct {
	// TrialDays is the free-trial length granted at signup; 7 when zero.
	TrialDays int
}

func (c Config) trialDays() int {
	if c.TrialDays <= 0 {
		return 7
	}
	return c.TrialDays
}

// Register wires up all API routes on the provided Echo instance. gateway may
// be nil when the payment provider is not configured.
func Register(e *echo.Echo, store Storage, auth Authenticator, gateway PaymentGateway, deduper Deduper, cfg Config, logger *log.Logger) {
	e.GET("/api/health", health())

	e.POST("/api/auth/signup", signup(store, auth, cfg))
	e.POST("/api/auth/login", login(store, auth))

	e.GET("/api/timetable", getTimetable(store, auth))
	e.GET("/api/timetable/today", getTimetableToday(store, auth))
	e.GET("/api/timetable/week", getTimetableWeek(store, auth))
	e.POST("/api/timetable", createTimetableEntry(store, auth))
	e.PUT("/api/timetable/:id", updateTimetableEntry(store, auth))
	e.DELETE("/api/timetable/:id", deleteTimetableEntry(store, auth))

	e.POST("/api/tracking/mark", markCompletion(store, auth))
	e.GET("/api/tracking/daily/:date", dailyStats(store, auth, logger))
	e.GET("/api/tracking/weekly/:startDate", weeklyStats(store, auth))
	e.GET("/api/tracking/monthly/:year/:month", monthlyStats(store, auth))
	e.GET("/api/tracking/history/:timetableId", trackingHistory(store, auth))
	e.GET("/api/tracking/stats", overallStats(store, auth, logger))

	e.GET("/api/targets", getTargets(store, auth))
	e.POST("/api/targets", createTarget(store, auth))
	e.PATCH("/api/targets/:id/toggle", toggleTarget(store, auth))
	e.DELETE("/api/targets/:id", deleteTarget(store, auth))

	e.GET("/api/audio", getAudio(store, auth))
	e.POST("/api/audio", createAudio(store, auth))
	e.PATCH("/api/audio/:id", retitleAudio(store, auth))

	e.GET("/api/subscription/status", subscriptionStatus(store, auth))
	e.POST("/api/subscription/create-order", createOrder(store, auth, gateway))
	e.POST("/api/subscription/verify-payment", verifyPayment(store, auth, gateway))
	e.POST("/api/subscription/webhook", subscriptionWebhook(store, gateway, deduper, logger))
	e.POST("/api/subscription/cancel", cancelSubscription(store, auth, gateway))
}

func health() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "Timetable Tracker API is running"})
	}
}

// decodeBody strictly decodes a capped JSON request body into v.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// authedUserID authenticates the request. When the bool is false the response
// has already been written and the error is the write result.
func authedUserID(c echo.Context, auth Authenticator) (string, bool, error) {
	userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return "", false, c.String(http.StatusUnauthorized, err.Error())
	}
	return userID, true, nil
}

// authedUser authenticates and loads the account record.
func authedUser(c echo.Context, store Storage, auth Authenticator) (domain.User, bool, error) {
	userID, ok, err := authedUserID(c, auth)
	if !ok {
		return domain.User{}, false, err
	}
	user, err := store.UserByID(c.Request().Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, false, c.String(http.StatusUnauthorized, "user not found")
	}
	if err != nil {
		c.Logger().Error(err)
		return domain.User{}, false, c.String(http.StatusInternalServerError, err.Error())
	}
	return user, true, nil
}

// subscribedUser authenticates, loads the account and enforces the
// trial-or-paid gate shared by the timetable and audio routes.
func subscribedUser(c echo.Context, store Storage, auth Authenticator) (domain.User, bool, error) {
	user, ok, err := authedUser(c, store, auth)
	if !ok {
		return domain.User{}, false, err
	}
	now := time.Now()
	if !user.HasActiveSubscription(now) {
		message := "Active subscription required to access this feature."
		if user.SubscriptionStatus == domain.SubscriptionTrial && user.TrialEndsAt.Before(now) {
			message = "Your free trial has expired. Please subscribe to continue."
		}
		return domain.User{}, false, c.JSON(http.StatusForbidden, echo.Map{
			"message":            message,
			"subscriptionStatus": user.SubscriptionStatus,
			"trialEndsAt":        user.TrialEndsAt,
			"subscriptionEndsAt": user.SubscriptionEndsAt,
		})
	}
	return user, true, nil
}
