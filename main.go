package main

import (
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"timetable-api/api"
	"timetable-api/billing"
	"timetable-api/storage"
	"timetable-api/sweeper"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	tables := storage.Tables{
		Users:        os.Getenv("USERS_TABLE"),
		Tasks:        os.Getenv("TASKS_TABLE"),
		Completions:  os.Getenv("COMPLETIONS_TABLE"),
		Targets:      os.Getenv("TARGETS_TABLE"),
		Audio:        os.Getenv("AUDIO_TABLE"),
		BillingQueue: os.Getenv("BILLING_QUEUE"),
	}
	if connStr == "" || tables.Users == "" || tables.Tasks == "" || tables.Completions == "" ||
		tables.Targets == "" || tables.Audio == "" || tables.BillingQueue == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, tables)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		log.Fatal("missing redis config")
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	rc := redis.NewClient(redisOpts)
	ttl := 24 * time.Hour
	if v := os.Getenv("WEBHOOK_DEDUPE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid WEBHOOK_DEDUPE_TTL: %v", err)
		}
		ttl = d
	}
	deduper := api.NewRedisDeduper(rc, ttl)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("missing JWT_SECRET")
	}
	var jwks *keyfunc.JWKS
	if jwksURL := os.Getenv("AUTH_JWKS_URL"); jwksURL != "" {
		jwks, err = keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
	}
	auth := api.NewAuth([]byte(jwtSecret), jwks, os.Getenv("AUTH_AUDIENCE"), os.Getenv("AUTH_ISSUER"))

	var gateway api.PaymentGateway
	billingCfg := billing.Config{
		KeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		PlanID:        os.Getenv("RAZORPAY_PLAN_ID"),
		WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
	}
	if billingCfg.Enabled() {
		gateway = billing.New(billingCfg)
	} else {
		log.Warn("payment gateway not configured, subscription purchases disabled")
	}

	trialDays := 0
	if v := os.Getenv("TRIAL_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid TRIAL_DAYS: %v", err)
		}
		trialDays = n
	}

	otel.SetTracerProvider(sdktrace.NewTracerProvider())

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddleware("timetable_api"))
	e.GET("/metrics", echoprometheus.NewHandler())

	logger := log.New()
	api.Register(e, store, auth, gateway, deduper, api.Config{TrialDays: trialDays}, logger)

	schedule := os.Getenv("SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = "@hourly"
	}
	sw := sweeper.New(store, logger)
	if err := sw.Start(schedule); err != nil {
		log.Fatalf("invalid SWEEP_SCHEDULE: %v", err)
	}
	defer sw.Stop()

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
