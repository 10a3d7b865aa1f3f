package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "timetable-api"

// statsRequestMetrics collects stage timings for the reporting routes and
// emits them as one structured log entry plus a span.
type statsRequestMetrics struct {
	logger          *log.Logger
	span            trace.Span
	start           time.Time
	route           string
	authDuration    time.Duration
	fetchDuration   time.Duration
	computeDuration time.Duration
	records         int
	errorStage      string
}

func newStatsRequestMetrics(ctx context.Context, logger *log.Logger, route string) (*statsRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, route)
	return &statsRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
		route:  route,
	}, spanCtx
}

func (m *statsRequestMetrics) ObserveAuth(d time.Duration) {
	if d > 0 {
		m.authDuration = d
	}
}

func (m *statsRequestMetrics) ObserveFetch(d time.Duration) {
	if d > 0 {
		m.fetchDuration = d
	}
}

func (m *statsRequestMetrics) ObserveCompute(d time.Duration) {
	if d > 0 {
		m.computeDuration = d
	}
}

func (m *statsRequestMetrics) SetRecords(count int) {
	if count < 0 {
		count = 0
	}
	m.records = count
}

func (m *statsRequestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

func (m *statsRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	total := time.Since(m.start)

	m.span.SetAttributes(
		attribute.String("http.route", m.route),
		attribute.Int("http.status_code", status),
		attribute.Float64("tracker.total_ms", durationToMillis(total)),
		attribute.Int("tracker.records", m.records),
	)
	if err != nil {
		m.span.SetStatus(codes.Error, err.Error())
	}
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"route":    m.route,
		"status":   status,
		"total_ms": durationToMillis(total),
		"records":  m.records,
	}
	if m.authDuration > 0 {
		fields["auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.computeDuration > 0 {
		fields["compute_ms"] = durationToMillis(m.computeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("tracking.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
