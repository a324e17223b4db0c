package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const metricsKey = "request.metrics"

type requestMetrics struct {
	logger        *log.Logger
	start         time.Time
	fetchDuration time.Duration
	itemsReturned int
	errorStage    string
}

func newRequestMetrics(logger *log.Logger) *requestMetrics {
	return &requestMetrics{logger: logger, start: time.Now()}
}

func (m *requestMetrics) ObserveFetch(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.fetchDuration += d
}

func (m *requestMetrics) SetItemsReturned(n int) {
	if m == nil || n < 0 {
		return
	}
	m.itemsReturned = n
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) Log(method, route string, status int, err error) {
	if m == nil || m.logger == nil {
		return
	}
	fields := log.Fields{
		"method":   method,
		"route":    route,
		"status":   status,
		"total_ms": durationToMillis(time.Since(m.start)),
	}
	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.itemsReturned > 0 {
		fields["items_returned"] = m.itemsReturned
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("request.metrics")
}

// metricsMiddleware emits one structured log line per request.
func metricsMiddleware(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m := newRequestMetrics(logger)
			c.Set(metricsKey, m)
			err := next(c)
			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
			m.Log(c.Request().Method, c.Path(), status, err)
			return err
		}
	}
}

func metricsOf(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsKey).(*requestMetrics)
	return m
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
