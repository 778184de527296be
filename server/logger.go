package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/trace"
)

// LoggerConfig configures the access log middleware.
type LoggerConfig struct {
	// Skipper excludes requests such as health probes.
	Skipper middleware.Skipper

	// SlowRequestThreshold marks successful requests slower than this with
	// result_code="WARN". Zero disables the check.
	SlowRequestThreshold time.Duration
}

// LoggerWithConfig logs one summary per request using OpenTelemetry HTTP
// attribute names. 5xx responses log at error, 4xx at warn. The request
// logger is attached to the request context for handlers.
func LoggerWithConfig(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	skipper := cfg.Skipper
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			start := time.Now()
			requestID := safeGetRequestID(c)
			reqLog := log.WithFields(map[string]any{"request_id": requestID})
			c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), reqLog)))

			err := next(c)
			if err != nil {
				// Let the error handler write the envelope so the status is final.
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status
			level, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)

			event := createLogEvent(log, level)
			if err != nil {
				event = event.Err(err)
			}
			if jobID := c.Response().Header().Get(trace.HeaderJobID); jobID != "" {
				event = event.Str("job_id", jobID)
			}

			method := c.Request().Method
			path := c.Request().URL.Path
			event.
				Str("request_id", requestID).
				Str("http.request.method", method).
				Int("http.response.status_code", status).
				Int64("http.server.request.duration", latency.Nanoseconds()).
				Str("url.path", path).
				Str("http.route", c.Path()).
				Str("client.address", c.RealIP()).
				Str("user_agent.original", c.Request().UserAgent()).
				Str("result_code", resultCode).
				Msg(createActionMessage(method, path, latency, status))

			return nil
		}
	}
}

// determineSeverity maps status, latency and error to a log level and result code.
func determineSeverity(status int, latency, threshold time.Duration, err error) (logLevel, resultCode string) {
	switch {
	case status >= 500 || (err != nil && status == 0):
		return "error", "ERROR"
	case status >= 400:
		return "warn", "WARN"
	case threshold > 0 && latency > threshold:
		return "info", "WARN"
	default:
		return "info", "INFO"
	}
}

func createLogEvent(log logger.Logger, level string) logger.LogEvent {
	switch level {
	case "error":
		return log.Error()
	case "warn":
		return log.Warn()
	default:
		return log.Info()
	}
}

// createActionMessage renders e.g. "GET /api/v1/drafts completed in 12ms with status 201".
func createActionMessage(method, path string, latency time.Duration, status int) string {
	return method + " " + path + " completed in " + latency.Round(time.Millisecond).String() +
		" with status " + strconv.Itoa(status)
}
