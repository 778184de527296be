package server

import (
	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-proposals/trace"
)

// TraceContext copies the request ID and inbound traceparent into the request
// context so generation clients can forward them without knowing about Echo.
func TraceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			ctx := trace.WithTraceID(req.Context(), getTraceID(c))
			if tp := req.Header.Get(trace.HeaderTraceParent); tp != "" {
				ctx = trace.WithTraceParent(ctx, tp)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// getTraceID returns the inbound or generated request ID, creating one when
// the request ID middleware did not run.
func getTraceID(c echo.Context) string {
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	id := trace.EnsureTraceID(c.Request().Context())
	c.Response().Header().Set(echo.HeaderXRequestID, id)
	return id
}
