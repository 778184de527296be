package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitCleanup is how long an idle client's limiter is kept.
const RateLimitCleanup = 3 * time.Minute

// RateLimit limits each client IP to requestsPerSecond with the given burst.
// A non-positive rate disables limiting. A non-positive burst defaults to
// the rate.
func RateLimit(requestsPerSecond, burst int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	if burst <= 0 {
		burst = requestsPerSecond
	}

	deny := func(c echo.Context, message string) error {
		c.Response().Header().Set(HeaderRetryAfter, strconv.Itoa(1))
		return c.JSON(http.StatusTooManyRequests, APIResponse{
			Error: &APIErrorResponse{
				Code:    "TOO_MANY_REQUESTS",
				Message: message,
			},
			Meta: responseMeta(c),
		})
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(requestsPerSecond),
				Burst:     burst,
				ExpiresIn: RateLimitCleanup,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return deny(c, "Rate limit exceeded")
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return deny(c, "Too many requests")
		},
	})
}
