package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/logger"
)

// SetupMiddlewares registers the middleware chain. Probe paths are neither
// traced nor logged.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config, healthPath, readyPath string) {
	isProbe := func(c echo.Context) bool {
		p := c.Request().URL.Path
		return p == healthPath || p == readyPath
	}

	e.Use(middleware.RequestID())

	e.Use(otelecho.Middleware(cfg.App.Name, otelecho.WithSkipper(isProbe)))

	// Copies correlation IDs into the request context for outbound calls
	e.Use(TraceContext())

	e.Use(CORS(cfg.Server.CORS.Origins))

	e.Use(LoggerWithConfig(log, LoggerConfig{
		Skipper:              isProbe,
		SlowRequestThreshold: SlowRequestThreshold,
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", safeGetRequestID(c)).
				Bytes("stack", stack).
				Msg("Panic recovered")
			return err
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            3600,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	e.Use(middleware.BodyLimit(DefaultBodyLimit))

	e.Use(Timeout(cfg.Server.Timeout.Middleware))

	e.Use(RateLimit(cfg.Server.Rate.Limit, cfg.Server.Rate.Burst))

	e.Use(Timing())
}
