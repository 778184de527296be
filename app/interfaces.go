package app

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-proposals/server"
)

// ServerRunner abstracts the HTTP server to allow injecting test-friendly implementations
type ServerRunner interface {
	Start() error
	Shutdown(ctx context.Context) error
	Echo() *echo.Echo
	ModuleGroup() server.RouteRegistrar
}

var _ ServerRunner = (*server.Server)(nil)
