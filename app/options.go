package app

import (
	"io"

	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/generation"
	"github.com/gaborage/go-proposals/logger"
)

// Options contains optional dependencies for creating an App instance.
// Zero values fall back to what the configuration describes.
type Options struct {
	// Logger replaces the logger built from cfg.Log.
	Logger logger.Logger
	// Backend replaces the generation backend selected by cfg.Generation.
	Backend generation.Backend
	// BackendFactory builds the backend when Backend is nil.
	BackendFactory func(*config.GenerationConfig, logger.Logger) (generation.Backend, error)
	// TelemetryWriter receives spans and metrics when the observability
	// endpoint is stdout.
	TelemetryWriter io.Writer
}
