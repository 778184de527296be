package app

import (
	"net"
	"net/http"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-proposals/logger"
)

// DebugPathPrefix is where the debug endpoints are mounted.
const DebugPathPrefix = "/_debug"

// DebugResponse represents a standard debug endpoint response
type DebugResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Duration  string    `json:"duration"`
	Data      any       `json:"data"`
	Error     string    `json:"error,omitempty"`
}

// GoroutineInfo contains information about goroutines
type GoroutineInfo struct {
	Count   int            `json:"count"`
	ByState map[string]int `json:"by_state"`
}

// DebugHandlers serves runtime diagnostics to loopback clients.
type DebugHandlers struct {
	app     *App
	logger  logger.Logger
	started time.Time
}

// NewDebugHandlers creates a new debug handlers instance
func NewDebugHandlers(app *App, log logger.Logger) *DebugHandlers {
	return &DebugHandlers{app: app, logger: log, started: time.Now()}
}

// RegisterDebugEndpoints registers the debug endpoints under DebugPathPrefix.
func (d *DebugHandlers) RegisterDebugEndpoints(e *echo.Echo) {
	g := e.Group(DebugPathPrefix, loopbackOnly())
	g.GET("/info", d.handleInfo)
	g.GET("/goroutines", d.handleGoroutines)
	g.GET("/health", d.handleHealth)

	d.logger.Info().Str("prefix", DebugPathPrefix).Msg("Debug endpoints registered")
}

// loopbackOnly rejects requests that do not come from the local host.
func loopbackOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := net.ParseIP(c.RealIP())
			if ip == nil || !ip.IsLoopback() {
				return echo.NewHTTPError(http.StatusForbidden, "Access denied")
			}
			return next(c)
		}
	}
}

func (d *DebugHandlers) newDebugResponse(start time.Time, data any, err error) DebugResponse {
	resp := DebugResponse{
		Timestamp: time.Now(),
		Duration:  time.Since(start).String(),
		Data:      data,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func (d *DebugHandlers) handleInfo(c echo.Context) error {
	start := time.Now()
	cfg := d.app.cfg

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	info := map[string]any{
		"app": map[string]any{
			"name":        cfg.App.Name,
			"version":     cfg.App.Version,
			"environment": cfg.App.Env,
		},
		"generation": map[string]any{
			"backend": d.app.backend.Name(),
			"timeout": cfg.Generation.Timeout.String(),
		},
		"drafts": map[string]any{
			"open": d.app.api.Drafts().Len(),
			"max":  cfg.Server.Drafts.Max,
		},
		"runtime": map[string]any{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
			"heap_alloc": mem.HeapAlloc,
			"uptime":     time.Since(d.started).Round(time.Second).String(),
		},
	}
	return c.JSON(http.StatusOK, d.newDebugResponse(start, info, nil))
}

// handleGoroutines returns goroutine counts by state, or the raw dump with
// ?format=text.
func (d *DebugHandlers) handleGoroutines(c echo.Context) error {
	start := time.Now()

	var buf strings.Builder
	if err := pprof.Lookup("goroutine").WriteTo(&buf, 2); err != nil {
		return c.JSON(http.StatusInternalServerError, d.newDebugResponse(start, nil, err))
	}
	if c.QueryParam("format") == "text" {
		return c.String(http.StatusOK, buf.String())
	}

	info := GoroutineInfo{Count: runtime.NumGoroutine(), ByState: goroutineStates(buf.String())}
	return c.JSON(http.StatusOK, d.newDebugResponse(start, info, nil))
}

// goroutineStates counts the "goroutine N [state]:" headers of a debug=2 dump.
func goroutineStates(dump string) map[string]int {
	states := make(map[string]int)
	for line := range strings.Lines(dump) {
		if !strings.HasPrefix(line, "goroutine ") {
			continue
		}
		open := strings.IndexByte(line, '[')
		end := strings.IndexByte(line, ']')
		if open < 0 || end < open {
			continue
		}
		state, _, _ := strings.Cut(line[open+1:end], ",")
		states[state]++
	}
	return states
}

func (d *DebugHandlers) handleHealth(c echo.Context) error {
	start := time.Now()
	statuses := d.app.health.Check(c.Request().Context())

	code := http.StatusOK
	for _, st := range statuses {
		if st.Critical && st.Err != nil {
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, d.newDebugResponse(start, statuses, nil))
}
