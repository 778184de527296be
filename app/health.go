package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/gaborage/go-proposals/generation"
)

const (
	healthyStatus   = "healthy"
	unhealthyStatus = "unhealthy"
)

// HealthStatus captures the outcome of a readiness probe.
type HealthStatus struct {
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	Details  map[string]any `json:"details,omitempty"`
	Err      error          `json:"-"`
	Critical bool           `json:"critical"`
}

// HealthProbe exposes a uniform interface for readiness probes.
type HealthProbe interface {
	Run(ctx context.Context) HealthStatus
}

type healthProbeFunc struct {
	name     string
	critical bool
	fn       func(ctx context.Context) (string, map[string]any, error)
}

func (h healthProbeFunc) Run(ctx context.Context) HealthStatus {
	status, details, err := h.fn(ctx)
	if details == nil {
		details = map[string]any{}
	}
	return HealthStatus{
		Name:     h.name,
		Status:   status,
		Details:  details,
		Err:      err,
		Critical: h.critical,
	}
}

// backendHealthProbe reports whether the generation backend can take work.
func backendHealthProbe(backend generation.Backend) HealthProbe {
	return healthProbeFunc{
		name:     "generation",
		critical: true,
		fn: func(ctx context.Context) (string, map[string]any, error) {
			details := map[string]any{"backend": backend.Name()}
			if err := backend.Health(ctx); err != nil {
				details["error"] = err.Error()
				return unhealthyStatus, details, err
			}
			return healthyStatus, details, nil
		},
	}
}

// healthChecker runs the probes. Concurrent checks share one run.
type healthChecker struct {
	probes []HealthProbe
	group  singleflight.Group
}

func newHealthChecker(probes ...HealthProbe) *healthChecker {
	return &healthChecker{probes: probes}
}

// Check runs every probe and returns their statuses in registration order.
func (h *healthChecker) Check(ctx context.Context) []HealthStatus {
	v, _, _ := h.group.Do("check", func() (any, error) {
		statuses := make([]HealthStatus, 0, len(h.probes))
		for _, p := range h.probes {
			statuses = append(statuses, p.Run(ctx))
		}
		return statuses, nil
	})
	return v.([]HealthStatus)
}

// Ready returns the errors of failing critical probes.
func (h *healthChecker) Ready(ctx context.Context) error {
	var errs []error
	for _, st := range h.Check(ctx) {
		if st.Critical && st.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.Name, st.Err))
		}
	}
	return errors.Join(errs...)
}
