package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticProbe(name string, critical bool, err error) HealthProbe {
	return healthProbeFunc{
		name:     name,
		critical: critical,
		fn: func(context.Context) (string, map[string]any, error) {
			if err != nil {
				return unhealthyStatus, nil, err
			}
			return healthyStatus, nil, nil
		},
	}
}

func TestBackendHealthProbe(t *testing.T) {
	st := backendHealthProbe(&fakeBackend{}).Run(context.Background())
	assert.Equal(t, "generation", st.Name)
	assert.Equal(t, healthyStatus, st.Status)
	assert.True(t, st.Critical)
	assert.Equal(t, "fake", st.Details["backend"])

	st = backendHealthProbe(&fakeBackend{healthErr: errors.New("down")}).Run(context.Background())
	assert.Equal(t, unhealthyStatus, st.Status)
	assert.Equal(t, "down", st.Details["error"])
	assert.EqualError(t, st.Err, "down")
}

func TestHealthCheckerReady(t *testing.T) {
	tests := []struct {
		name    string
		probes  []HealthProbe
		wantErr string
	}{
		{name: "no_probes"},
		{name: "all_healthy", probes: []HealthProbe{staticProbe("a", true, nil)}},
		{
			name:   "non_critical_failure_ignored",
			probes: []HealthProbe{staticProbe("cache", false, errors.New("miss"))},
		},
		{
			name: "critical_failures_joined",
			probes: []HealthProbe{
				staticProbe("a", true, errors.New("down")),
				staticProbe("b", true, errors.New("slow")),
			},
			wantErr: "a: down\nb: slow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newHealthChecker(tt.probes...).Ready(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestHealthCheckerCheckOrder(t *testing.T) {
	var runs atomic.Int32
	counting := healthProbeFunc{name: "counting", fn: func(context.Context) (string, map[string]any, error) {
		runs.Add(1)
		return healthyStatus, map[string]any{"ok": true}, nil
	}}
	h := newHealthChecker(staticProbe("first", true, nil), counting)

	statuses := h.Check(context.Background())
	require.Len(t, statuses, 2)
	assert.Equal(t, "first", statuses[0].Name)
	assert.NotNil(t, statuses[0].Details)
	assert.Equal(t, "counting", statuses[1].Name)
	assert.EqualValues(t, 1, runs.Load())
}
