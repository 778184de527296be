package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/trace"
)

// setupTracing installs an in-memory exporter and restores the globals afterwards.
func setupTracing(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	originalTP := otel.GetTracerProvider()
	originalPropagator := otel.GetTextMapPropagator()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(originalTP)
		otel.SetTextMapPropagator(originalPropagator)
	})
	return exporter
}

func TestTracingSkipsProbes(t *testing.T) {
	exporter := setupTracing(t)
	s := New(testConfig(), logger.Nop())
	s.ModuleGroup().Add(http.MethodGet, "/v1/proposals/schema", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "yes"})
	})

	doRequest(t, s.Echo(), http.MethodGet, "/api/health", "")
	doRequest(t, s.Echo(), http.MethodGet, "/api/ready", "")
	assert.Empty(t, exporter.GetSpans())

	doRequest(t, s.Echo(), http.MethodGet, "/api/v1/proposals/schema", "")
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, oteltrace.SpanKindServer, spans[0].SpanKind)
	assert.Contains(t, spans[0].Name, "/api/v1/proposals/schema")
}

func TestTracingContinuesInboundTrace(t *testing.T) {
	exporter := setupTracing(t)
	s := New(testConfig(), logger.Nop())
	s.ModuleGroup().Add(http.MethodGet, "/traced", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	req := httptest.NewRequest(http.MethodGet, "/api/traced", http.NoBody)
	req.Header.Set(trace.HeaderTraceParent, parent)
	s.Echo().ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
}

func TestTraceContextPopulatesRequestContext(t *testing.T) {
	s := New(testConfig(), logger.Nop())

	var gotID, gotParent string
	s.ModuleGroup().Add(http.MethodGet, "/ids", func(c echo.Context) error {
		gotID, _ = trace.IDFromContext(c.Request().Context())
		gotParent, _ = trace.ParentFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	const parent = "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"
	req := httptest.NewRequest(http.MethodGet, "/api/ids", http.NoBody)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	req.Header.Set(trace.HeaderTraceParent, parent)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", gotID)
	assert.Equal(t, parent, gotParent)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", false, nil)
	s := New(testConfig(), log)

	var scoped logger.Logger
	s.ModuleGroup().Add(http.MethodPost, "/v1/drafts", func(c echo.Context) error {
		scoped = logger.FromContext(c.Request().Context(), nil)
		c.Response().Header().Set(trace.HeaderJobID, "job-1")
		return c.JSON(http.StatusConflict, map[string]string{"state": "submitting"})
	})

	doRequest(t, s.Echo(), http.MethodPost, "/api/v1/drafts", `{}`)
	out := buf.String()
	assert.Contains(t, out, `"http.response.status_code":409`)
	assert.Contains(t, out, `"http.route":"/api/v1/drafts"`)
	assert.Contains(t, out, `"job_id":"job-1"`)
	assert.Contains(t, out, `"result_code":"WARN"`)
	assert.NotNil(t, scoped)

	buf.Reset()
	doRequest(t, s.Echo(), http.MethodGet, "/api/health", "")
	assert.NotContains(t, buf.String(), "http.request.method")
}
