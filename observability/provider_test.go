package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/logger"
)

func testConfig(enabled bool) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "proposals-test", Version: "0.0.1", Env: "test"},
		Observability: config.ObservabilityConfig{
			Enabled:    enabled,
			Endpoint:   config.EndpointStdout,
			SampleRate: 1.0,
		},
	}
}

func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestNewProviderDisabledReturnsNoop(t *testing.T) {
	p, err := NewProvider(testConfig(false), logger.Nop())
	require.NoError(t, err)

	_, ok := p.(*noopProvider)
	assert.True(t, ok)
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))

	_, span := p.TracerProvider().Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestNewProviderStdoutExportsSpans(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer

	p, err := NewProvider(testConfig(true), logger.Nop(), WithWriter(&buf))
	require.NoError(t, err)

	_, ok := p.TracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	_, ok = p.MeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, ok)

	_, span := otel.Tracer("test").Start(context.Background(), "stdout-span")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.ForceFlush(context.Background()))
	assert.Contains(t, buf.String(), "stdout-span")
	assert.Contains(t, buf.String(), "proposals-test")

	require.NoError(t, Shutdown(p, 0))
}

func TestNewProviderInstallsTraceContextPropagator(t *testing.T) {
	restoreGlobals(t)

	p, err := NewProvider(testConfig(true), logger.Nop(), WithWriter(&bytes.Buffer{}))
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	ctx, span := otel.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	assert.NotEmpty(t, carrier.Get("traceparent"))
}

func TestNewProviderInvalidProtocol(t *testing.T) {
	cfg := testConfig(true)
	cfg.Observability.Endpoint = "collector:4317"
	cfg.Observability.Protocol = "udp"

	p, err := NewProvider(cfg, logger.Nop())
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInvalidProtocol)
}

func TestNewProviderOTLPExporters(t *testing.T) {
	for _, protocol := range []string{config.ProtocolHTTP, config.ProtocolGRPC} {
		t.Run(protocol, func(t *testing.T) {
			restoreGlobals(t)
			cfg := testConfig(true)
			cfg.Observability.Endpoint = "localhost:4318"
			cfg.Observability.Protocol = protocol
			cfg.Observability.Insecure = true

			// Exporters connect lazily, so construction succeeds without a collector.
			p, err := NewProvider(cfg, logger.Nop())
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_ = p.Shutdown(ctx)
		})
	}
}

func TestCreateInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")
	ctx := context.Background()

	counter, err := CreateCounter(meter, "drafts.created", "Drafts created")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	hist, err := CreateHistogram(meter, "submit.duration", "Submit duration", metric.WithUnit("ms"))
	require.NoError(t, err)
	hist.Record(ctx, 12.5)

	gauge, err := CreateUpDownCounter(meter, "drafts.open", "Open drafts")
	require.NoError(t, err)
	gauge.Add(ctx, 3)
	gauge.Add(ctx, -1)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}
	require.Contains(t, byName, "drafts.created")
	require.Contains(t, byName, "submit.duration")
	require.Contains(t, byName, "drafts.open")

	assert.Equal(t, "Drafts created", byName["drafts.created"].Description)
	assert.Equal(t, "ms", byName["submit.duration"].Unit)

	sum, ok := byName["drafts.open"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func TestShutdownNilProvider(t *testing.T) {
	assert.NoError(t, Shutdown(nil, 0))
}
