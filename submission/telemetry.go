package submission

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/observability"
)

const instrumentationName = "go-proposals/submission"

// Outcomes recorded on the attempts counter.
const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
	outcomeCanceled  = "canceled"
)

const (
	attrOutcome = "proposal.outcome"
	attrJobID   = "proposal.job_id"
	attrAttempt = "proposal.attempt"
)

type telemetry struct {
	tracer   oteltrace.Tracer
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

func newTelemetry(tp oteltrace.TracerProvider, mp metric.MeterProvider, log logger.Logger) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	t.attempts, err = observability.CreateCounter(meter, "proposal.submission.outcomes", "Submission outcomes by result")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create submission counter")
	}
	t.duration, err = observability.CreateHistogram(meter, "proposal.submission.duration", "Generation call duration in milliseconds",
		metric.WithUnit("ms"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create submission histogram")
	}
	return t
}

func (t *telemetry) startAttempt(ctx context.Context, job *Job) (context.Context, oteltrace.Span) {
	return t.tracer.Start(ctx, "proposal.submit",
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String(attrJobID, job.ID),
			attribute.Int(attrAttempt, job.Attempt),
		),
	)
}

func (t *telemetry) record(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	if t.attempts != nil {
		t.attempts.Add(ctx, 1, attrs)
	}
	if t.duration != nil && elapsed > 0 {
		t.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
}
