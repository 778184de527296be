package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/proposal"
	"github.com/gaborage/go-proposals/trace"
)

const defaultTimeout = 60 * time.Second

// Observer is called on every state transition, in order, while the pipeline
// lock is held. It must not call back into the Pipeline.
type Observer func(from, to State)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout bounds each attempt. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithLogger sets the pipeline logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithObserver registers a transition observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observers = append(p.observers, o) }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(p *Pipeline) { p.tracerProvider = tp }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(p *Pipeline) { p.meterProvider = mp }
}

// Pipeline owns the submission state of one proposal request.
type Pipeline struct {
	gen       Generator
	log       logger.Logger
	timeout   time.Duration
	observers []Observer

	tracerProvider oteltrace.TracerProvider
	meterProvider  metric.MeterProvider
	tel            *telemetry

	mu    sync.Mutex
	state State
	// token identifies the current attempt. Cancel and NotifyEdit bump it so a
	// superseded attempt cannot write its outcome.
	token  uint64
	cancel context.CancelFunc
	job    *Job
}

// NewPipeline returns a pipeline in the Editing state.
func NewPipeline(gen Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:     gen,
		log:     logger.Nop(),
		timeout: defaultTimeout,
		state:   Editing{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.tel = newTelemetry(p.tracerProvider, p.meterProvider, p.log)
	return p
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Submit validates req and, when valid, sends it. It blocks until the
// attempt finishes or is cancelled. Invalid requests return *RejectedError
// without contacting the generator.
func (p *Pipeline) Submit(ctx context.Context, req proposal.ProposalRequest) (*Result, error) {
	p.mu.Lock()
	switch p.state.(type) {
	case Submitting:
		p.mu.Unlock()
		return nil, ErrSubmissionInProgress
	case Succeeded:
		p.mu.Unlock()
		return nil, ErrConsumed
	}

	p.transitionLocked(Validating{})
	result := proposal.Validate(req)
	if !result.Valid() {
		p.job = nil
		p.transitionLocked(Rejected{Errors: result.Errors, Warnings: result.Warnings})
		p.mu.Unlock()

		p.tel.record(ctx, outcomeRejected, 0)
		p.log.Info().Int("errors", len(result.Errors)).Msg("Proposal request rejected")
		return nil, &RejectedError{Errors: result.Errors, Warnings: result.Warnings}
	}

	payload, err := proposal.Marshal(*result.Request)
	if err != nil {
		err = &TransportError{Op: "encode", Err: err}
		p.job = nil
		p.transitionLocked(Failed{Err: err, Request: *result.Request})
		p.mu.Unlock()
		return nil, err
	}

	job := &Job{
		ID:      uuid.NewString(),
		Attempt: 1,
		Request: *result.Request,
		Payload: payload,
	}
	return p.runLocked(ctx, job)
}

// Retry resends the last validated payload of a Failed submission.
func (p *Pipeline) Retry(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	switch p.state.(type) {
	case Failed:
	case Submitting:
		p.mu.Unlock()
		return nil, ErrSubmissionInProgress
	case Succeeded:
		p.mu.Unlock()
		return nil, ErrConsumed
	default:
		p.mu.Unlock()
		return nil, ErrNothingToRetry
	}
	if p.job == nil {
		p.mu.Unlock()
		return nil, ErrNothingToRetry
	}

	next := *p.job
	next.Attempt++
	return p.runLocked(ctx, &next)
}

// Cancel abandons the in-flight attempt and returns to Editing. It reports
// whether there was an attempt to cancel.
func (p *Pipeline) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.state.(Submitting); !ok {
		return false
	}
	p.abortLocked()
	p.log.Info().Msg("Proposal submission canceled")
	return true
}

// NotifyEdit reports that the request was changed. An in-flight attempt is
// abandoned; Rejected and Failed return to Editing. Succeeded is unaffected.
func (p *Pipeline) NotifyEdit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state.(type) {
	case Submitting:
		p.abortLocked()
		p.log.Info().Msg("Proposal submission canceled by edit")
	case Rejected, Failed:
		p.job = nil
		p.transitionLocked(Editing{})
	}
}

func (p *Pipeline) abortLocked() {
	p.token++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.transitionLocked(Editing{})
}

// runLocked is entered with p.mu held and releases it for the generator call.
func (p *Pipeline) runLocked(ctx context.Context, job *Job) (*Result, error) {
	p.token++
	token := p.token

	attemptCtx, cancel := p.attemptContext(ctx)
	p.cancel = cancel
	p.job = job
	started := time.Now()
	p.transitionLocked(Submitting{JobID: job.ID, Attempt: job.Attempt, StartedAt: started})
	p.mu.Unlock()

	attemptCtx = trace.WithJobID(attemptCtx, job.ID)
	attemptCtx, span := p.tel.startAttempt(attemptCtx, job)
	defer span.End()

	p.log.Info().
		Str("job_id", job.ID).
		Int("attempt", job.Attempt).
		Int("payload_size", len(job.Payload)).
		Msg("Submitting proposal request")

	res, genErr := p.gen.Generate(attemptCtx, *job)
	ctxErr := attemptCtx.Err()
	cancel()
	elapsed := time.Since(started)

	p.mu.Lock()
	if p.token == token && errors.Is(ctxErr, context.Canceled) {
		// A canceled caller context ends the attempt the same way Cancel does.
		p.abortLocked()
		p.log.Info().Str("job_id", job.ID).Msg("Proposal submission canceled by caller")
	}
	if p.token != token {
		p.mu.Unlock()
		span.SetAttributes(attribute.String(attrOutcome, outcomeCanceled))
		span.SetStatus(codes.Error, ErrCanceled.Error())
		p.tel.record(ctx, outcomeCanceled, elapsed)
		p.log.Debug().Str("job_id", job.ID).Msg("Discarding response of canceled submission")
		return nil, ErrCanceled
	}
	p.cancel = nil

	if genErr == nil && res == nil {
		genErr = &TransportError{Op: "generate", Err: errors.New("empty result")}
	}
	if genErr == nil {
		if res.JobID == "" {
			res.JobID = job.ID
		}
		p.transitionLocked(Succeeded{JobID: job.ID, Attempt: job.Attempt, Result: res})
		p.mu.Unlock()

		span.SetAttributes(attribute.String(attrOutcome, outcomeSucceeded))
		span.SetStatus(codes.Ok, "")
		p.tel.record(ctx, outcomeSucceeded, elapsed)
		p.log.Info().Str("job_id", job.ID).Dur("elapsed", elapsed).Msg("Proposal generated")
		return res, nil
	}

	err := classify(genErr, ctxErr)
	p.transitionLocked(Failed{JobID: job.ID, Attempt: job.Attempt, Err: err, Request: job.Request})
	p.mu.Unlock()

	span.SetAttributes(attribute.String(attrOutcome, outcomeFailed))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.tel.record(ctx, outcomeFailed, elapsed)
	p.log.Warn().Err(err).Str("job_id", job.ID).Int("attempt", job.Attempt).Msg("Proposal submission failed")
	return nil, err
}

func (p *Pipeline) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout > 0 {
		return context.WithTimeout(ctx, p.timeout)
	}
	return context.WithCancel(ctx)
}

func (p *Pipeline) transitionLocked(to State) {
	from := p.state
	p.state = to
	for _, o := range p.observers {
		o(from, to)
	}
}

// classify maps a generator error onto TransportError or ServiceError.
func classify(err, ctxErr error) error {
	var se *ServiceError
	if errors.As(err, &se) {
		return err
	}
	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctxErr, context.DeadlineExceeded)

	var te *TransportError
	if errors.As(err, &te) {
		if timedOut && !te.Timeout {
			return &TransportError{Op: te.Op, Timeout: true, Err: te.Err}
		}
		return err
	}
	if timedOut && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return &TransportError{Op: "generate", Timeout: timedOut, Err: err}
}
