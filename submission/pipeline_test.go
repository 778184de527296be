package submission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gaborage/go-proposals/proposal"
	"github.com/gaborage/go-proposals/trace"
)

func validRequest() proposal.ProposalRequest {
	return proposal.ProposalRequest{
		ProjectName: "Inventory Platform",
		ClientName:  "Acme Corp",
		Industry:    "Retail",
		Timeline:    "6 months",
		TechnicalStack: proposal.TechnicalStack{
			Frontend: []string{"React"},
			Backend:  []string{"Go"},
			Database: []string{"PostgreSQL"},
			DevOps:   []string{"Kubernetes"},
		},
		DatabaseRequirements: proposal.DatabaseRequirements{Type: proposal.DatabaseSQL},
		APIRequirements:      proposal.APIRequirements{AuthenticationType: proposal.AuthJWT},
		SecurityRequirements: proposal.SecurityRequirements{
			Authentication: []string{"SSO"},
			Authorization:  []string{"RBAC"},
			DataEncryption: []string{"AtRest"},
		},
		SystemArchitecture: proposal.SystemArchitecture{ArchitectureType: proposal.ArchitectureMicroservices},
	}
}

// recordingGenerator records jobs and answers with the configured function.
type recordingGenerator struct {
	mu     sync.Mutex
	jobs   []Job
	answer func(ctx context.Context, job Job) (*Result, error)
}

func (g *recordingGenerator) Generate(ctx context.Context, job Job) (*Result, error) {
	g.mu.Lock()
	g.jobs = append(g.jobs, job)
	answer := g.answer
	g.mu.Unlock()
	if answer == nil {
		return &Result{ContentType: "application/json", Body: []byte(`{"content":"ok"}`)}, nil
	}
	return answer(ctx, job)
}

func (g *recordingGenerator) calls() []Job {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Job(nil), g.jobs...)
}

func (g *recordingGenerator) setAnswer(fn func(ctx context.Context, job Job) (*Result, error)) {
	g.mu.Lock()
	g.answer = fn
	g.mu.Unlock()
}

// waitForContext blocks until the attempt context ends and signals started first.
func waitForContext(started chan<- struct{}) func(ctx context.Context, job Job) (*Result, error) {
	return func(ctx context.Context, _ Job) (*Result, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func submitAsync(ctx context.Context, p *Pipeline, req proposal.ProposalRequest) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		_, err := p.Submit(ctx, req)
		errCh <- err
	}()
	return errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not finish")
		return nil
	}
}

func waitStarted(t *testing.T, started <-chan struct{}) {
	t.Helper()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("generator was not called")
	}
}

func TestSubmitInvalidRequestIsRejectedWithoutNetwork(t *testing.T) {
	gen := &recordingGenerator{}
	p := NewPipeline(gen)

	req := validRequest()
	req.ProjectName = "   "
	req.SecurityRequirements.Authentication = nil

	res, err := p.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, gen.calls())

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	fields := make([]string, 0, len(rejected.Errors))
	for _, fe := range rejected.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"project_name", "security_requirements.authentication"}, fields)
	assert.Equal(t, proposal.CodeEmptyList, rejected.Errors[1].Code)

	var verrs proposal.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	state, ok := p.State().(Rejected)
	require.True(t, ok)
	assert.Len(t, state.Errors, 2)
	assert.False(t, IsRetryable(err))
}

func TestSubmitSuccessConsumesRequest(t *testing.T) {
	gen := &recordingGenerator{}
	p := NewPipeline(gen)

	res, err := p.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, res)

	calls := gen.calls()
	require.Len(t, calls, 1)
	job := calls[0]
	assert.Equal(t, 1, job.Attempt)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, job.ID, res.JobID)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(job.Payload, &sent))
	assert.Equal(t, "Inventory Platform", sent["project_name"])
	assert.Equal(t, true, sent["include_diagrams"])
	assert.Equal(t, "pdf", sent["format"])

	state, ok := p.State().(Succeeded)
	require.True(t, ok)
	assert.Equal(t, job.ID, state.JobID)

	_, err = p.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrConsumed)
	_, err = p.Retry(context.Background())
	assert.ErrorIs(t, err, ErrConsumed)

	p.NotifyEdit()
	assert.Equal(t, PhaseSucceeded, p.State().Phase())
}

func TestGeneratorSeesJobIDInContext(t *testing.T) {
	var seen string
	gen := GeneratorFunc(func(ctx context.Context, job Job) (*Result, error) {
		seen, _ = trace.JobIDFromContext(ctx)
		return &Result{}, nil
	})

	res, err := NewPipeline(gen).Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, res.JobID, seen)
}

func TestTimeoutLeavesRequestResubmittable(t *testing.T) {
	gen := &recordingGenerator{}
	gen.setAnswer(func(ctx context.Context, _ Job) (*Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	p := NewPipeline(gen, WithTimeout(20*time.Millisecond))

	_, err := p.Submit(context.Background(), validRequest())
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsRetryable(err))

	failed, ok := p.State().(Failed)
	require.True(t, ok)
	assert.Equal(t, "Inventory Platform", failed.Request.ProjectName)
	assert.Equal(t, err, failed.Err)

	gen.setAnswer(nil)
	res, err := p.Retry(context.Background())
	require.NoError(t, err)

	calls := gen.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].ID, calls[1].ID)
	assert.Equal(t, calls[0].Payload, calls[1].Payload)
	assert.Equal(t, 2, calls[1].Attempt)
	assert.Equal(t, calls[0].ID, res.JobID)
	assert.Equal(t, PhaseSucceeded, p.State().Phase())
}

func TestTransportErrorTimeoutFlagIsSetFromDeadline(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, _ Job) (*Result, error) {
		<-ctx.Done()
		return nil, &TransportError{Op: "post", Err: errors.New("read tcp: i/o timeout")}
	})
	_, err := NewPipeline(gen, WithTimeout(10*time.Millisecond)).Submit(context.Background(), validRequest())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout)
	assert.Equal(t, "post", te.Op)
}

func TestServiceErrorIsPreserved(t *testing.T) {
	svcErr := &ServiceError{Status: http.StatusBadRequest, Code: "unsupported_format", Message: "docx disabled"}
	gen := GeneratorFunc(func(context.Context, Job) (*Result, error) { return nil, svcErr })
	p := NewPipeline(gen)

	_, err := p.Submit(context.Background(), validRequest())
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Same(t, svcErr, se)
	assert.False(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "unsupported_format")
	assert.Equal(t, PhaseFailed, p.State().Phase())
}

func TestPlainGeneratorErrorBecomesTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	gen := GeneratorFunc(func(context.Context, Job) (*Result, error) { return nil, cause })

	_, err := NewPipeline(gen).Submit(context.Background(), validRequest())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.False(t, te.Timeout)
	assert.ErrorIs(t, err, cause)
}

func TestNilResultIsTransportError(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, Job) (*Result, error) { return nil, nil })

	_, err := NewPipeline(gen).Submit(context.Background(), validRequest())
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestCancelAbandonsInFlightAttempt(t *testing.T) {
	started := make(chan struct{})
	gen := &recordingGenerator{answer: waitForContext(started)}
	p := NewPipeline(gen, WithTimeout(0))

	errCh := submitAsync(context.Background(), p, validRequest())
	waitStarted(t, started)
	assert.Equal(t, PhaseSubmitting, p.State().Phase())

	_, err := p.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	_, err = p.Retry(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	assert.True(t, p.Cancel())
	assert.ErrorIs(t, waitErr(t, errCh), ErrCanceled)
	assert.Equal(t, PhaseEditing, p.State().Phase())
	assert.False(t, p.Cancel())

	_, err = p.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNothingToRetry)
}

func TestLateResponseAfterCancelIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gen := GeneratorFunc(func(context.Context, Job) (*Result, error) {
		close(started)
		<-release
		return &Result{Body: []byte("late")}, nil
	})
	p := NewPipeline(gen)

	errCh := submitAsync(context.Background(), p, validRequest())
	waitStarted(t, started)

	p.NotifyEdit()
	assert.Equal(t, PhaseEditing, p.State().Phase())
	close(release)

	assert.ErrorIs(t, waitErr(t, errCh), ErrCanceled)
	assert.Equal(t, PhaseEditing, p.State().Phase())
}

func TestCallerCancellationReturnsToEditing(t *testing.T) {
	started := make(chan struct{})
	gen := &recordingGenerator{answer: waitForContext(started)}
	p := NewPipeline(gen, WithTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := submitAsync(ctx, p, validRequest())
	waitStarted(t, started)

	cancel()
	assert.ErrorIs(t, waitErr(t, errCh), ErrCanceled)
	assert.Equal(t, PhaseEditing, p.State().Phase())
	assert.False(t, p.Cancel())

	_, err := p.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNothingToRetry)

	gen.setAnswer(nil)
	res, err := p.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, p.State().Phase())
	assert.NotEmpty(t, res.Body)
}

func TestCallerCancellationDiscardsLateSuccess(t *testing.T) {
	started := make(chan struct{})
	gen := GeneratorFunc(func(ctx context.Context, job Job) (*Result, error) {
		close(started)
		<-ctx.Done()
		return &Result{JobID: job.ID, Body: []byte("late")}, nil
	})
	p := NewPipeline(gen)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := submitAsync(ctx, p, validRequest())
	waitStarted(t, started)
	cancel()

	assert.ErrorIs(t, waitErr(t, errCh), ErrCanceled)
	assert.Equal(t, PhaseEditing, p.State().Phase())
}

func TestCanceledAttemptDoesNotOverwriteNewerAttempt(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var calls int
	var mu sync.Mutex
	gen := GeneratorFunc(func(context.Context, Job) (*Result, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-releaseFirst
			return nil, errors.New("stale failure")
		}
		return &Result{Body: []byte("fresh")}, nil
	})
	p := NewPipeline(gen)

	firstErr := submitAsync(context.Background(), p, validRequest())
	waitStarted(t, firstStarted)
	require.True(t, p.Cancel())

	res, err := p.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(res.Body))

	close(releaseFirst)
	assert.ErrorIs(t, waitErr(t, firstErr), ErrCanceled)
	assert.Equal(t, PhaseSucceeded, p.State().Phase())
}

func TestEditFromFailedReturnsToEditing(t *testing.T) {
	gen := GeneratorFunc(func(context.Context, Job) (*Result, error) {
		return nil, &ServiceError{Status: http.StatusServiceUnavailable, Message: "busy"}
	})
	p := NewPipeline(gen)

	_, err := p.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, IsRetryable(err))

	p.NotifyEdit()
	assert.Equal(t, PhaseEditing, p.State().Phase())
	_, err = p.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNothingToRetry)
}

func TestEditFromRejectedReturnsToEditing(t *testing.T) {
	p := NewPipeline(&recordingGenerator{})
	_, err := p.Submit(context.Background(), proposal.ProposalRequest{})
	require.Error(t, err)
	assert.Equal(t, PhaseRejected, p.State().Phase())

	_, err = p.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNothingToRetry)

	p.NotifyEdit()
	assert.Equal(t, PhaseEditing, p.State().Phase())
}

func TestObserverSeesEveryTransition(t *testing.T) {
	var phases []Phase
	p := NewPipeline(&recordingGenerator{}, WithObserver(func(from, to State) {
		if len(phases) == 0 {
			phases = append(phases, from.Phase())
		}
		phases = append(phases, to.Phase())
	}))

	_, err := p.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhaseEditing, PhaseValidating, PhaseSubmitting, PhaseSucceeded}, phases)
}

func TestPipelineRecordsSpansAndOutcomes(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	p := NewPipeline(&recordingGenerator{}, WithTracerProvider(tp), WithMeterProvider(mp))
	_, err := p.Submit(context.Background(), proposal.ProposalRequest{})
	require.Error(t, err)
	p.NotifyEdit()
	_, err = p.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "proposal.submit", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String(attrOutcome, outcomeSucceeded))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	counts := outcomeCounts(t, rm)
	assert.Equal(t, int64(1), counts[outcomeRejected])
	assert.Equal(t, int64(1), counts[outcomeSucceeded])
}

func outcomeCounts(t *testing.T, rm metricdata.ResourceMetrics) map[string]int64 {
	t.Helper()
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "proposal.submission.outcomes" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attrOutcome)
				counts[v.AsString()] += dp.Value
			}
		}
	}
	return counts
}
