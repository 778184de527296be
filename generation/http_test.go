package generation

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-proposals/http"
	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/submission"
	"github.com/gaborage/go-proposals/trace"
)

func newTestHTTPGenerator(url string, timeout time.Duration) *HTTPGenerator {
	client := http.NewBuilder(logger.Nop()).
		WithTimeout(timeout).
		WithRequestInterceptor(http.TraceHeaders()).
		Build()
	return NewHTTPGenerator(client, url, logger.Nop())
}

func TestHTTPGeneratorPostsPayload(t *testing.T) {
	var gotBody []byte
	var gotHeader nethttp.Header
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodPost, r.Method)
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	job := testJob()
	job.Attempt = 2
	ctx := trace.WithJobID(context.Background(), job.ID)

	res, err := newTestHTTPGenerator(srv.URL, time.Second).Generate(ctx, job)
	require.NoError(t, err)

	assert.Equal(t, job.Payload, gotBody)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "2", gotHeader.Get(HeaderAttempt))
	assert.Equal(t, job.ID, gotHeader.Get(trace.HeaderJobID))
	assert.NotEmpty(t, gotHeader.Get(trace.HeaderXRequestID))
	assert.NotEmpty(t, gotHeader.Get(trace.HeaderTraceParent))

	assert.Equal(t, job.ID, res.JobID)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.Equal(t, "%PDF-1.7", string(res.Body))
}

func TestHTTPGeneratorServiceError(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"code":"unsupported_format","message":"docx is disabled"}}`))
	}))
	defer srv.Close()

	_, err := newTestHTTPGenerator(srv.URL, time.Second).Generate(context.Background(), testJob())
	var se *submission.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, nethttp.StatusUnprocessableEntity, se.Status)
	assert.Equal(t, "unsupported_format", se.Code)
	assert.Equal(t, "docx is disabled", se.Message)
}

func TestHTTPGeneratorTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(nethttp.HandlerFunc(func(_ nethttp.ResponseWriter, r *nethttp.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestHTTPGenerator(srv.URL, 30*time.Millisecond).Generate(context.Background(), testJob())
	var te *submission.TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout)
	assert.True(t, submission.IsRetryable(err))
}

func TestHTTPGeneratorUnreachable(t *testing.T) {
	srv := httptest.NewServer(nethttp.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gen := newTestHTTPGenerator(url, time.Second)
	_, err := gen.Generate(context.Background(), testJob())
	var te *submission.TransportError
	require.ErrorAs(t, err, &te)
	assert.False(t, te.Timeout)

	assert.Error(t, gen.Health(context.Background()))
}

func TestHTTPGeneratorHealthAcceptsAnyStatus(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	gen := newTestHTTPGenerator(srv.URL, time.Second)
	assert.NoError(t, gen.Health(context.Background()))
	assert.Equal(t, "http", gen.Name())
	assert.NoError(t, gen.Close())
}
