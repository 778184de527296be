package generation

import (
	"context"
	"errors"
	"strconv"

	"github.com/gaborage/go-proposals/http"
	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/submission"
)

// HeaderAttempt carries the attempt number of a job.
const HeaderAttempt = "X-Proposal-Attempt"

// HTTPGenerator posts the JSON payload to a generation service endpoint.
type HTTPGenerator struct {
	client   http.Client
	endpoint string
	log      logger.Logger
}

var _ Backend = (*HTTPGenerator)(nil)

func NewHTTPGenerator(client http.Client, endpoint string, log logger.Logger) *HTTPGenerator {
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPGenerator{client: client, endpoint: endpoint, log: log}
}

func (g *HTTPGenerator) Name() string { return "http" }

// Generate sends job.Payload and returns the response body as the result.
// Non-2xx answers become *submission.ServiceError.
func (g *HTTPGenerator) Generate(ctx context.Context, job submission.Job) (*submission.Result, error) {
	resp, err := g.client.Post(ctx, &http.Request{
		URL: g.endpoint,
		Headers: map[string]string{
			"Content-Type": ContentTypeJSON,
			"Accept":       ContentTypeJSON,
			HeaderAttempt:  strconv.Itoa(job.Attempt),
		},
		Body: job.Payload,
	})
	if err != nil {
		return nil, mapHTTPError(err)
	}
	return &submission.Result{
		JobID:       job.ID,
		ContentType: resp.Headers.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// Health succeeds when the endpoint answers at all, whatever the status.
func (g *HTTPGenerator) Health(ctx context.Context) error {
	_, err := g.client.Get(ctx, &http.Request{URL: g.endpoint})
	if err == nil || http.IsErrorType(err, http.HTTPError) {
		return nil
	}
	return mapHTTPError(err)
}

func (g *HTTPGenerator) Close() error { return nil }

func mapHTTPError(err error) error {
	var statusErr *http.StatusError
	if errors.As(err, &statusErr) {
		return serviceError(statusErr.StatusCode(), statusErr.Body())
	}
	te := transportError("post", err)
	if http.IsErrorType(err, http.TimeoutError) {
		te.Timeout = true
	}
	return te
}
