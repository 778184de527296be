package submission

import (
	"context"

	"github.com/gaborage/go-proposals/proposal"
)

// Job is one attempt at generating a proposal. ID stays the same across
// retries of the same validated request.
type Job struct {
	ID      string
	Attempt int
	Request proposal.ProposalRequest
	Payload []byte
}

// Result is the generated document. Body is opaque to the pipeline.
type Result struct {
	JobID       string `json:"job_id"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Generator sends a job to a generation service. Implementations return
// *TransportError or *ServiceError; anything else is treated as a transport
// failure.
type Generator interface {
	Generate(ctx context.Context, job Job) (*Result, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, job Job) (*Result, error)

func (f GeneratorFunc) Generate(ctx context.Context, job Job) (*Result, error) {
	return f(ctx, job)
}
