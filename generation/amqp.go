package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/messaging"
	"github.com/gaborage/go-proposals/submission"
)

const (
	// HeaderReplyStatus is the optional HTTP-like status a worker sets on its reply.
	HeaderReplyStatus = "x-status"
	headerJobAttempt  = "x-proposal-attempt"
)

// AMQPGenerator sends jobs to a worker queue and waits for the reply.
// A reply carrying an error payload, or a status of 400 or above, is a
// service error.
type AMQPGenerator struct {
	requester messaging.Requester
	queue     string
	log       logger.Logger
}

var _ Backend = (*AMQPGenerator)(nil)

func NewAMQPGenerator(requester messaging.Requester, queue string, log logger.Logger) *AMQPGenerator {
	if log == nil {
		log = logger.Nop()
	}
	return &AMQPGenerator{requester: requester, queue: queue, log: log}
}

func (g *AMQPGenerator) Name() string { return "amqp" }

func (g *AMQPGenerator) Generate(ctx context.Context, job submission.Job) (*submission.Result, error) {
	reply, err := g.requester.Request(ctx, messaging.RequestOptions{
		RoutingKey:  g.queue,
		ContentType: ContentTypeJSON,
		Headers:     map[string]any{headerJobAttempt: int32(job.Attempt)},
	}, job.Payload)
	if err != nil {
		return nil, transportError("request", err)
	}

	status, hasStatus := replyStatus(reply.Headers)
	if code, msg, isErr := errorPayloadOf(reply.Body); isErr {
		if !hasStatus || status < http.StatusBadRequest {
			status = http.StatusUnprocessableEntity
		}
		return nil, &submission.ServiceError{Status: status, Code: code, Message: msg}
	}
	if hasStatus && status >= http.StatusBadRequest {
		return nil, serviceError(status, reply.Body)
	}
	if len(reply.Body) == 0 {
		return nil, transportError("request", errors.New("empty reply"))
	}

	return &submission.Result{JobID: job.ID, ContentType: reply.ContentType, Body: reply.Body}, nil
}

// Health reports whether the broker channel is open.
func (g *AMQPGenerator) Health(context.Context) error {
	if !g.requester.IsReady() {
		return transportError("connect", messaging.ErrNotReady)
	}
	return nil
}

func (g *AMQPGenerator) Close() error { return g.requester.Close() }

func replyStatus(headers map[string]any) (int, bool) {
	v, ok := headers[HeaderReplyStatus]
	if !ok {
		return 0, false
	}
	switch s := v.(type) {
	case int:
		return s, true
	case int16:
		return int(s), true
	case int32:
		return int(s), true
	case int64:
		return int(s), true
	case string:
		n, err := strconv.Atoi(s)
		return n, err == nil
	default:
		n, err := strconv.Atoi(fmt.Sprint(s))
		return n, err == nil
	}
}
