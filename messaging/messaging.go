// Package messaging implements request/reply over RabbitMQ for generation
// workers that consume proposal jobs from a queue and answer on the
// caller's reply address.
package messaging

import (
	"context"
	"errors"
)

var (
	// ErrNotReady is returned when no broker channel became available before
	// the request context ended.
	ErrNotReady = errors.New("messaging: client not ready")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("messaging: client closed")
	// ErrConnectionLost is returned to callers waiting on a reply when the
	// channel carrying it goes away.
	ErrConnectionLost = errors.New("messaging: connection lost before reply")
)

// Requester sends a message and waits for the correlated reply.
type Requester interface {
	Request(ctx context.Context, opts RequestOptions, body []byte) (*Reply, error)
	IsReady() bool
	Close() error
}

// RequestOptions addresses a request. An empty Exchange publishes through
// the default exchange, so RoutingKey is the queue name.
type RequestOptions struct {
	Exchange    string
	RoutingKey  string
	ContentType string
	Headers     map[string]any
}

// Reply is the worker's answer to a request.
type Reply struct {
	CorrelationID string
	ContentType   string
	Headers       map[string]any
	Body          []byte
}
