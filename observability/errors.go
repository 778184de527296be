package observability

import "errors"

// ErrInvalidProtocol is returned when an OTLP endpoint is configured with a
// protocol other than "http" or "grpc".
var ErrInvalidProtocol = errors.New("observability: protocol must be either 'http' or 'grpc'")
