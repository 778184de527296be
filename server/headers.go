package server

const (
	// HeaderXResponseTime reports request processing duration. Set by Timing.
	HeaderXResponseTime = "X-Response-Time"

	// HeaderRetryAfter tells rate limited clients when to come back.
	HeaderRetryAfter = "Retry-After"
)
