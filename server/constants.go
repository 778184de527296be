package server

import "time"

// Fallbacks used when the configuration leaves a server timeout unset.
const (
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 90 * time.Second
	DefaultIdleTimeout  = 60 * time.Second

	// DefaultBodyLimit caps request bodies. Proposal requests are small JSON documents.
	DefaultBodyLimit = "1M"

	// SlowRequestThreshold marks requests as slow in the access log.
	SlowRequestThreshold = 5 * time.Second
)
