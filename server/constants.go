package server

import "time"

// Fallbacks used when the corresponding server timeouts are not configured.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultBodyLimit caps request bodies. Query specs are small JSON documents.
const DefaultBodyLimit = "1M"

// HeaderXResponseTime reports request processing duration. Set by Timing.
const HeaderXResponseTime = "X-Response-Time"
