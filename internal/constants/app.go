package constants

import (
	"time"
)

// Upload batching
const (
	// UploadCeilingBytes - maximum cumulative original size of one upload batch (5 MiB).
	// The backend rejects request payloads above this size. A single file larger
	// than the ceiling still travels alone in its own batch.
	UploadCeilingBytes = 5 * 1024 * 1024

	// EncodedSizeFactor - ratio between original bytes and base64-encoded length.
	// Base64 expands by 4/3, so original ~= encoded * 0.75.
	EncodedSizeFactor = 0.75
)

// Pagination
const (
	// DefaultPageSize - images fetched per page when nothing else is configured
	DefaultPageSize = 20

	// MaxPageSize - upper bound accepted by the images endpoint
	MaxPageSize = 200
)

// Event Bus
const (
	// EventBusDefaultBuffer - default buffer size for event channels (1000)
	// Large enough to absorb a burst of per-batch progress events during
	// a big upload without dropping any.
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios (5000)
	EventBusMaxBuffer = 5000
)

// API pacing
const (
	// APIRatePerSec - steady-state request rate towards the images API
	APIRatePerSec = 10.0

	// APIBurst - requests allowed in a burst before pacing kicks in
	APIBurst = 20
)

// Retry configuration
const (
	// MaxRetries - default retry count for transient HTTP failures (5xx, network)
	MaxRetries = 3

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (15s)
	RetryMaxDelay = 15 * time.Second
)

// HTTP Transport
const (
	// HTTPRequestTimeout - default overall timeout for one API request (60 seconds)
	// Upload batches are bounded by UploadCeilingBytes so this holds for them too.
	HTTPRequestTimeout = 60 * time.Second

	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// ProxyWarmupTimeout - timeout for the optional proxy warmup request
	ProxyWarmupTimeout = 15 * time.Second
)

// Defaults
const (
	// DefaultAPIBaseURL - used when neither config, env nor flags provide one
	DefaultAPIBaseURL = "http://localhost:8080"

	// DefaultProxyPort - proxy port when host is set without a port
	DefaultProxyPort = 8080
)
