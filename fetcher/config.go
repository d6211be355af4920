package fetcher

import (
	"log"
	"time"

	"github.com/fastnear/nearflat/internal/coretypes"
)

// Config configures one Run of the fetcher loop.
type Config struct {
	ChainId  coretypes.ChainId
	Finality Finality

	// NumThreads bounds archive-sync and live-mode backfill parallelism.
	// Values below 1 are treated as 1.
	NumThreads uint64

	// StartBlockHeight is the first height to emit. If nil, the loop
	// initialises it from the server's current tip at the configured
	// finality.
	StartBlockHeight *uint64

	// EndBlockHeight is the inclusive upper bound. Nil means unbounded.
	EndBlockHeight *uint64

	AuthBearerToken string

	// TimeoutDuration bounds every individual HTTP request. Zero means
	// DefaultTimeout.
	TimeoutDuration time.Duration
	// RetryDuration is the pause between retries of a failed transport
	// call. Zero means DefaultRetryDuration.
	RetryDuration time.Duration

	DisableArchiveSync bool
	EnableR2ArchiveSync bool

	// HTTPClient overrides the production HTTP transport; nil uses
	// NewHTTPClient().
	HTTPClient HTTPClient

	// Logger receives warnings about retried transport failures. Nil
	// uses log.Default().
	Logger *log.Logger

	// BundleCacheSize bounds the number of decoded archive bundles kept
	// in the re-delivery cache (keyed by bundle base height). Zero
	// disables the cache.
	BundleCacheSize int
}

func (c Config) timeout() time.Duration {
	if c.TimeoutDuration <= 0 {
		return DefaultTimeout
	}
	return c.TimeoutDuration
}

func (c Config) retryDuration() time.Duration {
	if c.RetryDuration <= 0 {
		return DefaultRetryDuration
	}
	return c.RetryDuration
}

func (c Config) numThreads() uint64 {
	if c.NumThreads < 1 {
		return 1
	}
	return c.NumThreads
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}

func (c Config) httpClient() HTTPClient {
	if c.HTTPClient == nil {
		return NewHTTPClient()
	}
	return c.HTTPClient
}
