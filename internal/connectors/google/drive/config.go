package drive

import (
	"github.com/veritrail/regsync/internal/connectors/google"
)

// Config holds Google Drive adapter configuration.
type Config struct {
	// PageSize is the page size for listing requests.
	PageSize int64

	// RateLimit tunes the shared request limiter.
	RateLimit google.RateLimitConfig
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		PageSize:  100,
		RateLimit: google.DefaultRateLimit,
	}
}
