// Package tracking wraps database connections with query logging, slow query
// detection, OpenTelemetry spans and client metrics.
package tracking

import (
	"time"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/logger"
)

const (
	// DefaultSlowQueryThreshold defines the default threshold for slow query detection
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	// DefaultMaxQueryLength defines the default maximum query length for logging
	DefaultMaxQueryLength = 1000
)

// Settings controls how tracked queries are logged.
type Settings struct {
	slowQueryThreshold time.Duration
	maxQueryLength     int
	logQueryParameters bool
}

// Context groups the values every tracked operation needs.
type Context struct {
	Logger   logger.Logger
	Dialect  string
	Settings Settings
}

// NewSettings derives tracking settings from the query configuration.
// A nil cfg or a non-positive threshold falls back to the defaults.
func NewSettings(cfg *config.QueryConfig) Settings {
	settings := Settings{
		slowQueryThreshold: DefaultSlowQueryThreshold,
		maxQueryLength:     DefaultMaxQueryLength,
	}

	if cfg == nil {
		return settings
	}

	if cfg.SlowThreshold > 0 {
		settings.slowQueryThreshold = cfg.SlowThreshold
	}
	settings.logQueryParameters = cfg.LogArgs

	return settings
}

// SlowQueryThreshold returns the threshold for slow query detection
func (s Settings) SlowQueryThreshold() time.Duration {
	return s.slowQueryThreshold
}

// MaxQueryLength returns the maximum query length for logging
func (s Settings) MaxQueryLength() int {
	return s.maxQueryLength
}

// LogQueryParameters returns whether query parameters should be logged
func (s Settings) LogQueryParameters() bool {
	return s.logQueryParameters
}
