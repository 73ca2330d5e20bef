package repository

import "time"

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithTTL expires datasets older than ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *SQLiteStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics and purge runs.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *SQLiteStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}
