package service

import (
	"time"

	"github.com/okian/pitchdash/internal/adapters/repository"
	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/roster"
	"github.com/okian/pitchdash/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the Statcast source.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithResolver sets the player id lookup.
func WithResolver(r Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithStore sets the cache. The service closes it on Stop.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithRoster replaces the embedded roster for one role.
func WithRoster(pt model.PlayerType, r *roster.Roster) Option {
	return func(s *Service) {
		if r != nil {
			s.rosters[pt] = r
		}
	}
}

// WithSeason sets the date range used when a query names none.
func WithSeason(r model.DateRange) Option {
	return func(s *Service) {
		if !r.Start.IsZero() && !r.End.IsZero() {
			s.season = r
		}
	}
}

// WithDefaultPlayer sets the pitcher preselected on the dashboard.
func WithDefaultPlayer(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultPlayer = name
		}
	}
}

// WithWorkerCount sets the number of prefetch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the prefetch queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the number of remembered pending prefetch keys.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithJobTimeout bounds each background prefetch.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithWarmConcurrency caps concurrent fetches during Warm.
func WithWarmConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.warmConcurrency = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
