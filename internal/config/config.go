// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file, and PITCHDASH_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/pitchdash/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SavantBaseURL is the Baseball Savant host serving Statcast CSV searches.
	SavantBaseURL string `koanf:"savant_base_url"`

	// PeopleBaseURL is the MLB Stats API host used for player id lookups.
	PeopleBaseURL string `koanf:"people_base_url"`

	// HTTPTimeoutMS bounds each upstream request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// FetchMaxRetries caps retries of transient upstream failures.
	FetchMaxRetries int `koanf:"fetch_max_retries"`

	// CachePath is the sqlite file backing the response cache.
	CachePath string `koanf:"cache_path"`

	// CacheTTLMinutes expires cached datasets; 0 keeps them forever.
	CacheTTLMinutes int `koanf:"cache_ttl_minutes"`

	// SeasonStart and SeasonEnd are the default date range (YYYY-MM-DD).
	SeasonStart string `koanf:"season_start"`
	SeasonEnd   string `koanf:"season_end"`

	// DefaultPlayer is preselected on the dashboard.
	DefaultPlayer string `koanf:"default_player"`

	// PitcherRosterPath and BatterRosterPath override the embedded rosters.
	PitcherRosterPath string `koanf:"pitcher_roster_path"`
	BatterRosterPath  string `koanf:"batter_roster_path"`

	// PrefetchQueueSize bounds pending background fetches.
	PrefetchQueueSize int `koanf:"prefetch_queue_size"`

	// PrefetchWorkers sets the number of background fetch workers.
	PrefetchWorkers int `koanf:"prefetch_workers"`

	// PrefetchDedupeSize bounds the set of remembered prefetch keys.
	PrefetchDedupeSize int `koanf:"prefetch_dedupe_size"`

	// WarmPlayers lists pitchers cached at start-up, separated by ";",
	// e.g. "Darvish, Yu; Cole, Gerrit".
	WarmPlayers string `koanf:"warm_players"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		SavantBaseURL:      "https://baseballsavant.mlb.com",
		PeopleBaseURL:      "https://statsapi.mlb.com",
		HTTPTimeoutMS:      60_000,
		FetchMaxRetries:    3,
		CachePath:          "./pitchdash.db",
		CacheTTLMinutes:    24 * 60,
		SeasonStart:        "2024-01-01",
		SeasonEnd:          "2024-12-31",
		DefaultPlayer:      "Darvish, Yu",
		PrefetchQueueSize:  256,
		PrefetchWorkers:    runtime.NumCPU(),
		PrefetchDedupeSize: 4096,
	}
}

// HTTPTimeout returns HTTPTimeoutMS as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLMinutes as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// Season parses the default date range.
func (c *Config) Season() (model.DateRange, error) {
	return model.ParseDateRange(c.SeasonStart, c.SeasonEnd)
}

// WarmList splits WarmPlayers into trimmed, non-empty names.
func (c *Config) WarmList() []string {
	var out []string
	for _, name := range strings.Split(c.WarmPlayers, ";") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Validate checks fields that would make the service unusable.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.SavantBaseURL) == "":
		return fmt.Errorf("%w: savant_base_url must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.PeopleBaseURL) == "":
		return fmt.Errorf("%w: people_base_url must not be empty", ErrInvalidConfig)
	case c.HTTPTimeoutMS <= 0:
		return fmt.Errorf("%w: http_timeout_ms must be positive", ErrInvalidConfig)
	case c.FetchMaxRetries < 0:
		return fmt.Errorf("%w: fetch_max_retries must not be negative", ErrInvalidConfig)
	case c.CacheTTLMinutes < 0:
		return fmt.Errorf("%w: cache_ttl_minutes must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Season(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
