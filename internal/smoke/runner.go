package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/pitchdash/internal/domain/types"
	"github.com/okian/pitchdash/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes the complete smoke run.
func Run(ctx context.Context, config *Config) (*Report, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting pitchdash smoke run",
		logger.String("baseURL", config.BaseURL),
		logger.String("type", config.Type),
		logger.Int("players", config.Players),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	if err := checkServiceHealth(ctx, config); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	players, err := listPlayers(ctx, config, stats)
	if err != nil {
		return nil, fmt.Errorf("player listing failed: %w", err)
	}

	submitPrefetches(ctx, config, players, stats)

	if err := waitForDrain(ctx, config); err != nil {
		logger.Get().Warn(ctx, "prefetch jobs still pending", logger.Error(err))
	}

	checks := checkHeatmaps(ctx, config, players, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	report := &Report{Config: *config, Stats: *stats, Checks: checks}

	if config.ReportFile != "" {
		if err := saveReport(ctx, config.ReportFile, report); err != nil {
			logger.Get().Warn(ctx, "failed to save report", logger.Error(err))
		}
	}
	displayFinalStats(stats)

	if err := verifyResults(ctx, checks, stats); err != nil {
		return report, fmt.Errorf("result verification failed: %w", err)
	}
	logger.Get().Info(ctx, "smoke run completed successfully")
	return report, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	// /healthz serves Prometheus text; only the status matters.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.BaseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := client.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

func listPlayers(ctx context.Context, config *Config, stats *Stats) ([]string, error) {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	var resp types.PlayersResponse
	if _, err := client.getJSON(ctx, "/api/players", url.Values{"type": {config.Type}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Players) == 0 {
		return nil, errors.New("empty roster")
	}
	players := resp.Players
	if config.Players > 0 && config.Players < len(players) {
		players = players[:config.Players]
	}
	stats.PlayersListed = len(players)
	return players, nil
}

// waitForDrain polls /stats until no prefetch job is pending or Settle elapses.
func waitForDrain(ctx context.Context, config *Config) error {
	ctx, cancel := context.WithTimeout(ctx, config.Settle)
	defer cancel()

	client := newHTTPClient(config.BaseURL, config.Timeout)
	ticker := time.NewTicker(DrainPollInterval)
	defer ticker.Stop()
	for {
		var stats map[string]any
		if _, err := client.getJSON(ctx, "/stats", nil, &stats); err == nil {
			if pending, ok := stats["pendingJobs"].(float64); ok && pending == 0 {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func saveReport(ctx context.Context, filename string, report *Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Get().Info(ctx, "report saved", logger.String("filename", filename))
	return nil
}

func displayFinalStats(stats *Stats) {
	var successRate float64
	if stats.HeatmapsChecked > 0 {
		successRate = float64(stats.HeatmapsChecked-stats.HeatmapsFailed) / float64(stats.HeatmapsChecked) * PercentageMultiplier
	}
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("playersListed", stats.PlayersListed),
		logger.Int("prefetchSubmitted", stats.PrefetchSubmitted),
		logger.Int("prefetchAccepted", stats.PrefetchAccepted),
		logger.Int("prefetchDuplicate", stats.PrefetchDuplicate),
		logger.Int("prefetchRejected", stats.PrefetchRejected),
		logger.Int("prefetchFailed", stats.PrefetchFailed),
		logger.Int("heatmapsChecked", stats.HeatmapsChecked),
		logger.Int("heatmapsFailed", stats.HeatmapsFailed),
		logger.Int("pitchesInZone", stats.PitchesInZone),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate))
}
