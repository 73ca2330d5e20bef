package smoke

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pitchdash/internal/domain/types"
	"github.com/okian/pitchdash/pkg/logger"
)

// checkHeatmaps fetches every player's heat map and validates its shape.
func checkHeatmaps(ctx context.Context, config *Config, players []string, stats *Stats) []Check {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	checks := make([]Check, len(players))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(config.Workers)
	for i, player := range players {
		g.Go(func() error {
			q := url.Values{"player": {player}, "type": {config.Type}}
			if config.Start != "" {
				q.Set("start", config.Start)
			}
			if config.End != "" {
				q.Set("end", config.End)
			}
			var resp types.HeatmapResponse
			status, err := client.getJSON(ctx, "/api/heatmap", q, &resp)
			c := Check{Player: player, Status: status}
			if err == nil {
				err = ValidateMatrix(resp.Heatmap)
				c.Total = resp.Heatmap.Total
			}
			if err != nil {
				c.Err = err.Error()
			}
			checks[i] = c

			mu.Lock()
			stats.HeatmapsChecked++
			if c.Err != "" {
				stats.HeatmapsFailed++
			} else {
				stats.PitchesInZone += c.Total
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	logger.Get().Info(ctx, "heat maps checked",
		logger.Int("checked", stats.HeatmapsChecked), logger.Int("failed", stats.HeatmapsFailed))
	return checks
}

// ValidateMatrix checks a served grid is 3x3, non-negative, and that its
// max and total agree with its cells.
func ValidateMatrix(m types.ZoneMatrix) error {
	if len(m.Rows) != 3 {
		return fmt.Errorf("expected 3 rows, got %d", len(m.Rows))
	}
	sum, peak := 0, 0
	for i, row := range m.Rows {
		if len(row) != 3 {
			return fmt.Errorf("row %d: expected 3 cells, got %d", i, len(row))
		}
		for j, n := range row {
			if n < 0 {
				return fmt.Errorf("cell %d,%d is negative", i, j)
			}
			sum += n
			peak = max(peak, n)
		}
	}
	if sum != m.Total {
		return fmt.Errorf("total %d does not match cell sum %d", m.Total, sum)
	}
	if peak != m.Max {
		return fmt.Errorf("max %d does not match largest cell %d", m.Max, peak)
	}
	return nil
}

// verifyResults fails the run when any heat map was malformed or none
// could be fetched. Upstream failures for single players are tolerated.
func verifyResults(ctx context.Context, checks []Check, stats *Stats) error {
	ok := 0
	for _, c := range checks {
		switch {
		case c.Err == "":
			ok++
		case c.Status == http.StatusOK:
			return fmt.Errorf("%s: malformed heat map: %s", c.Player, c.Err)
		default:
			logger.Get().Warn(ctx, "heat map unavailable", logger.String("player", c.Player), logger.Int("status", c.Status), logger.String("error", c.Err))
		}
	}
	if len(checks) > 0 && ok == 0 {
		return fmt.Errorf("no heat map could be fetched (%d tried)", stats.HeatmapsChecked)
	}
	return nil
}
