package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pitchdash/internal/domain/types"
	"github.com/okian/pitchdash/pkg/logger"
)

// HTTPClient wraps http.Client with JSON helpers.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// getJSON performs a GET and decodes a 200 body into v. The status is
// returned for every completed request.
func (c *HTTPClient) getJSON(ctx context.Context, path string, q url.Values, v any) (int, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, v)
}

// postJSON sends body as JSON and decodes the response into v.
func (c *HTTPClient) postJSON(ctx context.Context, path string, body, v any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *HTTPClient) do(req *http.Request, v any) (int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e types.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Code != "" {
			return resp.StatusCode, fmt.Errorf("%s: %s", e.Code, e.Message)
		}
		return resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}
	if v != nil {
		if err := json.Unmarshal(body, v); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// submitPrefetches posts one prefetch per player, each twice, through a
// worker pool. The second post of a still-pending job reports a duplicate.
func submitPrefetches(ctx context.Context, config *Config, players []string, stats *Stats) {
	logger.Get().Info(ctx, "submitting prefetch requests",
		logger.Int("players", len(players)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.BaseURL, config.Timeout)
	var accepted, duplicate, rejected, failed, submitted atomic.Int64

	jobs := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for range config.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for player := range jobs {
				if ctx.Err() != nil {
					return
				}
				out := submitSinglePrefetch(ctx, client, config, player)
				submitted.Add(1)
				switch out {
				case Accepted:
					accepted.Add(1)
				case Duplicate:
					duplicate.Add(1)
				case Rejected:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
				if config.Verbose {
					logger.Get().Debug(ctx, "prefetch", logger.String("player", player), logger.String("outcome", string(out)))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range players {
			for range 2 {
				select {
				case <-ctx.Done():
					return
				case jobs <- p:
				}
			}
		}
	}()
	wg.Wait()

	stats.PrefetchSubmitted = int(submitted.Load())
	stats.PrefetchAccepted = int(accepted.Load())
	stats.PrefetchDuplicate = int(duplicate.Load())
	stats.PrefetchRejected = int(rejected.Load())
	stats.PrefetchFailed = int(failed.Load())

	logger.Get().Info(ctx, "prefetch submission completed",
		logger.Int("accepted", stats.PrefetchAccepted),
		logger.Int("duplicate", stats.PrefetchDuplicate),
		logger.Int("rejected", stats.PrefetchRejected),
		logger.Int("failed", stats.PrefetchFailed))
}

func submitSinglePrefetch(ctx context.Context, client *HTTPClient, config *Config, player string) Outcome {
	req := types.PrefetchRequest{Player: player, Type: config.Type, Start: config.Start, End: config.End}
	var ack types.PrefetchResponse
	status, err := client.postJSON(ctx, "/api/prefetch", req, &ack)
	switch {
	case status == http.StatusTooManyRequests:
		return Rejected
	case err != nil:
		return Failed
	case status == http.StatusAccepted:
		return Accepted
	case status == http.StatusOK && ack.Duplicate:
		return Duplicate
	default:
		return Failed
	}
}
