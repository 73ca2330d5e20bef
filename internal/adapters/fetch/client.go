// Package fetch performs upstream GET requests with retry and metrics.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/okian/pitchdash/pkg/logger"
	"github.com/okian/pitchdash/pkg/metrics"
)

// Client issues GET requests, retrying network errors, 5xx and 429.
type Client struct {
	source          string
	http            *http.Client
	maxRetries      uint
	initialInterval time.Duration
	maxInterval     time.Duration
	userAgent       string
}

// New creates a client; source labels its metrics and logs.
func New(source string, opts ...Option) *Client {
	c := &Client{
		source:          source,
		http:            &http.Client{Timeout: time.Minute},
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     10 * time.Second,
		userAgent:       "pitchdash/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the body of a 200 response to url.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialInterval
	eb.MaxInterval = c.maxInterval

	attempt := func() ([]byte, error) {
		return c.once(ctx, url)
	}
	notify := func(err error, wait time.Duration) {
		metrics.RecordFetchRetry()
		logger.Get().Warn(ctx, "retrying upstream request",
			logger.String("source", c.source),
			logger.Duration("wait", wait),
			logger.Error(err))
	}

	body, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(notify),
	)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordFetch(c.source, "error", latency)
		var se *StatusError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, c.source, err)
	}
	metrics.RecordFetch(c.source, "ok", latency)
	return body, nil
}

func (c *Client) once(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		se := &StatusError{Code: resp.StatusCode, URL: url}
		if !se.Transient() {
			return nil, backoff.Permanent(se)
		}
		return nil, se
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}
