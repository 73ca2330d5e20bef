package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/pitchdash/internal/adapters/fetch"
	"github.com/okian/pitchdash/internal/adapters/http/api"
	"github.com/okian/pitchdash/internal/adapters/http/site"
	"github.com/okian/pitchdash/internal/adapters/http/swagger"
	"github.com/okian/pitchdash/internal/adapters/people"
	"github.com/okian/pitchdash/internal/adapters/repository"
	"github.com/okian/pitchdash/internal/adapters/statcast"
	app "github.com/okian/pitchdash/internal/app"
	"github.com/okian/pitchdash/internal/config"
	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/roster"
	"github.com/okian/pitchdash/pkg/logger"
	"github.com/okian/pitchdash/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	if warm := cfg.WarmList(); len(warm) > 0 {
		go func() {
			if _, err := svc.Warm(ctx, model.Pitcher, svc.Season(), warm); err != nil {
				loggerInstance.Warn(ctx, "cache warm-up incomplete", logger.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.HTTPTimeout() + readTimeout, // a cold dashboard waits on the upstream
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService wires the upstream clients, cache and rosters into a service.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	season, err := cfg.Season()
	if err != nil {
		return nil, err
	}

	fetchOpts := []fetch.Option{
		fetch.WithTimeout(cfg.HTTPTimeout()),
		fetch.WithMaxRetries(cfg.FetchMaxRetries),
	}
	store, err := repository.Open(ctx, cfg.CachePath, repository.WithTTL(cfg.CacheTTL()))
	if err != nil {
		return nil, err
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithFetcher(statcast.NewClient(cfg.SavantBaseURL, fetchOpts...)),
		app.WithResolver(people.NewClient(cfg.PeopleBaseURL, fetchOpts...)),
		app.WithStore(store),
		app.WithSeason(season),
		app.WithDefaultPlayer(cfg.DefaultPlayer),
		app.WithWorkerCount(cfg.PrefetchWorkers),
		app.WithQueueSize(cfg.PrefetchQueueSize),
		app.WithDedupeSize(cfg.PrefetchDedupeSize),
		app.WithJobTimeout(cfg.HTTPTimeout() * time.Duration(cfg.FetchMaxRetries+1)),
	}

	for pt, path := range map[model.PlayerType]string{
		model.Pitcher: cfg.PitcherRosterPath,
		model.Batter:  cfg.BatterRosterPath,
	} {
		if path == "" {
			continue
		}
		r, err := roster.Load(path)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("%s roster: %w", pt, err)
		}
		opts = append(opts, app.WithRoster(pt, r))
	}

	return app.New(opts...), nil
}

// newHandler registers every route and tags requests with an id.
func newHandler(ctx context.Context, svc *app.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	site.Register(ctx, mux, svc)
	return api.RequestID(mux)
}

// startSystemMetricsUpdater periodically records process metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater periodically refreshes service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics relies on GetStats refreshing the queue and cache
// gauges; it adds the worker count.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
