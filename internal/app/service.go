// Package service loads Statcast data for a player and derives everything
// the dashboard shows from it.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/okian/pitchdash/internal/adapters/mq/queue"
	"github.com/okian/pitchdash/internal/adapters/mq/worker"
	"github.com/okian/pitchdash/internal/adapters/people"
	"github.com/okian/pitchdash/internal/adapters/repository"
	"github.com/okian/pitchdash/internal/adapters/statcast"
	"github.com/okian/pitchdash/internal/domain/dedupe"
	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/roster"
	"github.com/okian/pitchdash/internal/domain/summary"
	"github.com/okian/pitchdash/internal/domain/zone"
	"github.com/okian/pitchdash/pkg/logger"
	"github.com/okian/pitchdash/pkg/metrics"
)

// Fetcher downloads raw Statcast CSV for one player.
type Fetcher interface {
	Fetch(ctx context.Context, playerID int, pt model.PlayerType, r model.DateRange) ([]byte, error)
}

// Resolver maps a player name to an MLBAM id.
type Resolver interface {
	Lookup(ctx context.Context, last, first string) (int, error)
}

// Query selects the data one dashboard render is computed from.
type Query struct {
	Player string // canonical "Last, First"
	Type   model.PlayerType
	Range  model.DateRange
	Pitch  string // pitch name or summary.AllPitches
}

// DashboardView is everything one dashboard render shows.
type DashboardView struct {
	Query      Query
	PlayerID   int
	PitchNames []string
	Summary    summary.Summary
	Heatmap    zone.CountMatrix
	Movement   []summary.Series
	Location   []summary.Series
}

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Dependencies
	fetcher  Fetcher
	resolver Resolver
	store    repository.Store
	rosters  map[model.PlayerType]*roster.Roster
	flight   singleflight.Group

	// Prefetch
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool

	// Configuration
	season          model.DateRange
	defaultPlayer   string
	workerCount     int
	queueSize       int
	dedupeSize      int
	jobTimeout      time.Duration
	warmConcurrency int

	started bool
	logger  logger.Logger
}

// New constructs a Service. Fetcher, Resolver and Store must be supplied
// before Start.
func New(opts ...Option) *Service {
	s := &Service{
		rosters:         make(map[model.PlayerType]*roster.Roster, 2),
		season:          model.DateRange{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
		defaultPlayer:   "Darvish, Yu",
		workerCount:     runtime.NumCPU(),
		queueSize:       256,
		dedupeSize:      4096,
		jobTimeout:      2 * time.Minute,
		warmConcurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads rosters and starts the prefetch workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.fetcher == nil || s.resolver == nil || s.store == nil {
		return fmt.Errorf("%w: fetcher, resolver and store are required", ErrNotConfigured)
	}

	for _, pt := range []model.PlayerType{model.Pitcher, model.Batter} {
		if s.rosters[pt] != nil {
			continue
		}
		r, err := roster.Default(pt)
		if err != nil {
			return fmt.Errorf("load %s roster: %w", pt, err)
		}
		s.rosters[pt] = r
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.LoaderFunc(s.load),
		worker.WithJobTimeout(s.jobTimeout),
		worker.WithOnDone(func(j worker.Job, _ error) {
			s.deduper.Release(context.Background(), j.Key(), j.ID)
		}),
	)
	// Workers outlive the start-up context; Stop ends them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("pitchers", s.rosters[model.Pitcher].Len()),
		logger.Int("batters", s.rosters[model.Batter].Len()),
		logger.String("season", s.season.String()),
	)
	return nil
}

// Stop shuts the workers down and closes the cache.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping dashboard service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing cache", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "dashboard service stopped")
}

// Season returns the default date range.
func (s *Service) Season() model.DateRange { return s.season }

// Players lists the roster for pt and the name to preselect.
func (s *Service) Players(pt model.PlayerType) ([]string, string, error) {
	r, err := s.roster(pt)
	if err != nil {
		return nil, "", err
	}
	names := r.Names()
	def := ""
	if canon, ok := r.Find(s.defaultPlayer); ok {
		def = canon
	} else if len(names) > 0 {
		def = names[0]
	}
	return names, def, nil
}

// NewQuery validates raw request parameters. Blank values take defaults:
// pitcher role, the default player of that role, the configured season and
// every pitch type. Names outside the roster are accepted when they read as
// "Last, First".
func (s *Service) NewQuery(player, playerType, start, end, pitch string) (Query, error) {
	pt, err := model.ParsePlayerType(playerType)
	if err != nil {
		return Query{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	r := s.season
	if start != "" || end != "" {
		if start == "" {
			start = s.season.StartString()
		}
		if end == "" {
			end = s.season.EndString()
		}
		if r, err = model.ParseDateRange(start, end); err != nil {
			return Query{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
	}

	rs, err := s.roster(pt)
	if err != nil {
		return Query{}, err
	}
	player = strings.TrimSpace(player)
	switch canon, ok := rs.Find(player); {
	case player == "":
		_, def, _ := s.Players(pt)
		if def == "" {
			return Query{}, fmt.Errorf("%w: no %s available", ErrUnknownPlayer, pt)
		}
		player = def
	case ok:
		player = canon
	default:
		if _, _, err := roster.Split(player); err != nil {
			return Query{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
	}

	pitch = strings.TrimSpace(pitch)
	if pitch == "" {
		pitch = summary.AllPitches
	}
	return Query{Player: player, Type: pt, Range: r, Pitch: pitch}, nil
}

// PlayerID resolves a name through the cache, then the people API.
func (s *Service) PlayerID(ctx context.Context, name string) (int, error) {
	if id, err := s.store.GetPlayerID(ctx, name); err == nil {
		return id, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn(ctx, "player cache read failed", logger.String("player", name), logger.Error(err))
	}

	last, first, err := roster.Split(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	v, err, _ := s.flight.Do("player:"+name, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		id, err := s.resolver.Lookup(lctx, last, first)
		if err != nil {
			return 0, err
		}
		if perr := s.store.PutPlayerID(lctx, name, id); perr != nil {
			s.logger.Warn(lctx, "player cache write failed", logger.String("player", name), logger.Error(perr))
		}
		return id, nil
	})
	switch {
	case errors.Is(err, people.ErrPlayerNotFound):
		return 0, fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	case err != nil:
		return 0, fmt.Errorf("%w: player lookup: %w", ErrUpstream, err)
	}
	return v.(int), nil
}

// Dataset returns the complete records for the query's player, role and
// range: cached CSV when fresh, else one upstream fetch shared by all
// concurrent callers. Records missing any charted field are dropped.
func (s *Service) Dataset(ctx context.Context, q Query) ([]model.PitchRecord, int, error) {
	id, err := s.PlayerID(ctx, q.Player)
	if err != nil {
		return nil, 0, err
	}
	body, err := s.csv(ctx, id, q)
	if err != nil {
		return nil, id, err
	}
	records, err := statcast.DecodeBytes(body)
	if err != nil {
		return nil, id, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	metrics.RecordRecordsParsed(len(records))
	return summary.DropIncomplete(records), id, nil
}

func (s *Service) csv(ctx context.Context, id int, q Query) ([]byte, error) {
	key := repository.DatasetKey(id, q.Type, q.Range)
	body, err := s.store.GetDataset(ctx, key)
	if err == nil {
		return body, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn(ctx, "dataset cache read failed", logger.String("key", key), logger.Error(err))
	}

	v, err, shared := s.flight.Do("dataset:"+key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		body, err := s.fetcher.Fetch(fctx, id, q.Type, q.Range)
		if err != nil {
			return nil, err
		}
		if perr := s.store.PutDataset(fctx, key, body); perr != nil {
			s.logger.Warn(fctx, "dataset cache write failed", logger.String("key", key), logger.Error(perr))
		}
		return body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	s.logger.Debug(ctx, "dataset fetched", logger.String("key", key), logger.Any("shared", shared))
	return v.([]byte), nil
}

// Dashboard computes the full view for a query.
func (s *Service) Dashboard(ctx context.Context, q Query) (DashboardView, error) {
	records, id, err := s.Dataset(ctx, q)
	if err != nil {
		return DashboardView{}, err
	}

	filtered := summary.FilterByPitchName(records, q.Pitch)
	matrix, err := s.heatmap(filtered)
	if err != nil {
		return DashboardView{}, err
	}

	return DashboardView{
		Query:      q,
		PlayerID:   id,
		PitchNames: summary.PitchNames(records),
		Summary:    summary.Summarize(filtered),
		Heatmap:    matrix,
		Movement:   summary.MovementSeries(filtered),
		Location:   summary.LocationSeries(filtered),
	}, nil
}

// Heatmap computes only the zone count matrix for a query.
func (s *Service) Heatmap(ctx context.Context, q Query) (zone.CountMatrix, error) {
	records, _, err := s.Dataset(ctx, q)
	if err != nil {
		return zone.CountMatrix{}, err
	}
	return s.heatmap(summary.FilterByPitchName(records, q.Pitch))
}

func (s *Service) heatmap(records []model.PitchRecord) (zone.CountMatrix, error) {
	m, err := summary.Heatmap(records)
	if err != nil {
		metrics.RecordInvalidRecord()
		metrics.RecordErrorByComponent("service", "invalid_record")
		return zone.CountMatrix{}, err
	}
	metrics.RecordMatrixComputed(m.Total())
	return m, nil
}

// Prefetch queues a background cache fill for the query's player.
// A request for data already pending returns that job's id with dup set.
func (s *Service) Prefetch(ctx context.Context, q Query) (jobID string, dup bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", false, ErrNotStarted
	}

	job := model.PrefetchJob{ID: uuid.NewString(), Player: q.Player, Type: q.Type, Range: q.Range}
	if pending, isDup := s.deduper.Claim(ctx, job.Key(), job.ID); isDup {
		metrics.RecordJobDuplicate()
		return pending, true, nil
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Release(ctx, job.Key(), job.ID)
		if errors.Is(err, queue.ErrFull) {
			return "", false, fmt.Errorf("%w: %w", ErrQueueFull, err)
		}
		return "", false, err
	}
	s.logger.Debug(ctx, "prefetch queued", logger.String("job_id", job.ID), logger.String("key", job.Key()))
	return job.ID, false, nil
}

// load is the worker entry point: it fills the cache for one job.
func (s *Service) load(ctx context.Context, j model.PrefetchJob) error {
	id, err := s.PlayerID(ctx, j.Player)
	if err != nil {
		return err
	}
	_, err = s.csv(ctx, id, Query{Player: j.Player, Type: j.Type, Range: j.Range})
	return err
}

// Warm fills the cache for several players at once, at most
// warmConcurrency fetches at a time. It returns how many succeeded and
// the first failure.
func (s *Service) Warm(ctx context.Context, pt model.PlayerType, r model.DateRange, players []string) (int, error) {
	var g errgroup.Group
	g.SetLimit(s.warmConcurrency)

	var mu sync.Mutex
	warmed := 0
	for _, name := range players {
		job := model.PrefetchJob{ID: uuid.NewString(), Player: name, Type: pt, Range: r}
		g.Go(func() error {
			if err := s.load(ctx, job); err != nil {
				return fmt.Errorf("warm %s: %w", name, err)
			}
			mu.Lock()
			warmed++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	s.logger.Info(ctx, "cache warmed", logger.Int("players", len(players)), logger.Int("warmed", warmed))
	return warmed, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"season":      s.season.String(),
	}

	if s.started {
		processed, failed := s.pool.Processed()
		cached := s.store.Count(context.Background())
		queueLen := s.queue.Len()

		stats["queueLength"] = queueLen
		stats["pendingJobs"] = s.deduper.Size()
		stats["jobsProcessed"] = processed
		stats["jobsFailed"] = failed
		stats["cachedDatasets"] = cached
		stats["pitchers"] = s.rosters[model.Pitcher].Len()
		stats["batters"] = s.rosters[model.Batter].Len()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateCacheEntries(cached)
	}
	return stats
}

func (s *Service) roster(pt model.PlayerType) (*roster.Roster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.rosters[pt]
	if r == nil {
		return nil, fmt.Errorf("%w: %s roster not loaded", ErrNotStarted, pt)
	}
	return r, nil
}
