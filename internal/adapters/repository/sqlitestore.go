package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver

	"github.com/okian/pitchdash/pkg/logger"
	"github.com/okian/pitchdash/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	key        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS players (
	name       TEXT PRIMARY KEY,
	mlbam_id   INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is a Store on a single sqlite file.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time

	metricsUpdateInterval time.Duration
	stopChan              chan struct{}
	stopOnce              sync.Once
	wg                    sync.WaitGroup
}

// Open opens (creating if needed) the cache at path. Use ":memory:" for a
// throwaway cache.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: schema: %v", ErrOpen, err)
	}

	s := &SQLiteStore{
		db:                    db,
		now:                   time.Now,
		metricsUpdateInterval: 30 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.updateMetrics(ctx)
	s.startMaintenance(ctx)
	return s, nil
}

// GetDataset implements Store.
func (s *SQLiteStore) GetDataset(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	var fetched int64
	err := s.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM datasets WHERE key = ?`, key).Scan(&body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordCacheMiss("dataset")
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.RecordErrorByComponent("repository", "query")
		return nil, fmt.Errorf("get dataset %s: %w", key, err)
	}
	if s.expired(fetched) {
		metrics.RecordCacheMiss("dataset")
		return nil, ErrNotFound
	}
	metrics.RecordCacheHit("dataset")
	return body, nil
}

// PutDataset implements Store.
func (s *SQLiteStore) PutDataset(ctx context.Context, key string, body []byte) error {
	if body == nil {
		body = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (key, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, body, s.now().Unix())
	if err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("put dataset %s: %w", key, err)
	}
	metrics.UpdateCacheEntries(s.Count(ctx))
	return nil
}

// GetPlayerID implements Store.
func (s *SQLiteStore) GetPlayerID(ctx context.Context, name string) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx,
		`SELECT mlbam_id FROM players WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordCacheMiss("player")
		return 0, ErrNotFound
	}
	if err != nil {
		metrics.RecordErrorByComponent("repository", "query")
		return 0, fmt.Errorf("get player %s: %w", name, err)
	}
	metrics.RecordCacheHit("player")
	return id, nil
}

// PutPlayerID implements Store.
func (s *SQLiteStore) PutPlayerID(ctx context.Context, name string, id int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (name, mlbam_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET mlbam_id = excluded.mlbam_id, updated_at = excluded.updated_at`,
		name, id, s.now().Unix())
	if err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("put player %s: %w", name, err)
	}
	return nil
}

// Count implements Store. Errors count as zero.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Purge implements Store.
func (s *SQLiteStore) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE fetched_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge datasets: %w", err)
	}
	n, _ := res.RowsAffected()
	metrics.UpdateCacheEntries(s.Count(ctx))
	return int(n), nil
}

// Close stops background work and closes the database.
func (s *SQLiteStore) Close() error {
	closed := false
	s.stopOnce.Do(func() {
		close(s.stopChan)
		closed = true
	})
	if !closed {
		return ErrClosed
	}
	s.wg.Wait()
	return s.db.Close()
}

func (s *SQLiteStore) expired(fetchedUnix int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(fetchedUnix, 0)) > s.ttl
}

// startMaintenance refreshes the entry gauge and drops expired datasets.
func (s *SQLiteStore) startMaintenance(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if s.ttl > 0 {
					if n, err := s.Purge(ctx, s.now().Add(-s.ttl)); err != nil {
						logger.Get().Warn(ctx, "cache purge failed", logger.Error(err))
					} else if n > 0 {
						logger.Get().Debug(ctx, "cache purged", logger.Int("datasets", n))
					}
				}
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *SQLiteStore) updateMetrics(ctx context.Context) {
	metrics.UpdateCacheEntries(s.Count(ctx))
}
