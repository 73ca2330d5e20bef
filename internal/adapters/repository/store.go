// Package repository caches upstream Statcast data and player ids.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pitchdash/internal/domain/model"
)

// Store provides read/write access to cached upstream responses.
type Store interface {
	// GetDataset returns the cached CSV body for key.
	// Returns ErrNotFound if absent or older than the store TTL.
	GetDataset(ctx context.Context, key string) ([]byte, error)
	// PutDataset stores or replaces the CSV body for key.
	PutDataset(ctx context.Context, key string, body []byte) error

	// GetPlayerID returns the cached MLBAM id for a canonical roster name.
	// Returns ErrNotFound if unknown.
	GetPlayerID(ctx context.Context, name string) (int, error)
	// PutPlayerID stores the MLBAM id for a canonical roster name.
	PutPlayerID(ctx context.Context, name string, id int) error

	// Count returns the number of cached datasets.
	Count(ctx context.Context) int
	// Purge deletes datasets fetched before olderThan and reports how many.
	Purge(ctx context.Context, olderThan time.Time) (int, error)

	Close() error
}

// DatasetKey names the cached search for one player, role and date range.
func DatasetKey(playerID int, pt model.PlayerType, r model.DateRange) string {
	return fmt.Sprintf("%s:%d:%s:%s", pt, playerID, r.StartString(), r.EndString())
}
