// Package dedupe tracks prefetch jobs that are pending so repeats can be
// answered with the job already in flight.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// Deduper records pending job keys.
type Deduper interface {
	// Claim records key as pending under id unless it is already pending.
	// When it is, the id of the pending job is returned with dup set.
	Claim(ctx context.Context, key, id string) (pendingID string, dup bool)

	// Release forgets key once its job finished or was never queued.
	// It is a no-op unless key is still held by id, so a job evicted from
	// a full deduper cannot drop a later claim of the same key.
	Release(ctx context.Context, key, id string)

	Size() int
}

type entry struct {
	key string
	id  string
}

// inMemoryDeduper keeps keys in claim order; the oldest is evicted when full.
type inMemoryDeduper struct {
	mu      sync.Mutex
	byKey   map[string]*list.Element
	order   *list.List
	maxSize int // 0 or negative means unbounded
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		byKey:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: 4096,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok {
		return el.Value.(entry).id, true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.byKey, oldest.Value.(entry).key)
	}
	d.byKey[key] = d.order.PushBack(entry{key: key, id: id})
	return id, false
}

func (d *inMemoryDeduper) Release(_ context.Context, key, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok && el.Value.(entry).id == id {
		d.order.Remove(el)
		delete(d.byKey, key)
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
