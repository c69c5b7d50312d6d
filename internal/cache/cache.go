// Package cache holds the in-memory ordered mirror of one remote collection.
package cache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/corvand/remedy/internal/record"
)

// Cache is the single source of truth for the visible sequence of one
// collection. It never performs network calls itself; the mutation
// coordinator drives it. All transitions are atomic under the internal lock,
// so callers never observe a partial one.
type Cache[T record.Record] struct {
	mu      sync.RWMutex
	records []T
	loaded  bool
	loading bool
	err     error
	loadGen uint64
}

// New returns an empty cache.
func New[T record.Record]() *Cache[T] {
	return &Cache[T]{}
}

// BeginLoad marks the cache as loading and returns a generation token that
// must be passed back to Complete. A completion carrying a stale token is
// discarded, so a superseded fetch cannot overwrite a newer one.
func (c *Cache[T]) BeginLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = true
	c.loadGen++
	return c.loadGen
}

// Complete finishes the load started by BeginLoad. On success the sequence is
// replaced wholesale. On failure the error is recorded and the previously
// loaded sequence is kept (empty if nothing was ever loaded).
func (c *Cache[T]) Complete(gen uint64, records []T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.loadGen {
		slog.Debug("cache: discarding stale load result")
		return
	}
	c.loading = false
	c.err = err
	if err != nil {
		if !c.loaded {
			c.records = nil
		}
		return
	}
	c.records = records
	c.loaded = true
}

// Apply merges a mutation into the record matching id, leaving all other
// records untouched. A missing id is an inconsistency between view and
// store; it is logged and ignored rather than treated as fatal.
func (c *Cache[T]) Apply(id string, merge func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, rec := range c.records {
		if rec.RecordID() == id {
			c.records[i] = merge(rec)
			return true
		}
	}
	slog.Warn("cache: apply targeted absent record", slog.String("id", id))
	return false
}

// Remove deletes the record matching id; absent ids are a no-op.
func (c *Cache[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, rec := range c.records {
		if rec.RecordID() == id {
			c.records = append(c.records[:i:i], c.records[i+1:]...)
			return true
		}
	}
	return false
}

// Insert appends a record. Exactly one in-memory copy may exist per
// identifier; inserting a duplicate is a programming error, not a runtime
// condition, and panics.
func (c *Cache[T]) Insert(rec T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.records {
		if existing.RecordID() == rec.RecordID() {
			panic(fmt.Sprintf("cache: duplicate insert for id %s", rec.RecordID()))
		}
	}
	c.records = append(c.records, rec)
}

// Snapshot returns a copy of the ordered sequence.
func (c *Cache[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// Get returns the record matching id.
func (c *Cache[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rec := range c.records {
		if rec.RecordID() == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of cached records.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Loading reports whether a load is in flight.
func (c *Cache[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error recorded by the most recent load completion.
func (c *Cache[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}
