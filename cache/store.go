// Package cache implements the in-memory keyed entity store the gateway
// synchronization pipeline writes into. Records live until overwritten or
// removed; nothing is persisted across restarts.
package cache

import (
	"iter"
	"sync"
)

// Bucket is a typed, keyed record store safe for concurrent use. Writes
// replace whole records: a record is either absent or fully valid, partial
// writes are never observable.
type Bucket[K comparable, V any] struct {
	mu      sync.RWMutex
	records map[K]V
}

// NewBucket creates an empty bucket.
func NewBucket[K comparable, V any]() *Bucket[K, V] {
	return &Bucket[K, V]{records: make(map[K]V)}
}

// Put inserts or overwrites the record stored under key.
func (b *Bucket[K, V]) Put(key K, value V) {
	b.mu.Lock()
	b.records[key] = value
	b.mu.Unlock()
}

// PutAll inserts or overwrites every record in the map.
func (b *Bucket[K, V]) PutAll(values map[K]V) {
	b.mu.Lock()
	for key, value := range values {
		b.records[key] = value
	}
	b.mu.Unlock()
}

// Get is the point lookup by full key.
func (b *Bucket[K, V]) Get(key K) (V, bool) {
	b.mu.RLock()
	value, ok := b.records[key]
	b.mu.RUnlock()
	return value, ok
}

// Update transforms the record under key in place, holding the write lock
// across the read-transform-write so concurrent updaters of the same key
// cannot lose writes. Absent keys are a no-op, not an error.
func (b *Bucket[K, V]) Update(key K, fn func(V) V) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.records[key]
	if !ok {
		return false
	}
	b.records[key] = fn(value)
	return true
}

// Remove deletes the record under key, if any. Idempotent.
func (b *Bucket[K, V]) Remove(key K) {
	b.mu.Lock()
	delete(b.records, key)
	b.mu.Unlock()
}

// RemoveWhere deletes every record matching pred and reports how many went.
func (b *Bucket[K, V]) RemoveWhere(pred func(V) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := 0
	for key, value := range b.records {
		if pred(value) {
			delete(b.records, key)
			removed++
		}
	}
	return removed
}

// Query returns a restartable sequence of records matching pred. Matches
// are snapshotted under the read lock so iteration never holds the bucket
// lock; each range over the result replays the snapshot.
func (b *Bucket[K, V]) Query(pred func(V) bool) iter.Seq[V] {
	b.mu.RLock()
	matches := make([]V, 0)
	for _, value := range b.records {
		if pred(value) {
			matches = append(matches, value)
		}
	}
	b.mu.RUnlock()

	return func(yield func(V) bool) {
		for _, value := range matches {
			if !yield(value) {
				return
			}
		}
	}
}

// Len reports the number of stored records.
func (b *Bucket[K, V]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}
