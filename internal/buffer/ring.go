// Package buffer keeps the recent history of accepted entries.
package buffer

import (
	"sync"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/filter"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 1024

// Ring is a fixed-capacity circular buffer of entries.
// When full, the oldest entries are silently evicted.
// All operations are goroutine-safe.
type Ring struct {
	mu       sync.RWMutex
	entries  []entry.Entry
	head     int // next write position
	count    int // current number of entries
	capacity int
	dropped  uint64 // total evicted entries
}

// NewRing creates a ring buffer with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		entries:  make([]entry.Entry, capacity),
		capacity: capacity,
	}
}

// Push adds an entry to the ring buffer. If full, the oldest entry is evicted.
func (r *Ring) Push(e entry.Entry) {
	r.mu.Lock()
	r.entries[r.head] = e
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	} else {
		r.dropped++
	}
	r.mu.Unlock()
}

// Snapshot returns a copy of all buffered entries in chronological order.
func (r *Ring) Snapshot() []entry.Entry {
	return r.Select(filter.Any())
}

// Select returns the buffered entries satisfying c, oldest first.
func (r *Ring) Select(c filter.Condition) []entry.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entry.Entry, 0, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		e := &r.entries[(start+i)%r.capacity]
		if c.Evaluate(e) {
			result = append(result, *e)
		}
	}
	return result
}

// Reset discards all buffered entries. The dropped counter is kept.
func (r *Ring) Reset() {
	r.mu.Lock()
	clear(r.entries)
	r.head = 0
	r.count = 0
	r.mu.Unlock()
}

// Len returns the current number of entries in the buffer.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Dropped returns the total number of evicted entries.
func (r *Ring) Dropped() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dropped
}

// Cap returns the buffer capacity.
func (r *Ring) Cap() int {
	return r.capacity
}
