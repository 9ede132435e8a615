package filter

import (
	"github.com/Geun-Oh/vcilog/internal/entry"
)

// ContextBuffer provides grep-like --before / --after context entries.
// It wraps a Condition and buffers entries to emit context around matches.
// A ContextBuffer is not safe for concurrent use.
type ContextBuffer struct {
	cond       Condition
	beforeN    int
	afterN     int
	ringBuf    []entry.Entry // recent non-emitted entries
	ringPos    int
	pending    int // entries currently held in ringBuf
	afterCount int // remaining "after" entries to emit
}

// NewContextBuffer creates a context-aware wrapper around cond.
// before is the number of entries before a match to include.
// after is the number of entries after a match to include.
func NewContextBuffer(cond Condition, before, after int) *ContextBuffer {
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}
	return &ContextBuffer{
		cond:    cond,
		beforeN: before,
		afterN:  after,
		ringBuf: make([]entry.Entry, before+1),
	}
}

// Process evaluates an entry and returns the entries to emit, context first.
// Returns nil if nothing should be emitted yet. An entry is emitted at most once.
func (cb *ContextBuffer) Process(e *entry.Entry) []entry.Entry {
	if cb.cond.Evaluate(e) {
		result := cb.drain()
		result = append(result, *e)
		cb.afterCount = cb.afterN
		return result
	}

	// Still in the "after" window of the previous match.
	if cb.afterCount > 0 {
		cb.afterCount--
		return []entry.Entry{*e}
	}

	if cb.beforeN > 0 {
		cb.ringBuf[cb.ringPos%len(cb.ringBuf)] = *e
		cb.ringPos++
		if cb.pending < cb.beforeN {
			cb.pending++
		}
	}
	return nil
}

// drain returns the buffered "before" entries in arrival order and empties the buffer.
func (cb *ContextBuffer) drain() []entry.Entry {
	if cb.pending == 0 {
		return nil
	}
	result := make([]entry.Entry, 0, cb.pending+1)
	for i := cb.ringPos - cb.pending; i < cb.ringPos; i++ {
		result = append(result, cb.ringBuf[i%len(cb.ringBuf)])
	}
	cb.pending = 0
	return result
}

// Condition returns the wrapped condition.
func (cb *ContextBuffer) Condition() Condition {
	return cb.cond
}
