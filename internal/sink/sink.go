// Package sink defines the Sink interface for pipeline output.
package sink

import (
	"github.com/Geun-Oh/vcilog/internal/entry"
)

// Sink receives accepted entries and writes them to an output destination.
type Sink interface {
	// Write outputs a single entry.
	Write(e *entry.Entry) error

	// Flush ensures all buffered output is written.
	Flush() error

	// Close releases resources held by the sink.
	Close() error

	// Name returns a human-readable identifier for this sink.
	Name() string
}
