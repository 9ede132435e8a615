// Package source defines the Source interface and the inputs that feed the
// pipeline with entries.
package source

import (
	"context"
	"errors"
	"io"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/wire"
)

// Source produces entries on a channel.
// Implementations must close the returned channel when the source is exhausted
// or the context is cancelled.
type Source interface {
	// Start begins reading from the source. The returned channel will receive
	// entries until the source is exhausted or ctx is cancelled.
	// The implementation must close the channel when done.
	Start(ctx context.Context) (<-chan entry.Entry, error)

	// Name returns a human-readable identifier for this source.
	Name() string
}

// send delivers e unless ctx is done first.
func send(ctx context.Context, ch chan<- entry.Entry, e entry.Entry) bool {
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// decodeStream parses consecutive msgpack envelopes from dec and sends them
// on ch, threading ids through each record. It returns io.EOF at a clean end
// of stream. A decoding failure is sent as a notification and returned.
func decodeStream(ctx context.Context, dec *wire.Decoder, ids *entry.IDMap, ch chan<- entry.Entry) error {
	for {
		v, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if err != nil {
			send(ctx, ch, entry.Unsupported(err.Error()))
			return err
		}

		var e entry.Entry
		e, *ids = entry.ParseEnvelope(v, *ids)
		if !send(ctx, ch, e) {
			return ctx.Err()
		}
	}
}
