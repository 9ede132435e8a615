package source

import (
	"context"
	"io"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/logger"
	"github.com/Geun-Oh/vcilog/internal/wire"
)

// ReaderSource replays a msgpack stream of logger envelopes, such as a
// capture of the console traffic.
type ReaderSource struct {
	r    io.Reader
	name string
}

// NewReaderSource creates a source that decodes envelopes from r.
func NewReaderSource(r io.Reader, name string) *ReaderSource {
	return &ReaderSource{r: r, name: name}
}

// Name returns the source identifier.
func (s *ReaderSource) Name() string {
	return s.name
}

// Start decodes the stream and returns a channel of entries. The channel is
// closed at the end of the stream, on the first decoding error or when ctx
// is cancelled.
func (s *ReaderSource) Start(ctx context.Context) (<-chan entry.Entry, error) {
	ch := make(chan entry.Entry, 256)

	go func() {
		defer close(ch)

		var ids entry.IDMap
		err := decodeStream(ctx, wire.NewDecoder(s.r), &ids, ch)
		if err != nil && err != io.EOF && ctx.Err() == nil {
			logger.Get(ctx).Warnw("stream decoding stopped", "source", s.name, "error", err)
		}
	}()

	return ch, nil
}
