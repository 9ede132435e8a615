package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/logger"
	"github.com/Geun-Oh/vcilog/internal/wire"
)

// FilePollInterval is how often a followed file is checked for new data.
var FilePollInterval = 100 * time.Millisecond

// FileSource replays a msgpack capture file, optionally following new writes (tail -f).
type FileSource struct {
	path   string
	follow bool
}

// NewFileSource creates a source that reads from a file.
// If follow is true, it continues reading as new envelopes are appended.
func NewFileSource(path string, follow bool) *FileSource {
	return &FileSource{
		path:   path,
		follow: follow,
	}
}

// Name returns the source identifier.
func (s *FileSource) Name() string {
	return fmt.Sprintf("file:%s", s.path)
}

// Start opens the file and returns a channel of entries.
func (s *FileSource) Start(ctx context.Context) (<-chan entry.Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", s.path, err)
	}

	ch := make(chan entry.Entry, 256)

	go func() {
		defer close(ch)
		defer f.Close()

		if s.follow {
			s.tail(ctx, f, ch)
			return
		}
		var ids entry.IDMap
		err := decodeStream(ctx, wire.NewDecoder(f), &ids, ch)
		if err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
			logger.Get(ctx).Warnw("stream decoding stopped", "source", s.Name(), "error", err)
		}
	}()

	return ch, nil
}

// tail decodes envelopes from f as they are appended. Bytes of an envelope
// that is still being written stay pending until the rest arrives.
func (s *FileSource) tail(ctx context.Context, f *os.File, ch chan<- entry.Entry) {
	var (
		ids     entry.IDMap
		pending []byte
		chunk   = make([]byte, 32*1024)
	)
	for {
		n, err := f.Read(chunk)
		pending = append(pending, chunk[:n]...)
		if err != nil && !errors.Is(err, io.EOF) {
			logger.Get(ctx).Warnw("read stopped", "source", s.Name(), "error", err)
			return
		}

		for len(pending) > 0 {
			r := bytes.NewReader(pending)
			v, err := wire.NewDecoder(r).Next()
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			if err != nil {
				send(ctx, ch, entry.Unsupported(err.Error()))
				logger.Get(ctx).Warnw("stream decoding stopped", "source", s.Name(), "error", err)
				return
			}

			var e entry.Entry
			e, ids = entry.ParseEnvelope(v, ids)
			if !send(ctx, ch, e) {
				return
			}
			pending = pending[len(pending)-r.Len():]
		}

		if n > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(FilePollInterval):
		}
	}
}
