package sink

import (
	"bufio"
	"fmt"
	"os"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/format"
)

// FileSink appends formatted entries, notifications included, to a file.
type FileSink struct {
	file   *os.File
	w      *bufio.Writer
	format format.Formatter
}

// NewFileSink creates a sink that appends to the given file path. A nil
// formatter defaults to format.Default.
func NewFileSink(path string, f format.Formatter) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output file %s: %w", path, err)
	}
	if f == nil {
		f = format.Default
	}
	return &FileSink{file: file, w: bufio.NewWriter(file), format: f}, nil
}

// Write buffers one formatted line.
func (s *FileSink) Write(e *entry.Entry) error {
	if _, err := s.w.WriteString(s.format(e)); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

// Flush writes buffered lines and syncs the file to disk.
func (s *FileSink) Flush() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close flushes and closes the file.
func (s *FileSink) Close() error {
	if err := s.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Name returns the sink identifier.
func (s *FileSink) Name() string {
	return "file:" + s.file.Name()
}
