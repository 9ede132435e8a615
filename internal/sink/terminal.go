package sink

import (
	"fmt"
	"io"
	"os"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/format"
)

// TerminalSink writes one formatted line per entry. Notifications about the
// connection itself go to the error writer so they stay apart from the log.
type TerminalSink struct {
	out    io.Writer
	errOut io.Writer
	format format.Formatter
}

// NewTerminalSink creates a sink writing records to out and notifications to
// errOut. Nil writers default to stdout and stderr, a nil formatter to
// format.Default.
func NewTerminalSink(out, errOut io.Writer, f format.Formatter) *TerminalSink {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	if f == nil {
		f = format.Default
	}
	return &TerminalSink{out: out, errOut: errOut, format: f}
}

// Write outputs a formatted entry.
func (s *TerminalSink) Write(e *entry.Entry) error {
	w := s.out
	if e.Kind() == entry.KindNotification {
		w = s.errOut
	}
	_, err := fmt.Fprintln(w, s.format(e))
	return err
}

// Flush is a no-op for terminal output.
func (s *TerminalSink) Flush() error { return nil }

// Close is a no-op for terminal output.
func (s *TerminalSink) Close() error { return nil }

// Name returns the sink identifier.
func (s *TerminalSink) Name() string { return "terminal" }
