package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/logger"
	"github.com/Geun-Oh/vcilog/internal/wire"
)

// MessageExited reports a command that ended with an error.
const MessageExited = "exec:exited "

// MaxStderrLine is the longest stderr line turned into an entry. Output after
// a longer line is discarded.
var MaxStderrLine = 1024 * 1024

// ExecSource runs a command that writes logger envelopes to its stdout, such
// as a bridge to a remote console. Lines written to stderr become text entries.
type ExecSource struct {
	command string
	args    []string
}

// NewExecSource creates a source that runs the given command with arguments.
func NewExecSource(command string, args []string) *ExecSource {
	return &ExecSource{
		command: command,
		args:    args,
	}
}

// Name returns the source identifier.
func (s *ExecSource) Name() string {
	return fmt.Sprintf("exec:%s", s.command)
}

// Start executes the command and returns a channel of entries.
// The channel is closed when the command exits or ctx is cancelled.
func (s *ExecSource) Start(ctx context.Context) (<-chan entry.Entry, error) {
	cmd := exec.CommandContext(ctx, s.command, s.args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	ch := make(chan entry.Entry, 256)
	go func() {
		defer close(ch)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.readStderr(ctx, stderrPipe, ch)
		}()

		var ids entry.IDMap
		err := decodeStream(ctx, wire.NewDecoder(stdoutPipe), &ids, ch)
		if err != nil && err != io.EOF && ctx.Err() == nil {
			logger.Get(ctx).Warnw("stream decoding stopped", "source", s.Name(), "error", err)
		}
		// Let the command finish writing after a decoding failure.
		_, _ = io.Copy(io.Discard, stdoutPipe)
		wg.Wait()

		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			send(ctx, ch, entry.Notification(entry.LevelError, MessageExited+err.Error()))
		}
	}()

	return ch, nil
}

// readStderr sends each stderr line as a text entry. The pipe is always read
// to the end so the command never blocks on a full stderr.
func (s *ExecSource) readStderr(ctx context.Context, r io.Reader, ch chan<- entry.Entry) {
	defer func() { _, _ = io.Copy(io.Discard, r) }()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, MaxStderrLine)), MaxStderrLine)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !send(ctx, ch, entry.FromText(entry.KindText, entry.LevelInfo, line)) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Get(ctx).Warnw("stderr discarded", "source", s.Name(), "error", err)
	}
}
