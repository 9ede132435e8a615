package sink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/format"
)

func TestTerminalSinkSplitsNotifications(t *testing.T) {
	var out, errOut bytes.Buffer
	s := NewTerminalSink(&out, &errOut, nil)

	logged := entry.FromText(entry.KindLogger, entry.LevelDebug, "foo msg")
	notice := entry.Notification(entry.LevelInfo, "socket:connected ")
	text := entry.FromText(entry.KindText, entry.LevelError, "plain")

	require.NoError(t, s.Write(&logged))
	require.NoError(t, s.Write(&notice))
	require.NoError(t, s.Write(&text))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Close())

	assert.Equal(t, "Debug | foo msg\nError | plain\n", out.String())
	assert.Equal(t, "Info | socket:connected \n", errOut.String())
	assert.Equal(t, "terminal", s.Name())
}

func TestTerminalSinkFormatter(t *testing.T) {
	var out bytes.Buffer
	s := NewTerminalSink(&out, nil, format.JSONRecord)

	e := entry.FromText(entry.KindLogger, entry.LevelInfo, "m")
	require.NoError(t, s.Write(&e))
	assert.Equal(t, "{\"LogLevel\":\"Info\",\"Message\":\"m\"}\n", out.String())
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	s, err := NewFileSink(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "file:"+path, s.Name())

	a := entry.FromText(entry.KindLogger, entry.LevelWarning, "a")
	b := entry.Notification(entry.LevelError, "socket:error [x]")
	require.NoError(t, s.Write(&a))
	require.NoError(t, s.Write(&b))
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nWarning | a\nError | socket:error [x]\n", string(data))

	require.NoError(t, s.Close())
}

func TestFileSinkOpenError(t *testing.T) {
	_, err := NewFileSink(filepath.Join(t.TempDir(), "missing", "out.log"), nil)
	assert.ErrorContains(t, err, "open output file")
}
