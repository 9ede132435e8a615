package source

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/wire"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func envelope(t *testing.T, kv ...string) []byte {
	t.Helper()
	var rec entry.Record
	for i := 0; i+1 < len(kv); i += 2 {
		rec = append(rec, entry.Pair{Key: kv[i], Value: kv[i+1]})
	}
	data, err := wire.Encode(wire.Envelope(rec))
	require.NoError(t, err)
	return data
}

// drain reads ch until it is closed.
func drain(t *testing.T, ch <-chan entry.Entry) []entry.Entry {
	t.Helper()
	var out []entry.Entry
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			t.Fatalf("channel not closed, got %d entries", len(out))
		}
	}
}

// next reads one entry from ch.
func next(t *testing.T, ch <-chan entry.Entry) entry.Entry {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no entry received")
	}
	return entry.Entry{}
}

func messages(es []entry.Entry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Message())
	}
	return out
}

func TestAddress(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"192.168.0.1:80", "ws://192.168.0.1:80"},
		{"ws://127.0.0.1:8080", "ws://127.0.0.1:8080"},
		{"WSS://host/path", "WSS://host/path"},
		{"http://x", "http://x"},
		{"", "ws://"},
		{"ws://", "ws://ws://"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Address(tt.in), tt.in)
	}
}

func TestWebSocketSource(t *testing.T) {
	first := envelope(t, "LogLevel", "Trace", "Category", "Item_Print", "VciId", "0123-4567-89", "Message", "foo_vci")
	second := envelope(t, "LogLevel", "Info", "VciId", "0123-4567-89", "Message", "again")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.BinaryMessage, first)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("baz_str_log"))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x93})
		_ = conn.WriteMessage(websocket.BinaryMessage, second)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	src := NewWebSocketSource(host, WebSocketOptions{HandshakeTimeout: time.Second})
	assert.Equal(t, "ws://"+host, src.Name())

	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	got := drain(t, ch)
	require.Len(t, got, 7)

	assert.Equal(t, "socket:connecting ... [ws://"+host+"]", got[0].Message())
	assert.Equal(t, entry.KindNotification, got[0].Kind())
	assert.Equal(t, entry.LevelInfo, got[0].Level())

	assert.Equal(t, "socket:connected ", got[1].Message())

	assert.Equal(t, entry.KindLogger, got[2].Kind())
	assert.Equal(t, entry.CategoryItemPrint, got[2].Category())
	assert.Equal(t, "foo_vci", got[2].Message())
	assert.Equal(t, "0123456", got[2].SimpleVciID())

	assert.Equal(t, entry.KindNotification, got[3].Kind())
	assert.Equal(t, entry.LevelError, got[3].Level())
	assert.Equal(t, "baz_str_log", got[3].Message())

	assert.Equal(t, entry.LevelError, got[4].Level())
	assert.True(t, strings.HasPrefix(got[4].Message(), entry.UnsupportedDataFormat+" "))

	assert.Equal(t, "0123456", got[5].SimpleVciID())

	assert.Equal(t, "socket:disconnected ", got[6].Message())
	assert.Equal(t, entry.LevelInfo, got[6].Level())
}

func TestWebSocketSourceDialError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	ch, err := NewWebSocketSource(host, WebSocketOptions{}).Start(context.Background())
	require.NoError(t, err)
	got := drain(t, ch)
	require.Len(t, got, 3)

	assert.Equal(t, "socket:connecting ... [ws://"+host+"]", got[0].Message())
	assert.Equal(t, entry.LevelError, got[1].Level())
	assert.True(t, strings.HasPrefix(got[1].Message(), "socket:error ["), got[1].Message())
	assert.True(t, strings.HasSuffix(got[1].Message(), "]"))
	assert.Equal(t, "socket:disconnected ", got[2].Message())
}

func TestWebSocketSourceAbnormalClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	ch, err := NewWebSocketSource(srv.URL[len("http://"):], WebSocketOptions{}).Start(context.Background())
	require.NoError(t, err)

	got := messages(drain(t, ch))
	require.Len(t, got, 4)
	assert.Equal(t, "socket:connecting ... [ws://"+srv.Listener.Addr().String()+"]", got[0])
	assert.Equal(t, MessageConnected, got[1])
	assert.True(t, strings.HasPrefix(got[2], MessageError+"["), got[2])
	assert.Equal(t, MessageDisconnected, got[3])
}

func TestWebSocketSourceReconnect(t *testing.T) {
	payload := envelope(t, "LogLevel", "Info", "VciId", "abcdefgh", "Message", "session")

	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)
		_ = conn.WriteMessage(websocket.BinaryMessage, payload)
		if n == 1 {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewWebSocketSource(strings.TrimPrefix(srv.URL, "http://"), WebSocketOptions{ReconnectDelay: 10 * time.Millisecond})
	ch, err := src.Start(ctx)
	require.NoError(t, err)

	want := []string{
		"socket:connecting ", "socket:connected ", "session", "socket:disconnected ",
		"socket:connecting ", "socket:connected ", "session",
	}
	for i, w := range want {
		e := next(t, ch)
		assert.True(t, strings.HasPrefix(e.Message(), w), "entry %d: %q", i, e.Message())
		if w == "session" {
			assert.Equal(t, "abcdefg", e.SimpleVciID())
		}
	}

	cancel()
	drain(t, ch)
	assert.Equal(t, int32(2), conns.Load())
}

func TestWebSocketSourceCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := NewWebSocketSource(srv.URL[len("http://"):], WebSocketOptions{ReconnectDelay: time.Hour}).Start(ctx)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(next(t, ch).Message(), MessageConnecting))
	assert.Equal(t, MessageConnected, next(t, ch).Message())

	cancel()
	assert.Empty(t, drain(t, ch))
}

func TestReaderSource(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(envelope(t, "LogLevel", "Warning", "VciId", "ffff-0000-1", "Message", "one"))
	buf.Write(envelope(t, "LogLevel", "Info", "VciId", "ffff-0000-1", "Message", "two"))
	data, err := wire.Encode("not an envelope")
	require.NoError(t, err)
	buf.Write(data)

	src := NewReaderSource(&buf, "capture")
	assert.Equal(t, "capture", src.Name())

	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	got := drain(t, ch)

	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Message())
	assert.Equal(t, entry.LevelWarning, got[0].Level())
	assert.Equal(t, "ffff000", got[0].SimpleVciID())
	assert.Equal(t, "ffff000", got[1].SimpleVciID())
	assert.Equal(t, entry.UnsupportedDataFormat, got[2].Message())
}

func TestReaderSourceTruncated(t *testing.T) {
	data := envelope(t, "Message", "cut")
	ch, err := NewReaderSource(bytes.NewReader(data[:len(data)-1]), "cut").Start(context.Background())
	require.NoError(t, err)

	got := drain(t, ch)
	require.Len(t, got, 1)
	assert.Equal(t, entry.KindNotification, got[0].Kind())
	assert.True(t, strings.HasPrefix(got[0].Message(), entry.UnsupportedDataFormat+" "))
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.msgpack")
	require.NoError(t, os.WriteFile(path, envelope(t, "Message", "stored"), 0o644))

	src := NewFileSource(path, false)
	assert.Equal(t, "file:"+path, src.Name())

	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"stored"}, messages(drain(t, ch)))

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing"), false).Start(context.Background())
	assert.ErrorContains(t, err, "open file")
}

func TestFileSourceFollow(t *testing.T) {
	FilePollInterval = 5 * time.Millisecond
	path := filepath.Join(t.TempDir(), "capture.msgpack")
	require.NoError(t, os.WriteFile(path, envelope(t, "Message", "first"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := NewFileSource(path, true).Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", next(t, ch).Message())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write(envelope(t, "Message", "second"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, "second", next(t, ch).Message())

	cancel()
	drain(t, ch)
}

func TestFileSourceFollowSplitWrite(t *testing.T) {
	FilePollInterval = 5 * time.Millisecond
	data := envelope(t, "Message", "hello")
	half := len(data) / 2
	path := filepath.Join(t.TempDir(), "capture.msgpack")
	require.NoError(t, os.WriteFile(path, data[:half], 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := NewFileSource(path, true).Start(ctx)
	require.NoError(t, err)

	// Let the source see the partial envelope before the rest lands.
	time.Sleep(5 * FilePollInterval)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write(data[half:])
	require.NoError(t, err)
	_, err = f.Write(envelope(t, "Message", "after"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	first := next(t, ch)
	assert.Equal(t, entry.KindLogger, first.Kind())
	assert.Equal(t, "hello", first.Message())
	assert.Equal(t, "after", next(t, ch).Message())

	cancel()
	drain(t, ch)
}
