package source

import (
	"context"
	"regexp"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/logger"
	"github.com/Geun-Oh/vcilog/internal/wire"
)

// DefaultURL is the address of the logger console of a local application.
const DefaultURL = "ws://127.0.0.1:8080"

// Socket lifecycle notification messages.
const (
	MessagePrefix       = "socket:"
	MessageConnecting   = "socket:connecting "
	MessageConnected    = "socket:connected "
	MessageDisconnected = "socket:disconnected "
	MessageError        = "socket:error "
)

var schemePattern = regexp.MustCompile(`(?i)^\w+://.`)

// Address returns url with a ws:// scheme added when it has none.
func Address(url string) string {
	if schemePattern.MatchString(url) {
		return url
	}
	return "ws://" + url
}

// WebSocketOptions tunes a WebSocketSource.
type WebSocketOptions struct {
	// ReconnectDelay is the pause before dialing again after a session ends.
	// Zero disables reconnecting.
	ReconnectDelay time.Duration

	// HandshakeTimeout bounds the opening handshake. Zero means no timeout.
	HandshakeTimeout time.Duration
}

// WebSocketSource receives logger envelopes from a WebSocket console.
// Connection state changes are reported in-band as notification entries.
type WebSocketSource struct {
	addr   string
	opts   WebSocketOptions
	dialer *websocket.Dialer
}

// NewWebSocketSource creates a source for the console at url.
func NewWebSocketSource(url string, opts WebSocketOptions) *WebSocketSource {
	return &WebSocketSource{
		addr: Address(url),
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
	}
}

// Name returns the source identifier.
func (s *WebSocketSource) Name() string {
	return s.addr
}

// Start connects in the background and returns a channel of entries. The
// channel is closed when ctx is cancelled, or after the first session when
// reconnecting is disabled.
func (s *WebSocketSource) Start(ctx context.Context) (<-chan entry.Entry, error) {
	ch := make(chan entry.Entry, 256)

	go func() {
		defer close(ch)

		// The id map outlives sessions so ids stay stable across reconnects.
		var ids entry.IDMap
		for {
			s.session(ctx, ch, &ids)
			if s.opts.ReconnectDelay <= 0 || ctx.Err() != nil {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.opts.ReconnectDelay):
			}
		}
	}()

	return ch, nil
}

// session runs one connection from dial to close.
func (s *WebSocketSource) session(ctx context.Context, ch chan<- entry.Entry, ids *entry.IDMap) {
	log := logger.Get(ctx)

	if !send(ctx, ch, entry.Notification(entry.LevelInfo, MessageConnecting+"... ["+s.addr+"]")) {
		return
	}

	conn, _, err := s.dialer.DialContext(ctx, s.addr, nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Debugw("dial failed", "url", s.addr, "error", err)
		send(ctx, ch, entry.Notification(entry.LevelError, MessageError+"["+err.Error()+"]"))
		send(ctx, ch, entry.Notification(entry.LevelInfo, MessageDisconnected))
		return
	}
	defer conn.Close()

	// Unblock ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	log.Debugw("connected", "url", s.addr)
	if !send(ctx, ch, entry.Notification(entry.LevelInfo, MessageConnected)) {
		return
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugw("read failed", "url", s.addr, "error", err)
				send(ctx, ch, entry.Notification(entry.LevelError, MessageError+"["+err.Error()+"]"))
			}
			send(ctx, ch, entry.Notification(entry.LevelInfo, MessageDisconnected))
			return
		}

		var payload any = data
		if mt == websocket.TextMessage {
			payload = string(data)
		}

		var e entry.Entry
		e, *ids = wire.Parse(payload, *ids)
		if !send(ctx, ch, e) {
			return
		}
	}
}
