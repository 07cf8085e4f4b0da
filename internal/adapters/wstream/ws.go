package wstream

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sorens/notary/internal/core"
)

// WSStream presents a websocket connection as a continuous byte stream.
// Binary and text data messages are concatenated in arrival order;
// control frames (ping/pong) are answered by gorilla's default handlers
// and never reach callers. A close frame from the peer surfaces as
// io.EOF for a normal closure and as a reset TransportError otherwise.
type WSStream struct {
	conn *websocket.Conn

	// current partial message being drained into Read calls
	cur io.Reader

	wmu sync.Mutex
}

// NewMessageStream wraps an upgraded websocket connection
// (FramingMessage mode).
func NewMessageStream(conn *websocket.Conn) *WSStream {
	return &WSStream{conn: conn}
}

func (s *WSStream) Read(p []byte) (int, error) {
	for {
		if s.cur == nil {
			mt, r, err := s.conn.NextReader()
			if err != nil {
				return 0, mapWSError(err)
			}
			if mt != websocket.BinaryMessage && mt != websocket.TextMessage {
				continue
			}
			s.cur = r
		}
		n, err := s.cur.Read(p)
		if err == io.EOF {
			// message drained, move on to the next one
			s.cur = nil
			if n == 0 {
				continue
			}
			return n, nil
		}
		if err != nil {
			return n, mapWSError(err)
		}
		return n, nil
	}
}

// Write sends p as a single binary message. Each post-reclaim result
// write therefore arrives at a message-mode client as one message.
func (s *WSStream) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, mapWSError(err)
	}
	return len(p), nil
}

// Close performs the websocket closing handshake best-effort, then
// tears down the underlying connection.
func (s *WSStream) Close() error {
	s.wmu.Lock()
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.wmu.Unlock()
	return s.conn.Close()
}

// Keepalive pings the peer every period so idle sessions keep NATs and
// proxies from dropping the connection. WriteControl is safe to call
// concurrently with data writes. The returned stop function is
// idempotent.
func (s *WSStream) Keepalive(period time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(period / 2)
				if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (s *WSStream) SetReadDeadline(t time.Time) error  { return s.conn.SetReadDeadline(t) }
func (s *WSStream) SetWriteDeadline(t time.Time) error { return s.conn.SetWriteDeadline(t) }

func mapWSError(err error) error {
	if err == nil {
		return nil
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return io.EOF
	}
	if websocket.IsUnexpectedCloseError(err) {
		return core.NewTransportError(core.KindReset, err)
	}
	// a bare EOF here means the peer vanished without a close handshake
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return core.NewTransportError(core.KindReset, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		// deadline pokes during reclaim come through here; keep them
		// recognizable via errors.As on net.Error
		return err
	}
	return core.NewTransportError(core.KindIO, err)
}
