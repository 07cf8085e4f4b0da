// Package wstream adapts an upgraded client connection into a plain
// byte stream, hiding the framing of the upgrade sub-protocol.
package wstream

import (
	"io"
	"time"
)

// FramingMode says how the upgraded connection delivers bytes.
type FramingMode int

const (
	// FramingMessage: the connection delivers discrete messages that
	// must be reassembled into a continuous byte stream (websocket).
	FramingMessage FramingMode = iota
	// FramingStream: the connection already is a continuous byte
	// stream (hijacked tcp upgrade).
	FramingStream
)

// Stream is the byte-stream view of one client connection. Exactly one
// actor may use it at any instant; the handoff manager enforces that.
// Deadlines must unblock in-flight reads/writes — reclaim relies on it.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}
