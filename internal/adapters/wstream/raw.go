package wstream

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/sorens/notary/internal/core"
)

// RawStream wraps a hijacked connection that already is a byte stream
// (FramingStream mode). Only error classification is added: peer resets
// become a reset TransportError, a clean shutdown stays io.EOF.
type RawStream struct {
	net.Conn
}

// NewRawStream wraps a hijacked tcp-upgrade connection.
func NewRawStream(c net.Conn) *RawStream {
	return &RawStream{Conn: c}
}

func (s *RawStream) Read(p []byte) (int, error) {
	n, err := s.Conn.Read(p)
	return n, mapRawError(err)
}

func (s *RawStream) Write(p []byte) (int, error) {
	n, err := s.Conn.Write(p)
	return n, mapRawError(err)
}

func mapRawError(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return err
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return core.NewTransportError(core.KindReset, err)
	}
	if errors.Is(err, net.ErrClosed) {
		return core.NewTransportError(core.KindReset, err)
	}
	return core.NewTransportError(core.KindIO, err)
}
