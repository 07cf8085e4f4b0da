// Package notarize is the upgrade endpoint controller: it validates the
// request, performs the websocket or tcp upgrade, and runs the
// orchestrator over the adapted stream for the life of the connection.
package notarize

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sorens/notary/internal/adapters/wstream"
	"github.com/sorens/notary/internal/app"
	"github.com/sorens/notary/internal/app/orch"
	"github.com/sorens/notary/internal/domain"
)

type Controller struct {
	Orch     *orch.Orchestrator
	Registry *app.Registry
	Policy   app.Admission

	// PingPeriod > 0 enables keepalive pings on websocket sessions.
	PingPeriod time.Duration

	Upgrader websocket.Upgrader
}

func NewController(o *orch.Orchestrator, reg *app.Registry, pol app.Admission, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		Orch:       o,
		Registry:   reg,
		Policy:     pol,
		PingPeriod: pingPeriod,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  int(readLimit),
			WriteBufferSize: int(readLimit),
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleNotarize serves one notarization session. Validation happens
// before any upgrade: a bad context_format or a full server must never
// reach the lending stage.
func (ctl *Controller) HandleNotarize(ctx context.Context, c *gin.Context) {
	format, err := domain.ParseContextFormat(c.Query("context_format"))
	if err != nil {
		var notImpl *domain.ErrFormatNotImplemented
		if errors.As(err, &notImpl) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if ctl.Policy != nil {
		if err := ctl.Policy.Admit(ctl.Registry.Len()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
	}

	var stream wstream.Stream
	switch strings.ToLower(c.GetHeader("Upgrade")) {
	case "websocket":
		ws, err := ctl.Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// the upgrader has already written its error response
			log.Error().Err(err).Str("module", "notarize").Msg("ws upgrade")
			return
		}
		ms := wstream.NewMessageStream(ws)
		if ctl.PingPeriod > 0 {
			stop := ms.Keepalive(ctl.PingPeriod)
			defer stop()
		}
		stream = ms
	case "tcp":
		conn, err := hijackTCP(c)
		if err != nil {
			log.Error().Err(err).Str("module", "notarize").Msg("tcp upgrade")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "tcp upgrade failed"})
			return
		}
		stream = wstream.NewRawStream(conn)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "upgrade header is not set for client"})
		return
	}

	info := domain.SessionInfo{
		ID:        domain.SessionID(uuid.NewString()),
		Remote:    c.Request.RemoteAddr,
		Format:    format,
		StartedAt: time.Now(),
	}
	log.Info().Str("module", "notarize").Str("sid", string(info.ID)).Str("remote", info.Remote).Msg("session upgraded")

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctl.Registry.Bind(info, cancel)
	defer ctl.Registry.Unbind(info.ID)

	// the session runs on the handler goroutine; the connection is the
	// session's lifetime
	if err := ctl.Orch.Notarize(sctx, info, stream); err != nil {
		log.Warn().Err(err).Str("module", "notarize").Str("sid", string(info.ID)).Msg("session ended with error")
		return
	}
	log.Info().Str("module", "notarize").Str("sid", string(info.ID)).Msg("session complete")
}

// hijackTCP takes over the underlying connection for a tcp-mode client
// and finishes the 101 handshake by hand.
func hijackTCP(c *gin.Context) (net.Conn, error) {
	hj, ok := c.Writer.(http.Hijacker)
	if !ok {
		return nil, errors.New("response writer does not support hijacking")
	}
	conn, rw, err := hj.Hijack()
	if err != nil {
		return nil, err
	}
	resp := "HTTP/1.1 101 Switching Protocols\r\nConnection: Upgrade\r\nUpgrade: tcp\r\n\r\n"
	if _, err := rw.WriteString(resp); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := rw.Flush(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if rw.Reader.Buffered() > 0 {
		return &bufferedConn{Conn: conn, r: rw.Reader}, nil
	}
	return conn, nil
}

// bufferedConn drains bytes the hijacked bufio.Reader already consumed
// before handing reads to the raw connection.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (b *bufferedConn) Read(p []byte) (int, error) { return b.r.Read(p) }
