package wstream

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/sorens/notary/internal/core"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsPair upgrades a test connection and returns the server-side stream
// plus the raw client connection.
func wsPair(t *testing.T) (*WSStream, *websocket.Conn) {
	t.Helper()
	streamCh := make(chan *WSStream, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		streamCh <- NewMessageStream(ws)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case s := <-streamCh:
		return s, client
	case <-time.After(time.Second):
		t.Fatal("no upgrade")
		return nil, nil
	}
}

func TestReadReassemblesMessages(t *testing.T) {
	stream, client := wsPair(t)

	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte("hel")))
	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte("lo")))

	buf := make([]byte, 5)
	_, err := io.ReadFull(stream, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))
}

func TestShortReadsDrainOneMessage(t *testing.T) {
	stream, client := wsPair(t)

	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte("abcd")))

	buf := make([]byte, 2)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ab", string(buf[:n]))
	n, err = stream.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "cd", string(buf[:n]))
}

func TestWriteIsOneBinaryMessage(t *testing.T) {
	stream, client := wsPair(t)

	n, err := stream.Write([]byte("payload"))
	require.NoError(t, err)
	require.Equal(t, 7, n)

	mt, data, err := client.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, mt)
	require.Equal(t, "payload", string(data))
}

func TestControlFramesAreTransparent(t *testing.T) {
	stream, client := wsPair(t)

	// a ping between data messages must not corrupt the byte stream
	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte("a")))
	require.NoError(t, client.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)))
	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte("b")))

	buf := make([]byte, 2)
	_, err := io.ReadFull(stream, buf)
	require.NoError(t, err)
	require.Equal(t, "ab", string(buf))
}

func TestKeepalivePingsArrive(t *testing.T) {
	stream, client := wsPair(t)

	pings := make(chan struct{}, 4)
	client.SetPingHandler(func(string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return nil
	})
	// ping frames are only processed while a read is pending
	go func() {
		for {
			if _, _, err := client.NextReader(); err != nil {
				return
			}
		}
	}()

	stop := stream.Keepalive(10 * time.Millisecond)
	defer stop()

	select {
	case <-pings:
	case <-time.After(time.Second):
		t.Fatal("no keepalive ping observed")
	}
	stop()
}

func TestNormalCloseIsEOF(t *testing.T) {
	stream, client := wsPair(t)

	err := client.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	require.NoError(t, err)

	buf := make([]byte, 1)
	_, err = stream.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestAbruptCloseIsReset(t *testing.T) {
	stream, client := wsPair(t)

	// tear down without a closing handshake
	require.NoError(t, client.UnderlyingConn().Close())

	buf := make([]byte, 1)
	_, err := stream.Read(buf)
	var terr *core.TransportError
	require.True(t, errors.As(err, &terr))
	require.Equal(t, core.KindReset, terr.Kind)
}

func TestDeadlinePokeSurfacesAsTimeout(t *testing.T) {
	stream, _ := wsPair(t)

	require.NoError(t, stream.SetReadDeadline(time.Now().Add(10*time.Millisecond)))
	buf := make([]byte, 1)
	_, err := stream.Read(buf)
	require.Error(t, err)
	var terr *core.TransportError
	require.False(t, errors.As(err, &terr), "deadline errors must stay recognizable, not become transport errors")
}
