package server

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/minesweeper/internal/config"
	"github.com/lox/minesweeper/internal/protocol"
	"github.com/stretchr/testify/require"
)

// testLogger creates a logger that discards output for tests
func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func startTestServer(t *testing.T, cfg *config.Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()

	if cfg == nil {
		cfg = config.Default()
	}
	opts = append([]Option{WithSeed(42)}, opts...)
	srv, err := NewServer(cfg, testLogger(), opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.closeConnections()
		ts.Close()
	})
	return srv, ts
}

func dialTestServer(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// roundTrip sends one request and reads the reply to it.
func roundTrip(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType, data any) *protocol.Message {
	t.Helper()

	req, err := protocol.NewMessage(msgType, data)
	require.NoError(t, err)
	req.RequestID = string(msgType)

	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.WriteJSON(req))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply protocol.Message
	require.NoError(t, conn.ReadJSON(&reply))
	require.Equal(t, req.RequestID, reply.RequestID)
	return &reply
}

func expectState(t *testing.T, reply *protocol.Message) protocol.GameState {
	t.Helper()

	require.Equal(t, protocol.TypeGameState, reply.Type, "reply: %s", string(reply.Data))
	var state protocol.GameState
	require.NoError(t, reply.Decode(&state))
	return state
}

func expectError(t *testing.T, reply *protocol.Message, code string) {
	t.Helper()

	require.Equal(t, protocol.TypeError, reply.Type, "reply: %s", string(reply.Data))
	var data protocol.ErrorData
	require.NoError(t, reply.Decode(&data))
	require.Equal(t, code, data.Code)
}
