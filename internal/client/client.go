// Package client drives a game hosted by the sweeper session server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/minesweeper/internal/protocol"
)

// ErrClosed is returned for requests made after the connection dropped.
var ErrClosed = errors.New("connection closed")

const writeWait = 10 * time.Second

// ServerError is a command the server rejected.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Remote is a connection to the session server. Requests are synchronous
// and may be issued from several goroutines.
type Remote struct {
	conn   *websocket.Conn
	logger *log.Logger

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[string]chan *protocol.Message
	err     error
	done    chan struct{}
}

// Dial connects to the server. serverURL may use http, https, ws or wss;
// the /ws path is added when absent.
func Dial(ctx context.Context, serverURL string, logger *log.Logger) (*Remote, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	// Convert http/https to ws/wss
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	logger = logger.WithPrefix("client")
	logger.Debug("Connecting to server", "url", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	r := &Remote{
		conn:    conn,
		logger:  logger,
		pending: make(map[string]chan *protocol.Message),
		done:    make(chan struct{}),
	}
	go r.readPump()
	return r, nil
}

// Close closes the connection.
func (r *Remote) Close() error {
	_ = r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	err := r.conn.Close()
	<-r.done
	return err
}

// NewGame starts a board from a preset, or from explicit dimensions when
// rows or cols are set.
func (r *Remote) NewGame(ctx context.Context, req protocol.NewGame) (protocol.GameState, error) {
	return r.request(ctx, protocol.TypeNewGame, req)
}

// Join attaches to an existing game.
func (r *Remote) Join(ctx context.Context, gameID string) (protocol.GameState, error) {
	return r.request(ctx, protocol.TypeJoin, protocol.Join{GameID: gameID})
}

// Open opens a cell.
func (r *Remote) Open(ctx context.Context, row, col int) (protocol.GameState, error) {
	return r.request(ctx, protocol.TypeOpen, protocol.Move{Row: row, Col: col})
}

// Flag toggles a flag.
func (r *Remote) Flag(ctx context.Context, row, col int) (protocol.GameState, error) {
	return r.request(ctx, protocol.TypeFlag, protocol.Move{Row: row, Col: col})
}

// Restart re-deals the current configuration.
func (r *Remote) Restart(ctx context.Context) (protocol.GameState, error) {
	return r.request(ctx, protocol.TypeRestart, nil)
}

// View fetches the current state.
func (r *Remote) View(ctx context.Context) (protocol.GameState, error) {
	return r.request(ctx, protocol.TypeState, nil)
}

func (r *Remote) request(ctx context.Context, msgType protocol.MessageType, data any) (protocol.GameState, error) {
	msg, err := protocol.NewMessage(msgType, data)
	if err != nil {
		return protocol.GameState{}, err
	}
	msg.RequestID = strconv.FormatUint(r.nextID.Add(1), 10)

	reply := make(chan *protocol.Message, 1)
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return protocol.GameState{}, err
	}
	r.pending[msg.RequestID] = reply
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, msg.RequestID)
		r.mu.Unlock()
	}()

	r.writeMu.Lock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = r.conn.WriteJSON(msg)
	r.writeMu.Unlock()
	if err != nil {
		return protocol.GameState{}, fmt.Errorf("send %s: %w", msgType, err)
	}

	select {
	case <-ctx.Done():
		return protocol.GameState{}, ctx.Err()
	case <-r.done:
		return protocol.GameState{}, r.closeErr()
	case resp := <-reply:
		return decodeReply(resp)
	}
}

func decodeReply(msg *protocol.Message) (protocol.GameState, error) {
	switch msg.Type {
	case protocol.TypeGameState:
		var state protocol.GameState
		if err := msg.Decode(&state); err != nil {
			return protocol.GameState{}, err
		}
		return state, nil
	case protocol.TypeError:
		var data protocol.ErrorData
		if err := msg.Decode(&data); err != nil {
			return protocol.GameState{}, err
		}
		return protocol.GameState{}, &ServerError{Code: data.Code, Message: data.Message}
	default:
		return protocol.GameState{}, fmt.Errorf("unexpected reply type %s", msg.Type)
	}
}

func (r *Remote) closeErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Remote) readPump() {
	defer close(r.done)

	for {
		var msg protocol.Message
		if err := r.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Debug("Read failed", "error", err)
			}
			r.mu.Lock()
			r.err = fmt.Errorf("%w: %v", ErrClosed, err)
			r.mu.Unlock()
			return
		}

		r.mu.Lock()
		reply, ok := r.pending[msg.RequestID]
		r.mu.Unlock()
		if !ok {
			r.logger.Debug("Dropping unsolicited message", "type", msg.Type, "requestId", msg.RequestID)
			continue
		}
		reply <- &msg
	}
}
