package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/minesweeper/internal/config"
	"github.com/lox/minesweeper/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Connection is one WebSocket client. It drives at most one session at a
// time; the session outlives the connection.
type Connection struct {
	conn      *websocket.Conn
	send      chan *protocol.Message
	logger    *log.Logger
	sessions  *SessionManager
	cfg       *config.Config
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	session   *Session
}

// NewConnection wraps an upgraded WebSocket.
func NewConnection(conn *websocket.Conn, logger *log.Logger, sessions *SessionManager, cfg *config.Config) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:     conn,
		send:     make(chan *protocol.Message, 64),
		logger:   logger.WithPrefix("conn"),
		sessions: sessions,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection shuts down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client.
func (c *Connection) SendMessage(msg *protocol.Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

func (c *Connection) currentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Connection) setSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *Connection) handleMessage(msg *protocol.Message) {
	c.logger.Debug("Received message", "type", msg.Type, "requestId", msg.RequestID)

	switch msg.Type {
	case protocol.TypeNewGame:
		var data protocol.NewGame
		if len(msg.Data) > 0 {
			if err := msg.Decode(&data); err != nil {
				c.sendError(msg, protocol.CodeInvalidMessage, "Failed to parse new game data")
				return
			}
		}
		c.handleNewGame(msg, data)

	case protocol.TypeJoin:
		var data protocol.Join
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, protocol.CodeInvalidMessage, "Failed to parse join data")
			return
		}
		c.handleJoin(msg, data)

	case protocol.TypeOpen, protocol.TypeFlag:
		var data protocol.Move
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg, protocol.CodeInvalidMessage, "Failed to parse move data")
			return
		}
		c.handleMove(msg, data)

	case protocol.TypeRestart:
		if s := c.activeSession(msg); s != nil {
			c.sendState(msg, s.Restart())
		}

	case protocol.TypeState:
		if s := c.activeSession(msg); s != nil {
			c.sendState(msg, s.View())
		}

	default:
		c.sendError(msg, protocol.CodeUnknownMessageType, "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleNewGame(msg *protocol.Message, data protocol.NewGame) {
	rows, cols, mines := data.Rows, data.Cols, data.Mines
	if rows == 0 && cols == 0 {
		name := data.Preset
		if name == "" {
			name = c.cfg.Game.DefaultPreset
		}
		preset, err := c.cfg.Preset(name)
		if err != nil {
			c.sendError(msg, protocol.CodeInvalidGame, err.Error())
			return
		}
		rows, cols, mines = preset.Rows, preset.Cols, preset.Mines
	}

	s := c.currentSession()
	if s != nil {
		if _, err := c.sessions.Get(s.ID); err != nil {
			// Reaped while the connection sat idle
			c.setSession(nil)
			s = nil
		}
	}
	created := false
	if s == nil {
		var err error
		if s, err = c.sessions.Create(); err != nil {
			code := protocol.CodeInvalidGame
			if errors.Is(err, ErrTooManySessions) {
				code = protocol.CodeTooManySessions
			}
			c.sendError(msg, code, err.Error())
			return
		}
		created = true
	}

	state, err := s.NewGame(rows, cols, mines)
	if err != nil {
		// A session that never got a board is of no use to anyone
		if created {
			c.sessions.Remove(s.ID)
		}
		c.sendError(msg, protocol.CodeInvalidGame, err.Error())
		return
	}

	c.setSession(s)
	c.logger.Info("New game", "game", s.ID, "rows", rows, "cols", cols, "mines", mines)
	c.sendState(msg, state)
}

func (c *Connection) handleJoin(msg *protocol.Message, data protocol.Join) {
	s, err := c.sessions.Get(data.GameID)
	if err != nil {
		c.sendError(msg, protocol.CodeNoGame, "Game not found: "+data.GameID)
		return
	}
	c.setSession(s)
	c.logger.Info("Joined game", "game", s.ID)
	c.sendState(msg, s.View())
}

func (c *Connection) handleMove(msg *protocol.Message, data protocol.Move) {
	s := c.activeSession(msg)
	if s == nil {
		return
	}
	if msg.Type == protocol.TypeOpen {
		c.sendState(msg, s.Open(data.Row, data.Col))
	} else {
		c.sendState(msg, s.Flag(data.Row, data.Col))
	}
}

// activeSession returns the attached session, or reports no_game to the
// client. A session reaped while attached counts as gone.
func (c *Connection) activeSession(msg *protocol.Message) *Session {
	s := c.currentSession()
	if s != nil {
		if _, err := c.sessions.Get(s.ID); err == nil {
			return s
		}
		c.setSession(nil)
	}
	c.sendError(msg, protocol.CodeNoGame, "No active game")
	return nil
}

func (c *Connection) sendState(req *protocol.Message, state protocol.GameState) {
	reply, err := protocol.NewMessage(protocol.TypeGameState, state)
	if err != nil {
		c.logger.Error("Failed to create state message", "error", err)
		return
	}
	reply.RequestID = req.RequestID
	_ = c.SendMessage(reply) // Ignore send errors for state updates
}

func (c *Connection) sendError(req *protocol.Message, code, message string) {
	reply, err := protocol.NewMessage(protocol.TypeError, protocol.ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	reply.RequestID = req.RequestID
	_ = c.SendMessage(reply) // Ignore send errors for error messages
}
