package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/minesweeper/internal/config"
	"github.com/lox/minesweeper/internal/randutil"
	"golang.org/x/sync/errgroup"
)

// minReapInterval bounds how often the reaper wakes for tiny idle timeouts.
const minReapInterval = 10 * time.Millisecond

// Option configures a Server.
type Option func(*Server)

// WithClock replaces the wall clock used for idle tracking.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithSeed fixes the seed that every session's board is derived from.
func WithSeed(seed int64) Option {
	return func(s *Server) {
		s.seed = seed
	}
}

// WithReapInterval sets how often idle sessions are swept.
func WithReapInterval(d time.Duration) Option {
	return func(s *Server) {
		s.reapInterval = d
	}
}

// Server hosts minesweeper sessions over WebSocket.
type Server struct {
	cfg          *config.Config
	logger       *log.Logger
	clock        quartz.Clock
	seed         int64
	reapInterval time.Duration
	upgrader     websocket.Upgrader
	sessions     *SessionManager

	mu          sync.Mutex
	connections map[*Connection]struct{}
}

// NewServer builds a server from configuration. The configuration must
// already be validated.
func NewServer(cfg *config.Config, logger *log.Logger, opts ...Option) (*Server, error) {
	idle, err := cfg.IdleTimeout()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:         cfg,
		logger:      logger.WithPrefix("server"),
		clock:       quartz.NewReal(),
		seed:        randutil.Seed(),
		connections: make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reapInterval <= 0 {
		s.reapInterval = max(idle/2, minReapInterval)
	}

	s.sessions = NewSessionManager(logger, s.clock, randutil.New(s.seed), idle, cfg.Server.MaxSessions, cfg.FlagPolicy())
	return s, nil
}

// Sessions exposes the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Handler returns the HTTP routes served by the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/games", s.handleGames)
	return mux
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on an existing listener until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	reaper := s.sessions.StartReaper(gctx, s.reapInterval)

	g.Go(func() error {
		s.logger.Info("Starting WebSocket server", "addr", ln.Addr().String(), "seed", s.seed)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down")
		s.closeConnections()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := reaper.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) register(c *Connection) {
	s.mu.Lock()
	s.connections[c] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

func (s *Server) unregister(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "total", total)
}

func (s *Server) closeConnections() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for c := range s.connections {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close() // Ignore close errors during shutdown
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.sessions, s.cfg)
	s.register(client)
	client.Start()

	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.sessions.List()); err != nil {
		s.logger.Error("Failed to encode game list", "error", err)
	}
}
