package server

import (
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/protocol"
)

// Session is one hosted game. Several connections may drive the same session;
// the mutex serialises their moves into the engine.
type Session struct {
	ID string

	mu         sync.Mutex
	engine     *board.Engine
	clock      quartz.Clock
	created    time.Time
	lastActive time.Time
}

func newSession(id string, engine *board.Engine, clock quartz.Clock) *Session {
	now := clock.Now()
	return &Session{
		ID:         id,
		engine:     engine,
		clock:      clock,
		created:    now,
		lastActive: now,
	}
}

// NewGame deals a fresh board, reporting configurations the engine would
// otherwise ignore.
func (s *Session) NewGame(rows, cols, mines int) (protocol.GameState, error) {
	if err := board.Validate(rows, cols, mines); err != nil {
		return protocol.GameState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Start(rows, cols, mines)
	return s.viewLocked(), nil
}

// Open opens a cell.
func (s *Session) Open(row, col int) protocol.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.OpenCell(row, col)
	return s.viewLocked()
}

// Flag toggles a flag.
func (s *Session) Flag(row, col int) protocol.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ToggleFlag(row, col)
	return s.viewLocked()
}

// Restart re-deals the current configuration.
func (s *Session) Restart() protocol.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Restart()
	return s.viewLocked()
}

// View returns the current state without changing it.
func (s *Session) View() protocol.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() protocol.GameState {
	s.lastActive = s.clock.Now()
	return protocol.NewGameState(s.ID, s.engine)
}

// LastActive returns the time of the most recent command.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Summary returns lightweight metadata for listings.
func (s *Session) Summary() SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, cols := s.engine.Size()
	return SessionSummary{
		ID:         s.ID,
		Rows:       rows,
		Cols:       cols,
		Mines:      s.engine.Mines(),
		State:      s.engine.State().String(),
		Created:    s.created,
		LastActive: s.lastActive,
	}
}

// SessionSummary holds lightweight metadata for clients.
type SessionSummary struct {
	ID         string    `json:"id"`
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	Mines      int       `json:"mines"`
	State      string    `json:"state"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"last_active"`
}
