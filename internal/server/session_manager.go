package server

import (
	"context"
	"errors"
	rand "math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/gameid"
	"github.com/lox/minesweeper/internal/randutil"
)

var (
	// ErrSessionNotFound is returned when a game ID is unknown or reaped.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the session limit is reached.
	ErrTooManySessions = errors.New("too many sessions")
)

// SessionManager tracks hosted sessions and expires idle ones.
type SessionManager struct {
	logger      *log.Logger
	clock       quartz.Clock
	idleTimeout time.Duration
	maxSessions int
	policy      board.FlagPolicy

	mu       sync.RWMutex
	sessions map[string]*Session
	rng      *rand.Rand // guarded by mu
}

// NewSessionManager constructs an empty manager. Each session's engine is
// seeded from rng so a fixed server seed replays the same boards.
func NewSessionManager(logger *log.Logger, clock quartz.Clock, rng *rand.Rand, idleTimeout time.Duration, maxSessions int, policy board.FlagPolicy) *SessionManager {
	return &SessionManager{
		logger:      logger.WithPrefix("sessions"),
		clock:       clock,
		idleTimeout: idleTimeout,
		maxSessions: maxSessions,
		policy:      policy,
		sessions:    make(map[string]*Session),
		rng:         rng,
	}
}

// Create registers a new session with an empty board.
func (sm *SessionManager) Create() (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.maxSessions {
		return nil, ErrTooManySessions
	}

	id := gameid.Generate()
	engine := board.New(
		board.WithRand(randutil.New(sm.rng.Int64())),
		board.WithFlagPolicy(sm.policy),
		board.WithLogger(sm.logger.With("game", id)),
	)
	session := newSession(id, engine, sm.clock)
	sm.sessions[id] = session

	sm.logger.Info("Session created", "game", id, "total", len(sm.sessions))
	return session, nil
}

// Get retrieves a session by ID.
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove deletes a session by ID.
func (sm *SessionManager) Remove(id string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.sessions[id]; !ok {
		return false
	}
	delete(sm.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// List returns a snapshot of live sessions, oldest first.
func (sm *SessionManager) List() []SessionSummary {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, s.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})
	return summaries
}

// ReapIdle removes sessions whose last command is at least idleTimeout old
// and returns how many were removed.
func (sm *SessionManager) ReapIdle() int {
	now := sm.clock.Now()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	reaped := 0
	for id, s := range sm.sessions {
		if idle := now.Sub(s.LastActive()); idle >= sm.idleTimeout {
			delete(sm.sessions, id)
			reaped++
			sm.logger.Info("Session expired", "game", id, "idle", idle)
		}
	}
	if reaped > 0 {
		sm.logger.Debug("Reaped idle sessions", "reaped", reaped, "remaining", len(sm.sessions))
	}
	return reaped
}

// StartReaper runs ReapIdle every interval until ctx is done. The ticker is
// registered before StartReaper returns.
func (sm *SessionManager) StartReaper(ctx context.Context, interval time.Duration) quartz.Waiter {
	return sm.clock.TickerFunc(ctx, interval, func() error {
		sm.ReapIdle()
		return nil
	}, "reaper")
}
