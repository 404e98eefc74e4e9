package tui

import (
	"context"
	"sync"

	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/client"
	"github.com/lox/minesweeper/internal/protocol"
)

// Game is the board the UI drives, either in-process or over the network.
type Game interface {
	Open(row, col int) (protocol.GameState, error)
	Flag(row, col int) (protocol.GameState, error)
	Restart() (protocol.GameState, error)
	View() (protocol.GameState, error)
}

// Layouter is implemented by games that can show the full hazard layout.
type Layouter interface {
	Layout() string
}

// Local plays against an in-process engine. Commands run on their own
// goroutines, so every engine call is made under mu.
type Local struct {
	id     string
	mu     sync.Mutex
	engine *board.Engine
}

// NewLocal wraps a started engine.
func NewLocal(id string, engine *board.Engine) *Local {
	return &Local{id: id, engine: engine}
}

func (l *Local) Open(row, col int) (protocol.GameState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.engine.OpenCell(row, col)
	return protocol.NewGameState(l.id, l.engine), nil
}

func (l *Local) Flag(row, col int) (protocol.GameState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.engine.ToggleFlag(row, col)
	return protocol.NewGameState(l.id, l.engine), nil
}

func (l *Local) Restart() (protocol.GameState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.engine.Restart()
	return protocol.NewGameState(l.id, l.engine), nil
}

func (l *Local) View() (protocol.GameState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return protocol.NewGameState(l.id, l.engine), nil
}

// Layout renders the board with every hazard shown.
func (l *Local) Layout() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Render(true)
}

// Remote plays a game hosted by the session server.
type Remote struct {
	ctx    context.Context
	remote *client.Remote
}

// NewRemote adapts a connected client. ctx bounds every request.
func NewRemote(ctx context.Context, remote *client.Remote) *Remote {
	return &Remote{ctx: ctx, remote: remote}
}

func (r *Remote) Open(row, col int) (protocol.GameState, error) {
	return r.remote.Open(r.ctx, row, col)
}

func (r *Remote) Flag(row, col int) (protocol.GameState, error) {
	return r.remote.Flag(r.ctx, row, col)
}

func (r *Remote) Restart() (protocol.GameState, error) {
	return r.remote.Restart(r.ctx)
}

func (r *Remote) View() (protocol.GameState, error) {
	return r.remote.View(r.ctx)
}
