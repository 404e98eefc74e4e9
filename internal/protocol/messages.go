// Package protocol defines the JSON messages exchanged between sweeper
// clients and the session server over a websocket.
package protocol

import (
	"github.com/lox/minesweeper/internal/board"
)

// MessageType identifies the payload carried by a Message.
type MessageType string

const (
	// Client -> Server
	TypeNewGame MessageType = "new_game"
	TypeJoin    MessageType = "join"
	TypeOpen    MessageType = "open"
	TypeFlag    MessageType = "flag"
	TypeRestart MessageType = "restart"
	TypeState   MessageType = "state"

	// Server -> Client
	TypeGameState MessageType = "game_state"
	TypeError     MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}

// Error codes carried in ErrorData.
const (
	CodeInvalidMessage     = "invalid_message"
	CodeUnknownMessageType = "unknown_message_type"
	CodeNoGame             = "no_game"
	CodeInvalidGame        = "invalid_game"
	CodeTooManySessions    = "too_many_sessions"
)

// Client -> Server Messages

// NewGame starts a board either from a named preset or explicit dimensions.
// Explicit dimensions are used whenever Rows or Cols is set.
type NewGame struct {
	Preset string `json:"preset,omitempty"`
	Rows   int    `json:"rows,omitempty"`
	Cols   int    `json:"cols,omitempty"`
	Mines  int    `json:"mines,omitempty"`
}

// Join attaches the connection to an existing session.
type Join struct {
	GameID string `json:"gameId"`
}

// Move addresses one cell for open and flag.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Server -> Client Messages

// CellView is what a player may know about a cell. Hazards and counts are
// only disclosed for revealed cells, and every hazard is disclosed once the
// game is lost.
type CellView struct {
	Revealed bool `json:"revealed,omitempty"`
	Flagged  bool `json:"flagged,omitempty"`
	Hazard   bool `json:"hazard,omitempty"`
	Count    int  `json:"count,omitempty"`
}

// GameState is sent after every command.
type GameState struct {
	GameID   string          `json:"gameId"`
	Rows     int             `json:"rows"`
	Cols     int             `json:"cols"`
	Mines    int             `json:"mines"`
	Flags    int             `json:"flags"`
	State    string          `json:"state"`
	Cells    [][]CellView    `json:"cells"`
	Exploded *board.Position `json:"exploded,omitempty"`
}

// ErrorData reports a rejected command.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewGameState projects an engine onto the wire view.
func NewGameState(gameID string, e *board.Engine) GameState {
	rows, cols := e.Size()
	lost := e.State() == board.Lose

	cells := make([][]CellView, rows)
	for r, row := range e.Snapshot() {
		cells[r] = make([]CellView, cols)
		for c, cell := range row {
			view := CellView{Revealed: cell.Revealed, Flagged: cell.Flagged}
			if cell.Revealed || lost {
				view.Hazard = cell.Hazard
			}
			if cell.Revealed && !cell.Hazard {
				view.Count = cell.AdjacentHazards
			}
			cells[r][c] = view
		}
	}

	gs := GameState{
		GameID: gameID,
		Rows:   rows,
		Cols:   cols,
		Mines:  e.Mines(),
		Flags:  e.Flags(),
		State:  e.State().String(),
		Cells:  cells,
	}
	if p, ok := e.Exploded(); ok {
		gs.Exploded = &p
	}
	return gs
}

// Outcome parses State back into the engine enum.
func (g GameState) Outcome() board.GameState {
	switch g.State {
	case board.Win.String():
		return board.Win
	case board.Lose.String():
		return board.Lose
	default:
		return board.InProgress
	}
}
