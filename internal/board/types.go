package board

import "fmt"

// GameState is the overall outcome of the current board.
type GameState int

const (
	InProgress GameState = iota
	Win
	Lose
)

func (s GameState) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Win:
		return "win"
	case Lose:
		return "lose"
	default:
		return fmt.Sprintf("GameState(%d)", int(s))
	}
}

// Over reports whether the game has been decided.
func (s GameState) Over() bool {
	return s == Win || s == Lose
}

// Position addresses a cell by zero-based row and column.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Cell is a read-only snapshot of one grid square.
type Cell struct {
	Revealed bool
	Hazard   bool
	Flagged  bool
	// AdjacentHazards is only meaningful when Hazard is false.
	AdjacentHazards int
}

// FlagPolicy decides what happens to a flag when its cell is opened.
type FlagPolicy int

const (
	// ClearFlagOnReveal removes the flag from any cell that gets revealed,
	// whether opened directly or through a cascade.
	ClearFlagOnReveal FlagPolicy = iota
	// ProtectFlagged refuses to open a flagged cell and stops cascades at
	// flagged cells. The player must unflag before opening.
	ProtectFlagged
)

func (p FlagPolicy) String() string {
	switch p {
	case ClearFlagOnReveal:
		return "clear"
	case ProtectFlagged:
		return "protect"
	default:
		return fmt.Sprintf("FlagPolicy(%d)", int(p))
	}
}

// ParseFlagPolicy converts the names returned by FlagPolicy.String.
func ParseFlagPolicy(s string) (FlagPolicy, error) {
	switch s {
	case "clear", "":
		return ClearFlagOnReveal, nil
	case "protect":
		return ProtectFlagged, nil
	default:
		return 0, fmt.Errorf("unknown flag policy %q", s)
	}
}
