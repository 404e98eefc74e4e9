package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Markers used by Render.
const (
	HiddenMarker = "*"
	HazardMarker = "@"
)

// Render draws the board as text. Hidden cells print as HiddenMarker unless
// revealAll is set; hazards print as HazardMarker and safe cells as their
// adjacent hazard count. Every token is padded to a three-wide column.
func (e *Engine) Render(revealAll bool) string {
	lines := make([]string, e.rows)
	tokens := make([]string, e.cols)
	for r := 0; r < e.rows; r++ {
		for c := 0; c < e.cols; c++ {
			cell := e.cells[r*e.cols+c]
			var tok string
			switch {
			case !cell.Revealed && !revealAll:
				tok = HiddenMarker
			case cell.Hazard:
				tok = HazardMarker
			default:
				tok = strconv.Itoa(cell.AdjacentHazards)
			}
			tokens[c] = fmt.Sprintf("%-3s", tok)
		}
		lines[r] = strings.Join(tokens, " ")
	}
	return strings.Join(lines, "\n")
}

// String renders the player's view of the board.
func (e *Engine) String() string {
	return e.Render(false)
}
