// Package board implements the rule engine of a mine-clearing puzzle.
//
// The main type is Engine, which owns a rectangular grid of cells, places
// hazards, precomputes adjacency hints, reveals cells (cascading through
// connected empty regions), tracks flags and decides win or loss.
//
// # Basic Usage
//
//	e := board.New()
//	e.Start(9, 9, 10)
//	e.OpenCell(4, 4)
//	e.ToggleFlag(0, 0)
//	if e.State() == board.Win {
//	    // ...
//	}
//
// Every mutating call is silently ignored when it cannot apply: the game is
// already decided, the coordinates are outside the grid, or the cell is
// already revealed. Cell is the only accessor that reports bad coordinates,
// returning an error wrapping ErrOutOfRange.
//
// # Deterministic Testing
//
// Hazard placement draws from an injected *rand.Rand:
//
//	e := board.New(board.WithRand(randutil.New(42)))
//
// or from an explicit layout:
//
//	err := e.StartWithHazards(2, 2, []board.Position{{Row: 0, Col: 0}})
//
// # Concurrency
//
// An Engine is not safe for concurrent use. Callers that share one between
// goroutines must serialise access themselves.
package board
