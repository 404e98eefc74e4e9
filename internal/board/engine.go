package board

import (
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/minesweeper/internal/randutil"
)

var (
	// ErrOutOfRange is returned when coordinates fall outside the grid.
	ErrOutOfRange = errors.New("position out of range")
	// ErrInvalidConfiguration is returned for non-positive dimensions or a
	// hazard count that would leave no safe cell.
	ErrInvalidConfiguration = errors.New("invalid board configuration")
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithRand sets the random source used for hazard placement.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithFlagPolicy sets how opening a flagged cell is treated.
// Default is ClearFlagOnReveal.
func WithFlagPolicy(p FlagPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLogger sets a logger for debug tracing of transitions.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine owns one board and every rule that applies to it.
type Engine struct {
	cells []Cell // row-major
	rows  int
	cols  int
	mines int

	state    GameState
	started  bool
	exploded *Position

	rng    *rand.Rand
	policy FlagPolicy
	logger *log.Logger
}

// New creates an engine with an empty 0x0 board. Call Start before playing.
func New(opts ...Option) *Engine {
	e := &Engine{
		state:  InProgress,
		policy: ClearFlagOnReveal,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = randutil.New(randutil.Seed())
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return e
}

// Start discards the current board and deals a fresh one with mines hazards
// placed uniformly at random. Invalid configurations are ignored and leave the
// previous board untouched.
func (e *Engine) Start(rows, cols, mines int) {
	if err := Validate(rows, cols, mines); err != nil {
		e.logger.Debug("Ignoring start", "error", err)
		return
	}
	e.setup(rows, cols, randutil.Sample(e.rng, rows*cols, mines))
}

// StartWithHazards deals a board with hazards at exactly the given positions.
// Duplicate positions count once. Unlike Start it reports why a configuration
// was rejected; the previous board is kept in that case too.
func (e *Engine) StartWithHazards(rows, cols int, hazards []Position) error {
	if err := Validate(rows, cols, 0); err != nil {
		return err
	}

	seen := make(map[int]bool, len(hazards))
	idx := make([]int, 0, len(hazards))
	for _, p := range hazards {
		if !inBounds(p.Row, p.Col, rows, cols) {
			return fmt.Errorf("%w: hazard at %s on %dx%d board", ErrOutOfRange, p, rows, cols)
		}
		i := p.Row*cols + p.Col
		if !seen[i] {
			seen[i] = true
			idx = append(idx, i)
		}
	}

	if err := Validate(rows, cols, len(idx)); err != nil {
		return err
	}
	e.setup(rows, cols, idx)
	return nil
}

// Restart deals a new random board with the dimensions and hazard count of
// the last successful start.
func (e *Engine) Restart() {
	if !e.started {
		return
	}
	e.Start(e.rows, e.cols, e.mines)
}

// Validate reports whether Start would accept the configuration. Start itself
// ignores bad input silently, so callers wanting an explanation check first.
func Validate(rows, cols, mines int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidConfiguration, rows, cols)
	}
	if mines < 0 || mines >= rows*cols {
		return fmt.Errorf("%w: %d hazards on a %dx%d board", ErrInvalidConfiguration, mines, rows, cols)
	}
	return nil
}

func (e *Engine) setup(rows, cols int, hazards []int) {
	e.rows, e.cols, e.mines = rows, cols, len(hazards)
	e.cells = make([]Cell, rows*cols)
	for _, i := range hazards {
		e.cells[i].Hazard = true
	}

	var buf []Position
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := &e.cells[r*cols+c]
			if cell.Hazard {
				continue
			}
			buf = appendNeighbors(buf[:0], Position{Row: r, Col: c}, rows, cols)
			for _, n := range buf {
				if e.cells[n.Row*cols+n.Col].Hazard {
					cell.AdjacentHazards++
				}
			}
		}
	}

	e.state = InProgress
	e.started = true
	e.exploded = nil
	e.logger.Debug("Board dealt", "rows", rows, "cols", cols, "mines", e.mines)
}

func inBounds(row, col, rows, cols int) bool {
	return row >= 0 && row < rows && col >= 0 && col < cols
}

// canTouch gates every mutation: the game must be running, the coordinates
// valid on both axes, and the cell still hidden.
func (e *Engine) canTouch(row, col int) bool {
	if e.state != InProgress {
		return false
	}
	if !inBounds(row, col, e.rows, e.cols) {
		return false
	}
	return !e.cells[row*e.cols+col].Revealed
}

// OpenCell reveals the cell at row, col. Opening a hazard loses the game.
// Opening a cell with no adjacent hazards also reveals the connected empty
// region and its numbered border.
func (e *Engine) OpenCell(row, col int) {
	if !e.canTouch(row, col) {
		return
	}

	cell := &e.cells[row*e.cols+col]
	if cell.Flagged {
		if e.policy == ProtectFlagged {
			return
		}
		cell.Flagged = false
	}

	if cell.Hazard {
		e.state = Lose
		e.exploded = &Position{Row: row, Col: col}
		e.logger.Debug("Hazard opened", "row", row, "col", col)
		return
	}

	if cell.AdjacentHazards > 0 {
		cell.Revealed = true
	} else {
		e.cascade(Position{Row: row, Col: col})
	}
	e.trackWinState()
}

// cascade reveals the empty region around start using an explicit stack.
// Numbered cells are revealed but never expanded.
func (e *Engine) cascade(start Position) {
	stack := []Position{start}
	var buf []Position
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cell := &e.cells[p.Row*e.cols+p.Col]
		if cell.Revealed {
			continue
		}
		cell.Revealed = true

		buf = appendNeighbors(buf[:0], p, e.rows, e.cols)
		for _, n := range buf {
			next := &e.cells[n.Row*e.cols+n.Col]
			if next.Hazard || next.Revealed {
				continue
			}
			if next.Flagged {
				if e.policy == ProtectFlagged {
					continue
				}
				next.Flagged = false
			}
			if next.AdjacentHazards == 0 {
				stack = append(stack, n)
			} else {
				next.Revealed = true
			}
		}
	}
}

// ToggleFlag flips the flag on a hidden cell.
func (e *Engine) ToggleFlag(row, col int) {
	if !e.canTouch(row, col) {
		return
	}
	cell := &e.cells[row*e.cols+col]
	cell.Flagged = !cell.Flagged
	e.trackWinState()
}

// trackWinState declares a win when every safe cell is revealed and
// unflagged, or when every hazard is flagged.
func (e *Engine) trackWinState() {
	openWin, flagWin := true, true
	for i := range e.cells {
		cell := &e.cells[i]
		if cell.Hazard {
			flagWin = flagWin && cell.Flagged
		} else {
			openWin = openWin && cell.Revealed && !cell.Flagged
		}
		if !openWin && !flagWin {
			return
		}
	}
	e.state = Win
	e.logger.Debug("Board cleared", "byFlags", flagWin, "byOpening", openWin)
}

// Cell returns a snapshot of the cell at row, col.
func (e *Engine) Cell(row, col int) (Cell, error) {
	if !inBounds(row, col, e.rows, e.cols) {
		return Cell{}, fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfRange, row, col, e.rows, e.cols)
	}
	return e.cells[row*e.cols+col], nil
}

// Size returns the board dimensions.
func (e *Engine) Size() (rows, cols int) {
	return e.rows, e.cols
}

// State returns the current game state.
func (e *Engine) State() GameState {
	return e.state
}

// Started reports whether a board has ever been dealt.
func (e *Engine) Started() bool {
	return e.started
}

// Mines returns the number of hazards on the board.
func (e *Engine) Mines() int {
	return e.mines
}

// Flags returns the number of flagged cells.
func (e *Engine) Flags() int {
	n := 0
	for i := range e.cells {
		if e.cells[i].Flagged {
			n++
		}
	}
	return n
}

// RemainingFlags is the hazard count minus placed flags. It goes negative
// when the player over-flags.
func (e *Engine) RemainingFlags() int {
	return e.mines - e.Flags()
}

// Exploded returns the hazard that lost the game, if any.
func (e *Engine) Exploded() (Position, bool) {
	if e.exploded == nil {
		return Position{}, false
	}
	return *e.exploded, true
}

// Policy returns the configured flag policy.
func (e *Engine) Policy() FlagPolicy {
	return e.policy
}

// Snapshot copies the whole grid, indexed [row][col].
func (e *Engine) Snapshot() [][]Cell {
	grid := make([][]Cell, e.rows)
	for r := range grid {
		grid[r] = make([]Cell, e.cols)
		copy(grid[r], e.cells[r*e.cols:(r+1)*e.cols])
	}
	return grid
}
