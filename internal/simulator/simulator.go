package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/fileutil"
	"github.com/lox/minesweeper/internal/protocol"
	"github.com/lox/minesweeper/internal/randutil"
	"github.com/lox/minesweeper/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for running simulations
type Config struct {
	Games   int
	Rows    int
	Cols    int
	Mines   int
	Workers int
	Seed    int64
	Policy  board.FlagPolicy
	Logger  *log.Logger
}

// Simulator plays many games with an automatic player
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Logger == nil {
		config.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Simulator{config: config}
}

// Run plays every game and returns the aggregated results. Game i is dealt
// from Seed+i, so results do not depend on the worker count.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if s.config.Games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", s.config.Games)
	}
	if err := board.Validate(s.config.Rows, s.config.Cols, s.config.Mines); err != nil {
		return nil, err
	}

	logger := s.config.Logger.WithPrefix("simulator")
	results := make([]statistics.GameResult, s.config.Games)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range results {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.playGame(s.config.Seed + int64(i))
			logger.Debug("Game finished", "game", i, "won", results[i].Won, "moves", results[i].Moves)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for _, r := range results {
		stats.Add(r)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

func (s *Simulator) playGame(seed int64) statistics.GameResult {
	rng := randutil.New(seed)
	e := board.New(board.WithRand(rng), board.WithFlagPolicy(s.config.Policy))
	e.Start(s.config.Rows, s.config.Cols, s.config.Mines)

	p := &player{engine: e, rng: rng}
	p.play(2 * s.config.Rows * s.config.Cols)

	safe := s.config.Rows*s.config.Cols - s.config.Mines
	return statistics.GameResult{
		Seed:    seed,
		Won:     e.State() == board.Win,
		Moves:   p.moves,
		Guesses: p.guesses,
		Cleared: float64(revealed(e)) / float64(safe),
		Capped:  !e.State().Over(),
	}
}

func revealed(e *board.Engine) int {
	n := 0
	for _, row := range e.Snapshot() {
		for _, c := range row {
			if c.Revealed {
				n++
			}
		}
	}
	return n
}

// player clears a board using only what the player view discloses.
type player struct {
	engine  *board.Engine
	rng     *rand.Rand
	moves   int
	guesses int
}

func (p *player) play(maxMoves int) {
	for p.moves < maxMoves {
		view := protocol.NewGameState("", p.engine)
		if view.Outcome().Over() {
			return
		}
		if p.deduce(view) {
			continue
		}
		if !p.guess(view) {
			return
		}
	}
}

// deduce applies the two single-cell rules: a number whose flags are all
// placed frees its other neighbours, and a number with exactly as many
// hidden neighbours as hazards left flags all of them.
func (p *player) deduce(view protocol.GameState) bool {
	for r, row := range view.Cells {
		for c, cell := range row {
			if !cell.Revealed || cell.Count == 0 {
				continue
			}

			var hidden []board.Position
			flagged := 0
			for _, n := range board.Neighbors(board.Position{Row: r, Col: c}, view.Rows, view.Cols) {
				nc := view.Cells[n.Row][n.Col]
				switch {
				case nc.Flagged:
					flagged++
				case !nc.Revealed:
					hidden = append(hidden, n)
				}
			}
			if len(hidden) == 0 {
				continue
			}

			switch {
			case flagged == cell.Count:
				for _, n := range hidden {
					p.engine.OpenCell(n.Row, n.Col)
					p.moves++
				}
				return true
			case flagged+len(hidden) == cell.Count:
				for _, n := range hidden {
					p.engine.ToggleFlag(n.Row, n.Col)
					p.moves++
				}
				return true
			}
		}
	}
	return false
}

func (p *player) guess(view protocol.GameState) bool {
	var hidden []board.Position
	for r, row := range view.Cells {
		for c, cell := range row {
			if !cell.Revealed && !cell.Flagged {
				hidden = append(hidden, board.Position{Row: r, Col: c})
			}
		}
	}
	if len(hidden) == 0 {
		return false
	}

	pick := hidden[p.rng.IntN(len(hidden))]
	p.engine.OpenCell(pick.Row, pick.Col)
	p.moves++
	p.guesses++
	return true
}

// Report summarises a simulation run.
type Report struct {
	Rows          int     `json:"rows"`
	Cols          int     `json:"cols"`
	Mines         int     `json:"mines"`
	Seed          int64   `json:"seed"`
	Games         int     `json:"games"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Unfinished    int     `json:"unfinished,omitempty"`
	WinRate       float64 `json:"win_rate"`
	WinRateLow    float64 `json:"win_rate_low"`
	WinRateHigh   float64 `json:"win_rate_high"`
	MeanMoves     float64 `json:"mean_moves"`
	MeanGuesses   float64 `json:"mean_guesses"`
	MedianCleared float64 `json:"median_cleared"`
	NoGuessWins   int     `json:"no_guess_wins"`
	Elapsed       string  `json:"elapsed,omitempty"`
}

// NewReport builds a report from aggregated statistics.
func NewReport(config Config, stats *statistics.Statistics, elapsed time.Duration) Report {
	low, high := stats.WinRateInterval95()
	r := Report{
		Rows:          config.Rows,
		Cols:          config.Cols,
		Mines:         config.Mines,
		Seed:          config.Seed,
		Games:         stats.Games,
		Wins:          stats.Wins,
		Losses:        stats.Losses,
		Unfinished:    stats.Unfinished,
		WinRate:       stats.WinRate(),
		WinRateLow:    low,
		WinRateHigh:   high,
		MeanMoves:     stats.MeanMoves(),
		MedianCleared: stats.MedianCleared(),
		NoGuessWins:   stats.NoGuessWins,
	}
	if stats.Games > 0 {
		r.MeanGuesses = float64(stats.Guesses) / float64(stats.Games)
	}
	if elapsed > 0 {
		r.Elapsed = elapsed.Round(time.Millisecond).String()
	}
	return r
}

// WriteJSON writes the report atomically to path.
func (r Report) WriteJSON(path string) error {
	if path == "" {
		return errors.New("no output path")
	}
	return fileutil.WriteJSONAtomic(path, r, 0o644)
}

// PrintSummary writes a human-readable summary of the report
func PrintSummary(w io.Writer, r Report) {
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "\n=== RESULTS: %dx%d, %d mines ===\n", r.Rows, r.Cols, r.Mines)
	fmt.Fprintf(w, "Games played: %d (seed %d)\n", r.Games, r.Seed)
	fmt.Fprintf(w, "Wins: %d  Losses: %d\n", r.Wins, r.Losses)
	if r.Unfinished > 0 {
		fmt.Fprintf(w, "Unfinished (move limit): %d\n", r.Unfinished)
	}
	fmt.Fprintf(w, "Win rate: %.2f%% (95%% CI [%.2f%%, %.2f%%])\n", r.WinRate*100, r.WinRateLow*100, r.WinRateHigh*100)
	fmt.Fprintf(w, "Mean moves: %.2f  Mean guesses: %.2f\n", r.MeanMoves, r.MeanGuesses)
	fmt.Fprintf(w, "Median cleared: %.1f%%\n", r.MedianCleared*100)
	fmt.Fprintf(w, "Wins without a second guess: %d\n", r.NoGuessWins)
	if r.Elapsed != "" {
		fmt.Fprintf(w, "Elapsed: %s\n", r.Elapsed)
	}
}
