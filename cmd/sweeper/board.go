package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/randutil"
)

// BoardCmd deals a board, applies moves in order and prints the result.
type BoardCmd struct {
	BoardFlags `embed:""`

	Seed   *int64   `help:"Deterministic RNG seed (optional)"`
	Open   []string `help:"Cell to open as row,col (repeatable)" placeholder:"ROW,COL" sep:"none"`
	Flag   []string `help:"Cell to flag as row,col (repeatable), applied before opens" placeholder:"ROW,COL" sep:"none"`
	Reveal bool     `help:"Show every hazard and count"`
}

func (c *BoardCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}

	preset, err := c.resolve(cfg)
	if err != nil {
		return err
	}
	if err := board.Validate(preset.Rows, preset.Cols, preset.Mines); err != nil {
		return err
	}

	seed := randutil.Seed()
	if c.Seed != nil {
		seed = *c.Seed
	}

	e := board.New(
		board.WithRand(randutil.New(seed)),
		board.WithFlagPolicy(cfg.FlagPolicy()),
		board.WithLogger(logger),
	)
	e.Start(preset.Rows, preset.Cols, preset.Mines)

	for _, s := range c.Flag {
		p, err := parsePosition(s)
		if err != nil {
			return err
		}
		e.ToggleFlag(p.Row, p.Col)
	}
	for _, s := range c.Open {
		p, err := parsePosition(s)
		if err != nil {
			return err
		}
		e.OpenCell(p.Row, p.Col)
	}

	fmt.Fprintln(os.Stdout, e.Render(c.Reveal))
	fmt.Fprintf(os.Stdout, "\nstate=%s mines=%d flags=%d seed=%d\n", e.State(), e.Mines(), e.Flags(), seed)
	if p, ok := e.Exploded(); ok {
		fmt.Fprintf(os.Stdout, "exploded=%s\n", p)
	}
	return nil
}

func parsePosition(s string) (board.Position, error) {
	row, col, ok := strings.Cut(s, ",")
	if !ok {
		return board.Position{}, fmt.Errorf("invalid position %q: want row,col", s)
	}
	r, err := strconv.Atoi(strings.TrimSpace(row))
	if err != nil {
		return board.Position{}, fmt.Errorf("invalid row in %q: %w", s, err)
	}
	c, err := strconv.Atoi(strings.TrimSpace(col))
	if err != nil {
		return board.Position{}, fmt.Errorf("invalid column in %q: %w", s, err)
	}
	return board.Position{Row: r, Col: c}, nil
}
