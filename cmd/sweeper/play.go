package main

import (
	"fmt"

	"github.com/lox/minesweeper/cmd/sweeper/shared"
	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/gameid"
	"github.com/lox/minesweeper/internal/randutil"
	"github.com/lox/minesweeper/internal/tui"
)

// PlayCmd runs a game in-process.
type PlayCmd struct {
	BoardFlags `embed:""`

	Seed       *int64 `help:"Deterministic RNG seed (optional)"`
	FlagPolicy string `help:"What opening a flagged cell does: clear or protect (overrides config)"`
}

func (c *PlayCmd) Run(g *Globals) error {
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

	policy := cfg.FlagPolicy()
	if c.FlagPolicy != "" {
		if policy, err = board.ParseFlagPolicy(c.FlagPolicy); err != nil {
			return err
		}
	}

	seed := randutil.Seed()
	if c.Seed != nil {
		seed = *c.Seed
	}
	logger.Debug("Starting local game", "preset", preset.Name, "rows", preset.Rows, "cols", preset.Cols, "mines", preset.Mines, "seed", seed, "policy", policy)

	engine := board.New(
		board.WithRand(randutil.New(seed)),
		board.WithFlagPolicy(policy),
		board.WithLogger(logger),
	)
	engine.Start(preset.Rows, preset.Cols, preset.Mines)

	ctx := shared.SetupSignalHandler(logger)
	if err := tui.Run(ctx, tui.NewLocal(gameid.Generate(), engine), logger); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
