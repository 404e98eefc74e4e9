package main

import (
	"os"
	"time"

	"github.com/lox/minesweeper/cmd/sweeper/shared"
	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/randutil"
	"github.com/lox/minesweeper/internal/simulator"
)

// SimulateCmd measures the automatic player.
type SimulateCmd struct {
	BoardFlags `embed:""`

	Games      int    `short:"n" default:"1000" help:"Number of games to play"`
	Workers    int    `short:"w" default:"0" help:"Concurrent games (0 uses GOMAXPROCS)"`
	Seed       *int64 `help:"Base seed; game i uses seed+i (optional)"`
	FlagPolicy string `help:"What opening a flagged cell does: clear or protect (overrides config)"`
	Output     string `short:"o" help:"Write the report as JSON to this path" type:"path"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}

	preset, err := c.resolve(cfg)
	if err != nil {
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

	simCfg := simulator.Config{
		Games:   c.Games,
		Rows:    preset.Rows,
		Cols:    preset.Cols,
		Mines:   preset.Mines,
		Workers: c.Workers,
		Seed:    seed,
		Policy:  policy,
		Logger:  logger,
	}

	logger.Info("Starting simulation", "games", c.Games, "rows", preset.Rows, "cols", preset.Cols, "mines", preset.Mines, "seed", seed)

	ctx := shared.SetupSignalHandler(logger)
	start := time.Now()
	stats, err := simulator.New(simCfg).Run(ctx)
	if err != nil {
		return err
	}

	report := simulator.NewReport(simCfg, stats, time.Since(start))
	simulator.PrintSummary(os.Stdout, report)

	if c.Output != "" {
		if err := report.WriteJSON(c.Output); err != nil {
			return err
		}
		logger.Info("Wrote report", "path", c.Output)
	}
	return nil
}
