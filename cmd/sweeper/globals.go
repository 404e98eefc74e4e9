package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/minesweeper/cmd/sweeper/shared"
	"github.com/lox/minesweeper/internal/config"
)

// load reads and validates the configuration file, then builds a logger
// honouring --log-level over the file's log_level.
func (g *Globals) load() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, err
	}
	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := shared.SetupLogger(cfg.Server.LogLevel, g.NoColor)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// BoardFlags selects a board by preset or explicit dimensions.
type BoardFlags struct {
	Preset string `short:"p" help:"Named preset (beginner, intermediate, expert, classic or one from the config file)"`
	Rows   int    `help:"Rows, overriding the preset"`
	Cols   int    `help:"Columns, overriding the preset"`
	Mines  int    `help:"Hazards, used with --rows and --cols"`
}

// resolve returns the board to deal. Explicit dimensions win over a preset.
func (b BoardFlags) resolve(cfg *config.Config) (config.Preset, error) {
	if b.Rows != 0 || b.Cols != 0 {
		return config.Preset{Name: "custom", Rows: b.Rows, Cols: b.Cols, Mines: b.Mines}, nil
	}
	name := b.Preset
	if name == "" {
		name = cfg.Game.DefaultPreset
	}
	return cfg.Preset(name)
}
