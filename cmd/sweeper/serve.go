package main

import (
	"github.com/lox/minesweeper/cmd/sweeper/shared"
	"github.com/lox/minesweeper/internal/server"
)

// ServeCmd hosts sessions over WebSocket.
type ServeCmd struct {
	Addr string `short:"a" help:"Server address to bind to (overrides config)"`
	Seed *int64 `help:"Deterministic RNG seed for every session (optional)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	var opts []server.Option
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *c.Seed)
		opts = append(opts, server.WithSeed(*c.Seed))
	}

	srv, err := server.NewServer(cfg, logger, opts...)
	if err != nil {
		return err
	}

	logger.Info("Starting sweeper server",
		"addr", addr,
		"idle_timeout", cfg.Server.IdleTimeout,
		"max_sessions", cfg.Server.MaxSessions,
		"default_preset", cfg.Game.DefaultPreset,
		"flag_policy", cfg.FlagPolicy())

	ctx := shared.SetupSignalHandler(logger)
	return srv.Serve(ctx, addr)
}
