package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lox/minesweeper/cmd/sweeper/shared"
	"github.com/lox/minesweeper/internal/client"
	"github.com/lox/minesweeper/internal/protocol"
	"github.com/lox/minesweeper/internal/server"
	"github.com/lox/minesweeper/internal/tui"
)

// ClientCmd plays a game hosted by a sweeper server.
type ClientCmd struct {
	BoardFlags `embed:""`

	Server string        `short:"s" default:"http://localhost:8080" help:"Server base URL"`
	Join   string        `short:"j" help:"Join an existing game by ID instead of starting one"`
	Wait   time.Duration `default:"0s" help:"Wait up to this long for the server to become healthy"`
}

func (c *ClientCmd) Run(g *Globals) error {
	_, logger, err := g.load()
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandler(logger)
	base := strings.TrimRight(strings.TrimSpace(c.Server), "/")

	if c.Wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, c.Wait)
		err := server.WaitForHealthy(waitCtx, base)
		cancel()
		if err != nil {
			return fmt.Errorf("server at %s not healthy: %w", base, err)
		}
	}

	remote, err := client.Dial(ctx, base, logger)
	if err != nil {
		return err
	}
	defer remote.Close()

	if c.Join != "" {
		_, err = remote.Join(ctx, strings.TrimSpace(c.Join))
	} else {
		_, err = remote.NewGame(ctx, protocol.NewGame{
			Preset: c.Preset,
			Rows:   c.Rows,
			Cols:   c.Cols,
			Mines:  c.Mines,
		})
	}
	if err != nil {
		return err
	}

	return tui.Run(ctx, tui.NewRemote(ctx, remote), logger)
}
