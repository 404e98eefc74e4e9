package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" default:"sweeper.hcl" help:"Path to HCL configuration file" type:"path"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	NoColor  bool   `help:"Disable coloured log output"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"1" help:"Play a local game in the terminal"`
	Serve    ServeCmd         `cmd:"" help:"Host games over WebSocket"`
	Client   ClientCmd        `cmd:"" help:"Play a game hosted by a server"`
	Simulate SimulateCmd      `cmd:"" help:"Measure an automatic player over many boards"`
	Board    BoardCmd         `cmd:"" help:"Apply moves to a board and print it"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("sweeper"),
		kong.Description("Minesweeper board engine, terminal game and session server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
