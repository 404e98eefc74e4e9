// Package config loads the HCL configuration shared by the sweeper commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/minesweeper/internal/board"
)

// ErrUnknownPreset is returned when a preset name is not configured.
var ErrUnknownPreset = errors.New("unknown preset")

const (
	DefaultAddress     = "localhost"
	DefaultPort        = 8080
	DefaultLogLevel    = "info"
	DefaultIdleTimeout = 30 * time.Minute
	DefaultMaxSessions = 1000
	DefaultPreset      = "beginner"
)

// Config represents the complete configuration file.
type Config struct {
	Server  *ServerSettings `hcl:"server,block"`
	Game    *GameSettings   `hcl:"game,block"`
	Presets []Preset        `hcl:"preset,block"`
}

// ServerSettings configures the session server.
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	IdleTimeout string `hcl:"idle_timeout,optional"`
	MaxSessions int    `hcl:"max_sessions,optional"`
}

// GameSettings configures engine behaviour.
type GameSettings struct {
	DefaultPreset    string `hcl:"default_preset,optional"`
	RevealClearsFlag *bool  `hcl:"reveal_clears_flag,optional"`
}

// Preset is a named board configuration.
type Preset struct {
	Name  string `hcl:"name,label"`
	Rows  int    `hcl:"rows"`
	Cols  int    `hcl:"cols"`
	Mines int    `hcl:"mines"`
}

// DefaultPresets returns the built-in board sizes.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "beginner", Rows: 9, Cols: 9, Mines: 10},
		{Name: "intermediate", Rows: 16, Cols: 16, Mines: 40},
		{Name: "expert", Rows: 16, Cols: 30, Mines: 99},
		{Name: "classic", Rows: 10, Cols: 16, Mines: 20},
	}
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from an HCL file. A missing file yields Default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}
	if c.Server.IdleTimeout == "" {
		c.Server.IdleTimeout = DefaultIdleTimeout.String()
	}
	if c.Server.MaxSessions == 0 {
		c.Server.MaxSessions = DefaultMaxSessions
	}

	if c.Game == nil {
		c.Game = &GameSettings{}
	}
	if c.Game.DefaultPreset == "" {
		c.Game.DefaultPreset = DefaultPreset
	}
	if c.Game.RevealClearsFlag == nil {
		v := true
		c.Game.RevealClearsFlag = &v
	}

	// Built-in presets fill in any names the file does not override
	have := make(map[string]bool, len(c.Presets))
	for _, p := range c.Presets {
		have[p.Name] = true
	}
	for _, p := range DefaultPresets() {
		if !have[p.Name] {
			c.Presets = append(c.Presets, p)
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := c.IdleTimeout(); err != nil {
		return err
	}
	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("max_sessions must be positive, got %d", c.Server.MaxSessions)
	}

	seen := make(map[string]bool, len(c.Presets))
	for _, p := range c.Presets {
		if seen[p.Name] {
			return fmt.Errorf("preset %s: defined more than once", p.Name)
		}
		seen[p.Name] = true
		if p.Rows < 1 || p.Cols < 1 {
			return fmt.Errorf("preset %s: rows and cols must be positive", p.Name)
		}
		if p.Mines < 0 || p.Mines >= p.Rows*p.Cols {
			return fmt.Errorf("preset %s: mines must be between 0 and %d", p.Name, p.Rows*p.Cols-1)
		}
	}

	if _, err := c.Preset(c.Game.DefaultPreset); err != nil {
		return fmt.Errorf("default_preset: %w", err)
	}
	return nil
}

// ServerAddress returns host:port.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// IdleTimeout parses the configured session idle timeout.
func (c *Config) IdleTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.IdleTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid idle_timeout %q: %w", c.Server.IdleTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("idle_timeout must be positive, got %s", d)
	}
	return d, nil
}

// FlagPolicy maps reveal_clears_flag onto the engine policy.
func (c *Config) FlagPolicy() board.FlagPolicy {
	if c.Game.RevealClearsFlag != nil && !*c.Game.RevealClearsFlag {
		return board.ProtectFlagged
	}
	return board.ClearFlagOnReveal
}

// Preset returns the named preset.
func (c *Config) Preset(name string) (Preset, error) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
}

// PresetNames returns the configured preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for _, p := range c.Presets {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
