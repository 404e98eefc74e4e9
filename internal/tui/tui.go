// Package tui is the interactive terminal front end for a minesweeper game.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/minesweeper/internal/board"
	"github.com/lox/minesweeper/internal/protocol"
)

const (
	sidebarWidth = 30
	logHeight    = 8
)

// stateMsg carries the result of a command sent to the game.
type stateMsg struct {
	action string
	pos    *board.Position
	state  protocol.GameState
	err    error
}

// Model is the Bubble Tea model for one game.
type Model struct {
	game   Game
	logger *log.Logger

	// UI components
	keys   keyMap
	help   help.Model
	events viewport.Model

	// State
	state    protocol.GameState
	loaded   bool
	cursor   board.Position
	debug    bool
	quitting bool
	gameLog  []string
	lastErr  error

	// Dimensions
	width  int
	height int
}

// NewModel creates a model driving game.
func NewModel(game Game, logger *log.Logger) *Model {
	vp := viewport.New(sidebarWidth-2, logHeight)
	vp.SetContent("")

	return &Model{
		game:   game,
		logger: logger.WithPrefix("tui"),
		keys:   defaultKeyMap(),
		help:   help.New(),
		events: vp,
	}
}

// Run shows the model until the player quits or ctx is cancelled.
func Run(ctx context.Context, game Game, logger *log.Logger) error {
	p := tea.NewProgram(NewModel(game, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// Init fetches the initial state.
func (m *Model) Init() tea.Cmd {
	return m.send("", nil, m.game.View)
}

func (m *Model) send(action string, pos *board.Position, fn func() (protocol.GameState, error)) tea.Cmd {
	return func() tea.Msg {
		state, err := fn()
		return stateMsg{action: action, pos: pos, state: state, err: err}
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case stateMsg:
		m.applyState(msg)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	pos := m.cursor
	row, col := pos.Row, pos.Col

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1, 0)
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.Open):
		return m.send("Opened", &pos, func() (protocol.GameState, error) {
			return m.game.Open(row, col)
		})
	case key.Matches(msg, m.keys.Flag):
		return m.send("Flagged", &pos, func() (protocol.GameState, error) {
			return m.game.Flag(row, col)
		})
	case key.Matches(msg, m.keys.Restart):
		return m.send("Restarted", nil, m.game.Restart)
	case key.Matches(msg, m.keys.Debug):
		if _, ok := m.game.(Layouter); ok {
			m.debug = !m.debug
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) moveCursor(dr, dc int) {
	r, c := m.cursor.Row+dr, m.cursor.Col+dc
	if r >= 0 && r < m.state.Rows {
		m.cursor.Row = r
	}
	if c >= 0 && c < m.state.Cols {
		m.cursor.Col = c
	}
}

func (m *Model) applyState(msg stateMsg) {
	if msg.err != nil {
		m.lastErr = msg.err
		m.logger.Debug("Command failed", "action", msg.action, "error", msg.err)
		m.addLogEntry(ErrorStyle.Render("Error: " + msg.err.Error()))
		return
	}
	m.lastErr = nil

	prev := m.state.Outcome()
	m.state = msg.state
	m.loaded = true

	// Keep the cursor on the board if the dimensions changed
	if m.cursor.Row >= m.state.Rows {
		m.cursor.Row = max(m.state.Rows-1, 0)
	}
	if m.cursor.Col >= m.state.Cols {
		m.cursor.Col = max(m.state.Cols-1, 0)
	}

	if msg.action != "" {
		entry := msg.action
		if msg.pos != nil {
			entry += " " + msg.pos.String()
		}
		m.addLogEntry(entry)
	}

	outcome := m.state.Outcome()
	if outcome == prev {
		return
	}
	switch outcome {
	case board.Win:
		m.addLogEntry(SuccessStyle.Render("Board cleared!"))
	case board.Lose:
		where := ""
		if m.state.Exploded != nil {
			where = " at " + m.state.Exploded.String()
		}
		m.addLogEntry(ErrorStyle.Render("Hit a hazard" + where))
	}
}

// addLogEntry appends to the event log and scrolls to it.
func (m *Model) addLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.events.SetContent(strings.Join(m.gameLog, "\n"))
	m.events.GotoBottom()
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.loaded {
		if m.lastErr != nil {
			return ErrorStyle.Render("Error: "+m.lastErr.Error()) + "\n"
		}
		return "Loading..."
	}

	header := HeaderStyle.Render(" Minesweeper ") + " " + InfoStyle.Render(m.state.GameID)

	boardPane := PaneStyle.Render(m.renderBoard())
	sidebar := PaneStyle.Width(sidebarWidth).Render(m.renderSidebar())
	body := lipgloss.JoinHorizontal(lipgloss.Top, boardPane, sidebar)

	sections := []string{header, body}
	if m.debug {
		if l, ok := m.game.(Layouter); ok {
			sections = append(sections, PaneStyle.Render(l.Layout()))
		}
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderBoard() string {
	var b strings.Builder
	for r, row := range m.state.Cells {
		if r > 0 {
			b.WriteString("\n")
		}
		for c, cell := range row {
			glyph, style := m.cellGlyph(board.Position{Row: r, Col: c}, cell)
			if r == m.cursor.Row && c == m.cursor.Col {
				b.WriteString(CursorStyle.Render("[" + glyph + "]"))
			} else {
				b.WriteString(" " + style.Render(glyph) + " ")
			}
		}
	}
	return b.String()
}

func (m *Model) cellGlyph(p board.Position, cell protocol.CellView) (string, lipgloss.Style) {
	switch {
	case m.state.Exploded != nil && *m.state.Exploded == p:
		return "X", HazardStyle
	case cell.Flagged:
		return "F", FlagStyle
	case cell.Hazard:
		return board.HazardMarker, HazardStyle
	case cell.Revealed && cell.Count == 0:
		return ".", EmptyStyle
	case cell.Revealed:
		return fmt.Sprint(cell.Count), countStyles[min(cell.Count, 8)]
	default:
		return board.HiddenMarker, HiddenStyle
	}
}

func (m *Model) renderSidebar() string {
	var content strings.Builder

	content.WriteString(fmt.Sprintf("Mines: %d\n", m.state.Mines))
	content.WriteString(fmt.Sprintf("Flags: %d\n", m.state.Flags))
	content.WriteString(fmt.Sprintf("Cursor: %s\n", m.cursor))

	switch m.state.Outcome() {
	case board.Win:
		content.WriteString(SuccessStyle.Render("You win!"))
	case board.Lose:
		content.WriteString(ErrorStyle.Render("Game over"))
	default:
		content.WriteString(WarningStyle.Render("Playing"))
	}
	content.WriteString("\n\n")
	content.WriteString(m.events.View())
	return content.String()
}
