// Package tui is the terminal front end of a grid: a bubbletea program
// that renders the visible window of rows and feeds keys to the grid.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gridbase/internal/grid"
	"github.com/mesh-intelligence/gridbase/internal/nav"
)

// Lines around the data rows: title, header, separator, status and help.
const chromeLines = 5

// changedMsg reports that the grid's frame changed.
type changedMsg struct{}

// resultMsg carries the outcome of one mutation.
type resultMsg struct {
	op  string
	err error
}

// Model is the bubbletea model of one open table.
type Model struct {
	g      *grid.Grid
	title  string
	log    *zap.Logger
	width  int
	height int
	status string
	err    error
}

// New creates the model for g. title names the table in the title bar.
func New(g *grid.Grid, title string, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	return Model{g: g, title: title, log: log.Named("tui")}
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(g *grid.Grid, title string, log *zap.Logger) error {
	p := tea.NewProgram(New(g, title, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd { return m.waitForChange() }

// waitForChange turns the next grid change notification into a message.
func (m Model) waitForChange() tea.Cmd {
	ch := m.g.Changes()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// await turns a mutation outcome into a message. A nil channel means
// nothing was sent to the store.
func await(op string, ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg { return resultMsg{op: op, err: <-ch} }
}

func (m Model) dataHeight() int {
	h := m.height - chromeLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.g.SetViewport(m.dataHeight())
		return m, nil
	case changedMsg:
		m.g.Sync()
		return m, m.waitForChange()
	case resultMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("%s: %w", msg.op, msg.err)
			m.log.Warn("mutation failed", zap.String("op", msg.op), zap.Error(msg.err))
		} else {
			m.err = nil
			m.status = msg.op + " saved"
		}
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+n":
		_, ch := m.g.AddRow()
		m.status = "adding row"
		return m, await("add row", ch)
	case "ctrl+x":
		it, _, ok := m.g.SelectedCell()
		if !ok || it.Pending {
			return m, nil
		}
		m.status = "deleting row"
		return m, await("delete row", m.g.DeleteRow(it.Row.ID))
	case "alt+up", "alt+down":
		it, _, ok := m.g.SelectedCell()
		if !ok || it.Pending {
			return m, nil
		}
		delta := 1
		if msg.String() == "alt+up" {
			delta = -1
		}
		ch := m.g.MoveRow(it.Row.ID, delta)
		m.g.Key(moveKey(delta))
		return m, await("move row", ch)
	case "pgup":
		m.g.ScrollBy(-m.dataHeight())
		return m, nil
	case "pgdown":
		m.g.ScrollBy(m.dataHeight())
		return m, nil
	}
	if k, ok := navKey(msg); ok {
		// The first key selects the top visible cell.
		if m.g.Selection().Mode() == nav.Idle {
			return m, await("edit", m.g.Click(m.g.Viewport().FirstRow(), 0))
		}
		return m, await("edit", m.g.Key(k))
	}
	return m, nil
}
