package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/internal/grid"
	"github.com/mesh-intelligence/gridbase/internal/nav"
	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/internal/viewstate"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// gatedStore holds back every page after the first until release is closed.
type gatedStore struct {
	types.Store
	release chan struct{}
}

func (s gatedStore) GetPaginatedRows(ctx context.Context, req types.PageRequest) (*types.PageResult, error) {
	if req.Page > 0 {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.Store.GetPaginatedRows(ctx, req)
}

// openTable creates a table with n named rows and returns a grid on it.
func openTable(t *testing.T, n int) *grid.Grid {
	return openStore(t, n, func(s types.Store) types.Store { return s })
}

func openStore(t *testing.T, n int, wrap func(types.Store) types.Store) *grid.Grid {
	t.Helper()
	ctx := context.Background()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	base, err := b.CreateBase(ctx, "Base")
	require.NoError(t, err)
	table, err := b.CreateTable(ctx, base.BaseID, "People")
	require.NoError(t, err)
	cols, err := b.ListColumns(ctx, table.TableID)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		r, err := b.AddRow(ctx, table.TableID)
		require.NoError(t, err)
		_, err = b.UpdateCell(ctx, table.TableID, r.RowID, cols[0].ColumnID, fmt.Sprintf("person %d", i))
		require.NoError(t, err)
	}
	views, err := b.ListViews(ctx, table.TableID)
	require.NoError(t, err)

	g, err := grid.New(wrap(b), viewstate.NewStore(viewstate.FromView(views[0])),
		grid.WithConfig(types.GridConfig{PageSize: 10, Overscan: 2, FetchWorkers: 2}))
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func resize(t *testing.T, m Model, w, h int) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	m = next.(Model)
	m.g.Wait()
	return m
}

func press(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestNavKey(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want nav.Key
		ok   bool
	}{
		{"rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}, nav.Rune('x'), true},
		{"space", tea.KeyMsg{Type: tea.KeySpace}, nav.Rune(' '), true},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, nav.Key{Kind: nav.KeyEnter}, true},
		{"shift tab", tea.KeyMsg{Type: tea.KeyShiftTab}, nav.Key{Kind: nav.KeyShiftTab}, true},
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, nav.Key{Kind: nav.KeyBackspace}, true},
		{"alt arrow is not a grid key", tea.KeyMsg{Type: tea.KeyUp, Alt: true}, nav.Key{}, false},
		{"pasted runes", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ab")}, nav.Key{}, false},
		{"ctrl key", tea.KeyMsg{Type: tea.KeyCtrlN}, nav.Key{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := navKey(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResizeSetsViewportAndRendersRows(t *testing.T) {
	g := openTable(t, 30)
	m := resize(t, New(g, "People", nil), 80, 10)

	assert.Equal(t, 10-chromeLines, g.Viewport().Height)
	out := m.View()
	assert.Contains(t, out, "People")
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "person 0")
	assert.Contains(t, out, "person 4")
	assert.NotContains(t, out, "person 5", "rows below the viewport are not drawn")
	assert.Contains(t, out, "30 rows")
}

func TestPendingRowsRenderPlaceholder(t *testing.T) {
	release := make(chan struct{})
	g := openStore(t, 30, func(s types.Store) types.Store { return gatedStore{Store: s, release: release} })
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})
	m := resize(t, New(g, "People", nil), 80, 10)

	g.ScrollTo(25)
	out := m.View()
	assert.Contains(t, out, pendingCell)
	assert.NotContains(t, out, "person 25")

	close(release)
	g.Wait()
	out = m.View()
	assert.Contains(t, out, "person 25")
	assert.NotContains(t, out, pendingCell)
}

func TestArrowKeysFollowSelection(t *testing.T) {
	g := openTable(t, 30)
	m := resize(t, New(g, "People", nil), 80, 10)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	for i := 0; i < 7; i++ {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	row, _, ok := g.Selection().Cell()
	require.True(t, ok)
	assert.Equal(t, 7, row)
	assert.Equal(t, 3, g.Viewport().FirstRow(), "the viewport scrolls to keep the selection visible")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 0, g.Viewport().FirstRow())
}

func TestTypingEditsAndCommits(t *testing.T) {
	g := openTable(t, 3)
	m := resize(t, New(g, "People", nil), 80, 10)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'Z'}})
	assert.Contains(t, m.View(), "Z_")

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	res, ok := msg.(resultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)

	next, _ := m.Update(res)
	m = next.(Model)
	assert.Contains(t, m.View(), "edit saved")
	assert.Equal(t, "Z", g.Frame().RowAt(0).Row.Value(g.VisibleColumns()[0].ID))
}

func TestAddRowKey(t *testing.T) {
	g := openTable(t, 2)
	m := resize(t, New(g, "People", nil), 80, 10)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.NotNil(t, cmd)
	res := cmd().(resultMsg)
	require.NoError(t, res.err)
	require.Eventually(t, func() bool {
		g.Wait()
		n, _ := g.Frame().Total()
		return n == 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFailedMutationShowsError(t *testing.T) {
	g := openTable(t, 1)
	m := New(g, "People", nil)
	next, _ := m.Update(resultMsg{op: "delete row", err: errors.New("boom")})
	assert.Contains(t, next.(Model).View(), "error: delete row: boom")
}

func TestChangeMessageRearmsWatcher(t *testing.T) {
	g := openTable(t, 1)
	m := New(g, "People", nil)
	_, cmd := m.Update(changedMsg{})
	assert.NotNil(t, cmd)
	_, cmd = press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTallViewportLoadsEveryVisiblePage(t *testing.T) {
	g := openTable(t, 15)
	m := resize(t, New(g, "People", nil), 80, 25)

	next, _ := m.Update(changedMsg{})
	m = next.(Model)
	g.Wait()

	out := m.View()
	assert.Contains(t, out, "person 9")
	assert.Contains(t, out, "person 14", "rows on the second page are fetched once the total is known")
	assert.NotContains(t, out, pendingCell)
}

func TestEmptyTableStillShowsStatusAndHelp(t *testing.T) {
	g := openTable(t, 0)
	m := New(g, "People", nil)
	next, _ := m.Update(resultMsg{op: "add row", err: errors.New("offline")})
	out := next.(Model).View()
	assert.Contains(t, out, "error: add row: offline")
	assert.Contains(t, out, "ctrl+c quit")
}
