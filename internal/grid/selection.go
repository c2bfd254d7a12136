package grid

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gridbase/internal/nav"
)

func (g *Grid) bounds() (nav.Bounds, []Column) {
	total, _ := g.Frame().Total()
	cols := g.VisibleColumns()
	b := nav.Bounds{Rows: total, Columns: make([]nav.Column, len(cols))}
	for i, c := range cols {
		b.Columns[i] = nav.Column{ID: c.ID.Value(), Type: c.Type}
	}
	return b, cols
}

// Selection returns the current selection.
func (g *Grid) Selection() nav.Selection {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sel
}

// SelectedCell returns the selected row and column, if any.
func (g *Grid) SelectedCell() (Item, Column, bool) {
	sel := g.Selection()
	row, col, ok := sel.Cell()
	if !ok {
		return Item{}, Column{}, false
	}
	cols := g.VisibleColumns()
	if col >= len(cols) {
		return Item{}, Column{}, false
	}
	return g.Frame().RowAt(row), cols[col], true
}

// Click selects the cell at (row, col), where col indexes the visible
// columns. A pending edit elsewhere is committed; the returned channel
// carries its outcome and is nil when nothing was committed.
func (g *Grid) Click(row, col int) <-chan error {
	return g.interact(func(s nav.Selection, b nav.Bounds) (nav.Selection, nav.Effect) {
		return s.Click(b, row, col)
	})
}

// DoubleClick starts editing the cell at (row, col).
func (g *Grid) DoubleClick(row, col int) <-chan error {
	current := g.valueAt(row, col)
	return g.interact(func(s nav.Selection, b nav.Bounds) (nav.Selection, nav.Effect) {
		return s.DoubleClick(b, row, col, current)
	})
}

// ClickHeader selects the visible column col.
func (g *Grid) ClickHeader(col int) <-chan error {
	return g.interact(func(s nav.Selection, b nav.Bounds) (nav.Selection, nav.Effect) {
		return s.ClickHeader(b, col)
	})
}

// ClickOutside clears the selection.
func (g *Grid) ClickOutside() <-chan error {
	return g.interact(func(s nav.Selection, b nav.Bounds) (nav.Selection, nav.Effect) {
		return s.ClickOutside(b)
	})
}

// OpenMenu records that a context menu is open over the selection.
func (g *Grid) OpenMenu() {
	g.mu.Lock()
	g.sel = g.sel.OpenMenu()
	g.mu.Unlock()
}

// Key feeds one keyboard event to the selection. The viewport follows the
// selected row.
func (g *Grid) Key(k nav.Key) <-chan error {
	sel := g.Selection()
	var current string
	if row, col, ok := sel.Cell(); ok {
		current = g.valueAt(row, col)
	}
	return g.interact(func(s nav.Selection, b nav.Bounds) (nav.Selection, nav.Effect) {
		return s.Key(b, k, current)
	})
}

func (g *Grid) valueAt(row, col int) string {
	cols := g.VisibleColumns()
	if col < 0 || col >= len(cols) {
		return ""
	}
	it := g.Frame().RowAt(row)
	if it.Pending {
		return ""
	}
	return it.Row.Value(cols[col].ID)
}

func (g *Grid) interact(fn func(nav.Selection, nav.Bounds) (nav.Selection, nav.Effect)) <-chan error {
	b, cols := g.bounds()
	g.mu.Lock()
	next, eff := fn(g.sel.Clamp(b), b)
	g.sel = next
	if row, _, ok := next.Cell(); ok && eff.Moved {
		g.vp = g.vp.Reveal(row)
	}
	g.mu.Unlock()
	if eff.Moved {
		g.Sync()
	}
	if eff.Commit == nil {
		return nil
	}
	return g.commit(*eff.Commit, cols)
}

func (g *Grid) commit(c nav.Commit, cols []Column) <-chan error {
	it := g.Frame().RowAt(c.Row)
	if it.Pending {
		g.log.Warn("dropping edit of a row that is not loaded", zap.Int("row", c.Row))
		return nil
	}
	for _, col := range cols {
		if col.ID.Value() == c.ColumnID {
			if it.Row.Value(col.ID) == c.Value {
				return nil
			}
			return g.UpdateCell(it.Row.ID, col.ID, c.Value)
		}
	}
	return nil
}
