package grid

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/gridbase/internal/optimistic"
	"github.com/mesh-intelligence/gridbase/internal/viewstate"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Every mutation below changes the current frame before it returns and
// sends the store request from a worker. The returned channel receives
// exactly one value: nil once the store confirmed, or the error after the
// local change was undone.

func dispatch[R any](g *Grid, m optimistic.Mutation[*Frame, R], after func(R, optimistic.Outcome, error) error) <-chan error {
	done := make(chan error, 1)
	settle := optimistic.Start(g.coord.layer, m)
	g.work.submit(func() {
		res, out, err := settle(g.ctx)
		if after != nil {
			err = after(res, out, err)
		}
		if out == optimistic.Diverged {
			g.Refetch()
		}
		done <- err
	})
	return done
}

func settled(err error) <-chan error {
	done := make(chan error, 1)
	done <- err
	return done
}

// dependsOn reports whether sorting or filtering of state reads column id.
func dependsOn(state viewstate.ViewState, id string) bool {
	for _, r := range state.Sort {
		if r.ColumnID == id {
			return true
		}
	}
	for _, r := range state.Filters {
		if r.ColumnID == id {
			return true
		}
	}
	return false
}

func setCell(f *Frame, row, col ID, v string) *Frame {
	return f.mapRows(func(r Row) (Row, bool, bool) {
		if r.ID != row {
			return r, true, false
		}
		if cur, ok := r.Values[col]; ok && cur == v {
			return r, true, false
		}
		return r.with(col, v), true, true
	})
}

// UpdateCell sets the value of one cell.
func (g *Grid) UpdateCell(row, col ID, value string) <-chan error {
	state := g.State()
	row, col = g.ids.canonical(row), g.ids.canonical(col)
	var prev string
	if _, r, ok := g.Frame().find(row); ok {
		prev = r.Value(col)
	}
	return dispatch(g, optimistic.Mutation[*Frame, *types.Cell]{
		Entity: "cell:" + g.ids.key(row) + ":" + g.ids.key(col),
		Apply: func(f *Frame) *Frame {
			return setCell(f, g.ids.canonical(row), g.ids.canonical(col), value)
		},
		Request: func(ctx context.Context) (*types.Cell, error) {
			rid, err := g.ids.resolve(ctx, row)
			if err != nil {
				return nil, err
			}
			cid, err := g.ids.resolve(ctx, col)
			if err != nil {
				return nil, err
			}
			return g.store.UpdateCell(ctx, state.TableID, rid, cid, value)
		},
		Reconcile: func(f *Frame, c *types.Cell) *Frame {
			return setCell(f, g.ids.canonical(row), g.ids.canonical(col), c.Value)
		},
		Revert: func(f *Frame) *Frame {
			return setCell(f, g.ids.canonical(row), g.ids.canonical(col), prev)
		},
	}, func(_ *types.Cell, out optimistic.Outcome, err error) error {
		if out == optimistic.Confirmed && dependsOn(g.State(), col.Value()) {
			g.Refetch()
		}
		return err
	})
}

func renameColumn(f *Frame, id ID, name string) *Frame {
	cols := f.Columns()
	for i, c := range cols {
		if c.ID != id {
			continue
		}
		if c.Name == name {
			return f
		}
		next := append([]Column(nil), cols...)
		next[i].Name = name
		return f.withColumns(next)
	}
	return f
}

// RenameColumn changes a column's name.
func (g *Grid) RenameColumn(col ID, name string) <-chan error {
	if name == "" {
		return settled(types.ErrInvalidName)
	}
	col = g.ids.canonical(col)
	c, ok := g.Frame().Column(col)
	if !ok {
		return settled(fmt.Errorf("column %s: %w", col, types.ErrNotFound))
	}
	prev := c.Name
	return dispatch(g, optimistic.Mutation[*Frame, *types.Column]{
		Entity: "column:" + g.ids.key(col),
		Apply:  func(f *Frame) *Frame { return renameColumn(f, g.ids.canonical(col), name) },
		Request: func(ctx context.Context) (*types.Column, error) {
			cid, err := g.ids.resolve(ctx, col)
			if err != nil {
				return nil, err
			}
			return g.store.UpdateColumn(ctx, cid, name)
		},
		Revert: func(f *Frame) *Frame { return renameColumn(f, g.ids.canonical(col), prev) },
	}, nil)
}

// renameRow rewrites a temporary row ID to the store's ID.
func renameRow(f *Frame, from ID, to Row) *Frame {
	return f.mapRows(func(r Row) (Row, bool, bool) {
		if r.ID != from {
			return r, true, false
		}
		r.ID, r.Order = to.ID, to.Order
		return r, true, true
	})
}

func removeRow(f *Frame, id ID) *Frame {
	return f.mapRows(func(r Row) (Row, bool, bool) {
		if r.ID != id {
			return r, true, false
		}
		return r, false, true
	})
}

// AddRow appends an empty row. The returned ID is temporary until the store
// confirms the row; it may be used for further edits right away.
func (g *Grid) AddRow() (ID, <-chan error) {
	state := g.State()
	id := NewTemporaryID()
	g.ids.track(id)
	done := dispatch(g, optimistic.Mutation[*Frame, *types.Row]{
		Entity: "row:" + id.Value(),
		Apply: func(f *Frame) *Frame {
			if _, _, ok := f.find(id); ok {
				return f
			}
			next := f.clone()
			next.appended = append(append([]Row(nil), f.appended...), Row{ID: id, Values: map[ID]string{}})
			return next
		},
		Request: func(ctx context.Context) (*types.Row, error) {
			return g.store.AddRow(ctx, state.TableID)
		},
		Reconcile: func(f *Frame, r *types.Row) *Frame {
			return renameRow(f, id, Row{ID: ConfirmedID(r.RowID), Order: r.Order})
		},
		Revert: func(f *Frame) *Frame { return removeRow(f, id) },
	}, func(r *types.Row, out optimistic.Outcome, err error) error {
		if err != nil {
			g.ids.fail(id, err)
			return err
		}
		g.ids.confirm(id, r.RowID)
		g.Refetch()
		return nil
	})
	return id, done
}

// DeleteRow removes a row.
func (g *Grid) DeleteRow(row ID) <-chan error {
	state := g.State()
	row = g.ids.canonical(row)
	return dispatch(g, optimistic.Mutation[*Frame, struct{}]{
		Entity: "row:" + g.ids.key(row),
		Apply:  func(f *Frame) *Frame { return removeRow(f, g.ids.canonical(row)) },
		Request: func(ctx context.Context) (struct{}, error) {
			rid, err := g.ids.resolve(ctx, row)
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, g.store.DeleteRow(ctx, state.TableID, rid)
		},
	}, func(_ struct{}, out optimistic.Outcome, err error) error {
		if out == optimistic.Confirmed {
			g.Refetch()
		}
		return err
	})
}

func addColumn(f *Frame, c Column) *Frame {
	if _, ok := f.Column(c.ID); ok {
		return f
	}
	cols := f.Columns()
	c.Order = 0
	if len(cols) > 0 {
		c.Order = cols[len(cols)-1].Order + 1
	}
	return f.withColumns(append(append([]Column(nil), cols...), c))
}

func removeColumn(f *Frame, id ID) *Frame {
	cols := f.Columns()
	next := make([]Column, 0, len(cols))
	for _, c := range cols {
		if c.ID != id {
			next = append(next, c)
		}
	}
	if len(next) != len(cols) {
		f = f.withColumns(next)
	}
	return f.mapRows(func(r Row) (Row, bool, bool) {
		if _, ok := r.Values[id]; !ok {
			return r, true, false
		}
		return r.without(id), true, true
	})
}

func confirmColumn(f *Frame, from ID, c *types.Column) *Frame {
	to := ConfirmedID(c.ColumnID)
	cols := append([]Column(nil), f.Columns()...)
	for i := range cols {
		if cols[i].ID == from {
			cols[i] = Column{ID: to, Name: c.Name, Type: c.Type, Order: c.Order}
		}
	}
	return f.withColumns(cols).mapRows(func(r Row) (Row, bool, bool) {
		if _, ok := r.Values[from]; !ok {
			return r, true, false
		}
		return r.renameColumn(from, to), true, true
	})
}

// AddColumn appends a column. An empty columnType selects text.
func (g *Grid) AddColumn(name, columnType string) (ID, <-chan error) {
	if columnType == "" {
		columnType = types.ColumnText
	}
	if !types.ValidColumnType(columnType) {
		return ID{}, settled(fmt.Errorf("%w: %q", types.ErrInvalidColumnType, columnType))
	}
	state := g.State()
	id := NewTemporaryID()
	g.ids.track(id)
	done := dispatch(g, optimistic.Mutation[*Frame, *types.Column]{
		Entity: "column:" + id.Value(),
		Apply: func(f *Frame) *Frame {
			return addColumn(f, Column{ID: id, Name: name, Type: columnType})
		},
		Request: func(ctx context.Context) (*types.Column, error) {
			return g.store.AddColumn(ctx, state.TableID, name, columnType)
		},
		Reconcile: func(f *Frame, c *types.Column) *Frame { return confirmColumn(f, id, c) },
		Revert:    func(f *Frame) *Frame { return removeColumn(f, id) },
	}, func(c *types.Column, _ optimistic.Outcome, err error) error {
		if err != nil {
			g.ids.fail(id, err)
			return err
		}
		g.ids.confirm(id, c.ColumnID)
		return nil
	})
	return id, done
}

// DeleteColumn removes a column and its cells. The primary column is
// rejected with types.ErrPrimaryColumn before any store call.
func (g *Grid) DeleteColumn(col ID) <-chan error {
	col = g.ids.canonical(col)
	cols := g.Frame().Columns()
	if len(cols) > 0 && cols[0].ID == col {
		return settled(types.ErrPrimaryColumn)
	}
	state := g.State()
	return dispatch(g, optimistic.Mutation[*Frame, struct{}]{
		Entity: "column:" + g.ids.key(col),
		Apply:  func(f *Frame) *Frame { return removeColumn(f, g.ids.canonical(col)) },
		Request: func(ctx context.Context) (struct{}, error) {
			cid, err := g.ids.resolve(ctx, col)
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, g.store.DeleteColumn(ctx, state.TableID, cid)
		},
	}, func(_ struct{}, out optimistic.Outcome, err error) error {
		if out != optimistic.Confirmed {
			return err
		}
		cid := g.ids.canonical(col).Value()
		cur := g.State()
		if dependsOn(cur, cid) || cur.IsHidden(cid) {
			if verr := g.UpdateView(func(s viewstate.ViewState) viewstate.ViewState { return withoutColumn(s, cid) }); verr != nil {
				g.log.Warn("dropping rules of deleted column", zap.String("column", cid), zap.Error(verr))
			}
		}
		return nil
	})
}

func withoutColumn(s viewstate.ViewState, id string) viewstate.ViewState {
	var sorts []types.SortRule
	for _, r := range s.Sort {
		if r.ColumnID != id {
			sorts = append(sorts, r)
		}
	}
	var filters []types.FilterRule
	for _, r := range s.Filters {
		if r.ColumnID != id {
			filters = append(filters, r)
		}
	}
	var hidden []string
	for _, h := range s.Hidden {
		if h != id {
			hidden = append(hidden, h)
		}
	}
	return s.WithSort(sorts).WithFilters(filters).WithHidden(hidden)
}

// placeBefore puts row first immediately ahead of row second by swapping
// their positions and order values when first is currently after second.
func placeBefore(f *Frame, first, second ID) *Frame {
	i, a, ok := f.find(first)
	if !ok {
		return f
	}
	j, b, ok := f.find(second)
	if !ok || i < j {
		return f
	}
	ao, bo := a.Order, b.Order
	a.Order, b.Order = bo, ao
	return f.mapRows(func(r Row) (Row, bool, bool) {
		switch r.ID {
		case first:
			return b, true, true
		case second:
			return a, true, true
		}
		return r, true, false
	})
}

// MoveRow swaps a row with its neighbor in the current sort order: delta -1
// moves it up, +1 down. Moving the first row up or the last row down does
// nothing.
func (g *Grid) MoveRow(row ID, delta int) <-chan error {
	if delta != -1 && delta != 1 {
		return settled(fmt.Errorf("%w: move by %d", types.ErrInvalidValue, delta))
	}
	row = g.ids.canonical(row)
	f := g.Frame()
	i, _, ok := f.find(row)
	if !ok {
		return settled(fmt.Errorf("row %s: %w", row, types.ErrNotFound))
	}
	total, _ := f.Total()
	j := i + delta
	if j < 0 || j >= total {
		return settled(nil)
	}
	nb := f.RowAt(j)
	if nb.Pending {
		return settled(fmt.Errorf("row %d: neighbor not loaded: %w", j, types.ErrNotFound))
	}
	other := nb.Row.ID
	first, second := row, other
	if delta > 0 {
		first, second = other, row
	}
	state := g.State()
	return dispatch(g, optimistic.Mutation[*Frame, struct{}]{
		Entity: "order:" + first.Value() + ":" + second.Value(),
		Apply:  func(f *Frame) *Frame { return placeBefore(f, first, second) },
		Request: func(ctx context.Context) (struct{}, error) {
			a, err := g.ids.resolve(ctx, row)
			if err != nil {
				return struct{}{}, err
			}
			b, err := g.ids.resolve(ctx, other)
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, g.store.ReorderRows(ctx, state.TableID, state.ViewID, a, b)
		},
		Revert: func(f *Frame) *Frame { return placeBefore(f, second, first) },
	}, func(_ struct{}, out optimistic.Outcome, err error) error {
		if out == optimistic.Confirmed && len(g.State().Sort) > 0 {
			g.Refetch()
		}
		return err
	})
}

// BulkAddRows appends count empty rows. Nothing is shown until the store
// confirms; the cache is then revalidated.
func (g *Grid) BulkAddRows(count int) <-chan error {
	if count <= 0 {
		return settled(fmt.Errorf("%w: %d", types.ErrInvalidCount, count))
	}
	state := g.State()
	done := make(chan error, 1)
	g.work.submit(func() {
		n, err := g.store.BulkAddRows(g.ctx, state.TableID, count)
		if err != nil {
			g.log.Error("bulk add failed", zap.String("table", state.TableID), zap.Error(err))
			done <- err
			return
		}
		g.log.Debug("bulk add", zap.String("table", state.TableID), zap.Int("rows", n))
		g.Refetch()
		done <- nil
	})
	return done
}
