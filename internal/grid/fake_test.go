package grid

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/internal/viewstate"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// pageCall is a page request held by a gated fakeStore until the test
// replies to it.
type pageCall struct {
	Req    types.PageRequest
	result *types.PageResult
	done   chan error
}

func (c *pageCall) reply(err error) { c.done <- err }

// fakeStore is an in-memory types.Store. When gated, page requests are
// handed to the test through calls; when mutGate is set, every mutation
// waits for a value from it and fails with that value if non-nil.
type fakeStore struct {
	mu        sync.Mutex
	columns   []types.Column
	rows      []types.Row
	nextID    int
	gated     bool
	omitTotal bool
	mutGate   chan error
	counts    map[string]int
	cellCalls []types.Cell

	calls chan *pageCall
}

func newFakeStore(n int) *fakeStore {
	fs := &fakeStore{
		columns: []types.Column{
			{ColumnID: "c1", TableID: "t1", Name: "Name", Type: types.ColumnText, Order: 0},
			{ColumnID: "c2", TableID: "t1", Name: "Qty", Type: types.ColumnNumber, Order: 1},
		},
		counts: make(map[string]int),
		calls:  make(chan *pageCall, 64),
	}
	for i := 0; i < n; i++ {
		fs.rows = append(fs.rows, types.Row{
			RowID: fmt.Sprintf("r%d", i),
			Order: i,
			Cells: []types.Cell{
				{ColumnID: "c1", Value: fmt.Sprintf("row %d", i)},
				{ColumnID: "c2", Value: fmt.Sprintf("%d", i%3)},
			},
		})
	}
	fs.nextID = n
	return fs
}

func (fs *fakeStore) setGated(v bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.gated = v
}

func (fs *fakeStore) setOmitTotal(v bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.omitTotal = v
}

func (fs *fakeStore) setMutGate(ch chan error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.mutGate = ch
}

func (fs *fakeStore) count(op string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.counts[op]
}

// next returns the next held page request.
func (fs *fakeStore) next(t *testing.T) *pageCall {
	t.Helper()
	select {
	case c := <-fs.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no page request arrived")
		return nil
	}
}

func (fs *fakeStore) mutation(ctx context.Context, op string) error {
	fs.mu.Lock()
	fs.counts[op]++
	gate := fs.mutGate
	fs.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case err := <-gate:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func matches(r types.Row, filters []types.FilterRule) bool {
	for _, f := range filters {
		if f.Operator == types.OpIs && r.Value(f.ColumnID) != f.Value {
			return false
		}
	}
	return true
}

func (fs *fakeStore) ListTables(ctx context.Context, baseID string) ([]types.Table, error) {
	return []types.Table{{TableID: "t1", BaseID: baseID, Name: "Table 1"}}, nil
}

func (fs *fakeStore) GetPaginatedRows(ctx context.Context, req types.PageRequest) (*types.PageResult, error) {
	fs.mu.Lock()
	fs.counts["GetPaginatedRows"]++
	var selected []types.Row
	for _, r := range fs.rows {
		if matches(r, req.Filters) {
			selected = append(selected, r)
		}
	}
	total := len(selected)
	lo := req.Page * req.PageSize
	hi := lo + req.PageSize
	if lo > total {
		lo = total
	}
	if hi > total {
		hi = total
	}
	res := &types.PageResult{
		Schema: types.TableSchema{Columns: append([]types.Column(nil), fs.columns...)},
		Rows:   append([]types.Row(nil), selected[lo:hi]...),
		Pagination: types.Pagination{
			Page:    req.Page,
			HasMore: hi < total,
		},
	}
	if !fs.omitTotal {
		res.Pagination.TotalRows = &total
	}
	gated := fs.gated
	fs.mu.Unlock()

	if !gated {
		return res, nil
	}
	call := &pageCall{Req: req, result: res, done: make(chan error, 1)}
	fs.calls <- call
	select {
	case err := <-call.done:
		if err != nil {
			return nil, err
		}
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (fs *fakeStore) SearchRows(ctx context.Context, req types.SearchRequest) (*types.SearchPage, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return &types.SearchPage{Rows: append([]types.Row(nil), fs.rows...)}, nil
}

func (fs *fakeStore) UpdateCell(ctx context.Context, tableID, rowID, columnID, value string) (*types.Cell, error) {
	if err := fs.mutation(ctx, "UpdateCell"); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.cellCalls = append(fs.cellCalls, types.Cell{RowID: rowID, ColumnID: columnID, Value: value})
	for i, r := range fs.rows {
		if r.RowID != rowID {
			continue
		}
		cells := append([]types.Cell(nil), r.Cells...)
		for j := range cells {
			if cells[j].ColumnID == columnID {
				cells[j].Value = value
				fs.rows[i].Cells = cells
				return &cells[j], nil
			}
		}
		c := types.Cell{CellID: "cell-" + rowID + columnID, RowID: rowID, ColumnID: columnID, Value: value}
		fs.rows[i].Cells = append(cells, c)
		return &c, nil
	}
	return nil, types.ErrNotFound
}

func (fs *fakeStore) UpdateColumn(ctx context.Context, columnID, name string) (*types.Column, error) {
	if err := fs.mutation(ctx, "UpdateColumn"); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := range fs.columns {
		if fs.columns[i].ColumnID == columnID {
			fs.columns[i].Name = name
			c := fs.columns[i]
			return &c, nil
		}
	}
	return nil, types.ErrNotFound
}

func (fs *fakeStore) AddColumn(ctx context.Context, tableID, name, columnType string) (*types.Column, error) {
	if err := fs.mutation(ctx, "AddColumn"); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	c := types.Column{
		ColumnID: fmt.Sprintf("c%d", len(fs.columns)+1),
		TableID:  tableID,
		Name:     name,
		Type:     columnType,
		Order:    len(fs.columns),
	}
	fs.columns = append(fs.columns, c)
	return &c, nil
}

func (fs *fakeStore) DeleteColumn(ctx context.Context, tableID, columnID string) error {
	if err := fs.mutation(ctx, "DeleteColumn"); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i, c := range fs.columns {
		if c.ColumnID == columnID {
			if i == 0 {
				return types.ErrPrimaryColumn
			}
			fs.columns = append(fs.columns[:i:i], fs.columns[i+1:]...)
			return nil
		}
	}
	return types.ErrNotFound
}

func (fs *fakeStore) AddRow(ctx context.Context, tableID string) (*types.Row, error) {
	if err := fs.mutation(ctx, "AddRow"); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	r := types.Row{RowID: fmt.Sprintf("r%d", fs.nextID), Order: fs.nextID}
	fs.nextID++
	fs.rows = append(fs.rows, r)
	return &r, nil
}

func (fs *fakeStore) DeleteRow(ctx context.Context, tableID, rowID string) error {
	if err := fs.mutation(ctx, "DeleteRow"); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i, r := range fs.rows {
		if r.RowID == rowID {
			fs.rows = append(fs.rows[:i:i], fs.rows[i+1:]...)
			return nil
		}
	}
	return types.ErrNotFound
}

func (fs *fakeStore) ReorderRows(ctx context.Context, tableID, viewID, aRowID, bRowID string) error {
	if err := fs.mutation(ctx, "ReorderRows"); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	ia, ib := -1, -1
	for i, r := range fs.rows {
		switch r.RowID {
		case aRowID:
			ia = i
		case bRowID:
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return types.ErrNotFound
	}
	fs.rows[ia].Order, fs.rows[ib].Order = fs.rows[ib].Order, fs.rows[ia].Order
	fs.rows[ia], fs.rows[ib] = fs.rows[ib], fs.rows[ia]
	return nil
}

func (fs *fakeStore) BulkAddRows(ctx context.Context, tableID string, count int) (int, error) {
	if err := fs.mutation(ctx, "BulkAddRows"); err != nil {
		return 0, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := 0; i < count; i++ {
		fs.rows = append(fs.rows, types.Row{RowID: fmt.Sprintf("r%d", fs.nextID), Order: fs.nextID})
		fs.nextID++
	}
	return count, nil
}

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var testConfig = types.GridConfig{PageSize: 10, Overscan: 2, FetchWorkers: 4}

func newTestGrid(t *testing.T, fs *fakeStore) *Grid {
	t.Helper()
	views := viewstate.NewStore(viewstate.ViewState{TableID: "t1", ViewID: "v1", Name: "Grid view"})
	g, err := New(fs, views, WithConfig(testConfig))
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

// loaded returns a grid whose first page is cached.
func loaded(t *testing.T, fs *fakeStore) *Grid {
	t.Helper()
	g := newTestGrid(t, fs)
	g.SetViewport(5)
	g.Wait()
	s, ok := g.Frame().Slot(0)
	require.True(t, ok)
	require.Equal(t, SlotReady, s.State)
	return g
}

func waitSlot(t *testing.T, g *Grid, page int, state SlotState) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, ok := g.Frame().Slot(page)
		return ok && s.State == state
	}, waitFor, tick)
}
