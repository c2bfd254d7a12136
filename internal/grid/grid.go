// Package grid is the data-windowing engine behind the grid view. It maps a
// scroll position over a row set of unbounded size to a small set of page
// fetches, merges in-flight pages into one continuous row index, and applies
// edits optimistically before the store confirms them.
//
// The engine is UI-agnostic: a renderer sets the viewport, reads Visible and
// re-renders whenever Changes fires.
package grid

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gridbase/internal/nav"
	"github.com/mesh-intelligence/gridbase/internal/search"
	"github.com/mesh-intelligence/gridbase/internal/viewstate"
	"github.com/mesh-intelligence/gridbase/internal/window"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// ViewSaver persists a view configuration.
type ViewSaver interface {
	SaveView(ctx context.Context, view types.View) error
}

type options struct {
	log   *zap.Logger
	pool  *ants.Pool
	saver ViewSaver
	cfg   types.GridConfig
}

// Option configures a Grid.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithPool runs fetches and mutations on pool instead of a pool owned by the
// grid. The grid does not release a pool it was given.
func WithPool(pool *ants.Pool) Option {
	return func(o *options) { o.pool = pool }
}

// WithViewSaver persists view changes made through SaveView.
func WithViewSaver(s ViewSaver) Option {
	return func(o *options) { o.saver = s }
}

// WithConfig sets page size, overscan and worker count.
func WithConfig(cfg types.GridConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// Grid binds a store, a view-state store, the page cache and the selection
// of one table.
type Grid struct {
	store types.Store
	views *viewstate.Store
	coord *Coordinator
	ids   *registry
	work  *workers
	log   *zap.Logger
	saver ViewSaver

	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	vp  window.Viewport
	sel nav.Selection
}

// New creates a grid over store showing the state held by views.
func New(store types.Store, views *viewstate.Store, opts ...Option) (*Grid, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	log := o.log.Named("grid")
	work, err := newWorkers(o.pool, o.cfg.GetFetchWorkers(), log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := views.Current()
	g := &Grid{
		store:  store,
		views:  views,
		ids:    newRegistry(),
		work:   work,
		log:    log,
		saver:  o.saver,
		ctx:    ctx,
		cancel: cancel,
		vp:     window.Viewport{RowHeight: 1, Overscan: o.cfg.GetOverscan()},
	}
	g.coord = newCoordinator(ctx, store, work, log, state, o.cfg.GetPageSize())
	g.coord.resized = g.Sync
	views.Subscribe(g.onViewChange)
	return g, nil
}

// Close cancels outstanding requests and releases the grid's worker pool.
func (g *Grid) Close() {
	g.cancel()
	g.work.wait()
	g.work.release()
}

// Wait blocks until every fetch and mutation issued so far has completed.
func (g *Grid) Wait() { g.work.wait() }

// Changes fires after the displayed data changed.
func (g *Grid) Changes() <-chan struct{} { return g.coord.Changes() }

// Frame returns the current immutable frame.
func (g *Grid) Frame() *Frame { return g.coord.Frame() }

// Views returns the view-state store the grid follows.
func (g *Grid) Views() *viewstate.Store { return g.views }

// State returns the current view state.
func (g *Grid) State() viewstate.ViewState { return g.coord.State() }

func (g *Grid) onViewChange(ch viewstate.Change) {
	if !g.coord.Reset(ch) {
		return
	}
	if ch.LayoutChanged || ch.SignatureChanged {
		g.mu.Lock()
		g.vp.Offset = 0
		g.sel = nav.Selection{}
		g.mu.Unlock()
	}
	g.Sync()
}

// Load fetches the first page and waits for it. Used by non-interactive
// callers that want data before rendering.
func (g *Grid) Load(ctx context.Context) error {
	g.Sync()
	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if s, ok := g.Frame().Slot(0); ok && s.State == SlotFailed {
		return fmt.Errorf("loading table %s: first page failed", g.State().TableID)
	}
	return nil
}

// Sync ensures the pages covering the viewport are cached or in flight.
// With nothing to lay out, page 0 is ensured: it carries the total.
func (g *Grid) Sync() {
	f := g.coord.Frame()
	g.mu.Lock()
	vp := g.vp
	g.mu.Unlock()
	total, _ := f.Total()
	lo, hi, ok := vp.Range(total)
	if !ok {
		g.coord.Ensure([]int{0})
		return
	}
	// Rows removed locally shift later pages up; widen the range by as
	// many rows so their pages are still requested.
	shift := f.removed()
	g.coord.Ensure(window.PagesFor(lo, hi+shift, total+shift, f.PageSize()))
}

// Refetch revalidates every cached page, keeping current rows visible.
func (g *Grid) Refetch() {
	g.coord.Refetch()
	g.Sync()
}

// SetViewport sets the visible height in rows.
func (g *Grid) SetViewport(height int) {
	g.mu.Lock()
	g.vp.Height = height
	g.mu.Unlock()
	g.Sync()
}

// Viewport returns the current viewport.
func (g *Grid) Viewport() window.Viewport {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.vp
}

// ScrollTo moves the first visible row to row.
func (g *Grid) ScrollTo(row int) {
	total, _ := g.Frame().Total()
	g.mu.Lock()
	g.vp = g.vp.ScrollTo(clampRow(row, total))
	g.mu.Unlock()
	g.Sync()
}

// ScrollBy moves the viewport by delta rows.
func (g *Grid) ScrollBy(delta int) {
	g.ScrollTo(g.Viewport().FirstRow() + delta)
}

func clampRow(row, total int) int {
	if row >= total {
		row = total - 1
	}
	if row < 0 {
		row = 0
	}
	return row
}

// Visible returns the items of the visible range, without overscan.
func (g *Grid) Visible() []Item {
	f := g.Frame()
	total, _ := f.Total()
	vp := g.Viewport()
	vp.Overscan = 0
	lo, hi, ok := vp.Range(total)
	if !ok {
		return nil
	}
	return f.Rows(lo, hi)
}

// VisibleColumns returns the columns not hidden by the current view, in
// display order.
func (g *Grid) VisibleColumns() []Column {
	f := g.Frame()
	state := g.State()
	cols := make([]Column, 0, len(f.Columns()))
	for _, c := range f.Columns() {
		if !state.IsHidden(c.ID.Value()) {
			cols = append(cols, c)
		}
	}
	return cols
}

// UpdateView applies fn to the current view state.
func (g *Grid) UpdateView(fn func(viewstate.ViewState) viewstate.ViewState) error {
	var verr error
	g.views.Update(func(cur viewstate.ViewState) viewstate.ViewState {
		next := fn(cur)
		if verr = next.Validate(); verr != nil {
			return cur
		}
		return next
	})
	return verr
}

// SwitchView replaces the whole view state with v.
func (g *Grid) SwitchView(v types.View) error {
	next := viewstate.FromView(v)
	if err := next.Validate(); err != nil {
		return err
	}
	g.views.SwitchView(next)
	return nil
}

// SaveView persists the current view configuration. The search query is not
// saved.
func (g *Grid) SaveView(ctx context.Context) error {
	if g.saver == nil {
		return nil
	}
	v := g.State().View()
	if err := g.saver.SaveView(ctx, v); err != nil {
		return fmt.Errorf("saving view %s: %w", v.ViewID, err)
	}
	return nil
}

// Search runs the view's search query against the store and returns one
// result per matching column name and matching visible cell.
func (g *Grid) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if err := g.UpdateView(func(s viewstate.ViewState) viewstate.ViewState { return s.WithSearch(query) }); err != nil {
		return nil, err
	}
	m, err := search.NewMatcher(query)
	if err != nil {
		return nil, err
	}
	if m.Empty() {
		return nil, nil
	}
	state := g.State()
	page, err := g.store.SearchRows(ctx, types.SearchRequest{
		TableID: state.TableID,
		Query:   query,
		Limit:   limit,
		Sort:    state.Sort,
		Filters: state.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("searching table %s: %w", state.TableID, err)
	}
	cols := make([]types.Column, 0)
	for _, c := range g.VisibleColumns() {
		cols = append(cols, types.Column{ColumnID: c.ID.Value(), Name: c.Name, Type: c.Type, Order: c.Order})
	}
	return search.Collect(m, cols, page.Rows), nil
}
