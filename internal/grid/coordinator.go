package grid

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/gridbase/internal/optimistic"
	"github.com/mesh-intelligence/gridbase/internal/viewstate"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Coordinator owns the page cache of one grid. It issues page fetches,
// merges their results into immutable frames and discards results for a
// signature or fetch that is no longer current.
//
// Coordinator implements optimistic.Entry[*Frame]; the mutation layer writes
// through Update and Restore.
type Coordinator struct {
	store types.Store
	work  *workers
	log   *zap.Logger
	ctx   context.Context

	mu      sync.Mutex
	state   viewstate.ViewState
	viewSeq uint64
	frame   *Frame
	rev     uint64
	token   uint64

	// resized runs after a fetch changed the total, so the caller can
	// request the pages that became part of the visible range.
	resized func()

	layer  *optimistic.Layer[*Frame]
	notify chan struct{}
}

func newCoordinator(ctx context.Context, store types.Store, work *workers, log *zap.Logger, state viewstate.ViewState, pageSize int) *Coordinator {
	c := &Coordinator{
		store:  store,
		work:   work,
		log:    log,
		ctx:    ctx,
		state:  state,
		frame:  newFrame(state.Signature(), pageSize),
		notify: make(chan struct{}, 1),
	}
	c.layer = optimistic.NewLayer[*Frame](c, log)
	return c
}

// Frame returns the current frame.
func (c *Coordinator) Frame() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// State returns the view state pages are fetched under.
func (c *Coordinator) State() viewstate.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Changes delivers a value after the frame changed. Notifications coalesce.
func (c *Coordinator) Changes() <-chan struct{} { return c.notify }

func (c *Coordinator) changed() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Update implements optimistic.Entry.
func (c *Coordinator) Update(fn func(*Frame) *Frame) (*Frame, uint64) {
	c.mu.Lock()
	prev := c.frame
	c.frame = fn(prev)
	c.rev++
	rev := c.rev
	c.mu.Unlock()
	c.changed()
	return prev, rev
}

// Restore implements optimistic.Entry.
func (c *Coordinator) Restore(rev uint64, v *Frame) bool {
	c.mu.Lock()
	if c.rev != rev {
		c.mu.Unlock()
		return false
	}
	c.frame = v
	c.rev++
	c.mu.Unlock()
	c.changed()
	return true
}

// Reset switches the coordinator to the state of ch. A change older than
// one already applied is ignored, since subscribers may be notified out of
// order. When the signature changes every cached page is evicted; columns
// carry over until the first response for the new signature replaces them,
// and the total is unknown until then. It reports whether ch was applied.
func (c *Coordinator) Reset(ch viewstate.Change) bool {
	state := ch.New
	sig := state.Signature()
	c.mu.Lock()
	if ch.Seq < c.viewSeq {
		c.mu.Unlock()
		c.log.Debug("ignoring out-of-order view change", zap.Uint64("seq", ch.Seq))
		return false
	}
	c.viewSeq = ch.Seq
	c.state = state
	old := c.frame
	if old.sig == sig {
		c.mu.Unlock()
		return true
	}
	next := newFrame(sig, old.pageSize)
	next.columns = old.columns
	c.frame = c.layer.Overlay(next)
	c.rev++
	c.mu.Unlock()

	c.log.Debug("page cache reset", zap.String("table", state.TableID), zap.String("signature", string(sig)))
	c.changed()
	return true
}

type fetchJob struct {
	sig   viewstate.Signature
	page  int
	token uint64
	req   types.PageRequest
}

// Ensure makes sure every page in pages is cached or being fetched. Pages
// that are missing, failed or stale get a new fetch; pages already in flight
// are left alone. Ensure never blocks on the store.
func (c *Coordinator) Ensure(pages []int) {
	if len(pages) == 0 {
		return
	}
	c.mu.Lock()
	next := c.frame
	var jobs []fetchJob
	for _, p := range pages {
		s, ok := next.Slot(p)
		if ok && s.State != SlotFailed && !s.Stale {
			continue
		}
		c.token++
		s.Page, s.State, s.Token, s.Stale = p, SlotFetching, c.token, false
		next = next.withSlot(s)
		jobs = append(jobs, fetchJob{
			sig:   next.sig,
			page:  p,
			token: c.token,
			req: types.PageRequest{
				TableID:  c.state.TableID,
				ViewID:   c.state.ViewID,
				Page:     p,
				PageSize: next.pageSize,
				Sort:     c.state.Sort,
				Filters:  c.state.Filters,
			},
		})
	}
	if len(jobs) > 0 {
		c.frame = next
		c.rev++
	}
	c.mu.Unlock()

	for _, j := range jobs {
		j := j
		c.work.submit(func() { c.fetch(j) })
	}
	if len(jobs) > 0 {
		c.changed()
	}
}

// Refetch marks every cached page stale. Stale pages stay visible and are
// fetched again by the next Ensure that covers them.
func (c *Coordinator) Refetch() {
	c.mu.Lock()
	next := c.frame.clone()
	for _, s := range next.Slots() {
		s.Stale = true
		next.slots.Set(s)
	}
	c.frame = next
	c.rev++
	c.mu.Unlock()
	c.changed()
}

func (c *Coordinator) fetch(j fetchJob) {
	res, err := c.store.GetPaginatedRows(c.ctx, j.req)
	if err != nil {
		c.log.Warn("page fetch failed",
			zap.String("table", j.req.TableID),
			zap.Int("page", j.page),
			zap.Error(err))
	}
	c.install(j, res, err)
}

// install merges a fetch result into the current frame. Results for an old
// signature, or for a fetch that was superseded by a newer one of the same
// page, are dropped.
func (c *Coordinator) install(j fetchJob, res *types.PageResult, err error) {
	c.mu.Lock()
	f := c.frame
	s, ok := f.Slot(j.page)
	if f.sig != j.sig || !ok || s.Token != j.token {
		c.mu.Unlock()
		c.log.Debug("discarding page result",
			zap.Int("page", j.page),
			zap.Bool("signature_changed", f.sig != j.sig))
		return
	}

	if err != nil || res == nil {
		s.State = SlotFailed
		c.frame = f.withSlot(s)
		c.rev++
		c.mu.Unlock()
		c.changed()
		return
	}

	rows := make([]Row, 0, len(res.Rows))
	for _, r := range res.Rows {
		rows = append(rows, rowFromStore(r))
	}
	s.State, s.Rows, s.Loaded, s.Removed = SlotReady, rows, true, 0
	next := f.withSlot(s)
	if len(res.Schema.Columns) > 0 {
		next.columns = columnsFromSchema(res.Schema)
	}
	if t := res.Pagination.TotalRows; t != nil {
		next.total, next.totalKnown = *t, true
		next.appended = pendingOnly(next.appended)
	} else if !next.totalKnown {
		est := j.page*next.pageSize + len(rows)
		if res.Pagination.HasMore {
			est += next.pageSize
		}
		if est > next.total {
			next.total = est
		}
	}
	next = c.layer.Overlay(next)
	totalChanged := next.total != f.total || next.totalKnown != f.totalKnown
	c.frame = next
	c.rev++
	c.mu.Unlock()
	c.changed()
	if totalChanged && c.resized != nil {
		c.resized()
	}
}

// pendingOnly drops appended rows the store already confirmed; a fresh total
// counts them.
func pendingOnly(rows []Row) []Row {
	var out []Row
	for _, r := range rows {
		if r.ID.Temporary() {
			out = append(out, r)
		}
	}
	return out
}
