package grid

import (
	"sort"

	"github.com/tidwall/btree"

	"github.com/mesh-intelligence/gridbase/internal/viewstate"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Column is a field as the grid displays it.
type Column struct {
	ID    ID
	Name  string
	Type  string
	Order int
}

// Row is one displayed record. Values is keyed by column ID; a missing key
// reads as "". Rows are treated as immutable: edits build a new Row.
type Row struct {
	ID     ID
	Order  int
	Values map[ID]string
}

// Value returns the value of column col.
func (r Row) Value(col ID) string { return r.Values[col] }

func (r Row) with(col ID, v string) Row {
	vals := make(map[ID]string, len(r.Values)+1)
	for k, val := range r.Values {
		vals[k] = val
	}
	vals[col] = v
	r.Values = vals
	return r
}

func (r Row) without(col ID) Row {
	if _, ok := r.Values[col]; !ok {
		return r
	}
	vals := make(map[ID]string, len(r.Values))
	for k, val := range r.Values {
		if k != col {
			vals[k] = val
		}
	}
	r.Values = vals
	return r
}

// rename rewrites every occurrence of column ID from to to.
func (r Row) renameColumn(from, to ID) Row {
	v, ok := r.Values[from]
	if !ok {
		return r
	}
	return r.without(from).with(to, v)
}

func rowFromStore(r types.Row) Row {
	vals := make(map[ID]string, len(r.Cells))
	for _, c := range r.Cells {
		vals[ConfirmedID(c.ColumnID)] = c.Value
	}
	return Row{ID: ConfirmedID(r.RowID), Order: r.Order, Values: vals}
}

func columnsFromSchema(s types.TableSchema) []Column {
	cols := make([]Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		cols = append(cols, Column{ID: ConfirmedID(c.ColumnID), Name: c.Name, Type: c.Type, Order: c.Order})
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Order < cols[j].Order })
	return cols
}

// SlotState is the load state of one page.
type SlotState int

const (
	SlotFetching SlotState = iota
	SlotReady
	SlotFailed
)

func (s SlotState) String() string {
	switch s {
	case SlotFetching:
		return "fetching"
	case SlotReady:
		return "ready"
	case SlotFailed:
		return "failed"
	}
	return "unknown"
}

// Slot is the cache entry of one page under one signature.
type Slot struct {
	Page  int
	State SlotState

	// Token identifies the fetch that owns the slot; results carrying any
	// other token are discarded.
	Token uint64

	// Rows is the last successfully fetched content. Loaded is false until
	// one fetch succeeded.
	Rows   []Row
	Loaded bool

	// Stale marks a ready page that must be fetched again. Its rows stay
	// visible until the new result arrives.
	Stale bool

	// Removed counts rows taken out of Rows locally since the fetch. Rows of
	// later pages move up by that many dense indices.
	Removed int
}

func slotLess(a, b Slot) bool { return a.Page < b.Page }

// Frame is an immutable snapshot of everything the grid displays for one
// signature. Writers build a new Frame; readers may keep one indefinitely.
type Frame struct {
	sig      viewstate.Signature
	pageSize int
	columns  []Column
	slots    *btree.BTreeG[Slot]

	// total is the stable total from the last response that carried one.
	total      int
	totalKnown bool

	// appended holds rows added locally that no fetched total accounts for
	// yet. They display after the last stored row.
	appended []Row
}

func newFrame(sig viewstate.Signature, pageSize int) *Frame {
	return &Frame{sig: sig, pageSize: pageSize, slots: btree.NewBTreeG(slotLess)}
}

// clone returns a shallow copy sharing structure with f; the slot tree is
// copied lazily on write.
func (f *Frame) clone() *Frame {
	next := *f
	next.slots = f.slots.Copy()
	return &next
}

// Signature returns the view signature the frame caches pages for.
func (f *Frame) Signature() viewstate.Signature { return f.sig }

// PageSize returns the number of rows per page.
func (f *Frame) PageSize() int { return f.pageSize }

// Columns returns all columns in display order.
func (f *Frame) Columns() []Column { return f.columns }

// Column returns the column with id.
func (f *Frame) Column(id ID) (Column, bool) {
	for _, c := range f.columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// Total returns the row count to lay the grid out with. known is false
// until a response carried a count; the total is then an estimate.
func (f *Frame) Total() (total int, known bool) {
	return f.total + len(f.appended), f.totalKnown
}

// Slot returns the cache entry of page.
func (f *Frame) Slot(page int) (Slot, bool) {
	return f.slots.Get(Slot{Page: page})
}

// Slots returns every cached page in page order.
func (f *Frame) Slots() []Slot {
	out := make([]Slot, 0, f.slots.Len())
	f.slots.Scan(func(s Slot) bool {
		out = append(out, s)
		return true
	})
	return out
}

func (f *Frame) withSlot(s Slot) *Frame {
	next := f.clone()
	next.slots.Set(s)
	return next
}

func (f *Frame) withColumns(cols []Column) *Frame {
	next := f.clone()
	next.columns = cols
	return next
}

// mapRows returns a frame in which every row (cached or appended) is
// replaced by fn(row). Rows for which keep is false are removed. f is
// returned unchanged when fn changed nothing.
func (f *Frame) mapRows(fn func(Row) (next Row, keep, changed bool)) *Frame {
	var next *Frame
	ensure := func() {
		if next == nil {
			next = f.clone()
		}
	}
	for _, s := range f.Slots() {
		rows, removed, changed := mapSlice(s.Rows, fn)
		if changed {
			ensure()
			s.Rows = rows
			s.Removed += removed
			next.slots.Set(s)
			next.total -= removed
		}
	}
	if rows, _, changed := mapSlice(f.appended, fn); changed {
		ensure()
		next.appended = rows
	}
	if next == nil {
		return f
	}
	if next.total < 0 {
		next.total = 0
	}
	return next
}

func mapSlice(rows []Row, fn func(Row) (Row, bool, bool)) (out []Row, removed int, changed bool) {
	for i, r := range rows {
		nr, keep, ch := fn(r)
		if !ch && keep {
			if changed {
				out = append(out, r)
			}
			continue
		}
		if !changed {
			changed = true
			out = make([]Row, i, len(rows))
			copy(out, rows[:i])
		}
		if keep {
			out = append(out, nr)
		} else {
			removed++
		}
	}
	if !changed {
		return rows, 0, false
	}
	return out, removed, true
}

// removed returns the number of rows removed locally from cached pages.
func (f *Frame) removed() int {
	n := 0
	f.slots.Scan(func(s Slot) bool {
		n += s.Removed
		return true
	})
	return n
}

// find returns the dense index and content of the row with id.
func (f *Frame) find(id ID) (int, Row, bool) {
	idx, row, found := -1, Row{}, false
	shift := 0
	f.slots.Scan(func(s Slot) bool {
		start := s.Page*f.pageSize - shift
		shift += s.Removed
		if !s.Loaded {
			return true
		}
		for i, r := range s.Rows {
			if r.ID == id {
				idx, row, found = start+i, r, true
				return false
			}
		}
		return true
	})
	if found {
		return idx, row, true
	}
	for i, r := range f.appended {
		if r.ID == id {
			return f.total + i, r, true
		}
	}
	return -1, Row{}, false
}
