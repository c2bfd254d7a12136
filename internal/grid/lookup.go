package grid

// Item is the content at one dense row index. Pending is true while the page
// holding the row has not been loaded; Row is then the zero value.
type Item struct {
	Index   int
	Row     Row
	Pending bool
}

// RowAt returns the item at dense row index i, merging every cached page
// of the frame into one continuous index. Rows removed locally from a page
// close up the index: the following pages start that many rows earlier.
func (f *Frame) RowAt(i int) Item {
	if i < 0 || f.pageSize <= 0 {
		return Item{Index: i, Pending: true}
	}
	if i >= f.total {
		if j := i - f.total; j < len(f.appended) {
			return Item{Index: i, Row: f.appended[j]}
		}
		return Item{Index: i, Pending: true}
	}
	item := Item{Index: i, Pending: true}
	shift := 0
	f.slots.Scan(func(s Slot) bool {
		start := s.Page*f.pageSize - shift
		if i < start {
			return false
		}
		shift += s.Removed
		if s.Loaded && i < start+len(s.Rows) {
			item = Item{Index: i, Row: s.Rows[i-start]}
			return false
		}
		return true
	})
	return item
}

// Rows returns the items for the inclusive index range [lo, hi]. It never
// returns nil rows; uncached indices come back Pending.
func (f *Frame) Rows(lo, hi int) []Item {
	if hi < lo {
		return nil
	}
	out := make([]Item, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, f.RowAt(i))
	}
	return out
}
