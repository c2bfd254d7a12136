// Package window maps a scroll viewport onto row indices and page indices.
// Every function clamps its inputs, so callers may pass a stale or
// approximate row count while pages are still loading.
package window

// Viewport is the scroll state of a grid with fixed-height rows.
// Offset and Height are in the same unit as RowHeight (pixels for a browser,
// terminal lines for the TUI). Overscan is the number of extra rows rendered
// above and below the visible area.
type Viewport struct {
	Offset    int
	Height    int
	RowHeight int
	Overscan  int
}

// FirstRow returns the index of the first row at least partially visible.
func (v Viewport) FirstRow() int {
	if v.RowHeight <= 0 || v.Offset <= 0 {
		return 0
	}
	return v.Offset / v.RowHeight
}

// VisibleRows returns how many rows fit in the viewport, counting a
// partially visible last row.
func (v Viewport) VisibleRows() int {
	if v.RowHeight <= 0 || v.Height <= 0 {
		return 0
	}
	return (v.Height + v.RowHeight - 1) / v.RowHeight
}

// Range returns the inclusive row range [lo, hi] to render for total rows,
// overscan included. ok is false when there is nothing to render.
func (v Viewport) Range(total int) (lo, hi int, ok bool) {
	if total <= 0 {
		return 0, 0, false
	}
	visible := v.VisibleRows()
	if visible == 0 {
		visible = 1
	}
	overscan := v.Overscan
	if overscan < 0 {
		overscan = 0
	}
	first := v.FirstRow()
	lo = first - overscan
	hi = first + visible - 1 + overscan
	return Clamp(lo, hi, total)
}

// ScrollTo returns the viewport positioned so that row is the first row.
func (v Viewport) ScrollTo(row int) Viewport {
	if row < 0 {
		row = 0
	}
	v.Offset = row * v.RowHeight
	return v
}

// Reveal returns the viewport scrolled by the minimal amount that makes row
// fully visible.
func (v Viewport) Reveal(row int) Viewport {
	visible := v.VisibleRows()
	if v.RowHeight <= 0 || visible == 0 {
		return v
	}
	first := v.FirstRow()
	switch {
	case row < first:
		return v.ScrollTo(row)
	case row >= first+visible:
		return v.ScrollTo(row - visible + 1)
	}
	return v
}

// Clamp intersects [lo, hi] with [0, total-1].
func Clamp(lo, hi, total int) (int, int, bool) {
	if total <= 0 {
		return 0, 0, false
	}
	if lo < 0 {
		lo = 0
	}
	if hi > total-1 {
		hi = total - 1
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// PageCount returns ceil(total/pageSize).
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// PagesFor returns the ordered page indices {floor(lo/P) ... floor(hi/P)}
// intersected with [0, ceil(total/P)-1]. It returns nil for an empty range.
func PagesFor(lo, hi, total, pageSize int) []int {
	count := PageCount(total, pageSize)
	if count == 0 || hi < lo {
		return nil
	}
	if lo < 0 {
		lo = 0
	}
	if hi < 0 {
		return nil
	}
	first := lo / pageSize
	last := hi / pageSize
	if last > count-1 {
		last = count - 1
	}
	if first > last {
		return nil
	}
	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}

// PageOf returns the page index holding row and the row's offset in it.
func PageOf(row, pageSize int) (page, offset int) {
	if pageSize <= 0 || row < 0 {
		return 0, 0
	}
	return row / pageSize, row % pageSize
}
