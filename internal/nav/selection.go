// Package nav tracks the selected cell of a grid and interprets keyboard
// input for navigation and in-place editing.
//
// Selection is a value type: every event method returns the next Selection
// and an Effect the caller acts on (for example, committing a cell value).
package nav

// Mode is the selection state.
type Mode int

const (
	Idle Mode = iota
	Selected
	Editing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Selected:
		return "cell-selected"
	case Editing:
		return "cell-editing"
	}
	return "unknown"
}

// Column describes a visible column for navigation.
type Column struct {
	ID   string
	Type string
}

// Bounds is the navigable grid: the visible columns in display order and
// the total row count.
type Bounds struct {
	Rows    int
	Columns []Column
}

func (b Bounds) empty() bool { return b.Rows <= 0 || len(b.Columns) == 0 }

// Commit is a cell value to write through the mutation layer.
type Commit struct {
	Row      int
	ColumnID string
	Value    string
}

// Effect is what the caller must do after an event.
type Effect struct {
	Commit *Commit

	// Moved is true when the selected cell changed.
	Moved bool
}

// Selection is the cursor state of a grid.
type Selection struct {
	mode Mode
	row  int
	col  int

	// column is true while a header click keeps a whole column selected.
	column bool
	buf    string

	// menu is true while a context menu is open.
	menu bool
}

// Mode returns the current state.
func (s Selection) Mode() Mode { return s.mode }

// Cell returns the selected row and visible column index. ok is false when
// nothing is selected.
func (s Selection) Cell() (row, col int, ok bool) {
	if s.mode == Idle {
		return 0, 0, false
	}
	return s.row, s.col, true
}

// ColumnSelected reports whether a header click selected the whole column,
// and which one.
func (s Selection) ColumnSelected() (int, bool) { return s.col, s.column }

// Buffer returns the edit buffer while editing.
func (s Selection) Buffer() string { return s.buf }

// MenuOpen reports whether a context menu is open.
func (s Selection) MenuOpen() bool { return s.menu }

// Click selects a cell. Any pending edit is committed first, matching blur.
func (s Selection) Click(b Bounds, row, col int) (Selection, Effect) {
	s, eff := s.Blur(b)
	if b.empty() || row < 0 || row >= b.Rows || col < 0 || col >= len(b.Columns) {
		return s, eff
	}
	eff.Moved = s.mode == Idle || s.row != row || s.col != col
	s.mode = Selected
	s.row, s.col = row, col
	s.column = false
	s.menu = false
	return s, eff
}

// DoubleClick selects a cell and starts editing it with current as the
// initial buffer.
func (s Selection) DoubleClick(b Bounds, row, col int, current string) (Selection, Effect) {
	s, eff := s.Click(b, row, col)
	if s.mode == Selected && s.row == row && s.col == col {
		s.mode = Editing
		s.buf = current
	}
	return s, eff
}

// ClickHeader selects the first cell of column col and marks the column as
// selected until another cell is clicked.
func (s Selection) ClickHeader(b Bounds, col int) (Selection, Effect) {
	s, eff := s.Blur(b)
	if col < 0 || col >= len(b.Columns) {
		return s, eff
	}
	s.menu = false
	s.column = true
	s.col = col
	if b.Rows <= 0 {
		s.mode = Idle
		return s, eff
	}
	eff.Moved = s.mode == Idle || s.row != 0
	s.mode = Selected
	s.row = 0
	return s, eff
}

// OpenMenu marks the context menu as open.
func (s Selection) OpenMenu() Selection {
	s.menu = true
	return s
}

// ClickOutside clears the selection and closes any open context menu. A
// pending edit is committed, as for blur.
func (s Selection) ClickOutside(b Bounds) (Selection, Effect) {
	s, eff := s.Blur(b)
	return Selection{}, eff
}

// Blur commits an in-progress edit and returns to cell-selected.
func (s Selection) Blur(b Bounds) (Selection, Effect) {
	if s.mode != Editing {
		return s, Effect{}
	}
	eff := Effect{Commit: s.commit(b)}
	s.mode = Selected
	s.buf = ""
	return s, eff
}

// Clamp keeps the selection inside b after rows or columns disappeared.
func (s Selection) Clamp(b Bounds) Selection {
	if s.mode == Idle {
		return s
	}
	if b.empty() {
		return Selection{}
	}
	if s.row >= b.Rows {
		s.row = b.Rows - 1
	}
	if s.col >= len(b.Columns) {
		s.col = len(b.Columns) - 1
	}
	return s
}

// Key interprets one keyboard event.
func (s Selection) Key(b Bounds, k Key, current string) (Selection, Effect) {
	switch s.mode {
	case Editing:
		return s.editKey(b, k)
	case Selected:
		return s.selectedKey(b, k, current)
	}
	return s, Effect{}
}

func (s Selection) editKey(b Bounds, k Key) (Selection, Effect) {
	switch k.Kind {
	case KeyEnter:
		eff := Effect{Commit: s.commit(b)}
		s.mode = Selected
		s.buf = ""
		if s.row < b.Rows-1 {
			s.row++
			eff.Moved = true
		}
		return s, eff
	case KeyEscape:
		s.mode = Selected
		s.buf = ""
		return s, Effect{}
	case KeyBackspace:
		if r := []rune(s.buf); len(r) > 0 {
			s.buf = string(r[:len(r)-1])
		}
		return s, Effect{}
	case KeyRune:
		if k.Printable() && AcceptsRune(s.columnType(b), k.Rune) {
			s.buf += string(k.Rune)
		}
		return s, Effect{}
	}
	return s, Effect{}
}

func (s Selection) selectedKey(b Bounds, k Key, current string) (Selection, Effect) {
	if b.empty() {
		return s, Effect{}
	}
	row, col := s.row, s.col
	switch k.Kind {
	case KeyUp:
		if row > 0 {
			row--
		}
	case KeyDown:
		if row < b.Rows-1 {
			row++
		}
	case KeyLeft:
		if col > 0 {
			col--
		}
	case KeyRight:
		if col < len(b.Columns)-1 {
			col++
		}
	case KeyHome:
		col = 0
	case KeyEnd:
		col = len(b.Columns) - 1
	case KeyTab:
		col++
		if col >= len(b.Columns) {
			if row < b.Rows-1 {
				col = 0
				row++
			} else {
				col = len(b.Columns) - 1
			}
		}
	case KeyShiftTab:
		col--
		if col < 0 {
			if row > 0 {
				col = len(b.Columns) - 1
				row--
			} else {
				col = 0
			}
		}
	case KeyEnter:
		s.mode = Editing
		s.buf = current
		return s, Effect{}
	case KeyRune:
		if k.Printable() && AcceptsRune(s.columnType(b), k.Rune) {
			s.mode = Editing
			s.buf = string(k.Rune)
		}
		return s, Effect{}
	default:
		return s, Effect{}
	}
	eff := Effect{Moved: row != s.row || col != s.col}
	s.row, s.col = row, col
	return s, eff
}

func (s Selection) columnType(b Bounds) string {
	if s.col < 0 || s.col >= len(b.Columns) {
		return ""
	}
	return b.Columns[s.col].Type
}

func (s Selection) commit(b Bounds) *Commit {
	if s.col < 0 || s.col >= len(b.Columns) || s.row < 0 || s.row >= b.Rows {
		return nil
	}
	c := b.Columns[s.col]
	return &Commit{Row: s.row, ColumnID: c.ID, Value: FormatCommit(c.Type, s.buf)}
}
