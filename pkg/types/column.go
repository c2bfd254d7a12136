package types

// Column value types. Number columns store numeric text; the value is
// validated and formatted at input time, not stored as a distinct type.
const (
	ColumnText   = "text"
	ColumnNumber = "number"
)

// validColumnTypes is the set of recognized column type tags.
var validColumnTypes = map[string]bool{
	ColumnText:   true,
	ColumnNumber: true,
}

// Column is a field definition. Order is the ordinal position; the column
// with the lowest order is the primary column and cannot be deleted.
type Column struct {
	ColumnID string `json:"column_id"`
	TableID  string `json:"table_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Order    int    `json:"order"`
}

// ValidColumnType reports whether t is a recognized column type tag.
func ValidColumnType(t string) bool {
	return validColumnTypes[t]
}

// TableSchema is the ordered column list a page response carries.
type TableSchema struct {
	Columns []Column `json:"columns"`
}

// Primary returns the column with the lowest order, or false when the schema
// has no columns.
func (s TableSchema) Primary() (Column, bool) {
	if len(s.Columns) == 0 {
		return Column{}, false
	}
	p := s.Columns[0]
	for _, c := range s.Columns[1:] {
		if c.Order < p.Order {
			p = c
		}
	}
	return p, true
}
