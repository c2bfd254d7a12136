package types

// Cell holds the single string value at a (row, column) pair.
type Cell struct {
	CellID   string `json:"cell_id"`
	RowID    string `json:"row_id,omitempty"`
	ColumnID string `json:"column_id"`
	Value    string `json:"value"`
}

// Row is an ordered record. Cells lists only the cells the store holds;
// a column without a cell reads as the empty string.
type Row struct {
	RowID string `json:"row_id"`
	Order int    `json:"order"`
	Cells []Cell `json:"cells"`
}

// Value returns the cell value for columnID, or "" when the row has no cell
// for that column.
func (r Row) Value(columnID string) string {
	for _, c := range r.Cells {
		if c.ColumnID == columnID {
			return c.Value
		}
	}
	return ""
}
