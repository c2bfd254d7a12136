package types

import "context"

// PageRequest asks for one page of a table's row sequence under a sort and
// filter configuration. Page is zero-based.
type PageRequest struct {
	TableID  string
	ViewID   string
	Page     int
	PageSize int
	Sort     []SortRule
	Filters  []FilterRule
}

// Pagination describes where a page sits in the full sequence. TotalRows is
// nil when the store did not compute a count for this response.
type Pagination struct {
	Page      int  `json:"page"`
	TotalRows *int `json:"total_rows,omitempty"`
	HasMore   bool `json:"has_more"`
}

// PageResult is one page of rows plus the table's column schema.
type PageResult struct {
	Schema     TableSchema `json:"table_schema"`
	Rows       []Row       `json:"rows"`
	Pagination Pagination  `json:"pagination"`
}

// SearchRequest asks for rows with at least one cell containing any term of
// Query, under the view's sort and filters.
type SearchRequest struct {
	TableID string
	Query   string
	Limit   int
	Offset  int
	Sort    []SortRule
	Filters []FilterRule
}

// SearchPagination describes a window over the matching rows.
type SearchPagination struct {
	TotalMatches int  `json:"total_matches"`
	HasMore      bool `json:"has_more"`
	NextOffset   int  `json:"next_offset"`
}

// SearchPage is one window of search matches.
type SearchPage struct {
	Rows       []Row            `json:"rows"`
	Pagination SearchPagination `json:"pagination"`
}

// Store is the read and mutation contract the grid engine consumes.
// Mutations return ErrNotFound when the table, row or column does not exist.
type Store interface {
	// ListTables returns the tables of a base in order.
	ListTables(ctx context.Context, baseID string) ([]Table, error)

	// GetPaginatedRows returns one page of rows under the request's sort and
	// filter rules, together with the table schema.
	GetPaginatedRows(ctx context.Context, req PageRequest) (*PageResult, error)

	// SearchRows returns rows with a cell matching the query.
	SearchRows(ctx context.Context, req SearchRequest) (*SearchPage, error)

	// UpdateCell sets the value at (rowID, columnID), creating the cell if
	// the row has none for that column.
	UpdateCell(ctx context.Context, tableID, rowID, columnID, value string) (*Cell, error)

	// UpdateColumn renames a column.
	UpdateColumn(ctx context.Context, columnID, name string) (*Column, error)

	// AddColumn appends a column. An empty name selects a generated one; an
	// empty type selects ColumnText.
	AddColumn(ctx context.Context, tableID, name, columnType string) (*Column, error)

	// DeleteColumn removes a column and its cells. Returns ErrPrimaryColumn
	// for the column with the lowest order.
	DeleteColumn(ctx context.Context, tableID, columnID string) error

	// AddRow appends an empty row.
	AddRow(ctx context.Context, tableID string) (*Row, error)

	// DeleteRow removes a row and its cells.
	DeleteRow(ctx context.Context, tableID, rowID string) error

	// ReorderRows swaps the order values of two rows.
	ReorderRows(ctx context.Context, tableID, viewID, aRowID, bRowID string) error

	// BulkAddRows appends count empty rows and returns how many were inserted.
	BulkAddRows(ctx context.Context, tableID string, count int) (int, error)
}
