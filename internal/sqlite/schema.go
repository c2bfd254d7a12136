package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL. Rows and columns carry an integer ord giving their total order
// within a table; row ord is the final tie-break of every sorted query.
const (
	createBases = `CREATE TABLE IF NOT EXISTS bases (
    base_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createTables = `CREATE TABLE IF NOT EXISTS tables (
    table_id TEXT PRIMARY KEY,
    base_id TEXT NOT NULL REFERENCES bases(base_id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    ord INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createColumns = `CREATE TABLE IF NOT EXISTS columns (
    column_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL REFERENCES tables(table_id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    ord INTEGER NOT NULL,
    UNIQUE (table_id, ord)
);`

	createRows = `CREATE TABLE IF NOT EXISTS grid_rows (
    row_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL REFERENCES tables(table_id) ON DELETE CASCADE,
    ord INTEGER NOT NULL
);`

	createCells = `CREATE TABLE IF NOT EXISTS cells (
    cell_id TEXT PRIMARY KEY,
    row_id TEXT NOT NULL REFERENCES grid_rows(row_id) ON DELETE CASCADE,
    column_id TEXT NOT NULL REFERENCES columns(column_id) ON DELETE CASCADE,
    value TEXT NOT NULL,
    UNIQUE (row_id, column_id)
);`

	createViews = `CREATE TABLE IF NOT EXISTS views (
    view_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL REFERENCES tables(table_id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    ord INTEGER NOT NULL,
    sort TEXT NOT NULL DEFAULT '[]',
    filters TEXT NOT NULL DEFAULT '[]',
    hidden TEXT NOT NULL DEFAULT '[]'
);`
)

// Index DDL.
const (
	indexTablesBase  = `CREATE INDEX IF NOT EXISTS idx_tables_base ON tables(base_id, ord);`
	indexRowsTable   = `CREATE INDEX IF NOT EXISTS idx_rows_table ON grid_rows(table_id, ord);`
	indexCellsColumn = `CREATE INDEX IF NOT EXISTS idx_cells_column ON cells(column_id);`
	indexViewsTable  = `CREATE INDEX IF NOT EXISTS idx_views_table ON views(table_id, ord);`
)

var schemaStatements = []string{
	"PRAGMA foreign_keys = ON",
	createBases,
	createTables,
	createColumns,
	createRows,
	createCells,
	createViews,
	indexTablesBase,
	indexRowsTable,
	indexCellsColumn,
	indexViewsTable,
}

func applySchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
