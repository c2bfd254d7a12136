package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// UpdateCell sets the value at (rowID, columnID), creating the cell when the
// row has none for that column.
func (b *Backend) UpdateCell(ctx context.Context, tableID, rowID, columnID, value string) (*types.Cell, error) {
	var cell types.Cell
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM grid_rows WHERE row_id = ? AND table_id = ?) +
			        (SELECT COUNT(*) FROM columns WHERE column_id = ? AND table_id = ?)`,
			rowID, tableID, columnID, tableID).Scan(&n); err != nil {
			return err
		}
		if n != 2 {
			return fmt.Errorf("cell (%s, %s) in table %s: %w", rowID, columnID, tableID, types.ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cells (cell_id, row_id, column_id, value) VALUES (?, ?, ?, ?)
			 ON CONFLICT (row_id, column_id) DO UPDATE SET value = excluded.value`,
			generateUUID(), rowID, columnID, value); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`SELECT cell_id, row_id, column_id, value FROM cells WHERE row_id = ? AND column_id = ?`,
			rowID, columnID).Scan(&cell.CellID, &cell.RowID, &cell.ColumnID, &cell.Value)
	})
	if err != nil {
		return nil, fmt.Errorf("updating cell: %w", err)
	}
	return &cell, nil
}

func nextRowOrder(ctx context.Context, tx *sql.Tx, tableID string) (int, error) {
	var ord int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(ord) + 1, 0) FROM grid_rows WHERE table_id = ?`, tableID).Scan(&ord)
	return ord, err
}

// AddRow appends an empty row.
func (b *Backend) AddRow(ctx context.Context, tableID string) (*types.Row, error) {
	r := &types.Row{RowID: generateUUID()}
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireTable(ctx, tx, tableID); err != nil {
			return err
		}
		var err error
		if r.Order, err = nextRowOrder(ctx, tx, tableID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO grid_rows (row_id, table_id, ord) VALUES (?, ?, ?)`, r.RowID, tableID, r.Order)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("adding row: %w", err)
	}
	return r, nil
}

// DeleteRow removes a row and its cells.
func (b *Backend) DeleteRow(ctx context.Context, tableID, rowID string) error {
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx, `DELETE FROM grid_rows WHERE table_id = ? AND row_id = ?`, tableID, rowID)
	})
	if err != nil {
		return fmt.Errorf("deleting row %s: %w", rowID, err)
	}
	return nil
}

func rowOrder(ctx context.Context, tx *sql.Tx, tableID, rowID string) (int, error) {
	var ord int
	err := tx.QueryRowContext(ctx,
		`SELECT ord FROM grid_rows WHERE table_id = ? AND row_id = ?`, tableID, rowID).Scan(&ord)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("row %s: %w", rowID, types.ErrNotFound)
	}
	return ord, err
}

// ReorderRows swaps the order values of two rows of a table. The view does
// not change the stored order; it is accepted so callers can pass the view
// the swap was made in.
func (b *Backend) ReorderRows(ctx context.Context, tableID, viewID, aRowID, bRowID string) error {
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		a, err := rowOrder(ctx, tx, tableID, aRowID)
		if err != nil {
			return err
		}
		bo, err := rowOrder(ctx, tx, tableID, bRowID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE grid_rows SET ord = ? WHERE row_id = ?`, bo, aRowID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE grid_rows SET ord = ? WHERE row_id = ?`, a, bRowID)
		return err
	})
	if err != nil {
		return fmt.Errorf("reordering rows: %w", err)
	}
	return nil
}

// MaxBulkRows bounds a single BulkAddRows call.
const MaxBulkRows = 100000

// BulkAddRows appends count empty rows in one transaction and returns how
// many were inserted.
func (b *Backend) BulkAddRows(ctx context.Context, tableID string, count int) (int, error) {
	if count <= 0 || count > MaxBulkRows {
		return 0, fmt.Errorf("%w: %d", types.ErrInvalidCount, count)
	}
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireTable(ctx, tx, tableID); err != nil {
			return err
		}
		ord, err := nextRowOrder(ctx, tx, tableID)
		if err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO grid_rows (row_id, table_id, ord) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := 0; i < count; i++ {
			if _, err := stmt.ExecContext(ctx, generateUUID(), tableID, ord+i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bulk adding rows: %w", err)
	}
	return count, nil
}
