package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// loadColumns returns a table's columns in order. It reports ErrNotFound
// for an unknown table.
func loadColumns(ctx context.Context, q querier, tableID string) ([]types.Column, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tables WHERE table_id = ?`, tableID).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("table %s: %w", tableID, types.ErrNotFound)
	}
	rows, err := q.QueryContext(ctx,
		`SELECT column_id, table_id, name, type, ord FROM columns WHERE table_id = ? ORDER BY ord`, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Column
	for rows.Next() {
		var c types.Column
		if err := rows.Scan(&c.ColumnID, &c.TableID, &c.Name, &c.Type, &c.Order); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// querier is the read surface shared by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListColumns returns a table's columns in display order.
func (b *Backend) ListColumns(ctx context.Context, tableID string) ([]types.Column, error) {
	db, release, err := b.reader()
	if err != nil {
		return nil, err
	}
	defer release()
	return loadColumns(ctx, db, tableID)
}

func getColumn(ctx context.Context, q querier, columnID string) (*types.Column, error) {
	var c types.Column
	err := q.QueryRowContext(ctx,
		`SELECT column_id, table_id, name, type, ord FROM columns WHERE column_id = ?`, columnID).
		Scan(&c.ColumnID, &c.TableID, &c.Name, &c.Type, &c.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("column %s: %w", columnID, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateColumn renames a column.
func (b *Backend) UpdateColumn(ctx context.Context, columnID, name string) (*types.Column, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	var c *types.Column
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if err := execOne(ctx, tx, `UPDATE columns SET name = ? WHERE column_id = ?`, name, columnID); err != nil {
			return fmt.Errorf("column %s: %w", columnID, err)
		}
		var err error
		c, err = getColumn(ctx, tx, columnID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating column: %w", err)
	}
	return c, nil
}

// AddColumn appends a column after the table's last one. An empty name
// selects "Field N"; an empty type selects text.
func (b *Backend) AddColumn(ctx context.Context, tableID, name, columnType string) (*types.Column, error) {
	if columnType == "" {
		columnType = types.ColumnText
	}
	if !types.ValidColumnType(columnType) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidColumnType, columnType)
	}
	c := &types.Column{ColumnID: generateUUID(), TableID: tableID, Name: name, Type: columnType}
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireTable(ctx, tx, tableID); err != nil {
			return err
		}
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(ord) + 1, 0), COUNT(*) FROM columns WHERE table_id = ?`, tableID).
			Scan(&c.Order, &count); err != nil {
			return err
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("Field %d", count+1)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO columns (column_id, table_id, name, type, ord) VALUES (?, ?, ?, ?, ?)`,
			c.ColumnID, tableID, c.Name, c.Type, c.Order)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("adding column: %w", err)
	}
	return c, nil
}

// DeleteColumn removes a column and its cells, and drops the column from
// the sort, filter and hidden lists of the table's views. The primary
// column cannot be deleted.
func (b *Backend) DeleteColumn(ctx context.Context, tableID, columnID string) error {
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		cols, err := loadColumns(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if p, ok := (types.TableSchema{Columns: cols}).Primary(); ok && p.ColumnID == columnID {
			return types.ErrPrimaryColumn
		}
		if err := execOne(ctx, tx, `DELETE FROM columns WHERE table_id = ? AND column_id = ?`, tableID, columnID); err != nil {
			return fmt.Errorf("column %s: %w", columnID, err)
		}
		return dropColumnFromViews(ctx, tx, tableID, columnID)
	})
	if err != nil {
		return fmt.Errorf("deleting column: %w", err)
	}
	return nil
}

func dropColumnFromViews(ctx context.Context, tx *sql.Tx, tableID, columnID string) error {
	rows, err := tx.QueryContext(ctx, `SELECT `+viewColumns+` FROM views WHERE table_id = ?`, tableID)
	if err != nil {
		return err
	}
	var views []types.View
	for rows.Next() {
		v, err := scanView(rows.Scan)
		if err != nil {
			rows.Close()
			return err
		}
		views = append(views, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, v := range views {
		var sorts []types.SortRule
		for _, r := range v.Sort {
			if r.ColumnID != columnID {
				sorts = append(sorts, r)
			}
		}
		var filters []types.FilterRule
		for _, r := range v.Filters {
			if r.ColumnID != columnID {
				filters = append(filters, r)
			}
		}
		var hidden []string
		for _, h := range v.Hidden {
			if h != columnID {
				hidden = append(hidden, h)
			}
		}
		if len(sorts) == len(v.Sort) && len(filters) == len(v.Filters) && len(hidden) == len(v.Hidden) {
			continue
		}
		sortJSON, err := marshalList(sorts)
		if err != nil {
			return err
		}
		filtersJSON, err := marshalList(filters)
		if err != nil {
			return err
		}
		hiddenJSON, err := marshalList(hidden)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE views SET sort = ?, filters = ?, hidden = ? WHERE view_id = ?`,
			sortJSON, filtersJSON, hiddenJSON, v.ViewID); err != nil {
			return err
		}
	}
	return nil
}
