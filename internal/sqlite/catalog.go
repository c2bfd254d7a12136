package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// CreateBase creates an empty base.
func (b *Backend) CreateBase(ctx context.Context, name string) (*types.Base, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	base := &types.Base{BaseID: generateUUID(), Name: name}
	created := now()
	base.CreatedAt = parseTime(created)
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bases (base_id, name, created_at) VALUES (?, ?, ?)`,
			base.BaseID, base.Name, created)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating base: %w", err)
	}
	return base, nil
}

// ListBases returns every base, oldest first.
func (b *Backend) ListBases(ctx context.Context) ([]types.Base, error) {
	db, release, err := b.reader()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx, `SELECT base_id, name, created_at FROM bases ORDER BY created_at, base_id`)
	if err != nil {
		return nil, fmt.Errorf("listing bases: %w", err)
	}
	defer rows.Close()

	var out []types.Base
	for rows.Next() {
		var bs types.Base
		var created string
		if err := rows.Scan(&bs.BaseID, &bs.Name, &created); err != nil {
			return nil, fmt.Errorf("scanning base: %w", err)
		}
		bs.CreatedAt = parseTime(created)
		out = append(out, bs)
	}
	return out, rows.Err()
}

// DeleteBase removes a base with all its tables.
func (b *Backend) DeleteBase(ctx context.Context, baseID string) error {
	if baseID == "" {
		return types.ErrInvalidID
	}
	return b.inTx(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx, `DELETE FROM bases WHERE base_id = ?`, baseID)
	})
}

// execOne runs a statement that must affect exactly one row.
func execOne(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Default contents of a new table.
const (
	DefaultPrimaryColumn = "Name"
	DefaultNotesColumn   = "Notes"
	DefaultViewName      = "Grid view"
)

// CreateTable adds a table after the base's last table, seeded with a
// primary Name column, a Notes column and a default grid view.
func (b *Backend) CreateTable(ctx context.Context, baseID, name string) (*types.Table, error) {
	if baseID == "" {
		return nil, types.ErrInvalidID
	}
	if name == "" {
		return nil, types.ErrInvalidName
	}
	t := &types.Table{TableID: generateUUID(), BaseID: baseID, Name: name}
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bases WHERE base_id = ?`, baseID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("base %s: %w", baseID, types.ErrNotFound)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(ord) + 1, 0) FROM tables WHERE base_id = ?`, baseID).Scan(&t.Order); err != nil {
			return err
		}
		created := now()
		t.CreatedAt = parseTime(created)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tables (table_id, base_id, name, ord, created_at) VALUES (?, ?, ?, ?, ?)`,
			t.TableID, baseID, name, t.Order, created); err != nil {
			return err
		}
		return seedTable(ctx, tx, t.TableID)
	})
	if err != nil {
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return t, nil
}

// ListTables returns the tables of a base in order.
func (b *Backend) ListTables(ctx context.Context, baseID string) ([]types.Table, error) {
	db, release, err := b.reader()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx,
		`SELECT table_id, base_id, name, ord, created_at FROM tables WHERE base_id = ? ORDER BY ord`, baseID)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var out []types.Table
	for rows.Next() {
		var t types.Table
		var created string
		if err := rows.Scan(&t.TableID, &t.BaseID, &t.Name, &t.Order, &created); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		t.CreatedAt = parseTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

// RenameTable changes a table's name.
func (b *Backend) RenameTable(ctx context.Context, tableID, name string) (*types.Table, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	var t types.Table
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if err := execOne(ctx, tx, `UPDATE tables SET name = ? WHERE table_id = ?`, name, tableID); err != nil {
			return err
		}
		var created string
		if err := tx.QueryRowContext(ctx,
			`SELECT table_id, base_id, name, ord, created_at FROM tables WHERE table_id = ?`, tableID).
			Scan(&t.TableID, &t.BaseID, &t.Name, &t.Order, &created); err != nil {
			return err
		}
		t.CreatedAt = parseTime(created)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("renaming table %s: %w", tableID, err)
	}
	return &t, nil
}

// DeleteTable removes a table with its columns, rows and views. The last
// table of a base cannot be deleted.
func (b *Backend) DeleteTable(ctx context.Context, baseID, tableID string) error {
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tables WHERE base_id = ?`, baseID).Scan(&n); err != nil {
			return err
		}
		if n <= 1 {
			var exists int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM tables WHERE base_id = ? AND table_id = ?`, baseID, tableID).Scan(&exists); err != nil {
				return err
			}
			if exists == 0 {
				return types.ErrNotFound
			}
			return types.ErrLastTable
		}
		return execOne(ctx, tx, `DELETE FROM tables WHERE base_id = ? AND table_id = ?`, baseID, tableID)
	})
	if err != nil {
		return fmt.Errorf("deleting table %s: %w", tableID, err)
	}
	return nil
}

// CreateView adds an unsorted, unfiltered view to a table.
func (b *Backend) CreateView(ctx context.Context, tableID, name string) (*types.View, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	var v *types.View
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireTable(ctx, tx, tableID); err != nil {
			return err
		}
		var err error
		v, err = insertView(ctx, tx, tableID, name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating view: %w", err)
	}
	return v, nil
}

func insertView(ctx context.Context, tx *sql.Tx, tableID, name string) (*types.View, error) {
	var ord int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(ord) + 1, 0) FROM views WHERE table_id = ?`, tableID).Scan(&ord); err != nil {
		return nil, err
	}
	v := &types.View{ViewID: generateUUID(), TableID: tableID, Name: name}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO views (view_id, table_id, name, ord) VALUES (?, ?, ?, ?)`,
		v.ViewID, tableID, name, ord); err != nil {
		return nil, err
	}
	return v, nil
}

func requireTable(ctx context.Context, tx *sql.Tx, tableID string) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tables WHERE table_id = ?`, tableID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("table %s: %w", tableID, types.ErrNotFound)
	}
	return nil
}

const viewColumns = `view_id, table_id, name, sort, filters, hidden`

func scanView(scan func(dest ...any) error) (types.View, error) {
	var v types.View
	var sortJSON, filtersJSON, hiddenJSON string
	if err := scan(&v.ViewID, &v.TableID, &v.Name, &sortJSON, &filtersJSON, &hiddenJSON); err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(sortJSON), &v.Sort); err != nil {
		return v, fmt.Errorf("decoding sort of view %s: %w", v.ViewID, err)
	}
	if err := json.Unmarshal([]byte(filtersJSON), &v.Filters); err != nil {
		return v, fmt.Errorf("decoding filters of view %s: %w", v.ViewID, err)
	}
	if err := json.Unmarshal([]byte(hiddenJSON), &v.Hidden); err != nil {
		return v, fmt.Errorf("decoding hidden fields of view %s: %w", v.ViewID, err)
	}
	return v, nil
}

// ListViews returns a table's views in creation order.
func (b *Backend) ListViews(ctx context.Context, tableID string) ([]types.View, error) {
	db, release, err := b.reader()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx,
		`SELECT `+viewColumns+` FROM views WHERE table_id = ? ORDER BY ord`, tableID)
	if err != nil {
		return nil, fmt.Errorf("listing views: %w", err)
	}
	defer rows.Close()

	var out []types.View
	for rows.Next() {
		v, err := scanView(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetView returns one view.
func (b *Backend) GetView(ctx context.Context, viewID string) (*types.View, error) {
	db, release, err := b.reader()
	if err != nil {
		return nil, err
	}
	defer release()

	v, err := scanView(db.QueryRowContext(ctx, `SELECT `+viewColumns+` FROM views WHERE view_id = ?`, viewID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("view %s: %w", viewID, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func marshalList[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveView stores the view's name, sort rules, filter rules and hidden
// fields. The search query is not persisted.
func (b *Backend) SaveView(ctx context.Context, view types.View) error {
	if err := view.Validate(); err != nil {
		return err
	}
	sortJSON, err := marshalList(view.Sort)
	if err != nil {
		return err
	}
	filtersJSON, err := marshalList(view.Filters)
	if err != nil {
		return err
	}
	hiddenJSON, err := marshalList(view.Hidden)
	if err != nil {
		return err
	}
	err = b.inTx(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx,
			`UPDATE views SET name = ?, sort = ?, filters = ?, hidden = ? WHERE view_id = ?`,
			view.Name, sortJSON, filtersJSON, hiddenJSON, view.ViewID)
	})
	if err != nil {
		return fmt.Errorf("saving view %s: %w", view.ViewID, err)
	}
	return nil
}

// DeleteView removes a view. A table's last view cannot be deleted.
func (b *Backend) DeleteView(ctx context.Context, tableID, viewID string) error {
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM views WHERE table_id = ?`, tableID).Scan(&n); err != nil {
			return err
		}
		if n <= 1 {
			var exists int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM views WHERE table_id = ? AND view_id = ?`, tableID, viewID).Scan(&exists); err != nil {
				return err
			}
			if exists == 0 {
				return types.ErrNotFound
			}
			return types.ErrLastView
		}
		return execOne(ctx, tx, `DELETE FROM views WHERE table_id = ? AND view_id = ?`, tableID, viewID)
	})
	if err != nil {
		return fmt.Errorf("deleting view %s: %w", viewID, err)
	}
	return nil
}
