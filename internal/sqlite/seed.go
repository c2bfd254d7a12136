package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Names used when seeding an empty database.
const (
	DefaultBaseName  = "My base"
	DefaultTableName = "Table 1"
)

// seedTable gives a new table its primary column, a notes column and the
// default view.
func seedTable(ctx context.Context, tx *sql.Tx, tableID string) error {
	seeds := []struct {
		name string
		typ  string
	}{
		{DefaultPrimaryColumn, types.ColumnText},
		{DefaultNotesColumn, types.ColumnText},
	}
	for i, s := range seeds {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO columns (column_id, table_id, name, type, ord) VALUES (?, ?, ?, ?, ?)`,
			generateUUID(), tableID, s.name, s.typ, i); err != nil {
			return fmt.Errorf("seeding column %s: %w", s.name, err)
		}
	}
	if _, err := insertView(ctx, tx, tableID, DefaultViewName); err != nil {
		return fmt.Errorf("seeding view: %w", err)
	}
	return nil
}

// SeedDefaults creates a base with one table when the database has no
// bases. It returns the first base either way.
func (b *Backend) SeedDefaults(ctx context.Context) (*types.Base, error) {
	bases, err := b.ListBases(ctx)
	if err != nil {
		return nil, err
	}
	if len(bases) > 0 {
		return &bases[0], nil
	}
	base, err := b.CreateBase(ctx, DefaultBaseName)
	if err != nil {
		return nil, err
	}
	if _, err := b.CreateTable(ctx, base.BaseID, DefaultTableName); err != nil {
		return nil, err
	}
	return base, nil
}
