package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// ImportRows appends the rows of a JSONL export to a table. Cells are
// matched to columns by name; names the table lacks become new text
// columns. Lines that are malformed or not row records are skipped. Loading
// is transactional: either every record is imported or none is.
func (b *Backend) ImportRows(ctx context.Context, tableID, path string) (int, error) {
	raw, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	var records []rowRecord
	for _, line := range raw {
		var rec rowRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.Cells == nil {
			continue
		}
		records = append(records, rec)
	}

	err = b.inTx(ctx, func(tx *sql.Tx) error {
		cols, err := loadColumns(ctx, tx, tableID)
		if err != nil {
			return err
		}
		byName := make(map[string]string, len(cols))
		nextCol := 0
		for _, c := range cols {
			byName[c.Name] = c.ColumnID
			if c.Order >= nextCol {
				nextCol = c.Order + 1
			}
		}
		ord, err := nextRowOrder(ctx, tx, tableID)
		if err != nil {
			return err
		}
		for _, rec := range records {
			rowID := generateUUID()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO grid_rows (row_id, table_id, ord) VALUES (?, ?, ?)`, rowID, tableID, ord); err != nil {
				return err
			}
			ord++
			names := make([]string, 0, len(rec.Cells))
			for name := range rec.Cells {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				value := rec.Cells[name]
				colID, ok := byName[name]
				if !ok {
					if name == "" {
						continue
					}
					colID = generateUUID()
					if _, err := tx.ExecContext(ctx,
						`INSERT INTO columns (column_id, table_id, name, type, ord) VALUES (?, ?, ?, ?, ?)`,
						colID, tableID, name, types.ColumnText, nextCol); err != nil {
						return err
					}
					byName[name] = colID
					nextCol++
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO cells (cell_id, row_id, column_id, value) VALUES (?, ?, ?, ?)`,
					generateUUID(), rowID, colID, value); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("importing into table %s: %w", tableID, err)
	}
	return len(records), nil
}
