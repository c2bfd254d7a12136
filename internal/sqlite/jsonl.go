package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// rowRecord is one line of a row export. Cells are keyed by column name so
// an export can be imported into another table.
type rowRecord struct {
	RowID string            `json:"row_id"`
	Order int               `json:"order"`
	Cells map[string]string `json:"cells"`
}

// readJSONL returns each non-empty, well-formed line of a JSONL file.
// Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		records = append(records, append(json.RawMessage(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL writes one JSON document per line to path. The file is written
// to a temporary sibling, synced and renamed into place, so readers see
// either the old or the new content.
func writeJSONL[T any](path string, records []T) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ExportRows writes every row of a table, in stored order, to path as
// JSONL. It returns the number of rows written.
func (b *Backend) ExportRows(ctx context.Context, tableID, path string) (int, error) {
	db, release, err := b.reader()
	if err != nil {
		return 0, err
	}
	defer release()

	cols, err := loadColumns(ctx, db, tableID)
	if err != nil {
		return 0, err
	}
	names := make(map[string]string, len(cols))
	for _, c := range cols {
		names[c.ColumnID] = c.Name
	}
	rows, _, err := listRows(ctx, db, newRowQuery(tableID), -1, 0)
	if err != nil {
		return 0, err
	}

	records := make([]rowRecord, 0, len(rows))
	for _, r := range rows {
		rec := rowRecord{RowID: r.RowID, Order: r.Order, Cells: make(map[string]string, len(r.Cells))}
		for _, c := range r.Cells {
			if name, ok := names[c.ColumnID]; ok {
				rec.Cells[name] = c.Value
			}
		}
		records = append(records, rec)
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, fmt.Errorf("exporting table %s: %w", tableID, err)
	}
	return len(records), nil
}
