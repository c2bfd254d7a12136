package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/gridbase/internal/search"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// DefaultSearchLimit is used when a search request has no limit.
const DefaultSearchLimit = 50

// cellValue is the SQL expression for a row's value in one column; a
// missing cell reads as ”. It takes the column ID as its only argument.
const cellValue = `COALESCE((SELECT value FROM cells WHERE row_id = r.row_id AND column_id = ?), '')`

// rowQuery accumulates the WHERE and ORDER BY clauses of a row listing.
type rowQuery struct {
	where     []string
	whereArgs []any
	order     []string
	orderArgs []any
}

func newRowQuery(tableID string) *rowQuery {
	return &rowQuery{where: []string{"r.table_id = ?"}, whereArgs: []any{tableID}}
}

// filter adds one filter rule. Rules on columns the table does not have are
// ignored, as are contains rules with an empty value.
func (q *rowQuery) filter(f types.FilterRule, columns map[string]types.Column) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if _, ok := columns[f.ColumnID]; !ok {
		return nil
	}
	switch f.Operator {
	case types.OpContains, types.OpDoesNotContain:
		if f.Value == "" {
			return nil
		}
		cmp := "> 0"
		if f.Operator == types.OpDoesNotContain {
			cmp = "= 0"
		}
		q.where = append(q.where, "instr(lower("+cellValue+"), lower(?)) "+cmp)
		q.whereArgs = append(q.whereArgs, f.ColumnID, f.Value)
	case types.OpIs:
		q.where = append(q.where, cellValue+" = ?")
		q.whereArgs = append(q.whereArgs, f.ColumnID, f.Value)
	case types.OpIsNot:
		q.where = append(q.where, cellValue+" <> ?")
		q.whereArgs = append(q.whereArgs, f.ColumnID, f.Value)
	case types.OpIsEmpty:
		q.where = append(q.where, "length("+cellValue+") = 0")
		q.whereArgs = append(q.whereArgs, f.ColumnID)
	case types.OpIsNotEmpty:
		q.where = append(q.where, "length("+cellValue+") > 0")
		q.whereArgs = append(q.whereArgs, f.ColumnID)
	}
	return nil
}

// sort adds one sort key. Empty values sort last in both directions; number
// columns compare numerically, text columns ignoring ASCII case.
func (q *rowQuery) sort(s types.SortRule, columns map[string]types.Column) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c, ok := columns[s.ColumnID]
	if !ok {
		return nil
	}
	dir := "ASC"
	if s.Direction == types.SortDesc {
		dir = "DESC"
	}
	q.order = append(q.order, "("+cellValue+" = '') ASC")
	q.orderArgs = append(q.orderArgs, s.ColumnID)
	if c.Type == types.ColumnNumber {
		q.order = append(q.order, "CAST("+cellValue+" AS REAL) "+dir)
	} else {
		q.order = append(q.order, cellValue+" COLLATE NOCASE "+dir)
	}
	q.orderArgs = append(q.orderArgs, s.ColumnID)
	return nil
}

// matchAny restricts the query to rows with a cell containing any term.
func (q *rowQuery) matchAny(terms []string) {
	if len(terms) == 0 {
		return
	}
	alts := make([]string, len(terms))
	for i, t := range terms {
		alts[i] = "instr(lower(c.value), ?) > 0"
		q.whereArgs = append(q.whereArgs, t)
	}
	q.where = append(q.where,
		"EXISTS (SELECT 1 FROM cells c WHERE c.row_id = r.row_id AND ("+strings.Join(alts, " OR ")+"))")
}

func (q *rowQuery) whereSQL() string { return strings.Join(q.where, " AND ") }

func (q *rowQuery) countSQL() (string, []any) {
	return "SELECT COUNT(*) FROM grid_rows r WHERE " + q.whereSQL(), q.whereArgs
}

// selectSQL lists row IDs in sort order. Row order is always the last key,
// so rows equal under every sort rule keep their stored order.
func (q *rowQuery) selectSQL(limit, offset int) (string, []any) {
	order := append(append([]string(nil), q.order...), "r.ord ASC")
	args := append(append(append([]any(nil), q.whereArgs...), q.orderArgs...), limit, offset)
	return "SELECT r.row_id, r.ord FROM grid_rows r WHERE " + q.whereSQL() +
		" ORDER BY " + strings.Join(order, ", ") + " LIMIT ? OFFSET ?", args
}

func buildRowQuery(tableID string, sorts []types.SortRule, filters []types.FilterRule, cols []types.Column) (*rowQuery, error) {
	byID := make(map[string]types.Column, len(cols))
	for _, c := range cols {
		byID[c.ColumnID] = c
	}
	q := newRowQuery(tableID)
	for _, f := range filters {
		if err := q.filter(f, byID); err != nil {
			return nil, err
		}
	}
	for _, s := range sorts {
		if err := q.sort(s, byID); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// listRows runs q and loads the cells of the selected rows.
func listRows(ctx context.Context, db querier, q *rowQuery, limit, offset int) ([]types.Row, int, error) {
	countSQL, countArgs := q.countSQL()
	var total int
	if err := db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting rows: %w", err)
	}

	selectSQL, selectArgs := q.selectSQL(limit, offset)
	rs, err := db.QueryContext(ctx, selectSQL, selectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing rows: %w", err)
	}
	var out []types.Row
	index := make(map[string]int)
	for rs.Next() {
		var r types.Row
		if err := rs.Scan(&r.RowID, &r.Order); err != nil {
			rs.Close()
			return nil, 0, fmt.Errorf("scanning row: %w", err)
		}
		index[r.RowID] = len(out)
		out = append(out, r)
	}
	rs.Close()
	if err := rs.Err(); err != nil {
		return nil, 0, err
	}
	if len(out) == 0 {
		return out, total, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(out)), ",")
	args := make([]any, len(out))
	for i, r := range out {
		args[i] = r.RowID
	}
	cs, err := db.QueryContext(ctx,
		`SELECT cell_id, row_id, column_id, value FROM cells WHERE row_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("loading cells: %w", err)
	}
	defer cs.Close()
	for cs.Next() {
		var c types.Cell
		if err := cs.Scan(&c.CellID, &c.RowID, &c.ColumnID, &c.Value); err != nil {
			return nil, 0, fmt.Errorf("scanning cell: %w", err)
		}
		i := index[c.RowID]
		out[i].Cells = append(out[i].Cells, c)
	}
	return out, total, cs.Err()
}

// GetPaginatedRows returns one page of rows under the request's sort and
// filter rules. Every response carries the total row count.
func (b *Backend) GetPaginatedRows(ctx context.Context, req types.PageRequest) (*types.PageResult, error) {
	if req.Page < 0 {
		return nil, fmt.Errorf("%w: page %d", types.ErrInvalidValue, req.Page)
	}
	size := req.PageSize
	if size <= 0 {
		size = types.DefaultPageSize
	}

	db, release, err := b.reader()
	if err != nil {
		return nil, err
	}
	defer release()

	cols, err := loadColumns(ctx, db, req.TableID)
	if err != nil {
		return nil, err
	}
	q, err := buildRowQuery(req.TableID, req.Sort, req.Filters, cols)
	if err != nil {
		return nil, err
	}
	rows, total, err := listRows(ctx, db, q, size, req.Page*size)
	if err != nil {
		return nil, err
	}
	return &types.PageResult{
		Schema: types.TableSchema{Columns: cols},
		Rows:   rows,
		Pagination: types.Pagination{
			Page:      req.Page,
			TotalRows: &total,
			HasMore:   (req.Page+1)*size < total,
		},
	}, nil
}

// SearchRows returns rows with at least one cell containing any
// whitespace-separated term of the query, ignoring ASCII case.
func (b *Backend) SearchRows(ctx context.Context, req types.SearchRequest) (*types.SearchPage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if req.Offset < 0 {
		return nil, fmt.Errorf("%w: offset %d", types.ErrInvalidValue, req.Offset)
	}
	terms := search.Terms(req.Query)
	if len(terms) == 0 {
		return &types.SearchPage{Pagination: types.SearchPagination{NextOffset: req.Offset}}, nil
	}

	db, release, err := b.reader()
	if err != nil {
		return nil, err
	}
	defer release()

	cols, err := loadColumns(ctx, db, req.TableID)
	if err != nil {
		return nil, err
	}
	q, err := buildRowQuery(req.TableID, req.Sort, req.Filters, cols)
	if err != nil {
		return nil, err
	}
	q.matchAny(terms)
	rows, total, err := listRows(ctx, db, q, limit, req.Offset)
	if err != nil {
		return nil, err
	}
	next := req.Offset + len(rows)
	return &types.SearchPage{
		Rows: rows,
		Pagination: types.SearchPagination{
			TotalMatches: total,
			HasMore:      next < total,
			NextOffset:   next,
		},
	}, nil
}
