package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/internal/search"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// workspace is a config and data directory pair for one test.
type workspace struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newWorkspace(t *testing.T) *workspace {
	dir := t.TempDir()
	return &workspace{t: t, configDir: filepath.Join(dir, "config"), dataDir: filepath.Join(dir, "data")}
}

// run executes the CLI and returns its stdout.
func (w *workspace) run(args ...string) (string, error) {
	w.t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config-dir", w.configDir, "--data-dir", w.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

// runJSON executes the CLI in --json mode and decodes its output into v.
func (w *workspace) runJSON(v any, args ...string) {
	w.t.Helper()
	out, err := w.run(append([]string{"--json"}, args...)...)
	require.NoError(w.t, err, out)
	if v != nil {
		require.NoError(w.t, json.Unmarshal([]byte(out), v), out)
	}
}

// table initializes the workspace and returns its seeded table.
func (w *workspace) table() types.Table {
	w.t.Helper()
	var base types.Base
	w.runJSON(&base, "init")
	var tables []types.Table
	w.runJSON(&tables, "table", "list", base.BaseID)
	require.Len(w.t, tables, 1)
	return tables[0]
}

func TestInit(t *testing.T) {
	w := newWorkspace(t)
	out, err := w.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "Gridbase initialized")

	data, err := os.ReadFile(filepath.Join(w.configDir, configFileExt))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "page_size: 100")

	var first, second types.Base
	w.runJSON(&first, "init")
	w.runJSON(&second, "init")
	assert.Equal(t, first.BaseID, second.BaseID, "init is idempotent")
}

func TestVersion(t *testing.T) {
	w := newWorkspace(t)
	out, err := w.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "gridbase v"+Version)
}

func TestCellSetFormatsNumbers(t *testing.T) {
	w := newWorkspace(t)
	tbl := w.table()

	var age types.Column
	w.runJSON(&age, "column", "add", tbl.TableID, "Age", "--type", "number")
	var row types.Row
	w.runJSON(&row, "row", "add", tbl.TableID)

	var cell types.Cell
	w.runJSON(&cell, "cell", "set", tbl.TableID, row.RowID, "age", "5")
	assert.Equal(t, "5.0", cell.Value)

	_, err := w.run("cell", "set", tbl.TableID, row.RowID, "Age", "five")
	require.ErrorIs(t, err, types.ErrInvalidValue)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = w.run("cell", "set", tbl.TableID, row.RowID, "Missing", "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRowsSortFilterAndPaging(t *testing.T) {
	w := newWorkspace(t)
	tbl := w.table()
	for _, name := range []string{"carol", "alice", "bob"} {
		var row types.Row
		w.runJSON(&row, "row", "add", tbl.TableID)
		w.runJSON(nil, "cell", "set", tbl.TableID, row.RowID, "Name", name)
	}

	var res types.PageResult
	w.runJSON(&res, "rows", tbl.TableID, "--sort", "Name:desc")
	name := res.Schema.Columns[0].ColumnID
	require.Len(t, res.Rows, 3)
	assert.Equal(t, []string{"carol", "bob", "alice"},
		[]string{res.Rows[0].Value(name), res.Rows[1].Value(name), res.Rows[2].Value(name)})

	w.runJSON(&res, "rows", tbl.TableID, "--filter", "Name:contains:O")
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 2, *res.Pagination.TotalRows)

	w.runJSON(&res, "rows", tbl.TableID, "--page", "1", "--page-size", "2")
	require.Len(t, res.Rows, 1)
	assert.False(t, res.Pagination.HasMore)

	out, err := w.run("rows", tbl.TableID)
	require.NoError(t, err)
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "carol")
	assert.Contains(t, out, "Page 0, 3 of 3 row(s)")

	_, err = w.run("rows", tbl.TableID, "--filter", "Name")
	assert.ErrorIs(t, err, errUsage)
	_, err = w.run("rows", tbl.TableID, "--sort", "Name:sideways")
	assert.ErrorIs(t, err, types.ErrInvalidDirection)
}

func TestViewCommands(t *testing.T) {
	w := newWorkspace(t)
	tbl := w.table()
	var v types.View
	w.runJSON(&v, "view", "create", tbl.TableID, "Sorted")

	w.runJSON(nil, "view", "sort", tbl.TableID, v.ViewID, "Name:desc")
	w.runJSON(nil, "view", "filter", tbl.TableID, v.ViewID, "Notes:is-not-empty")
	w.runJSON(nil, "view", "hide", tbl.TableID, v.ViewID, "Notes")

	var views []types.View
	w.runJSON(&views, "view", "list", tbl.TableID)
	require.Len(t, views, 2)
	saved := views[1]
	require.Len(t, saved.Sort, 1)
	assert.Equal(t, types.SortDesc, saved.Sort[0].Direction)
	require.Len(t, saved.Filters, 1)
	assert.Equal(t, types.OpIsNotEmpty, saved.Filters[0].Operator)
	assert.Len(t, saved.Hidden, 1)

	out, err := w.run("view", "list", tbl.TableID)
	require.NoError(t, err)
	assert.Contains(t, out, "Name:desc")
	assert.Contains(t, out, "Notes:is-not-empty")

	w.runJSON(nil, "view", "sort", tbl.TableID, v.ViewID)
	w.runJSON(&views, "view", "list", tbl.TableID)
	assert.Empty(t, views[1].Sort, "no rules clears sorting")

	w.runJSON(nil, "view", "delete", tbl.TableID, views[0].ViewID)
	_, err = w.run("view", "delete", tbl.TableID, v.ViewID)
	assert.ErrorIs(t, err, types.ErrLastView)
}

func TestSearchCommand(t *testing.T) {
	w := newWorkspace(t)
	tbl := w.table()
	var row types.Row
	w.runJSON(&row, "row", "add", tbl.TableID)
	w.runJSON(nil, "cell", "set", tbl.TableID, row.RowID, "Name", "Alice")
	w.runJSON(nil, "cell", "set", tbl.TableID, row.RowID, "Notes", "likes names")

	var results []search.Result
	w.runJSON(&results, "search", tbl.TableID, "name")
	require.Len(t, results, 2)
	assert.Equal(t, search.TypeField, results[0].Type)
	assert.Equal(t, "Name", results[0].ColumnName)
	assert.Equal(t, search.TypeCell, results[1].Type)
	assert.Equal(t, "likes names", results[1].MatchedValue)

	w.runJSON(&results, "search", tbl.TableID, "nobody")
	assert.Empty(t, results)
}

func TestExportImport(t *testing.T) {
	w := newWorkspace(t)
	tbl := w.table()
	var row types.Row
	w.runJSON(&row, "row", "add", tbl.TableID)
	w.runJSON(nil, "cell", "set", tbl.TableID, row.RowID, "Name", "Alice")

	path := filepath.Join(t.TempDir(), "rows.jsonl")
	out, err := w.run("export", tbl.TableID, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 row(s)")

	out, err = w.run("import", tbl.TableID, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 row(s)")

	var res types.PageResult
	w.runJSON(&res, "rows", tbl.TableID)
	assert.Len(t, res.Rows, 2)
}

func TestTableAndColumnCommands(t *testing.T) {
	w := newWorkspace(t)
	tbl := w.table()

	_, err := w.run("table", "delete", tbl.BaseID, tbl.TableID)
	assert.ErrorIs(t, err, types.ErrLastTable)

	var other types.Table
	w.runJSON(&other, "table", "create", tbl.BaseID, "Other")
	w.runJSON(&other, "table", "rename", other.TableID, "Renamed")
	assert.Equal(t, "Renamed", other.Name)

	_, err = w.run("column", "delete", tbl.TableID, "Name")
	assert.ErrorIs(t, err, types.ErrPrimaryColumn)
	w.runJSON(nil, "column", "rename", tbl.TableID, "Notes", "Comments")
	w.runJSON(nil, "column", "delete", tbl.TableID, "Comments")

	var cols []types.Column
	w.runJSON(&cols, "column", "list", tbl.TableID)
	require.Len(t, cols, 1)
	assert.Equal(t, "Name", cols[0].Name)

	var added map[string]int
	w.runJSON(&added, "row", "bulk", tbl.TableID, "25")
	assert.Equal(t, 25, added["added"])
	_, err = w.run("row", "bulk", tbl.TableID, "many")
	assert.ErrorIs(t, err, errUsage)
}
