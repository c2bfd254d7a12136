package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func TestCreateTableSeedsColumnsAndView(t *testing.T) {
	b := attach(t)
	table, cols := fixture(t, b)

	require.Len(t, cols, 2)
	assert.Equal(t, DefaultPrimaryColumn, cols[0].Name)
	assert.Equal(t, DefaultNotesColumn, cols[1].Name)
	assert.Equal(t, types.ColumnText, cols[0].Type)

	views, err := b.ListViews(context.Background(), table.TableID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, DefaultViewName, views[0].Name)
	assert.Empty(t, views[0].Sort)
}

func TestTablesKeepOrder(t *testing.T) {
	b := attach(t)
	ctx := context.Background()
	base, err := b.CreateBase(ctx, "Base")
	require.NoError(t, err)

	for _, name := range []string{"A", "B", "C"} {
		_, err := b.CreateTable(ctx, base.BaseID, name)
		require.NoError(t, err)
	}
	tables, err := b.ListTables(ctx, base.BaseID)
	require.NoError(t, err)
	require.Len(t, tables, 3)
	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, want, tables[i].Name)
		assert.Equal(t, i, tables[i].Order)
	}

	renamed, err := b.RenameTable(ctx, tables[1].TableID, "Beta")
	require.NoError(t, err)
	assert.Equal(t, "Beta", renamed.Name)

	_, err = b.CreateTable(ctx, "missing", "X")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteLastTableIsRejected(t *testing.T) {
	b := attach(t)
	ctx := context.Background()
	table, _ := fixture(t, b)

	err := b.DeleteTable(ctx, table.BaseID, table.TableID)
	assert.ErrorIs(t, err, types.ErrLastTable)

	other, err := b.CreateTable(ctx, table.BaseID, "Other")
	require.NoError(t, err)
	require.NoError(t, b.DeleteTable(ctx, table.BaseID, table.TableID))

	tables, err := b.ListTables(ctx, table.BaseID)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, other.TableID, tables[0].TableID)
	assert.ErrorIs(t, b.DeleteTable(ctx, table.BaseID, "missing"), types.ErrNotFound)
}

func TestViews(t *testing.T) {
	b := attach(t)
	ctx := context.Background()
	table, cols := fixture(t, b)

	v, err := b.CreateView(ctx, table.TableID, "Sorted")
	require.NoError(t, err)

	v.Sort = []types.SortRule{{ColumnID: cols[0].ColumnID, Direction: types.SortDesc}}
	v.Filters = []types.FilterRule{{ColumnID: cols[1].ColumnID, Operator: types.OpIsNotEmpty}}
	v.Hidden = []string{cols[1].ColumnID}
	v.SearchQuery = "not saved"
	require.NoError(t, b.SaveView(ctx, *v))

	got, err := b.GetView(ctx, v.ViewID)
	require.NoError(t, err)
	assert.Equal(t, v.Sort, got.Sort)
	assert.Equal(t, v.Filters, got.Filters)
	assert.Equal(t, v.Hidden, got.Hidden)
	assert.Empty(t, got.SearchQuery)

	bad := *got
	bad.Filters = []types.FilterRule{{ColumnID: cols[0].ColumnID, Operator: "like"}}
	assert.ErrorIs(t, b.SaveView(ctx, bad), types.ErrInvalidOperator)

	views, err := b.ListViews(ctx, table.TableID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NoError(t, b.DeleteView(ctx, table.TableID, views[0].ViewID))
	assert.ErrorIs(t, b.DeleteView(ctx, table.TableID, views[1].ViewID), types.ErrLastView)

	_, err = b.GetView(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteBaseCascades(t *testing.T) {
	b := attach(t)
	ctx := context.Background()
	table, _ := fixture(t, b)

	require.NoError(t, b.DeleteBase(ctx, table.BaseID))
	_, err := b.GetPaginatedRows(ctx, types.PageRequest{TableID: table.TableID})
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, b.DeleteBase(ctx, table.BaseID), types.ErrNotFound)
}
