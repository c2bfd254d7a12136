package viewstate

import (
	"testing"

	"github.com/mesh-intelligence/gridbase/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseState() ViewState {
	return ViewState{TableID: "t1", ViewID: "v1", Name: "Grid view"}
}

func TestSignatureIgnoresHiddenAndSearch(t *testing.T) {
	s := baseState()
	sig := s.Signature()

	assert.Equal(t, sig, s.ToggleHidden("c1").Signature())
	assert.Equal(t, sig, s.WithSearch("alice").Signature())
	assert.NotEqual(t, sig, s.AddSort(types.SortRule{ColumnID: "c1", Direction: types.SortAsc}).Signature())
	assert.NotEqual(t, sig, s.AddFilter(types.FilterRule{ColumnID: "c1", Operator: types.OpIsEmpty}).Signature())

	other := s
	other.ViewID = "v2"
	assert.NotEqual(t, sig, other.Signature())
}

func TestSignatureIsCanonical(t *testing.T) {
	a := baseState().WithSort(nil)
	b := baseState().WithSort([]types.SortRule{})
	assert.Equal(t, a.Signature(), b.Signature())

	rules := []types.SortRule{
		{ColumnID: "a", Direction: types.SortAsc},
		{ColumnID: "b", Direction: types.SortDesc},
	}
	x := baseState().WithSort(rules)
	y := baseState().WithSort(rules).MoveSort(0, 1)
	assert.NotEqual(t, x.Signature(), y.Signature(), "sort precedence is part of the signature")
}

func TestUpdatesDoNotMutateReceiver(t *testing.T) {
	s := baseState().
		AddSort(types.SortRule{ColumnID: "a", Direction: types.SortAsc}).
		AddSort(types.SortRule{ColumnID: "b", Direction: types.SortAsc})

	moved := s.MoveSort(0, 1)
	assert.Equal(t, "a", s.Sort[0].ColumnID)
	assert.Equal(t, "b", moved.Sort[0].ColumnID)

	removed := s.RemoveSort(0)
	assert.Len(t, s.Sort, 2)
	require.Len(t, removed.Sort, 1)
	assert.Equal(t, "b", removed.Sort[0].ColumnID)
}

func TestAddSortReplacesExistingColumn(t *testing.T) {
	s := baseState().
		AddSort(types.SortRule{ColumnID: "a", Direction: types.SortAsc}).
		AddSort(types.SortRule{ColumnID: "a", Direction: types.SortDesc})
	require.Len(t, s.Sort, 1)
	assert.Equal(t, types.SortDesc, s.Sort[0].Direction)
}

func TestMoveSortEdgesAreNoOps(t *testing.T) {
	s := baseState().
		AddSort(types.SortRule{ColumnID: "a", Direction: types.SortAsc}).
		AddSort(types.SortRule{ColumnID: "b", Direction: types.SortAsc})
	assert.Equal(t, s.Sort, s.MoveSort(0, -1).Sort)
	assert.Equal(t, s.Sort, s.MoveSort(1, 1).Sort)
	assert.Equal(t, s.Sort, s.MoveSort(7, 1).Sort)
}

func TestFilterEditing(t *testing.T) {
	s := baseState().
		AddFilter(types.FilterRule{ColumnID: "a", Operator: types.OpContains, Value: "x"}).
		AddFilter(types.FilterRule{ColumnID: "b", Operator: types.OpIsEmpty})

	u := s.UpdateFilter(0, types.FilterRule{ColumnID: "a", Operator: types.OpIs, Value: "y"})
	assert.Equal(t, types.OpContains, s.Filters[0].Operator)
	assert.Equal(t, types.OpIs, u.Filters[0].Operator)

	r := u.RemoveFilter(1)
	assert.Len(t, r.Filters, 1)
	assert.Len(t, u.Filters, 2)
}

func TestHiddenSet(t *testing.T) {
	s := baseState().WithHidden([]string{"c", "a", "c", ""})
	assert.Equal(t, []string{"a", "c"}, s.Hidden)
	assert.True(t, s.IsHidden("a"))
	assert.False(t, s.IsHidden("b"))

	s = s.ToggleHidden("b").ToggleHidden("a")
	assert.Equal(t, []string{"b", "c"}, s.Hidden)
}

func TestFromViewRoundTrip(t *testing.T) {
	v := types.View{
		ViewID:  "v9",
		TableID: "t1",
		Name:    "Sorted",
		Sort:    []types.SortRule{{ColumnID: "a", Direction: types.SortDesc}},
		Filters: []types.FilterRule{{ColumnID: "b", Operator: types.OpIsNotEmpty}},
		Hidden:  []string{"z", "y"},
	}
	s := FromView(v)
	assert.Equal(t, []string{"y", "z"}, s.Hidden)
	got := s.View()
	assert.Equal(t, v.Sort, got.Sort)
	assert.Equal(t, v.Filters, got.Filters)
	assert.Equal(t, "v9", got.ViewID)
}
