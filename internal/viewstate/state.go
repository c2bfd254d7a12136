// Package viewstate holds the sort, filter, hidden-field and search state of
// the current view as an immutable value, and derives from it the signature
// that keys the page cache.
package viewstate

import (
	"encoding/json"
	"sort"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// ViewState is the configuration of one table session. Values are never
// mutated in place; every With/Add/Remove method returns a new ViewState.
type ViewState struct {
	TableID string
	ViewID  string
	Name    string
	Sort    []types.SortRule
	Filters []types.FilterRule
	Hidden  []string // sorted column IDs
	Search  string
}

// Signature is the canonical serialization of table, view, sort rules and
// filter rules. Two states fetch the same pages iff their signatures match.
type Signature string

// FromView builds the state for a saved view, replacing everything.
func FromView(v types.View) ViewState {
	s := ViewState{
		TableID: v.TableID,
		ViewID:  v.ViewID,
		Name:    v.Name,
		Sort:    cloneSort(v.Sort),
		Filters: cloneFilters(v.Filters),
		Search:  v.SearchQuery,
	}
	return s.WithHidden(v.Hidden)
}

// View returns the persistable form of the state.
func (s ViewState) View() types.View {
	return types.View{
		ViewID:      s.ViewID,
		TableID:     s.TableID,
		Name:        s.Name,
		Sort:        cloneSort(s.Sort),
		Filters:     cloneFilters(s.Filters),
		Hidden:      append([]string(nil), s.Hidden...),
		SearchQuery: s.Search,
	}
}

type signatureKey struct {
	Table   string             `json:"t"`
	View    string             `json:"v"`
	Sort    []types.SortRule   `json:"s"`
	Filters []types.FilterRule `json:"f"`
}

// Signature computes the cache signature. Hidden fields and the search query
// do not take part.
func (s ViewState) Signature() Signature {
	key := signatureKey{
		Table:   s.TableID,
		View:    s.ViewID,
		Sort:    s.Sort,
		Filters: s.Filters,
	}
	if key.Sort == nil {
		key.Sort = []types.SortRule{}
	}
	if key.Filters == nil {
		key.Filters = []types.FilterRule{}
	}
	b, err := json.Marshal(key)
	if err != nil {
		// Marshal of plain string structs cannot fail.
		panic(err)
	}
	return Signature(b)
}

// WithSort replaces the sort rule list.
func (s ViewState) WithSort(rules []types.SortRule) ViewState {
	s.Sort = cloneSort(rules)
	return s
}

// AddSort appends a rule at the lowest precedence. A rule for a column that
// is already sorted replaces the existing rule's direction in place.
func (s ViewState) AddSort(rule types.SortRule) ViewState {
	rules := cloneSort(s.Sort)
	for i := range rules {
		if rules[i].ColumnID == rule.ColumnID {
			rules[i].Direction = rule.Direction
			s.Sort = rules
			return s
		}
	}
	s.Sort = append(rules, rule)
	return s
}

// RemoveSort drops the rule at index i. Out-of-range indices are ignored.
func (s ViewState) RemoveSort(i int) ViewState {
	if i < 0 || i >= len(s.Sort) {
		return s
	}
	rules := make([]types.SortRule, 0, len(s.Sort)-1)
	rules = append(rules, s.Sort[:i]...)
	s.Sort = append(rules, s.Sort[i+1:]...)
	return s
}

// MoveSort swaps the rule at index i with its neighbor at i+delta, where
// delta is -1 (up) or +1 (down). Moves past either end are no-ops.
func (s ViewState) MoveSort(i, delta int) ViewState {
	j := i + delta
	if i < 0 || i >= len(s.Sort) || j < 0 || j >= len(s.Sort) || i == j {
		return s
	}
	rules := cloneSort(s.Sort)
	rules[i], rules[j] = rules[j], rules[i]
	s.Sort = rules
	return s
}

// WithFilters replaces the filter rule list.
func (s ViewState) WithFilters(rules []types.FilterRule) ViewState {
	s.Filters = cloneFilters(rules)
	return s
}

// AddFilter appends a filter rule.
func (s ViewState) AddFilter(rule types.FilterRule) ViewState {
	s.Filters = append(cloneFilters(s.Filters), rule)
	return s
}

// UpdateFilter replaces the rule at index i.
func (s ViewState) UpdateFilter(i int, rule types.FilterRule) ViewState {
	if i < 0 || i >= len(s.Filters) {
		return s
	}
	rules := cloneFilters(s.Filters)
	rules[i] = rule
	s.Filters = rules
	return s
}

// RemoveFilter drops the rule at index i.
func (s ViewState) RemoveFilter(i int) ViewState {
	if i < 0 || i >= len(s.Filters) {
		return s
	}
	rules := make([]types.FilterRule, 0, len(s.Filters)-1)
	rules = append(rules, s.Filters[:i]...)
	s.Filters = append(rules, s.Filters[i+1:]...)
	return s
}

// WithHidden replaces the hidden-field set.
func (s ViewState) WithHidden(columnIDs []string) ViewState {
	seen := make(map[string]bool, len(columnIDs))
	hidden := make([]string, 0, len(columnIDs))
	for _, id := range columnIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		hidden = append(hidden, id)
	}
	sort.Strings(hidden)
	s.Hidden = hidden
	return s
}

// ToggleHidden hides a visible column or shows a hidden one.
func (s ViewState) ToggleHidden(columnID string) ViewState {
	if s.IsHidden(columnID) {
		next := make([]string, 0, len(s.Hidden))
		for _, id := range s.Hidden {
			if id != columnID {
				next = append(next, id)
			}
		}
		s.Hidden = next
		return s
	}
	return s.WithHidden(append(append([]string(nil), s.Hidden...), columnID))
}

// IsHidden reports whether columnID is in the hidden set.
func (s ViewState) IsHidden(columnID string) bool {
	i := sort.SearchStrings(s.Hidden, columnID)
	return i < len(s.Hidden) && s.Hidden[i] == columnID
}

// WithSearch sets the ephemeral search query.
func (s ViewState) WithSearch(query string) ViewState {
	s.Search = query
	return s
}

// Validate checks every sort and filter rule.
func (s ViewState) Validate() error {
	for _, r := range s.Sort {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for _, r := range s.Filters {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// layoutEqual reports whether a and b render the same rows and columns:
// same signature and same hidden set.
func layoutEqual(a, b ViewState) bool {
	if a.Signature() != b.Signature() || len(a.Hidden) != len(b.Hidden) {
		return false
	}
	for i := range a.Hidden {
		if a.Hidden[i] != b.Hidden[i] {
			return false
		}
	}
	return true
}

func cloneSort(r []types.SortRule) []types.SortRule {
	if r == nil {
		return nil
	}
	return append([]types.SortRule(nil), r...)
}

func cloneFilters(r []types.FilterRule) []types.FilterRule {
	if r == nil {
		return nil
	}
	return append([]types.FilterRule(nil), r...)
}
