// Package search derives grid search results from rows the store matched.
// A query is split on whitespace; a value matches when it contains any term,
// ignoring ASCII case.
package search

import (
	"fmt"
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Result types.
const (
	TypeField = "field"
	TypeCell  = "cell"
)

// Result is one search hit: a column whose name matches, or a cell whose
// value matches.
type Result struct {
	Type         string `json:"type"`
	RowID        string `json:"row_id,omitempty"`
	ColumnID     string `json:"column_id"`
	MatchedValue string `json:"matched_value"`
	ColumnName   string `json:"column_name"`
}

// Matcher tests values against every term of a query in one pass.
type Matcher struct {
	terms []string
	ac    *ahocorasick.Automaton
}

// NewMatcher compiles query. An empty query yields a matcher that matches
// nothing.
func NewMatcher(query string) (*Matcher, error) {
	terms := Terms(query)
	m := &Matcher{terms: terms}
	if len(terms) == 0 {
		return m, nil
	}
	ac, err := ahocorasick.NewBuilder().
		AddStrings(terms).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("compiling search %q: %w", query, err)
	}
	m.ac = ac
	return m, nil
}

// Terms splits query into distinct lower-cased terms.
func Terms(query string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range strings.Fields(query) {
		t = FoldASCII(t)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// FoldASCII lower-cases ASCII letters only, matching SQLite's lower().
func FoldASCII(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}

// Empty reports whether the query had no terms.
func (m *Matcher) Empty() bool { return m.ac == nil }

// Match reports whether v contains any term.
func (m *Matcher) Match(v string) bool {
	if m.ac == nil || v == "" {
		return false
	}
	return len(m.ac.FindAllOverlapping([]byte(FoldASCII(v)))) > 0
}

// Collect returns field results for matching column names followed by cell
// results for matching values, row by row in the order given. Only columns
// in cols are considered.
func Collect(m *Matcher, cols []types.Column, rows []types.Row) []Result {
	var out []Result
	for _, c := range cols {
		if m.Match(c.Name) {
			out = append(out, Result{Type: TypeField, ColumnID: c.ColumnID, MatchedValue: c.Name, ColumnName: c.Name})
		}
	}
	for _, r := range rows {
		for _, c := range cols {
			if v := r.Value(c.ColumnID); m.Match(v) {
				out = append(out, Result{Type: TypeCell, RowID: r.RowID, ColumnID: c.ColumnID, MatchedValue: v, ColumnName: c.Name})
			}
		}
	}
	return out
}
