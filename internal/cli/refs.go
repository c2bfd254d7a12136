package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// findColumn resolves ref against cols, first as a column ID and then as a
// column name ignoring case.
func findColumn(cols []types.Column, ref string) (types.Column, error) {
	for _, c := range cols {
		if c.ColumnID == ref {
			return c, nil
		}
	}
	for _, c := range cols {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return types.Column{}, fmt.Errorf("column %q: %w", ref, types.ErrNotFound)
}

func resolveColumn(ctx context.Context, b *sqlite.Backend, tableID, ref string) (types.Column, error) {
	cols, err := b.ListColumns(ctx, tableID)
	if err != nil {
		return types.Column{}, err
	}
	return findColumn(cols, ref)
}

// parseSort parses "column:asc" or "column:desc". The direction defaults to
// ascending.
func parseSort(cols []types.Column, arg string) (types.SortRule, error) {
	ref, dir, found := strings.Cut(arg, ":")
	if !found {
		dir = types.SortAsc
	}
	c, err := findColumn(cols, ref)
	if err != nil {
		return types.SortRule{}, err
	}
	rule := types.SortRule{ColumnID: c.ColumnID, Direction: strings.ToLower(dir)}
	if err := rule.Validate(); err != nil {
		return types.SortRule{}, fmt.Errorf("sort %q: %w", arg, err)
	}
	return rule, nil
}

// parseFilter parses "column:operator" or "column:operator:value". The
// value may itself contain colons.
func parseFilter(cols []types.Column, arg string) (types.FilterRule, error) {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) < 2 {
		return types.FilterRule{}, usageError("filter %q: expected column:operator[:value]", arg)
	}
	c, err := findColumn(cols, parts[0])
	if err != nil {
		return types.FilterRule{}, err
	}
	rule := types.FilterRule{ColumnID: c.ColumnID, Operator: strings.ToLower(parts[1])}
	if len(parts) == 3 {
		rule.Value = parts[2]
	}
	if err := rule.Validate(); err != nil {
		return types.FilterRule{}, fmt.Errorf("filter %q: %w", arg, err)
	}
	return rule, nil
}

func parseSorts(cols []types.Column, args []string) ([]types.SortRule, error) {
	rules := make([]types.SortRule, 0, len(args))
	for _, arg := range args {
		r, err := parseSort(cols, arg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func parseFilters(cols []types.Column, args []string) ([]types.FilterRule, error) {
	rules := make([]types.FilterRule, 0, len(args))
	for _, arg := range args {
		r, err := parseFilter(cols, arg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// tableView returns viewID's view, or the table's first view when viewID is
// empty.
func tableView(ctx context.Context, b *sqlite.Backend, tableID, viewID string) (*types.View, error) {
	if viewID != "" {
		v, err := b.GetView(ctx, viewID)
		if err != nil {
			return nil, err
		}
		if v.TableID != tableID {
			return nil, fmt.Errorf("view %s of table %s: %w", viewID, tableID, types.ErrNotFound)
		}
		return v, nil
	}
	views, err := b.ListViews(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("views of table %s: %w", tableID, types.ErrNotFound)
	}
	return &views[0], nil
}
