package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/internal/viewstate"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func (a *app) newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Manage saved views",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <table-id> <name>",
			Short: "Create an unsorted, unfiltered view",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					v, err := b.CreateView(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					return a.emit(cmd, v, func(o *output) {
						o.line("Created view %s (%s)", v.Name, v.ViewID)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "list <table-id>",
			Short: "List a table's views",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					views, err := b.ListViews(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					cols, err := b.ListColumns(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return a.emit(cmd, views, func(o *output) {
						rows := make([][]string, len(views))
						for i, v := range views {
							rows[i] = []string{v.ViewID, v.Name, describeSort(cols, v.Sort),
								describeFilters(cols, v.Filters), describeHidden(cols, v.Hidden)}
						}
						o.table("No views found.", []string{"ID", "NAME", "SORT", "FILTERS", "HIDDEN"}, rows)
					})
				})
			},
		},
		a.viewEditCmd("sort <table-id> <view-id> [column:asc|desc...]",
			"Replace a view's sort rules; no rules clears sorting",
			func(s viewstate.ViewState, cols []types.Column, args []string) (viewstate.ViewState, error) {
				rules, err := parseSorts(cols, args)
				if err != nil {
					return s, err
				}
				return s.WithSort(rules), nil
			}),
		a.viewEditCmd("filter <table-id> <view-id> [column:operator[:value]...]",
			"Replace a view's filter rules; no rules clears filtering",
			func(s viewstate.ViewState, cols []types.Column, args []string) (viewstate.ViewState, error) {
				rules, err := parseFilters(cols, args)
				if err != nil {
					return s, err
				}
				return s.WithFilters(rules), nil
			}),
		a.viewEditCmd("hide <table-id> <view-id> [column...]",
			"Replace a view's hidden fields; no columns shows every field",
			func(s viewstate.ViewState, cols []types.Column, args []string) (viewstate.ViewState, error) {
				ids := make([]string, 0, len(args))
				for _, ref := range args {
					c, err := findColumn(cols, ref)
					if err != nil {
						return s, err
					}
					ids = append(ids, c.ColumnID)
				}
				return s.WithHidden(ids), nil
			}),
		&cobra.Command{
			Use:   "delete <table-id> <view-id>",
			Short: "Delete a view; the last view of a table is kept",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					if err := b.DeleteView(cmd.Context(), args[0], args[1]); err != nil {
						return err
					}
					return a.emit(cmd, map[string]string{"deleted": args[1]}, func(o *output) {
						o.line("Deleted view %s", args[1])
					})
				})
			},
		},
	)
	return cmd
}

// viewEditCmd builds a command that loads a view, applies edit to it and
// saves the result.
func (a *app) viewEditCmd(use, short string, edit func(viewstate.ViewState, []types.Column, []string) (viewstate.ViewState, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				v, err := a.editView(cmd.Context(), b, args[0], args[1], func(s viewstate.ViewState, cols []types.Column) (viewstate.ViewState, error) {
					return edit(s, cols, args[2:])
				})
				if err != nil {
					return err
				}
				return a.emit(cmd, v, func(o *output) {
					o.line("Saved view %s", v.Name)
				})
			})
		},
	}
}

func (a *app) editView(ctx context.Context, b *sqlite.Backend, tableID, viewID string, edit func(viewstate.ViewState, []types.Column) (viewstate.ViewState, error)) (*types.View, error) {
	view, err := tableView(ctx, b, tableID, viewID)
	if err != nil {
		return nil, err
	}
	cols, err := b.ListColumns(ctx, tableID)
	if err != nil {
		return nil, err
	}
	next, err := edit(viewstate.FromView(*view), cols)
	if err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	v := next.View()
	if err := b.SaveView(ctx, v); err != nil {
		return nil, err
	}
	return &v, nil
}

func columnName(cols []types.Column, id string) string {
	for _, c := range cols {
		if c.ColumnID == id {
			return c.Name
		}
	}
	return id
}

func describeSort(cols []types.Column, rules []types.SortRule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = columnName(cols, r.ColumnID) + ":" + r.Direction
	}
	return strings.Join(parts, ", ")
}

func describeFilters(cols []types.Column, rules []types.FilterRule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		p := columnName(cols, r.ColumnID) + ":" + r.Operator
		if r.UsesValue() {
			p += ":" + r.Value
		}
		parts[i] = p
	}
	return strings.Join(parts, ", ")
}

func describeHidden(cols []types.Column, ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = columnName(cols, id)
	}
	return strings.Join(parts, ", ")
}
