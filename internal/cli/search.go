package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/internal/grid"
	"github.com/mesh-intelligence/gridbase/internal/search"
	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/internal/viewstate"
)

// openGrid builds a grid over b showing viewID, or the table's first view.
// The first page is loaded before it returns.
func (a *app) openGrid(ctx context.Context, b *sqlite.Backend, tableID, viewID string) (*grid.Grid, error) {
	view, err := tableView(ctx, b, tableID, viewID)
	if err != nil {
		return nil, err
	}
	g, err := grid.New(b, viewstate.NewStore(viewstate.FromView(*view)),
		grid.WithConfig(a.settings.Grid),
		grid.WithLogger(a.log),
		grid.WithViewSaver(b))
	if err != nil {
		return nil, err
	}
	g.SetViewport(1)
	if err := g.Load(ctx); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

func (a *app) newSearchCmd() *cobra.Command {
	var (
		viewID string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "search <table-id> <query>",
		Short: "Find field names and cell values containing any query term",
		Long: `Search splits the query on whitespace and reports every visible column
whose name contains a term, then every visible cell of a matching row whose
value contains a term. Matching ignores ASCII case. Rows are searched under
the view's filters and sort.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				g, err := a.openGrid(cmd.Context(), b, args[0], viewID)
				if err != nil {
					return err
				}
				defer g.Close()
				results, err := g.Search(cmd.Context(), args[1], limit)
				if err != nil {
					return err
				}
				if results == nil {
					results = []search.Result{}
				}
				return a.emit(cmd, results, func(o *output) {
					rows := make([][]string, len(results))
					for i, r := range results {
						rows[i] = []string{r.Type, r.ColumnName, r.RowID, truncate(r.MatchedValue, 40)}
					}
					o.table("No matches.", []string{"TYPE", "COLUMN", "ROW", "VALUE"}, rows)
				})
			})
		},
	}
	cmd.Flags().StringVar(&viewID, "view", "", "view whose filters and hidden fields apply (default: first view)")
	cmd.Flags().IntVar(&limit, "limit", sqlite.DefaultSearchLimit, "maximum number of matching rows")
	return cmd
}
