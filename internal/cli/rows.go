package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

type rowsOptions struct {
	viewID   string
	page     int
	pageSize int
	sorts    []string
	filters  []string
}

func (a *app) newRowsCmd() *cobra.Command {
	var opts rowsOptions
	cmd := &cobra.Command{
		Use:   "rows <table-id>",
		Short: "Print one page of rows",
		Long: `Rows prints one page of a table under a view's sort and filter rules.

--sort and --filter replace the view's rules when given. Columns are named
by ID or by name.

Example:
  gridbase rows <table-id>
  gridbase rows <table-id> --page 2 --page-size 50
  gridbase rows <table-id> --sort Age:desc --sort Name
  gridbase rows <table-id> --filter Name:contains:ali --filter Notes:is-empty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				return a.runRows(cmd, b, args[0], opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.viewID, "view", "", "view to read sort and filter rules from (default: first view)")
	cmd.Flags().IntVar(&opts.page, "page", 0, "zero-based page index")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "rows per page (default: page_size from config)")
	cmd.Flags().StringArrayVar(&opts.sorts, "sort", nil, "sort rule column:asc|desc (repeatable)")
	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "filter rule column:operator[:value] (repeatable)")
	return cmd
}

func (a *app) runRows(cmd *cobra.Command, b *sqlite.Backend, tableID string, opts rowsOptions) error {
	ctx := cmd.Context()
	view, err := tableView(ctx, b, tableID, opts.viewID)
	if err != nil {
		return err
	}
	cols, err := b.ListColumns(ctx, tableID)
	if err != nil {
		return err
	}
	req := types.PageRequest{
		TableID:  tableID,
		ViewID:   view.ViewID,
		Page:     opts.page,
		PageSize: opts.pageSize,
		Sort:     view.Sort,
		Filters:  view.Filters,
	}
	if req.PageSize <= 0 {
		req.PageSize = a.settings.Grid.GetPageSize()
	}
	if len(opts.sorts) > 0 {
		if req.Sort, err = parseSorts(cols, opts.sorts); err != nil {
			return err
		}
	}
	if len(opts.filters) > 0 {
		if req.Filters, err = parseFilters(cols, opts.filters); err != nil {
			return err
		}
	}

	res, err := b.GetPaginatedRows(ctx, req)
	if err != nil {
		return err
	}
	a.log.Debug("rows fetched",
		zap.String("table", tableID),
		zap.Int("page", req.Page),
		zap.Int("rows", len(res.Rows)))

	hidden := make(map[string]bool, len(view.Hidden))
	for _, h := range view.Hidden {
		hidden[h] = true
	}
	return a.emit(cmd, res, func(o *output) {
		shown := make([]types.Column, 0, len(res.Schema.Columns))
		header := []string{"ID"}
		for _, c := range res.Schema.Columns {
			if !hidden[c.ColumnID] {
				shown = append(shown, c)
				header = append(header, c.Name)
			}
		}
		rows := make([][]string, len(res.Rows))
		for i, r := range res.Rows {
			line := []string{r.RowID}
			for _, c := range shown {
				line = append(line, truncate(r.Value(c.ColumnID), 40))
			}
			rows[i] = line
		}
		o.table("No rows found.", header, rows)
		total := 0
		if res.Pagination.TotalRows != nil {
			total = *res.Pagination.TotalRows
		}
		more := ""
		if res.Pagination.HasMore {
			more = ", more pages follow"
		}
		o.line("Page %d, %d of %d row(s)%s", req.Page, len(res.Rows), total, more)
	})
}
