package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func (a *app) newColumnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Manage the columns of a table",
	}

	var columnType string
	add := &cobra.Command{
		Use:   "add <table-id> [name]",
		Short: "Add a column; an empty name selects \"Field N\"",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			return a.withBackend(func(b *sqlite.Backend) error {
				c, err := b.AddColumn(cmd.Context(), args[0], name, columnType)
				if err != nil {
					return err
				}
				return a.emit(cmd, c, func(o *output) {
					o.line("Added %s column %s (%s)", c.Type, c.Name, c.ColumnID)
				})
			})
		},
	}
	add.Flags().StringVar(&columnType, "type", types.ColumnText, "column type: text or number")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <table-id>",
			Short: "List the columns of a table in order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					cols, err := b.ListColumns(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return a.emit(cmd, cols, func(o *output) {
						rows := make([][]string, len(cols))
						for i, c := range cols {
							rows[i] = []string{c.ColumnID, c.Name, c.Type}
						}
						o.table("No columns found.", []string{"ID", "NAME", "TYPE"}, rows)
					})
				})
			},
		},
		add,
		&cobra.Command{
			Use:   "rename <table-id> <column> <name>",
			Short: "Rename a column",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					c, err := resolveColumn(cmd.Context(), b, args[0], args[1])
					if err != nil {
						return err
					}
					renamed, err := b.UpdateColumn(cmd.Context(), c.ColumnID, args[2])
					if err != nil {
						return err
					}
					return a.emit(cmd, renamed, func(o *output) {
						o.line("Renamed column %s to %s", c.Name, renamed.Name)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "delete <table-id> <column>",
			Short: "Delete a column and its cells; the primary column is kept",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					c, err := resolveColumn(cmd.Context(), b, args[0], args[1])
					if err != nil {
						return err
					}
					if err := b.DeleteColumn(cmd.Context(), args[0], c.ColumnID); err != nil {
						return err
					}
					return a.emit(cmd, map[string]string{"deleted": c.ColumnID}, func(o *output) {
						o.line("Deleted column %s", c.Name)
					})
				})
			},
		},
	)
	return cmd
}
