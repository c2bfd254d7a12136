package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func (a *app) newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage the tables of a base",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <base-id> <name>",
			Short: "Create a table with a Name column, a Notes column and a grid view",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					t, err := b.CreateTable(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					return a.emit(cmd, t, func(o *output) {
						o.line("Created table %s (%s)", t.Name, t.TableID)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "list <base-id>",
			Short: "List the tables of a base in order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					tables, err := b.ListTables(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return a.emit(cmd, tables, func(o *output) {
						o.table("No tables found.", []string{"ID", "NAME", "ORDER"}, tableRows(tables))
					})
				})
			},
		},
		&cobra.Command{
			Use:   "rename <table-id> <name>",
			Short: "Rename a table",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					t, err := b.RenameTable(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					return a.emit(cmd, t, func(o *output) {
						o.line("Renamed table %s to %s", t.TableID, t.Name)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "delete <base-id> <table-id>",
			Short: "Delete a table; the last table of a base is kept",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					if err := b.DeleteTable(cmd.Context(), args[0], args[1]); err != nil {
						return err
					}
					return a.emit(cmd, map[string]string{"deleted": args[1]}, func(o *output) {
						o.line("Deleted table %s", args[1])
					})
				})
			},
		},
	)
	return cmd
}

func tableRows(tables []types.Table) [][]string {
	rows := make([][]string, len(tables))
	for i, t := range tables {
		rows[i] = []string{t.TableID, t.Name, strconv.Itoa(t.Order)}
	}
	return rows
}
