package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/internal/nav"
	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func (a *app) newRowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "row",
		Short: "Add, delete and reorder rows",
	}

	var viewID string
	swap := &cobra.Command{
		Use:   "swap <table-id> <row-id> <row-id>",
		Short: "Swap the stored order of two rows",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				if err := b.ReorderRows(cmd.Context(), args[0], viewID, args[1], args[2]); err != nil {
					return err
				}
				return a.emit(cmd, map[string]string{"swapped": args[1] + "," + args[2]}, func(o *output) {
					o.line("Swapped rows %s and %s", args[1], args[2])
				})
			})
		},
	}
	swap.Flags().StringVar(&viewID, "view", "", "view the swap is made in")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <table-id>",
			Short: "Append an empty row",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					r, err := b.AddRow(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return a.emit(cmd, r, func(o *output) {
						o.line("Added row %s", r.RowID)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "delete <table-id> <row-id>",
			Short: "Delete a row and its cells",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					if err := b.DeleteRow(cmd.Context(), args[0], args[1]); err != nil {
						return err
					}
					return a.emit(cmd, map[string]string{"deleted": args[1]}, func(o *output) {
						o.line("Deleted row %s", args[1])
					})
				})
			},
		},
		&cobra.Command{
			Use:   "bulk <table-id> <count>",
			Short: "Append count empty rows",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				count, err := strconv.Atoi(args[1])
				if err != nil {
					return usageError("count %q is not a number", args[1])
				}
				return a.withBackend(func(b *sqlite.Backend) error {
					n, err := b.BulkAddRows(cmd.Context(), args[0], count)
					if err != nil {
						return err
					}
					return a.emit(cmd, map[string]int{"added": n}, func(o *output) {
						o.line("Added %d row(s)", n)
					})
				})
			},
		},
		swap,
	)
	return cmd
}

func (a *app) newCellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cell",
		Short: "Edit cell values",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <table-id> <row-id> <column> <value>",
		Short: "Set one cell; number cells are stored with a decimal point",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				c, err := resolveColumn(cmd.Context(), b, args[0], args[2])
				if err != nil {
					return err
				}
				value, err := cellValue(c, args[3])
				if err != nil {
					return err
				}
				cell, err := b.UpdateCell(cmd.Context(), args[0], args[1], c.ColumnID, value)
				if err != nil {
					return err
				}
				return a.emit(cmd, cell, func(o *output) {
					o.line("%s = %q", c.Name, cell.Value)
				})
			})
		},
	})
	return cmd
}

// cellValue checks value against the column type and returns the value to
// store, formatted the way a grid edit commits it.
func cellValue(c types.Column, value string) (string, error) {
	if c.Type == types.ColumnNumber {
		for _, r := range value {
			if !nav.AcceptsRune(c.Type, r) {
				return "", fmt.Errorf("%w: %q in number column %s", types.ErrInvalidValue, value, c.Name)
			}
		}
		if strings.Count(value, ".") > 1 {
			return "", fmt.Errorf("%w: %q in number column %s", types.ErrInvalidValue, value, c.Name)
		}
	}
	return nav.FormatCommit(c.Type, value), nil
}
