package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/internal/sqlite"
)

func (a *app) newBaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "base",
		Short: "Manage bases",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create an empty base",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					base, err := b.CreateBase(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return a.emit(cmd, base, func(o *output) {
						o.line("Created base %s (%s)", base.Name, base.BaseID)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List bases",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					bases, err := b.ListBases(cmd.Context())
					if err != nil {
						return err
					}
					return a.emit(cmd, bases, func(o *output) {
						rows := make([][]string, len(bases))
						for i, bs := range bases {
							rows[i] = []string{bs.BaseID, bs.Name, bs.CreatedAt.Format("2006-01-02")}
						}
						o.table("No bases found.", []string{"ID", "NAME", "CREATED"}, rows)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "delete <base-id>",
			Short: "Delete a base with all its tables",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withBackend(func(b *sqlite.Backend) error {
					if err := b.DeleteBase(cmd.Context(), args[0]); err != nil {
						return err
					}
					return a.emit(cmd, map[string]string{"deleted": args[0]}, func(o *output) {
						o.line("Deleted base %s", args[0])
					})
				})
			},
		},
	)
	return cmd
}
