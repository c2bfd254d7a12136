package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridbase/internal/sqlite"
)

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <table-id> <file.jsonl>",
		Short: "Write every row of a table to a JSONL file",
		Long: `Export writes one JSON object per row, in stored order, with cells keyed by
column name. The file is replaced atomically.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				n, err := b.ExportRows(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"exported": n, "path": args[1]}, func(o *output) {
					o.line("Exported %d row(s) to %s", n, args[1])
				})
			})
		},
	}
}

func (a *app) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <table-id> <file.jsonl>",
		Short: "Append the rows of a JSONL export to a table",
		Long: `Import matches cells to columns by name and creates a text column for
every name the table lacks. Malformed lines are skipped. Nothing is imported
when any row fails.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(func(b *sqlite.Backend) error {
				n, err := b.ImportRows(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"imported": n, "path": args[1]}, func(o *output) {
					o.line("Imported %d row(s) from %s", n, args[1])
				})
			})
		},
	}
}
