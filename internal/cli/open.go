package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gridbase/internal/logutil"
	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/internal/tui"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

func (a *app) newOpenCmd() *cobra.Command {
	var viewID string
	cmd := &cobra.Command{
		Use:   "open [table-id]",
		Short: "Browse and edit a table in the terminal",
		Long: `Open shows a table in an interactive grid. Without a table ID the first
table of the first base is opened. Logs go to log_file, since the terminal
belongs to the grid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closer, err := logutil.NewFile(logutil.Config{
				Level:      a.settings.LogLevel,
				Filename:   a.settings.logPath(),
				MaxBackups: 3,
				MaxDays:    14,
			})
			if err != nil {
				return err
			}
			defer closer.Close()
			defer log.Sync()
			a.log = log.Named("cli")

			return a.withBackend(func(b *sqlite.Backend) error {
				ctx := cmd.Context()
				tableID, title, err := pickTable(ctx, b, args)
				if err != nil {
					return err
				}
				g, err := a.openGrid(ctx, b, tableID, viewID)
				if err != nil {
					return err
				}
				defer g.Close()
				a.log.Info("table opened", zap.String("table", tableID))
				return tui.Run(g, title, log)
			})
		},
	}
	cmd.Flags().StringVar(&viewID, "view", "", "view to open (default: first view)")
	return cmd
}

// pickTable returns the table named by args, or the first table of the
// first base, seeding an empty database.
func pickTable(ctx context.Context, b *sqlite.Backend, args []string) (id, title string, err error) {
	base, err := b.SeedDefaults(ctx)
	if err != nil {
		return "", "", err
	}
	bases, err := b.ListBases(ctx)
	if err != nil {
		return "", "", err
	}
	for _, bs := range bases {
		tables, err := b.ListTables(ctx, bs.BaseID)
		if err != nil {
			return "", "", err
		}
		for _, t := range tables {
			if len(args) == 0 && bs.BaseID == base.BaseID {
				return t.TableID, bs.Name + " / " + t.Name, nil
			}
			if len(args) == 1 && t.TableID == args[0] {
				return t.TableID, bs.Name + " / " + t.Name, nil
			}
		}
	}
	if len(args) == 1 {
		return "", "", fmt.Errorf("table %s: %w", args[0], types.ErrNotFound)
	}
	return "", "", fmt.Errorf("base %s has no tables: %w", base.BaseID, types.ErrNotFound)
}
