package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the gridbase release, overridable with -ldflags.
var Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/gridbase"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gridbase version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "gridbase v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
