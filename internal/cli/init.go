package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gridbase/internal/sqlite"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize gridbase storage",
		Long: "Create the configuration and data directories, write a default config.yaml,\n" +
			"and seed the database with one base holding one table.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	s := a.settings
	if err := os.MkdirAll(s.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	configPath := filepath.Join(s.ConfigDir, configFileExt)
	written, err := writeConfigIfMissing(configPath, a.flags.dataDir)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if written {
		a.log.Info("config written", zap.String("path", configPath))
	}

	return a.withBackend(func(b *sqlite.Backend) error {
		base, err := b.SeedDefaults(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed storage: %w", err)
		}
		return a.emit(cmd, base, func(w *output) {
			w.line("Gridbase initialized in %s", s.DataDir)
			w.line("Base %s (%s)", base.Name, base.BaseID)
		})
	})
}
