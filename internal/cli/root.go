// Package cli implements the gridbase command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gridbase/internal/logutil"
	"github.com/mesh-intelligence/gridbase/internal/paths"
	"github.com/mesh-intelligence/gridbase/internal/sqlite"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool
}

// app carries the state shared by the subcommands of one invocation.
type app struct {
	flags    rootFlags
	settings settings
	log      *zap.Logger
}

// NewRootCmd creates the top-level "gridbase" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:     "gridbase",
		Short:   "A paged, optimistic spreadsheet-database engine",
		Long:    "Gridbase stores bases of tables with typed columns and saved views,\nand browses them through a windowed grid that fetches rows page by page.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/"+paths.DefaultConfigDirName+")")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newBaseCmd(),
		a.newTableCmd(),
		a.newColumnCmd(),
		a.newRowCmd(),
		a.newCellCmd(),
		a.newRowsCmd(),
		a.newSearchCmd(),
		a.newViewCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newOpenCmd(),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gridbase:", err)
		os.Exit(exitCode(err))
	}
}

// userErrors are the failures caused by the command's input rather than by
// the environment.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidName,
	types.ErrInvalidValue,
	types.ErrInvalidColumnType,
	types.ErrInvalidOperator,
	types.ErrInvalidDirection,
	types.ErrInvalidCount,
	types.ErrPrimaryColumn,
	types.ErrLastTable,
	types.ErrLastView,
	errUsage,
}

var errUsage = errors.New("usage")

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// setup loads config.yaml and builds the command logger. Log output goes to
// stderr so it never mixes with command output.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return err
	}
	if a.flags.logLevel != "" {
		s.LogLevel = a.flags.logLevel
	}
	if s.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, s.DataDir); err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	s.ConfigDir = configDir
	a.settings = s

	log, err := logutil.New(logutil.Config{Level: s.LogLevel}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log.Named("cli")
	return nil
}

// attachBackend creates a SQLite backend on the resolved data directory and
// attaches it. The caller must defer backend.Detach().
func (a *app) attachBackend() (*sqlite.Backend, error) {
	backend := sqlite.NewBackend()
	if err := backend.Attach(a.settings.config()); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	a.log.Debug("backend attached", zap.String("data_dir", a.settings.DataDir))
	return backend, nil
}

// withBackend runs fn against an attached backend.
func (a *app) withBackend(fn func(b *sqlite.Backend) error) error {
	b, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer b.Detach()
	return fn(b)
}
