/*
Package cli is the harvest-planner command tree.

COMMANDS:
  serve       Run the HTTP API
  solve       Assemble, solve and print or export a plan
  score       Replay a hand-written schedule and list broken rules
  model       Print model size or write it as an LP file
  catalog     Print the resource types of a scenario
  scenarios   List built-in scenarios
  plans       List, show and export stored runs
  version     Print the build version

GLOBAL FLAGS:
  --config    Config file (default: planner.yaml in ., ./configs, /etc/harvest-planner)
  --db        SQLite path, overrides database.path
  --solver    simplex, cbc or auto, overrides solver.kind
  --verbose   Debug logging

SEE ALSO:
  - config/: Configuration sources and defaults
  - cmd/planner/main.go: Entry point
*/
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/harvest-planner/config"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/logging"
	"github.com/warp/harvest-planner/solver"
)

// Version is set at build time with -ldflags "-X .../cli.Version=...".
var Version = "dev"

// app carries global flags and what PersistentPreRunE derives from them.
type app struct {
	configPath string
	dbPath     string
	solverKind string
	verbose    bool

	cfg    *config.Config
	logger zerolog.Logger

	// newSolver is replaced in tests.
	newSolver func(solver.Options, zerolog.Logger) (generic.Solver, error)
}

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	a := &app{newSolver: solver.New}
	return a.rootCommand(os.Stderr)
}

func (a *app) rootCommand(logOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "planner",
		Short: "Harvest planner - plan planting, storage and processing for maximum cash",
		Long: `Harvest planner assembles a mixed-integer model of a farm season and
solves it for the schedule with the highest final cash plus inventory value.

Examples:
  planner solve --scenario tiny
  planner solve --scenario spring-only --solver cbc --out ./sheets
  planner model --lp model.lp
  planner catalog --format yaml > crops.yaml
  planner solve --catalog crops.yaml
  planner serve --db plans.db`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			if a.dbPath != "" {
				cfg.Database.Path = a.dbPath
			}
			if a.solverKind != "" {
				cfg.Solver.Kind = a.solverKind
			}
			if a.verbose {
				cfg.Logging.Level = "debug"
			}
			a.cfg = cfg
			a.logger = logging.New(cfg.Logging, logOut)
			return nil
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&a.solverKind, "solver", "", "Solver: simplex, cbc or auto (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(a.serveCommand())
	rootCmd.AddCommand(a.solveCommand())
	rootCmd.AddCommand(a.scoreCommand())
	rootCmd.AddCommand(a.modelCommand())
	rootCmd.AddCommand(a.catalogCommand())
	rootCmd.AddCommand(a.scenariosCommand())
	rootCmd.AddCommand(a.plansCommand())
	rootCmd.AddCommand(versionCommand())

	return rootCmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context, which stops a running solve.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "planner %s\n", Version)
			return nil
		},
	}
}
