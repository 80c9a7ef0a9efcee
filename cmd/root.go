// =============================================================================
// USDA Honey Report - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (honeyreport)
//   ├── processCmd  (honeyreport process)
//   ├── validateCmd (honeyreport validate)
//   ├── serveCmd    (honeyreport serve)
//   └── versionCmd  (honeyreport version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration (config.yaml, .env, HONEY_* variables)
//   3. Building the zap logger shared by all commands
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/honey-report/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig is the configuration loaded before any subcommand runs.
var mainConfig *config.MainConfig

// logger is the process-wide logger built from mainConfig.
var logger = zap.NewNop()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "honeyreport",
	Short: "USDA honey report parser - tidy colony and production tables by state",
	Long: `honeyreport ingests USDA honey bee colony and honey production reports,
reshapes them into tidy per-state tables keyed by year and quarter, and serves
them to the dashboard.

Outputs:
  - all_honey_data.csv    yearly production by state (2000..2018)
  - all_colony_data.csv   quarterly colony counts and stressors by state
  - honey_report.xlsx     both tables as worksheets

Example Usage:
  honeyreport process                      # Parse, aggregate and write outputs
  honeyreport process --config ./my.yaml   # Use a custom configuration file
  honeyreport validate                     # Parse and check without writing
  honeyreport serve --listen :8050         # Serve the outputs as JSON`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		mainConfig = cfg

		l, err := buildLogger(cfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// buildLogger creates the production logger at the configured level. An
// optional log file is added to the standard error output.
func buildLogger(cfg *config.MainConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if cfg.LogFile != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.LogFile)
	}
	return zc.Build()
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigPath,
		"Path to the main configuration file; a missing file means defaults",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
