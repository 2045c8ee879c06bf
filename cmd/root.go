// =============================================================================
// Clinic Template Migrator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (migrator)
//   ├── processCmd   (migrator process)
//   ├── templatesCmd (migrator templates init|list)
//   ├── verifyCmd    (migrator verify)
//   └── versionCmd   (migrator version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads an optional .env file into the environment
//   2. Loads the main configuration (config.yaml, then MIGRATOR_* variables)
//   3. Sets up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/clinic-template-migrator/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// mainConfig and logger are prepared before every subcommand.
var (
	mainConfig = config.Default()
	logger     = zerolog.Nop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// newRootCmd builds the command tree. Every call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var (
		// cfgFile holds the path to the main configuration file.
		cfgFile string
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:   "migrator",
		Short: "Clinic Template Migrator - Convert practice-management exports to import templates",
		Long: `Clinic Template Migrator reads the export of a legacy practice-management
system and writes the five CSV templates the destination platform imports:
clients and bonuses, bonuses, basic history, full history and appointments.

Supported sources:
  clinni     Generic export (JSON, CSV, gzip, tagged XML or text)
  dricloud   Relational XML dump
  mnprogram  CSV folder backup

Example Usage:
  migrator process --source clinni --input export.json
  migrator process --source mnprogram --input ./BKPROGRAM0042 --only citas
  migrator templates init --dir ./templates
  migrator verify output/appointments_export.csv`,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cfgFile, cmd.Flags().Changed("config"), verbose, cmd.ErrOrStderr())
		},

		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.AddCommand(
		newProcessCmd(),
		newTemplatesCmd(),
		newVerifyCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// setup loads .env and the main configuration and builds the logger.
// The configuration file is optional unless it was named explicitly.
func setup(cfgFile string, explicitConfig, verbose bool, logOut io.Writer) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.LoadMainConfig(cfgFile, !explicitConfig)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	mainConfig = cfg
	logger = newLogger(cfg, verbose, logOut)
	logger.Debug().Str("config", cfgFile).Msg("configuration loaded")
	return nil
}

// newLogger builds the application logger.
//
// PARAMETERS:
//   - cfg: Supplies log_level and log_format.
//   - debug: Forces the debug level.
//   - w: Destination, usually stderr.
func newLogger(cfg *config.MainConfig, debug bool, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}

	out := w
	if !strings.EqualFold(cfg.LogFormat, config.LogFormatJSON) {
		out = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
			cw.Out = w
			cw.TimeFormat = time.TimeOnly
		})
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
