// =============================================================================
// Receivable Reminder Sync - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reminder-sync)
//   ├── syncCmd (reminder-sync sync)
//   ├── validateCmd (reminder-sync validate)
//   └── versionCmd (reminder-sync version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --env-file, --verbose)
//   2. Loading the configuration for the subcommands
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/config"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// envFile is the dotenv file loaded before the environment overrides.
var envFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reminder-sync",
	Short: "Receivable Reminder Sync - Schedule payment reminders from receivable exports",
	Long: `Receivable Reminder Sync reads the newest receivable CSV export, joins it
with each project's customer roster, selects a reminder template by the
number of days until the due date, and appends the new reminders to a
ledger spreadsheet that a mail-merge process reads.

Re-running the job is safe: rows already present in the ledger are
recognised by their unique key and never appended twice.

Example Usage:
  reminder-sync sync                      # Run once against config.yaml
  reminder-sync sync --dry-run            # Print the rows that would be appended
  reminder-sync sync --project GCP        # Only merge the GCP roster
  reminder-sync validate                  # Validate configuration and show rules`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
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
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Dotenv file loaded before environment overrides (ignored when missing)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadConfig loads the configuration named by the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv(cfgFile, envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the zap logger for cfg. --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}
