// =============================================================================
// Receivable Reminder Sync - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads and validates the
// configuration without touching any backend, then prints the reminder rules
// and the ledger layout the sync would use.
//
// COMMAND USAGE:
//   reminder-sync validate
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and print the reminder rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration OK: %s\n\n", cfgFile)
		fmt.Fprintf(out, "Document store: %s\n", cfg.DocumentStore.Type)
		fmt.Fprintf(out, "Tabular store:  %s\n", cfg.TabularStore.Type)
		fmt.Fprintf(out, "Timezone:       %s\n", cfg.Location())
		fmt.Fprintf(out, "Projects:       %s\n", strings.Join(cfg.Roster.Projects, ", "))
		fmt.Fprintf(out, "Ledger:         %s / %s\n\n", cfg.Output.Spreadsheet, cfg.Output.Worksheet)

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DAYS TO DUE\tTEMPLATE\tSEND OFFSET\tSUBJECT")
		for _, days := range cfg.Reminders.Offsets() {
			template := cfg.Reminders.TemplateByDaysDiff[days]
			fmt.Fprintf(tw, "%d\t%s\t%+d\t%s\n",
				days,
				template,
				cfg.Reminders.SendOffsetByTemplate[template],
				cfg.Reminders.SubjectByTemplate[template],
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(out, "\nLedger columns: %s\n", strings.Join(cfg.Output.OutputHeaders(), ", "))
		fmt.Fprintf(out, "Unique key:     %s\n", strings.Join(cfg.Output.UniqueKeys, " + "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
