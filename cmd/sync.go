// =============================================================================
// Receivable Reminder Sync - Sync Command
// =============================================================================
//
// This file defines the 'sync' command, the main command of the job. It runs
// the pipeline once against the configured backends.
//
// COMMAND USAGE:
//   reminder-sync sync [flags]
//
// FLAGS:
//   --dry-run            : Compute the rows but do not write the ledger
//   --project            : Restrict the merge to a configured project (repeatable)
//   --summary-dir        : Write a run summary (and issue log) into this directory
//   --summary-retention  : Remove summaries older than this duration
//
// PROCESSING PIPELINE:
//   1. Load configuration and build the logger
//   2. Build the document and tabular stores
//   3. Run the pipeline
//   4. Print the outcome (and the would-be rows in a dry run)
//   5. Write the run summary
//
// =============================================================================

package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/pipeline"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/validation"
	"github.com/ginjaninja78/receivable-reminder-sync/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun computes the rows without writing the ledger.
var dryRun bool

// projects restricts the merge to these configured projects.
var projects []string

// summaryDir is where run summaries are written. Empty disables them.
var summaryDir string

// summaryRetention removes older summaries from summaryDir. Zero keeps all.
var summaryRetention time.Duration

// now is replaced in tests.
var now = time.Now

// =============================================================================
// SYNC COMMAND DEFINITION
// =============================================================================

// syncCmd represents the 'sync' command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Append new payment reminders to the ledger",
	Long: `The sync command loads the newest receivable CSV export, merges it with the
roster of every configured project, selects a reminder template for each
invoice, and appends the rows that are not yet in the ledger.

A project whose roster cannot be read is skipped and reported; every other
failure stops the run before the ledger is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Print the rows that would be appended instead of writing them",
	)

	syncCmd.Flags().StringSliceVar(
		&projects,
		"project",
		nil,
		"Only merge this configured project (repeatable)",
	)

	syncCmd.Flags().StringVar(
		&summaryDir,
		"summary-dir",
		"",
		"Directory for the run summary and issue log",
	)

	syncCmd.Flags().DurationVar(
		&summaryRetention,
		"summary-retention",
		0,
		"Remove run summaries older than this (e.g. 720h); 0 keeps all",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runSync runs the pipeline once.
func runSync(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, b.docs, b.sheets, log, pipeline.Options{
		DryRun:   dryRun,
		Projects: projects,
		Now:      now,
	})

	result, err := p.Run(ctx)
	if err != nil {
		log.Error("sync: run failed", zap.Error(err))
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		if err := writeRowsCSV(out, result.Sync.Rows); err != nil {
			return err
		}
	} else {
		printResult(out, result)
	}

	if summaryDir != "" {
		if err := writeSummary(result, log); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// printResult prints the run counters.
func printResult(out io.Writer, result *pipeline.Result) {
	fmt.Fprintln(out, "=== Receivable Reminder Sync ===")
	fmt.Fprintf(out, "Run ID:            %s\n", result.RunID)
	fmt.Fprintf(out, "Invoices:          %d\n", result.Invoices)
	fmt.Fprintf(out, "Merged:            %d\n", result.Merged)
	fmt.Fprintf(out, "Scheduled:         %d\n", result.Scheduled)
	fmt.Fprintf(out, "Appended:          %d\n", result.Sync.Appended)
	fmt.Fprintf(out, "Duplicates:        %d\n", result.Sync.Duplicates)
	fmt.Fprintf(out, "Validation Issues: %d\n", len(result.Issues))
	for _, f := range result.SkippedProjects {
		fmt.Fprintf(out, "  ✗ %s: %v\n", f.Project, f.Err)
	}
}

// writeRowsCSV writes the header and rows of table as CSV.
func writeRowsCSV(out io.Writer, table *types.Table) error {
	w := csv.NewWriter(out)
	if err := w.Write(table.Headers); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := w.Write(row.Values); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeSummary writes the run summary and, when there are any, the issue log.
func writeSummary(result *pipeline.Result, log *zap.Logger) error {
	summary := utils.RunSummary{
		RunID:            result.RunID,
		StartTime:        result.StartedAt,
		EndTime:          result.StartedAt.Add(result.Duration),
		DryRun:           result.DryRun,
		Invoices:         result.Invoices,
		AttachmentKeys:   result.AttachmentKeys,
		Merged:           result.Merged,
		Scheduled:        result.Scheduled,
		ExistingRows:     result.Sync.Existing,
		Appended:         result.Sync.Appended,
		Duplicates:       result.Sync.Duplicates,
		StartRow:         result.Sync.StartRow,
		ValidationIssues: len(result.Issues),
	}
	for _, f := range result.SkippedProjects {
		summary.SkippedProjects = append(summary.SkippedProjects, utils.SkippedProject{
			Project:      f.Project,
			ErrorMessage: f.Err.Error(),
		})
	}

	path, err := utils.WriteSummaryLog(summary, summaryDir)
	if err != nil {
		return err
	}
	log.Info("sync: summary written", zap.String("path", path))

	if len(result.Issues) > 0 {
		issuePath := filepath.Join(summaryDir, fmt.Sprintf("sync_summary_%s_issues.txt", result.StartedAt.Format("20060102_150405")))
		if err := validation.WriteIssueLog(result.Issues, issuePath); err != nil {
			return err
		}
		log.Info("sync: issue log written", zap.String("path", issuePath))
	}

	if summaryRetention > 0 {
		removed, err := utils.CleanOldSummaries(summaryDir, summaryRetention, now())
		if err != nil {
			return err
		}
		if removed > 0 {
			log.Info("sync: old summaries removed", zap.Int("removed", removed))
		}
	}
	return nil
}
