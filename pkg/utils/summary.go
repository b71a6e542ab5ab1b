// =============================================================================
// Receivable Reminder Sync - Run Summary
// =============================================================================
//
// Utilities for the plain-text run summary written next to scheduled runs.
// The summary is meant for people: one file per run, named by its start time,
// with the counters of every stage and the projects that were skipped.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// summaryPrefix starts every summary file name.
const summaryPrefix = "sync_summary_"

// RunSummary contains summary information about a sync run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	DryRun    bool

	Invoices       int
	AttachmentKeys int
	Merged         int
	Scheduled      int

	ExistingRows int
	Appended     int
	Duplicates   int
	StartRow     int

	// ValidationIssues is the number of record values kept but unusable.
	ValidationIssues int

	SkippedProjects []SkippedProject
}

// SkippedProject names a project whose roster could not be merged.
type SkippedProject struct {
	Project      string
	ErrorMessage string
}

// WriteSummaryLog writes a run summary to a new file in outputDir.
//
// PARAMETERS:
//   - summary: The run summary.
//   - outputDir: The directory to write the summary file. Created if missing.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	timestamp := summary.StartTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("%s%s_%s.txt", summaryPrefix, timestamp, shortID(summary.RunID)))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	mode := "live"
	if summary.DryRun {
		mode = "dry run"
	}

	fmt.Fprintf(writer, "Receivable Reminder Sync - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Mode:           %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Invoices:           %d\n"+
		"  Attachment Keys:    %d\n"+
		"  Merged Records:     %d\n"+
		"  Scheduled:          %d\n"+
		"  Validation Issues:  %d\n\n"+
		"Ledger:\n"+
		"  Existing Rows:      %d\n"+
		"  Appended:           %d\n"+
		"  Duplicates Skipped: %d\n",
		summary.RunID,
		mode,
		summary.StartTime.Format("2006-01-02 15:04:05 MST"),
		summary.EndTime.Format("2006-01-02 15:04:05 MST"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.Invoices,
		summary.AttachmentKeys,
		summary.Merged,
		summary.Scheduled,
		summary.ValidationIssues,
		summary.ExistingRows,
		summary.Appended,
		summary.Duplicates,
	)
	if summary.Appended > 0 {
		fmt.Fprintf(writer, "  First Row:          %d\n", summary.StartRow)
	}

	if len(summary.SkippedProjects) > 0 {
		writer.WriteString("\nSkipped Projects:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, p := range summary.SkippedProjects {
			fmt.Fprintf(writer, "  - %s: %s\n", p.Project, p.ErrorMessage)
		}
	}

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return summaryPath, nil
}

// CleanOldSummaries removes summary files in dir last modified before
// now - maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if the directory cannot be read.
func CleanOldSummaries(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read summary directory: %w", err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), summaryPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
