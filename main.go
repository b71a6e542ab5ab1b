// =============================================================================
// Receivable Reminder Sync - Main Entry Point
// =============================================================================
//
// This is the main entry point for the reminder-sync CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   reminder-sync sync        - Run the sync once
//   reminder-sync validate    - Validate the configuration and print the rules
//   reminder-sync version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (stores, loader, reminder engine, ledger)
//   - pkg/           : Shared utilities (run summary)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/receivable-reminder-sync/cmd"
)

func main() {
	cmd.Execute()
}
