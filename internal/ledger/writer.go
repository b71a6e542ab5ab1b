// =============================================================================
// Receivable Reminder Sync - Ledger Writer
// =============================================================================
//
// This module appends computed reminder rows to the ledger worksheet without
// ever duplicating a row. A row's identity is its composite key: the values of
// the configured unique-key columns joined with the key delimiter.
//
// SYNC ALGORITHM:
//   1. Read the ledger, drop blank rows, trim headers
//   2. Collect the keys of every existing row
//   3. Keep each new row whose key is not yet known, adding its key as it is
//      kept so a batch never carries the same key twice
//   4. Write the kept rows after the last non-blank ledger row
//
//   Existing rows are never updated. An empty ledger gets the header first.
//
// COLUMN ORDER:
//   Rows are written in the ledger's own column order. Columns that only the
//   new rows have are written after them; the ledger header is not changed.
//
// =============================================================================

package ledger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/config"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/sheetstore"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/validation"
)

// =============================================================================
// SYNC RESULT
// =============================================================================

// SyncResult describes one sync.
type SyncResult struct {
	// Existing is the number of non-blank ledger rows before the sync.
	Existing int

	// Candidates is the number of rows offered for appending.
	Candidates int

	// Appended is the number of rows written (or that would be written in a
	// dry run).
	Appended int

	// Duplicates is the number of candidates skipped because their key was
	// already in the ledger or earlier in the batch.
	Duplicates int

	// StartRow is the sheet row of the first appended data row. Zero when
	// nothing was appended.
	StartRow int

	// HeaderWritten is true when the ledger was empty and got a header row.
	HeaderWritten bool

	// Rows holds the appended rows in ledger column order.
	Rows *types.Table
}

// =============================================================================
// WRITER
// =============================================================================

// Writer syncs computed rows into a ledger worksheet.
type Writer struct {
	sheets sheetstore.Store
	output config.OutputConfig
	log    *zap.Logger

	// DryRun computes the result without writing.
	DryRun bool
}

// NewWriter returns a writer using the unique keys and key delimiter of output.
func NewWriter(sheets sheetstore.Store, output config.OutputConfig, log *zap.Logger) *Writer {
	return &Writer{sheets: sheets, output: output, log: log}
}

// Sync appends the rows of newRows whose key is not yet in the worksheet.
//
// PARAMETERS:
//   - newRows: The computed rows. Must contain every unique-key column.
//   - spreadsheet, worksheet: The ledger location.
//
// RETURNS:
//   - The sync result, also in dry-run mode.
//   - A *types.SchemaMismatchError when newRows lacks a unique-key column, or
//     the error of the tabular store.
func (w *Writer) Sync(ctx context.Context, newRows *types.Table, spreadsheet, worksheet string) (*SyncResult, error) {
	newRows.TrimHeaders()
	if err := validation.RequireColumns("output", newRows, w.output.UniqueKeys); err != nil {
		return nil, err
	}

	ws, err := w.sheets.OpenWorksheet(ctx, spreadsheet, worksheet)
	if err != nil {
		return nil, err
	}

	existing, err := ws.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	existing.TrimHeaders()
	existing.DropEmptyRows()

	plan := w.Plan(existing, newRows)

	log := w.log.With(zap.String("spreadsheet", spreadsheet), zap.String("worksheet", worksheet))
	if plan.Appended == 0 {
		log.Info("ledger: nothing to append",
			zap.Int("existing", plan.Existing),
			zap.Int("candidates", plan.Candidates),
			zap.Int("duplicates", plan.Duplicates),
		)
		return plan, nil
	}

	if w.DryRun {
		log.Info("ledger: dry run, rows not written",
			zap.Int("would_append", plan.Appended),
			zap.Int("start_row", plan.StartRow),
			zap.Int("duplicates", plan.Duplicates),
		)
		return plan, nil
	}

	rows := make([][]string, 0, plan.Appended+1)
	writeAt := plan.StartRow
	if plan.HeaderWritten {
		rows = append(rows, plan.Rows.Headers)
		writeAt = 1
	}
	for _, row := range plan.Rows.Rows {
		rows = append(rows, row.Values)
	}

	if err := ws.WriteRows(ctx, writeAt, rows); err != nil {
		return nil, fmt.Errorf("append to %s/%s: %w", spreadsheet, worksheet, err)
	}

	log.Info("ledger: rows appended",
		zap.Int("appended", plan.Appended),
		zap.Int("start_row", plan.StartRow),
		zap.Int("existing", plan.Existing),
		zap.Int("duplicates", plan.Duplicates),
	)
	return plan, nil
}

// Plan decides which rows of newRows to append to existing and where. Both
// tables must have trimmed headers and existing must have no blank rows.
func (w *Writer) Plan(existing, newRows *types.Table) *SyncResult {
	columns := mergeColumns(existing.Headers, newRows.Headers)
	result := &SyncResult{
		Existing:      existing.Len(),
		Candidates:    newRows.Len(),
		HeaderWritten: len(existing.Headers) == 0,
		Rows:          types.NewTable(columns),
	}

	seen := make(map[string]bool, existing.Len()+newRows.Len())
	for _, row := range existing.Rows {
		seen[w.Key(existing, row)] = true
	}

	for _, row := range newRows.Rows {
		key := w.Key(newRows, row)
		if seen[key] {
			result.Duplicates++
			continue
		}
		seen[key] = true

		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = newRows.Value(row, col)
		}
		result.Rows.Append(values)
	}

	result.Appended = result.Rows.Len()
	if result.Appended == 0 {
		result.HeaderWritten = false
		return result
	}

	if result.HeaderWritten {
		result.StartRow = 2
	} else {
		result.StartRow = existing.LastRowNumber() + 1
	}
	for i := range result.Rows.Rows {
		result.Rows.Rows[i].Number = result.StartRow + i
	}
	return result
}

// Key returns the composite key of row. Missing columns contribute "".
func (w *Writer) Key(table *types.Table, row types.Row) string {
	parts := make([]string, len(w.output.UniqueKeys))
	for i, col := range w.output.UniqueKeys {
		parts[i] = table.Value(row, col)
	}
	return strings.Join(parts, w.output.KeyDelimiter)
}

// mergeColumns returns existing followed by the columns of incoming that
// existing lacks.
func mergeColumns(existing, incoming []string) []string {
	columns := make([]string, 0, len(existing)+len(incoming))
	have := make(map[string]bool, len(existing))
	for _, h := range existing {
		columns = append(columns, h)
		have[h] = true
	}
	for _, h := range incoming {
		if !have[h] {
			columns = append(columns, h)
			have[h] = true
		}
	}
	return columns
}
