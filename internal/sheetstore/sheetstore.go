// =============================================================================
// Receivable Reminder Sync - Tabular Store
// =============================================================================
//
// A tabular store holds named spreadsheets made of named worksheets. The job
// reads the per-project rosters and the ledger from it and appends new ledger
// rows to it.
//
// WORKSHEET LAYOUT:
//   Row 1 is the header. Data starts at row 2. ReadAll keeps blank rows so
//   that row numbers match the sheet; callers drop them when they need to.
//
// BACKENDS:
//   - sheets: Google Sheets v4, spreadsheets resolved by name through Drive
//   - xlsx:   local .xlsx workbooks
//   - memory: an in-memory store for tests
//
// =============================================================================

package sheetstore

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

// Store opens worksheets.
type Store interface {
	OpenWorksheet(ctx context.Context, spreadsheet, worksheet string) (Worksheet, error)
}

// Worksheet reads and writes one worksheet.
type Worksheet interface {
	// ReadAll returns the worksheet as a table. An empty worksheet returns a
	// table without headers.
	ReadAll(ctx context.Context) (*types.Table, error)

	// WriteRows writes rows starting at the 1-based startRow, column A.
	WriteRows(ctx context.Context, startRow int, rows [][]string) error
}

// tableFromRows turns raw cell rows into a table whose first row is the header.
func tableFromRows(rows [][]string) *types.Table {
	if len(rows) == 0 {
		return &types.Table{}
	}

	table := types.NewTable(rows[0])
	for i, row := range rows[1:] {
		values := make([]string, len(row))
		copy(values, row)
		table.Rows = append(table.Rows, types.Row{Number: i + 2, Values: values})
	}
	return table
}

func checkStartRow(startRow int) error {
	if startRow < 1 {
		return fmt.Errorf("start row %d: rows are 1-based", startRow)
	}
	return nil
}
