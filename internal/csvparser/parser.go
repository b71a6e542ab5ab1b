// =============================================================================
// Receivable Reminder Sync - CSV Parser Module
// =============================================================================
//
// This module is responsible for parsing the receivable CSV export. It handles:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - A UTF-8 byte order mark in front of the first header
//   - Quoted fields with stray quotes
//   - Rows with fewer or more cells than the header
//
// The parser knows nothing about invoices: it produces a types.Table.
// Bind is the single place where CSV headers become InvoiceRecord fields.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/config"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/validation"
)

const utf8BOM = "\ufeff"

// Settings controls how the CSV is read.
type Settings struct {
	// Delimiter is the field separator. Empty means comma.
	Delimiter string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV document and returns it as a table.
//
// PARAMETERS:
//   - r: The CSV content.
//   - settings: The CSV parsing settings.
//
// RETURNS:
//   - The parsed table. Row numbers are the 1-based CSV line of each record,
//     so the first data row is row 2.
//   - An error if the content cannot be parsed or has no header row.
//
// PARSING PROCESS:
//  1. Configure the CSV reader with the delimiter and lenient quoting
//  2. Read and clean the header row
//  3. Read every data row, trimming values and skipping blank rows
func Parse(r io.Reader, settings Settings) (*types.Table, error) {
	csvReader := csv.NewReader(bufio.NewReader(r))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	table := types.NewTable(cleanHeaders(allRows[0]))

	for i, row := range allRows[1:] {
		if types.IsBlank(row) {
			continue
		}

		values := make([]string, len(table.Headers))
		for col := range table.Headers {
			if col < len(row) {
				values[col] = strings.TrimSpace(row[col])
			}
		}

		table.Rows = append(table.Rows, types.Row{Number: i + 2, Values: values})
	}

	return table, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports from the billing system are not strictly rectangular.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// cleanHeaders trims header values and strips a leading byte order mark.
// Empty headers get a positional placeholder so they never collide with a
// configured column name.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, utf8BOM)
		}
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// =============================================================================
// HEADER BINDING
// =============================================================================

// Bind maps table rows onto invoice records using the configured header table.
// Due dates and amounts are copied raw; the loader parses them.
//
// RETURNS:
//   - One record per table row, in table order.
//   - A *types.SchemaMismatchError listing every configured header the table lacks.
func Bind(table *types.Table, columns config.CSVColumns) ([]types.InvoiceRecord, error) {
	if err := validation.RequireColumns("csv", table, CSVHeaders(columns)); err != nil {
		return nil, err
	}

	records := make([]types.InvoiceRecord, 0, table.Len())
	for _, row := range table.Rows {
		records = append(records, types.InvoiceRecord{
			Customer:     table.Value(row, columns.Customer),
			Project:      table.Value(row, columns.Project),
			BusinessUnit: table.Value(row, columns.BusinessUnit),
			InvoiceCode:  table.Value(row, columns.InvoiceCode),
			DueAtRaw:     table.Value(row, columns.DueDate),
			AmountRaw:    table.Value(row, columns.Amount),
			RowNumber:    row.Number,
		})
	}

	return records, nil
}

// CSVHeaders returns the configured CSV headers, in field order.
func CSVHeaders(columns config.CSVColumns) []string {
	return []string{
		columns.Customer,
		columns.Project,
		columns.BusinessUnit,
		columns.InvoiceCode,
		columns.DueDate,
		columns.Amount,
	}
}
