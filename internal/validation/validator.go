// =============================================================================
// Receivable Reminder Sync - Validation Engine
// =============================================================================
//
// This module validates data at the two points where external input enters the
// job:
//   1. Table-level: every configured header must exist in the loaded table
//   2. Record-level: each invoice and roster row is checked for values the
//      enrichment stage cannot use (unparseable dates, amounts, addresses)
//
// ERROR HANDLING:
//   - Missing headers are fatal and reported as *types.SchemaMismatchError
//   - Record issues are collected, not returned as errors; the record is kept
//     and the caller logs each issue at WARN
//   - Each issue includes the row number, field and offending value
//
// =============================================================================

package validation

import (
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

// =============================================================================
// TABLE VALIDATION
// =============================================================================

// RequireColumns returns a *types.SchemaMismatchError naming every column in
// want that table does not have, in the order of want.
//
// PARAMETERS:
//   - source: Names the table in the error, for example "csv" or "roster GCP".
//   - table: The loaded table. Headers must already be trimmed.
//   - want: The configured headers.
func RequireColumns(source string, table *types.Table, want []string) error {
	var missing []string
	for _, col := range want {
		if !table.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &types.SchemaMismatchError{Source: source, Missing: missing}
	}
	return nil
}

// =============================================================================
// RECORD ISSUES
// =============================================================================

// Issue describes a value that was kept but cannot be fully used.
type Issue struct {
	// Source names the table, for example "csv" or "roster GCP".
	Source string

	// RowNumber is the 1-based row in the source table. Zero when unknown.
	RowNumber int

	// Key identifies the record, usually the invoice code.
	Key string

	// Field is the record field holding Value.
	Field string

	Value   string
	Message string
}

// String renders the issue on one line.
func (i Issue) String() string {
	return fmt.Sprintf("%s row %d (%s) field '%s': %s (value: '%s')",
		i.Source, i.RowNumber, i.Key, i.Field, i.Message, i.Value)
}

// Result collects issues across a batch.
type Result struct {
	Issues []Issue

	// RecordsValidated is the total number of records checked.
	RecordsValidated int
}

// Add records an issue.
func (r *Result) Add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// Count returns the number of issues.
func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Issues)
}

// =============================================================================
// VALIDATORS
// =============================================================================

// ValidateInvoices checks parsed invoice records. It expects DueAt and Amount
// to have been parsed from their raw values already.
func ValidateInvoices(records []types.InvoiceRecord) *Result {
	result := &Result{}

	for _, rec := range records {
		result.RecordsValidated++
		add := func(field, value, msg string) {
			result.Add(Issue{
				Source:    "csv",
				RowNumber: rec.RowNumber,
				Key:       rec.InvoiceCode,
				Field:     field,
				Value:     value,
				Message:   msg,
			})
		}

		if strings.TrimSpace(rec.InvoiceCode) == "" {
			add("invoice_code", rec.InvoiceCode, "invoice code is empty")
		}
		if rec.DueAt == nil {
			add("due_at", rec.DueAtRaw, "due date could not be parsed")
		}
		if !rec.Amount.Valid {
			add("amount", rec.AmountRaw, "amount is not a number")
		}
	}

	return result
}

// ValidateRoster checks roster rows of one project. Each recipient in the
// "To" and "Cc" lists must be a parseable email address.
func ValidateRoster(project string, rows []types.RosterRow) *Result {
	result := &Result{}
	source := "roster " + project

	for _, row := range rows {
		result.RecordsValidated++
		for _, field := range []struct {
			name  string
			value string
		}{
			{"receiver_to", row.EmailTo},
			{"receiver_cc", row.EmailCc},
		} {
			if bad := invalidAddresses(field.value); len(bad) > 0 {
				result.Add(Issue{
					Source:    source,
					RowNumber: row.RowNumber,
					Key:       row.Customer,
					Field:     field.name,
					Value:     strings.Join(bad, ", "),
					Message:   "invalid email address",
				})
			}
		}
	}

	return result
}

// invalidAddresses returns the entries of a delimited recipient list that do
// not parse as addresses. Commas and semicolons both separate entries.
func invalidAddresses(list string) []string {
	var bad []string
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ';' })
	for _, addr := range fields {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			bad = append(bad, addr)
		}
	}
	return bad
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatIssues formats issues for display, one per line.
func FormatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return "No validation issues found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d validation issue(s):\n", len(issues)))
	for _, issue := range issues {
		sb.WriteString("  - ")
		sb.WriteString(issue.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteIssueLog writes issues to a file.
func WriteIssueLog(issues []Issue, filePath string) error {
	if err := os.WriteFile(filePath, []byte(FormatIssues(issues)), 0o644); err != nil {
		return fmt.Errorf("failed to write issue log: %w", err)
	}
	return nil
}
