package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

func TestRequireColumns(t *testing.T) {
	table := types.NewTable([]string{"A", "B"})

	require.NoError(t, RequireColumns("csv", table, []string{"A", "B"}))

	err := RequireColumns("roster GCP", table, []string{"C", "A", "D"})
	var schemaErr *types.SchemaMismatchError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"C", "D"}, schemaErr.Missing)
	assert.Equal(t, "roster GCP: missing column(s): C, D", err.Error())
}

func TestValidateInvoices(t *testing.T) {
	due := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)
	records := []types.InvoiceRecord{
		{
			InvoiceCode: "SI0001",
			DueAt:       &due,
			Amount:      decimal.NewNullDecimal(decimal.NewFromInt(10)),
			RowNumber:   2,
		},
		{
			InvoiceCode: "SI0002",
			DueAtRaw:    "soon",
			AmountRaw:   "abc",
			RowNumber:   3,
		},
	}

	result := ValidateInvoices(records)
	assert.Equal(t, 2, result.RecordsValidated)
	require.Equal(t, 2, result.Count())
	assert.Equal(t, "due_at", result.Issues[0].Field)
	assert.Equal(t, "soon", result.Issues[0].Value)
	assert.Equal(t, "amount", result.Issues[1].Field)
	assert.Equal(t, 3, result.Issues[1].RowNumber)
	assert.Equal(t, "SI0002", result.Issues[1].Key)
}

func TestValidateRoster(t *testing.T) {
	rows := []types.RosterRow{
		{Customer: "Acme", EmailTo: "a@acme.test; b@acme.test", EmailCc: "", RowNumber: 2},
		{Customer: "Globex", EmailTo: "not-an-address", EmailCc: "c@globex.test,", RowNumber: 3},
	}

	result := ValidateRoster("GCP", rows)
	require.Equal(t, 1, result.Count())
	issue := result.Issues[0]
	assert.Equal(t, "roster GCP", issue.Source)
	assert.Equal(t, 3, issue.RowNumber)
	assert.Equal(t, "receiver_to", issue.Field)
	assert.Equal(t, "not-an-address", issue.Value)
}

func TestFormatIssuesAndWriteLog(t *testing.T) {
	assert.Equal(t, "No validation issues found.", FormatIssues(nil))

	issues := []Issue{{Source: "csv", RowNumber: 4, Key: "SI9", Field: "amount", Value: "x", Message: "amount is not a number"}}
	out := FormatIssues(issues)
	assert.Contains(t, out, "Found 1 validation issue(s)")
	assert.Contains(t, out, "csv row 4 (SI9) field 'amount': amount is not a number (value: 'x')")

	path := filepath.Join(t.TempDir(), "issues.log")
	require.NoError(t, WriteIssueLog(issues, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}
