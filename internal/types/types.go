// =============================================================================
// Receivable Reminder Sync - Shared Types
// =============================================================================
//
// This package contains the record types shared by the pipeline stages. Keeping
// them here avoids import cycles between:
//   - loader
//   - reminder
//   - ledger
//   - pipeline
//
// =============================================================================

package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SOURCE RECORDS
// =============================================================================

// InvoiceRecord is one row of the receivable CSV export.
// Identity is the invoice code. Records are never mutated after loading.
type InvoiceRecord struct {
	// Customer is the customer display name.
	Customer string

	// Project is the project the invoice belongs to. It also names the
	// roster worksheet consulted during the merge.
	Project string

	// BusinessUnit is the business unit owning the receivable.
	BusinessUnit string

	// InvoiceCode is the sales invoice code (for example "SI000123").
	InvoiceCode string

	// DueAt is the due instant converted to the configured timezone.
	// Nil when the raw value could not be parsed.
	DueAt *time.Time

	// DueAtRaw is the value exactly as it appeared in the CSV.
	DueAtRaw string

	// Amount is the receivable amount. Invalid when the raw value is not a number.
	Amount decimal.NullDecimal

	// AmountRaw is the amount exactly as it appeared in the CSV.
	AmountRaw string

	// RowNumber is the 1-based line of the record in the CSV file.
	RowNumber int
}

// RosterRow is one row of a per-project roster worksheet.
type RosterRow struct {
	Customer     string
	Project      string
	BusinessUnit string

	// EmailTo and EmailCc are kept as the delimited strings found in the sheet.
	EmailTo string
	EmailCc string

	// RowNumber is the 1-based row in the worksheet. The header is row 1.
	RowNumber int
}

// Key returns the merge identity of the roster row.
func (r RosterRow) Key() MergeKey {
	return MergeKey{Customer: r.Customer, Project: r.Project, BusinessUnit: r.BusinessUnit}
}

// MergeKey is the (customer, project, business unit) triple shared by invoices
// and roster rows.
type MergeKey struct {
	Customer     string
	Project      string
	BusinessUnit string
}

// MergeKeyOf returns the merge identity of an invoice.
func MergeKeyOf(inv InvoiceRecord) MergeKey {
	return MergeKey{Customer: inv.Customer, Project: inv.Project, BusinessUnit: inv.BusinessUnit}
}

// =============================================================================
// MERGED RECORDS
// =============================================================================

// ReminderRecord is an invoice left-joined with its roster row and enriched
// with the reminder scheduling fields.
type ReminderRecord struct {
	Invoice InvoiceRecord

	// Roster is nil when no roster row matched the invoice.
	Roster *RosterRow

	// DaysDiff is due date minus today in whole calendar days.
	// Nil when the due date is unknown.
	DaysDiff *int

	Template        string
	FormattedAmount string
	BodyParams      string
	Subject         string
	SendDate        string
	Attachments     string
}

// EmailTo returns the "To" recipients, or "" when the invoice had no roster match.
func (r ReminderRecord) EmailTo() string {
	if r.Roster == nil {
		return ""
	}
	return r.Roster.EmailTo
}

// EmailCc returns the "Cc" recipients, or "" when the invoice had no roster match.
func (r ReminderRecord) EmailCc() string {
	if r.Roster == nil {
		return ""
	}
	return r.Roster.EmailCc
}

// =============================================================================
// ATTACHMENT INDEX
// =============================================================================

// AttachmentIndex maps an extracted key (an invoice code) to the links of every
// file whose name contained that key, in discovery order.
type AttachmentIndex struct {
	links map[string][]string
}

// NewAttachmentIndex returns an empty index.
func NewAttachmentIndex() *AttachmentIndex {
	return &AttachmentIndex{links: make(map[string][]string)}
}

// Add appends a link under key. Duplicates are kept.
func (idx *AttachmentIndex) Add(key, link string) {
	idx.links[key] = append(idx.links[key], link)
}

// Links returns the links recorded for key.
func (idx *AttachmentIndex) Links(key string) []string {
	if idx == nil {
		return nil
	}
	return idx.links[key]
}

// Join returns the links for key joined by sep, or "" when the key is absent.
func (idx *AttachmentIndex) Join(key, sep string) string {
	return strings.Join(idx.Links(key), sep)
}

// Len returns the number of distinct keys.
func (idx *AttachmentIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.links)
}
