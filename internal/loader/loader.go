// =============================================================================
// Receivable Reminder Sync - Source Loader
// =============================================================================
//
// The loader turns remote inputs into typed records:
//   - the newest CSV snapshot of a document-store folder -> []InvoiceRecord
//   - one roster worksheet of the tabular store           -> []RosterRow
//
// Unusable values (unparseable due dates and amounts, malformed recipient
// addresses) never drop a record. They are logged at WARN and the record is
// kept with the value left empty.
//
// =============================================================================

package loader

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/config"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/csvparser"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/docstore"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/logger"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/sheetstore"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/validation"
)

// Loader reads the CSV export and the roster worksheets.
type Loader struct {
	docs   docstore.Store
	sheets sheetstore.Store
	cfg    *config.Config
	log    *zap.Logger

	issues []validation.Issue
}

// New returns a loader over the given stores.
func New(docs docstore.Store, sheets sheetstore.Store, cfg *config.Config, log *zap.Logger) *Loader {
	return &Loader{docs: docs, sheets: sheets, cfg: cfg, log: log}
}

// =============================================================================
// CSV SOURCE
// =============================================================================

// LatestCSV returns the CSV file of folderID with the greatest created time,
// together with its content. Every page of the listing is examined.
func (l *Loader) LatestCSV(ctx context.Context, folderID string) (docstore.File, []byte, error) {
	var (
		latest docstore.File
		found  bool
	)

	q := docstore.Query{FolderID: folderID, MimeType: docstore.MimeTypeCSV, OrderBy: "createdTime desc"}
	err := docstore.ForEachPage(ctx, l.docs, q, func(f docstore.File) error {
		if !found || f.CreatedTime.After(latest.CreatedTime) {
			latest, found = f, true
		}
		return nil
	})
	if err != nil {
		return docstore.File{}, nil, fmt.Errorf("list csv folder: %w", err)
	}
	if !found {
		return docstore.File{}, nil, &types.NotFoundError{Folder: folderID, MimeType: docstore.MimeTypeCSV}
	}

	data, err := l.docs.Download(ctx, latest.ID)
	if err != nil {
		return docstore.File{}, nil, fmt.Errorf("download %s: %w", latest.Name, err)
	}

	l.log.Info("loader: selected csv snapshot",
		zap.String("file", latest.Name),
		zap.String("file_id", latest.ID),
		zap.Time("created", latest.CreatedTime),
		zap.Int("bytes", len(data)),
	)
	return latest, data, nil
}

// LoadInvoices loads and parses the newest CSV snapshot of folderID.
func (l *Loader) LoadInvoices(ctx context.Context, folderID string) ([]types.InvoiceRecord, error) {
	_, data, err := l.LatestCSV(ctx, folderID)
	if err != nil {
		return nil, err
	}

	table, err := csvparser.Parse(bytes.NewReader(data), csvparser.Settings{Delimiter: l.cfg.Source.Delimiter})
	if err != nil {
		return nil, err
	}

	records, err := csvparser.Bind(table, l.cfg.Source.Columns)
	if err != nil {
		return nil, err
	}

	loc := l.cfg.Location()
	for i := range records {
		records[i].DueAt = ParseDueDate(records[i].DueAtRaw, l.cfg.Source.DueDateLayouts, loc)
		records[i].Amount = ParseAmount(records[i].AmountRaw)
	}

	l.logIssues(validation.ValidateInvoices(records))
	l.log.Info("loader: parsed invoices", zap.Int("records", len(records)))
	return records, nil
}

// ParseDueDate tries each layout in order and returns the instant in loc.
// Values without a zone are read as UTC. Nil means no layout matched.
func ParseDueDate(raw string, layouts []string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.In(loc)
			return &t
		}
	}
	return nil
}

// ParseAmount parses a decimal amount. The result is invalid when raw is not
// a number.
func ParseAmount(raw string) decimal.NullDecimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Prefilter keeps the records whose due date lies exactly offsets days from
// today. Records without a due date are dropped.
func Prefilter(records []types.InvoiceRecord, today time.Time, offsets []int) []types.InvoiceRecord {
	kept := make([]types.InvoiceRecord, 0, len(records))
	for _, rec := range records {
		if rec.DueAt == nil {
			continue
		}
		if slices.Contains(offsets, types.DaysBetween(today, *rec.DueAt)) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// =============================================================================
// ROSTERS
// =============================================================================

// LoadRoster reads one roster worksheet. Headers are trimmed and blank rows
// dropped before the configured roster headers are bound.
func (l *Loader) LoadRoster(ctx context.Context, spreadsheet, worksheet string) ([]types.RosterRow, error) {
	ws, err := l.sheets.OpenWorksheet(ctx, spreadsheet, worksheet)
	if err != nil {
		return nil, err
	}

	table, err := ws.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	table.TrimHeaders()
	table.DropEmptyRows()

	cols := l.cfg.Roster.Columns
	want := []string{cols.Customer, cols.Project, cols.BusinessUnit, cols.EmailTo, cols.EmailCc}
	if err := validation.RequireColumns("roster "+worksheet, table, want); err != nil {
		return nil, err
	}

	rows := make([]types.RosterRow, 0, table.Len())
	for _, row := range table.Rows {
		rows = append(rows, types.RosterRow{
			Customer:     strings.TrimSpace(table.Value(row, cols.Customer)),
			Project:      strings.TrimSpace(table.Value(row, cols.Project)),
			BusinessUnit: strings.TrimSpace(table.Value(row, cols.BusinessUnit)),
			EmailTo:      strings.TrimSpace(table.Value(row, cols.EmailTo)),
			EmailCc:      strings.TrimSpace(table.Value(row, cols.EmailCc)),
			RowNumber:    row.Number,
		})
	}

	l.logIssues(validation.ValidateRoster(worksheet, rows))
	l.log.Debug("loader: read roster", zap.String("project", worksheet), zap.Int("rows", len(rows)))
	return rows, nil
}

// Issues returns every record issue found so far.
func (l *Loader) Issues() []validation.Issue {
	return l.issues
}

func (l *Loader) logIssues(result *validation.Result) {
	for _, issue := range result.Issues {
		value := zap.String("value", issue.Value)
		if issue.Field == config.FieldReceiverTo || issue.Field == config.FieldReceiverCc {
			value = logger.Recipients("value", issue.Value)
		}
		l.log.Warn("loader: invalid value",
			zap.String("source", issue.Source),
			zap.Int("row", issue.RowNumber),
			zap.String("key", issue.Key),
			zap.String("field", issue.Field),
			value,
			zap.String("reason", issue.Message),
		)
	}
	if result.Count() > 0 {
		l.log.Warn("loader: records with invalid values",
			zap.String("source", result.Issues[0].Source),
			zap.Int("issues", result.Count()),
			zap.Int("records", result.RecordsValidated),
		)
	}
	l.issues = append(l.issues, result.Issues...)
}
