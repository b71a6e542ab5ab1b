// =============================================================================
// Receivable Reminder Sync - Merge & Enrichment Engine
// =============================================================================
//
// The engine turns invoices into reminder rows in three steps:
//   1. Merge:   left-join each project's invoices onto its roster worksheet
//   2. Enrich:  derive the day difference, template, subject, send date,
//               formatted amount, attachments and body parameters
//   3. Project: render the records into the configured output columns
//
// PROJECT FAILURES:
//   A roster that cannot be read or lacks a configured column skips only its
//   own project. The failure is logged and returned to the caller; the other
//   projects are merged as usual.
//
// =============================================================================

package reminder

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/config"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/logger"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

// RosterSource reads one roster worksheet.
type RosterSource interface {
	LoadRoster(ctx context.Context, spreadsheet, worksheet string) ([]types.RosterRow, error)
}

// ProjectFailure records a project whose roster could not be merged.
type ProjectFailure struct {
	Project string
	Err     error
}

// Engine merges and enriches invoice records.
type Engine struct {
	cfg     *config.Config
	rosters RosterSource
	log     *zap.Logger
	today   time.Time
}

// NewEngine returns an engine whose "today" is the calendar day of now in the
// configured timezone.
func NewEngine(cfg *config.Config, rosters RosterSource, log *zap.Logger, now time.Time) *Engine {
	return &Engine{
		cfg:     cfg,
		rosters: rosters,
		log:     log,
		today:   types.CivilDate(now.In(cfg.Location())),
	}
}

// Today returns midnight of the run day in the configured timezone.
func (e *Engine) Today() time.Time {
	return e.today
}

// =============================================================================
// MERGE
// =============================================================================

// Merge left-joins invoices with the roster of each project, in project order.
// Invoices of projects that are not listed are not merged.
func (e *Engine) Merge(ctx context.Context, invoices []types.InvoiceRecord, projects []string) ([]types.ReminderRecord, []ProjectFailure, error) {
	byProject := make(map[string][]types.InvoiceRecord)
	for _, inv := range invoices {
		byProject[inv.Project] = append(byProject[inv.Project], inv)
	}

	var (
		merged   []types.ReminderRecord
		failures []ProjectFailure
	)

	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		subset := byProject[project]
		if len(subset) == 0 {
			e.log.Debug("merge: no invoices for project", zap.String("project", project))
			continue
		}

		roster, err := e.rosters.LoadRoster(ctx, e.cfg.Roster.Spreadsheet, project)
		if err != nil {
			e.log.Error("merge: skipping project", zap.String("project", project), zap.Error(err))
			failures = append(failures, ProjectFailure{Project: project, Err: err})
			continue
		}

		joined := LeftJoin(subset, roster)
		matched := 0
		for _, rec := range joined {
			if rec.Roster != nil {
				matched++
			}
		}
		e.log.Info("merge: project merged",
			zap.String("project", project),
			zap.Int("invoices", len(subset)),
			zap.Int("roster_rows", len(roster)),
			zap.Int("records", len(joined)),
			zap.Int("matched", matched),
		)

		merged = append(merged, joined...)
	}

	return merged, failures, nil
}

// LeftJoin pairs every invoice with each roster row sharing its customer,
// project and business unit. Unmatched invoices are kept with a nil roster.
// Output follows invoice order, then roster order.
func LeftJoin(invoices []types.InvoiceRecord, roster []types.RosterRow) []types.ReminderRecord {
	byKey := make(map[types.MergeKey][]int, len(roster))
	for i, row := range roster {
		byKey[row.Key()] = append(byKey[row.Key()], i)
	}

	out := make([]types.ReminderRecord, 0, len(invoices))
	for _, inv := range invoices {
		matches := byKey[types.MergeKeyOf(inv)]
		if len(matches) == 0 {
			out = append(out, types.ReminderRecord{Invoice: inv})
			continue
		}
		for _, i := range matches {
			row := roster[i]
			out = append(out, types.ReminderRecord{Invoice: inv, Roster: &row})
		}
	}
	return out
}

// =============================================================================
// ENRICHMENT
// =============================================================================

// Enrich fills the derived fields of every record in place and returns the
// same slice.
func (e *Engine) Enrich(records []types.ReminderRecord, index *types.AttachmentIndex) []types.ReminderRecord {
	rules := e.cfg.Reminders

	for i := range records {
		rec := &records[i]
		inv := rec.Invoice

		if inv.DueAt != nil {
			d := types.DaysBetween(e.today, *inv.DueAt)
			rec.DaysDiff = &d
			rec.Template = rules.TemplateByDaysDiff[d]
		}

		if inv.Amount.Valid {
			rec.FormattedAmount = FormatCurrency(e.cfg.CurrencySymbol, inv.Amount.Decimal)
		}

		if rec.Template != "" {
			rec.Subject = rules.SubjectByTemplate[rec.Template]
			if inv.DueAt != nil {
				offset := rules.SendOffsetByTemplate[rec.Template]
				rec.SendDate = inv.DueAt.AddDate(0, 0, offset).Format(sendDateLayout)
			}
		}

		key := FieldValue(*rec, e.cfg.Attachments.KeyField)
		rec.Attachments = index.Join(key, e.cfg.Attachments.Delimiter)

		rec.BodyParams = e.bodyParams(*rec)

		if rec.Template != "" {
			e.log.Debug("enrich: reminder scheduled",
				zap.String("invoice", inv.InvoiceCode),
				zap.String("template", rec.Template),
				zap.String("send_date", rec.SendDate),
				logger.Recipients("to", rec.EmailTo()),
			)
		}
	}

	return records
}

func (e *Engine) bodyParams(rec types.ReminderRecord) string {
	fields := e.cfg.Reminders.BodyParamFields
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = FieldValue(rec, f)
	}
	return strings.Join(values, e.cfg.Reminders.BodyParamDelimiter)
}

// =============================================================================
// PROJECTION
// =============================================================================

// Project renders records into the configured output columns. With no records
// the table has the headers and no rows.
func (e *Engine) Project(records []types.ReminderRecord) *types.Table {
	table := types.NewTable(e.cfg.Output.OutputHeaders())
	for _, rec := range records {
		values := make([]string, len(e.cfg.Output.Columns))
		for i, col := range e.cfg.Output.Columns {
			values[i] = FieldValue(rec, col.Field)
		}
		table.Append(values)
	}
	return table
}
