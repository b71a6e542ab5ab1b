// =============================================================================
// Receivable Reminder Sync - Pipeline
// =============================================================================
//
// This module orchestrates one run of the job. The stages run strictly in
// sequence and each stage consumes the previous stage's output:
//   1. Load the newest CSV snapshot (optionally pre-filtered by date)
//   2. Build the attachment index
//   3. Merge each project's roster and enrich the records
//   4. Sync the rendered rows into the ledger
//
// ERROR HANDLING:
//   A failing project roster is recorded in Result.SkippedProjects and the run
//   continues. Every other failure stops the run before the ledger is touched.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/attachments"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/config"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/docstore"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/ledger"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/loader"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/reminder"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/sheetstore"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/validation"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of one run.
type Result struct {
	// RunID identifies the run in logs and summaries.
	RunID string

	StartedAt time.Time
	Duration  time.Duration

	// DryRun is true when the ledger was not written.
	DryRun bool

	// Invoices is the number of CSV records after the optional pre-filter.
	Invoices int

	// AttachmentKeys is the number of distinct keys in the attachment index.
	AttachmentKeys int

	// Merged is the number of records produced by the merge.
	Merged int

	// Scheduled is the number of merged records that selected a template.
	Scheduled int

	// SkippedProjects lists the projects whose roster could not be merged.
	SkippedProjects []reminder.ProjectFailure

	// Issues lists the record values that were kept but unusable.
	Issues []validation.Issue

	// Sync is the ledger outcome.
	Sync *ledger.SyncResult
}

// =============================================================================
// PIPELINE
// =============================================================================

// Options tune a run.
type Options struct {
	// DryRun computes everything but does not write the ledger.
	DryRun bool

	// Projects restricts the run to these configured projects. Empty means
	// every configured project.
	Projects []string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs the sync against a document store and a tabular store.
type Pipeline struct {
	cfg    *config.Config
	docs   docstore.Store
	sheets sheetstore.Store
	log    *zap.Logger
	opts   Options
}

// New returns a pipeline.
func New(cfg *config.Config, docs docstore.Store, sheets sheetstore.Store, log *zap.Logger, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{cfg: cfg, docs: docs, sheets: sheets, log: log, opts: opts}
}

// Run executes one sync.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	projects, err := p.projects()
	if err != nil {
		return nil, err
	}

	started := p.opts.Now()
	result := &Result{RunID: uuid.NewString(), StartedAt: started, DryRun: p.opts.DryRun}
	log := p.log.With(zap.String("run_id", result.RunID))

	log.Info("pipeline: run started",
		zap.Strings("projects", projects),
		zap.Bool("dry_run", p.opts.DryRun),
	)

	// Stage 1: source records.
	src := loader.New(p.docs, p.sheets, p.cfg, log)
	invoices, err := src.LoadInvoices(ctx, p.cfg.Source.CSVFolderID)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}

	engine := reminder.NewEngine(p.cfg, src, log, started)
	if p.cfg.Source.Prefilter.Enabled {
		before := len(invoices)
		invoices = loader.Prefilter(invoices, engine.Today(), p.cfg.Source.Prefilter.DayOffsets)
		log.Info("pipeline: pre-filter applied",
			zap.Int("before", before),
			zap.Int("after", len(invoices)),
			zap.Ints("day_offsets", p.cfg.Source.Prefilter.DayOffsets),
		)
	}
	result.Invoices = len(invoices)
	if len(invoices) == 0 {
		log.Warn("pipeline: source has no rows")
	}

	// Stage 2: attachments.
	index := types.NewAttachmentIndex()
	if p.cfg.Attachments.FolderID != "" {
		indexer, err := attachments.NewIndexer(p.docs, p.cfg.Attachments.KeyPattern, log)
		if err != nil {
			return nil, err
		}
		index, err = indexer.Build(ctx, p.cfg.Attachments.FolderID)
		if err != nil {
			return nil, err
		}
	}
	result.AttachmentKeys = index.Len()

	// Stage 3: merge and enrich.
	merged, failures, err := engine.Merge(ctx, invoices, projects)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	result.SkippedProjects = failures
	result.Merged = len(merged)

	if len(merged) == 0 {
		log.Warn("pipeline: merge produced no rows")
	} else {
		merged = engine.Enrich(merged, index)
	}
	for _, rec := range merged {
		if rec.Template != "" {
			result.Scheduled++
		}
	}
	result.Issues = src.Issues()

	// Stage 4: ledger.
	writer := ledger.NewWriter(p.sheets, p.cfg.Output, log)
	writer.DryRun = p.opts.DryRun

	syncResult, err := writer.Sync(ctx, engine.Project(merged), p.cfg.Output.Spreadsheet, p.cfg.Output.Worksheet)
	if err != nil {
		return nil, fmt.Errorf("sync ledger: %w", err)
	}
	result.Sync = syncResult
	result.Duration = p.opts.Now().Sub(started)

	log.Info("pipeline: run finished",
		zap.Int("invoices", result.Invoices),
		zap.Int("merged", result.Merged),
		zap.Int("scheduled", result.Scheduled),
		zap.Int("appended", syncResult.Appended),
		zap.Int("duplicates", syncResult.Duplicates),
		zap.Int("skipped_projects", len(failures)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// projects returns the configured projects, narrowed to Options.Projects.
func (p *Pipeline) projects() ([]string, error) {
	if len(p.opts.Projects) == 0 {
		return p.cfg.Roster.Projects, nil
	}

	for _, name := range p.opts.Projects {
		if !slices.Contains(p.cfg.Roster.Projects, name) {
			return nil, fmt.Errorf("project %q is not configured in roster.projects", name)
		}
	}

	var selected []string
	for _, name := range p.cfg.Roster.Projects {
		if slices.Contains(p.opts.Projects, name) {
			selected = append(selected, name)
		}
	}
	return selected, nil
}
