package sheetstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

// WorkbookStore keeps each spreadsheet as <dir>/<name>.xlsx.
type WorkbookStore struct {
	dir string
}

// NewWorkbookStore returns a store over dir. The directory is created on the
// first write.
func NewWorkbookStore(dir string) *WorkbookStore {
	return &WorkbookStore{dir: dir}
}

// OpenWorksheet implements Store. The workbook and worksheet do not need to
// exist yet: reading a missing worksheet returns an empty table and writing
// creates it.
func (s *WorkbookStore) OpenWorksheet(ctx context.Context, spreadsheet, worksheet string) (Worksheet, error) {
	if spreadsheet == "" || strings.ContainsAny(spreadsheet, `/\`) {
		return nil, fmt.Errorf("invalid spreadsheet name %q", spreadsheet)
	}
	if worksheet == "" {
		return nil, fmt.Errorf("worksheet name is required")
	}
	return &workbookSheet{
		path:  filepath.Join(s.dir, spreadsheet+".xlsx"),
		sheet: worksheet,
	}, nil
}

type workbookSheet struct {
	path  string
	sheet string
}

func (w *workbookSheet) target() string {
	return filepath.Base(w.path) + "/" + w.sheet
}

// ReadAll implements Worksheet.
func (w *workbookSheet) ReadAll(ctx context.Context) (*types.Table, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &types.Table{}, nil
	}
	if err != nil {
		return nil, &types.RemoteReadError{Op: "read worksheet", Target: w.target(), Err: err}
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(w.sheet)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "read worksheet", Target: w.target(), Err: err}
	}
	if idx < 0 {
		return &types.Table{}, nil
	}

	rows, err := f.GetRows(w.sheet)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "read worksheet", Target: w.target(), Err: err}
	}
	return tableFromRows(rows), nil
}

// WriteRows implements Worksheet.
func (w *workbookSheet) WriteRows(ctx context.Context, startRow int, rows [][]string) error {
	if err := checkStartRow(startRow); err != nil {
		return err
	}

	f, err := w.open()
	if err != nil {
		return fmt.Errorf("write worksheet %s: %w", w.target(), err)
	}
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return fmt.Errorf("write worksheet %s: %w", w.target(), err)
		}
		values := row
		if err := f.SetSheetRow(w.sheet, cell, &values); err != nil {
			return fmt.Errorf("write worksheet %s row %d: %w", w.target(), startRow+i, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("write worksheet %s: %w", w.target(), err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}

// open returns the workbook with the worksheet present, creating either when
// missing.
func (w *workbookSheet) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	fresh := false
	if errors.Is(err, fs.ErrNotExist) {
		f, fresh = excelize.NewFile(), true
	} else if err != nil {
		return nil, err
	}

	idx, err := f.GetSheetIndex(w.sheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	if idx >= 0 {
		return f, nil
	}

	if _, err := f.NewSheet(w.sheet); err != nil {
		f.Close()
		return nil, err
	}
	if fresh {
		// NewFile starts with a default sheet that nobody asked for.
		if err := f.DeleteSheet(f.GetSheetName(0)); err != nil {
			f.Close()
			return nil, err
		}
		f.SetActiveSheet(0)
	}
	return f, nil
}
