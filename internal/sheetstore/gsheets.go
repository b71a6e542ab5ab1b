package sheetstore

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// SheetsStore opens Google Sheets worksheets. Spreadsheets are addressed by
// their Drive file name.
type SheetsStore struct {
	sheets *sheets.Service
	drive  *drive.Service
}

// NewSheetsStore wraps authenticated Sheets and Drive services.
func NewSheetsStore(sheetsSvc *sheets.Service, driveSvc *drive.Service) *SheetsStore {
	return &SheetsStore{sheets: sheetsSvc, drive: driveSvc}
}

// OpenWorksheet implements Store.
func (s *SheetsStore) OpenWorksheet(ctx context.Context, spreadsheet, worksheet string) (Worksheet, error) {
	target := spreadsheet + "/" + worksheet

	id, err := s.resolveSpreadsheet(ctx, spreadsheet)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "open worksheet", Target: target, Err: err}
	}

	doc, err := s.sheets.Spreadsheets.Get(id).
		Fields(googleapi.Field("sheets(properties(sheetId,title,gridProperties))")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &types.RemoteReadError{Op: "open worksheet", Target: target, Err: err}
	}

	for _, sh := range doc.Sheets {
		if sh.Properties == nil || sh.Properties.Title != worksheet {
			continue
		}
		ws := &sheetsWorksheet{
			svc:           s.sheets,
			spreadsheetID: id,
			sheetID:       sh.Properties.SheetId,
			title:         worksheet,
			target:        target,
		}
		if sh.Properties.GridProperties != nil {
			ws.rowCount = sh.Properties.GridProperties.RowCount
		}
		return ws, nil
	}

	return nil, &types.RemoteReadError{Op: "open worksheet", Target: target, Err: fmt.Errorf("worksheet not found")}
}

// resolveSpreadsheet returns the file ID of the first spreadsheet named name.
func (s *SheetsStore) resolveSpreadsheet(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(name), spreadsheetMimeType)

	resp, err := s.drive.Files.List().
		Q(q).
		Fields(googleapi.Field("files(id, name)")).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(resp.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found", name)
	}
	return resp.Files[0].Id, nil
}

type sheetsWorksheet struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetID       int64
	title         string
	target        string
	rowCount      int64
}

// ReadAll implements Worksheet.
func (w *sheetsWorksheet) ReadAll(ctx context.Context) (*types.Table, error) {
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, quoteSheetTitle(w.title)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &types.RemoteReadError{Op: "read worksheet", Target: w.target, Err: err}
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = fmt.Sprint(cell)
		}
	}
	return tableFromRows(rows), nil
}

// WriteRows implements Worksheet. The grid is grown first when the rows
// would land past its last row. Values are written RAW so that they read back
// exactly as written ("000123" stays "000123").
func (w *sheetsWorksheet) WriteRows(ctx context.Context, startRow int, rows [][]string) error {
	if err := checkStartRow(startRow); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	lastRow := int64(startRow + len(rows) - 1)
	if lastRow > w.rowCount {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AppendDimension: &sheets.AppendDimensionRequest{
					SheetId:         w.sheetID,
					Dimension:       "ROWS",
					Length:          lastRow - w.rowCount,
					ForceSendFields: []string{"SheetId"},
				},
			}},
		}
		if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("grow worksheet %s: %w", w.target, err)
		}
		w.rowCount = lastRow
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}

	rng := fmt.Sprintf("%s!A%d", quoteSheetTitle(w.title), startRow)
	_, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write worksheet %s: %w", w.target, err)
	}
	return nil
}

// quoteSheetTitle quotes a worksheet title for A1 notation.
func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
