package sheetstore

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

// MemoryStore is an in-memory Store keyed by spreadsheet and worksheet name.
type MemoryStore struct {
	sheets map[string]*MemorySheet
}

// MemorySheet is one in-memory worksheet.
type MemorySheet struct {
	// Cells holds the raw rows. Row 1 is Cells[0].
	Cells [][]string

	// ReadErr and WriteErr, when set, fail the matching call.
	ReadErr  error
	WriteErr error

	// Writes records every WriteRows call.
	Writes []MemoryWrite
}

// MemoryWrite is one recorded WriteRows call.
type MemoryWrite struct {
	StartRow int
	Rows     [][]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string]*MemorySheet)}
}

// Put creates or replaces a worksheet with the given rows.
func (m *MemoryStore) Put(spreadsheet, worksheet string, rows [][]string) *MemorySheet {
	sheet := &MemorySheet{Cells: rows}
	m.sheets[memoryKey(spreadsheet, worksheet)] = sheet
	return sheet
}

// Sheet returns a worksheet, or nil.
func (m *MemoryStore) Sheet(spreadsheet, worksheet string) *MemorySheet {
	return m.sheets[memoryKey(spreadsheet, worksheet)]
}

// OpenWorksheet implements Store.
func (m *MemoryStore) OpenWorksheet(ctx context.Context, spreadsheet, worksheet string) (Worksheet, error) {
	sheet, ok := m.sheets[memoryKey(spreadsheet, worksheet)]
	if !ok {
		return nil, &types.RemoteReadError{
			Op:     "open worksheet",
			Target: spreadsheet + "/" + worksheet,
			Err:    fmt.Errorf("worksheet not found"),
		}
	}
	return sheet, nil
}

// ReadAll implements Worksheet.
func (s *MemorySheet) ReadAll(ctx context.Context) (*types.Table, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	return tableFromRows(s.Cells), nil
}

// WriteRows implements Worksheet.
func (s *MemorySheet) WriteRows(ctx context.Context, startRow int, rows [][]string) error {
	if err := checkStartRow(startRow); err != nil {
		return err
	}
	if s.WriteErr != nil {
		return s.WriteErr
	}

	s.Writes = append(s.Writes, MemoryWrite{StartRow: startRow, Rows: rows})
	for i, row := range rows {
		idx := startRow - 1 + i
		for len(s.Cells) <= idx {
			s.Cells = append(s.Cells, nil)
		}
		values := make([]string, len(row))
		copy(values, row)
		s.Cells[idx] = values
	}
	return nil
}

func memoryKey(spreadsheet, worksheet string) string {
	return spreadsheet + "\x00" + worksheet
}
