package sheetstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

func TestTableFromRows(t *testing.T) {
	table := tableFromRows([][]string{{"A", "B"}, {"1"}, {}, {"3", "4"}})
	assert.Equal(t, []string{"A", "B"}, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, 2, table.Rows[0].Number)
	assert.Equal(t, 4, table.Rows[2].Number)
	assert.Equal(t, 4, table.LastRowNumber())

	empty := tableFromRows(nil)
	assert.Empty(t, empty.Headers)
	assert.Equal(t, 0, empty.LastRowNumber())
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	sheet := store.Put("Ledger", "Reminders", [][]string{{"A"}, {"x"}})

	ws, err := store.OpenWorksheet(context.Background(), "Ledger", "Reminders")
	require.NoError(t, err)

	require.NoError(t, ws.WriteRows(context.Background(), 4, [][]string{{"y"}}))
	assert.Equal(t, [][]string{{"A"}, {"x"}, nil, {"y"}}, sheet.Cells)
	assert.Equal(t, []MemoryWrite{{StartRow: 4, Rows: [][]string{{"y"}}}}, sheet.Writes)

	table, err := ws.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, table.LastRowNumber())

	_, err = store.OpenWorksheet(context.Background(), "Ledger", "Other")
	var remote *types.RemoteReadError
	require.True(t, errors.As(err, &remote))

	require.Error(t, ws.WriteRows(context.Background(), 0, nil))
}

func TestWorkbookStore_ReadMissingAndCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "books")
	store := NewWorkbookStore(dir)
	ctx := context.Background()

	ws, err := store.OpenWorksheet(ctx, "Ledger", "Reminders")
	require.NoError(t, err)

	table, err := ws.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, table.Headers)

	require.NoError(t, ws.WriteRows(ctx, 1, [][]string{{"Code", "Template"}, {"SI0001", "Template-1"}}))
	require.NoError(t, ws.WriteRows(ctx, 3, [][]string{{"SI0002", "Template-2"}}))

	table, err = ws.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Code", "Template"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"SI0002", "Template-2"}, table.Rows[1].Values)
	assert.Equal(t, 3, table.Rows[1].Number)

	// A second worksheet in the same workbook leaves the first intact.
	other, err := store.OpenWorksheet(ctx, "Ledger", "Archive")
	require.NoError(t, err)
	require.NoError(t, other.WriteRows(ctx, 1, [][]string{{"X"}}))

	table, err = ws.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)

	missing, err := store.OpenWorksheet(ctx, "Ledger", "Nope")
	require.NoError(t, err)
	table, err = missing.ReadAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, table.Len())
}

func TestWorkbookStore_RejectsPaths(t *testing.T) {
	store := NewWorkbookStore(t.TempDir())
	_, err := store.OpenWorksheet(context.Background(), "../escape", "Sheet1")
	require.Error(t, err)
	_, err = store.OpenWorksheet(context.Background(), "Ledger", "")
	require.Error(t, err)
}
