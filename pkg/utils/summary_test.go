package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSummaryLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "summaries")
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	path, err := WriteSummaryLog(RunSummary{
		RunID:     "0b7c2a9e-1111-2222-3333-444455556666",
		StartTime: start,
		EndTime:   start.Add(3 * time.Second),
		Invoices:  4,
		Merged:    4,
		Appended:  2,
		StartRow:  7,
		SkippedProjects: []SkippedProject{
			{Project: "GCP", ErrorMessage: "roster GCP: missing column(s): Email To:"},
		},
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, "sync_summary_20240501_090000_0b7c2a9e.txt", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Mode:           live")
	assert.Contains(t, text, "Duration:       3s")
	assert.Contains(t, text, "Appended:           2")
	assert.Contains(t, text, "First Row:          7")
	assert.Contains(t, text, "  - GCP: roster GCP: missing column(s): Email To:")
}

func TestCleanOldSummaries(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	old := filepath.Join(dir, "sync_summary_old.txt")
	fresh := filepath.Join(dir, "sync_summary_new.txt")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	require.NoError(t, os.Chtimes(old, now.AddDate(0, 0, -30), now.AddDate(0, 0, -30)))
	require.NoError(t, os.Chtimes(other, now.AddDate(0, 0, -30), now.AddDate(0, 0, -30)))
	require.NoError(t, os.Chtimes(fresh, now.Add(-time.Hour), now.Add(-time.Hour)))

	removed, err := CleanOldSummaries(dir, 7*24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}
