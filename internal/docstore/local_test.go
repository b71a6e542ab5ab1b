package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestLocalStore_ListAndDownload(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(root, "exports", "a.csv"), "a", base)
	writeFile(t, filepath.Join(root, "exports", "b.csv"), "bb", base.Add(time.Hour))
	writeFile(t, filepath.Join(root, "exports", "notes.txt"), "n", base)
	writeFile(t, filepath.Join(root, "exports", ".hidden.csv"), "h", base)
	writeFile(t, filepath.Join(root, "exports", ".trash", "old.csv"), "o", base)

	store, err := NewLocalStore(root, 1, 0)
	require.NoError(t, err)

	var files []File
	err = ForEachPage(context.Background(), store, Query{FolderID: "exports", MimeType: MimeTypeCSV}, func(f File) error {
		files = append(files, f)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "exports/a.csv", files[0].ID)
	assert.Equal(t, "b.csv", files[1].Name)
	assert.Equal(t, MimeTypeCSV, files[1].MimeType)
	assert.True(t, files[1].CreatedTime.Equal(base.Add(time.Hour)))
	assert.Contains(t, files[0].WebViewLink, "file://")

	data, err := store.Download(context.Background(), files[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "bb", string(data))
}

func TestLocalStore_Errors(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, 0, 0)
	require.NoError(t, err)

	_, err = store.ListFiles(context.Background(), Query{FolderID: "missing"})
	require.Error(t, err)

	_, err = store.Download(context.Background(), "../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the document root")

	_, err = NewLocalStore(filepath.Join(root, "nope"), 0, 0)
	require.Error(t, err)
}
