package docstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

func collectNames(t *testing.T, store Store, q Query) []string {
	t.Helper()
	var names []string
	err := ForEachPage(context.Background(), store, q, func(f File) error {
		names = append(names, f.Name)
		return nil
	})
	require.NoError(t, err)
	return names
}

func TestForEachPage_FollowsTokens(t *testing.T) {
	store := NewMemoryStore()
	store.PageSize = 2
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"} {
		store.Put("folder", File{ID: name, Name: name, MimeType: "application/pdf"}, nil)
	}

	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"}, collectNames(t, store, Query{FolderID: "folder"}))
	assert.Equal(t, 3, store.ListCalls)
}

func TestForEachPage_FiltersMimeType(t *testing.T) {
	store := NewMemoryStore()
	store.Put("folder", File{ID: "1", Name: "x.csv", MimeType: MimeTypeCSV}, nil)
	store.Put("folder", File{ID: "2", Name: "y.pdf", MimeType: "application/pdf"}, nil)

	assert.Equal(t, []string{"x.csv"}, collectNames(t, store, Query{FolderID: "folder", MimeType: MimeTypeCSV}))
}

type loopingStore struct{ calls int }

func (s *loopingStore) ListFiles(ctx context.Context, q Query) (*Page, error) {
	s.calls++
	return &Page{Files: []File{{Name: "f"}}, NextPageToken: "same"}, nil
}

func (s *loopingStore) Download(ctx context.Context, fileID string) ([]byte, error) {
	return nil, nil
}

func TestForEachPage_RepeatedTokenIsAnError(t *testing.T) {
	store := &loopingStore{}
	err := ForEachPage(context.Background(), store, Query{FolderID: "f"}, func(File) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeated")
	assert.Equal(t, 2, store.calls)
}

func TestForEachPage_PropagatesErrors(t *testing.T) {
	store := NewMemoryStore()
	store.ListErr = errors.New("quota exceeded")

	err := ForEachPage(context.Background(), store, Query{FolderID: "f"}, func(File) error { return nil })
	var remote *types.RemoteReadError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "f", remote.Target)

	store = NewMemoryStore()
	store.Put("f", File{ID: "1"}, nil)
	stop := errors.New("stop")
	err = ForEachPage(context.Background(), store, Query{FolderID: "f"}, func(File) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestPaginate_InvalidToken(t *testing.T) {
	_, err := paginate([]File{{}}, "7", 1)
	require.Error(t, err)
	_, err = paginate([]File{{}}, "abc", 1)
	require.Error(t, err)
}

func TestReadChunked(t *testing.T) {
	content := strings.Repeat("0123456789", 100)

	data, err := readChunked(iotest.OneByteReader(strings.NewReader(content)), 7)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	_, err = readChunked(iotest.ErrReader(errors.New("reset")), 0)
	require.Error(t, err)
}

func TestMimeTypeOf(t *testing.T) {
	assert.Equal(t, "text/csv", mimeTypeOf("Export.CSV"))
	assert.Equal(t, "application/pdf", mimeTypeOf("SI0001.pdf"))
	assert.Equal(t, "application/octet-stream", mimeTypeOf("README"))
}
