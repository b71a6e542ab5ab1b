package docstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

// MemoryStore is an in-memory Store. Files are listed in insertion order.
type MemoryStore struct {
	// PageSize bounds each listing page. Zero returns everything at once.
	PageSize int

	// ListErr, when set, is returned by every ListFiles call.
	ListErr error

	folders map[string][]File
	content map[string][]byte

	// ListCalls counts ListFiles invocations.
	ListCalls int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		folders: make(map[string][]File),
		content: make(map[string][]byte),
	}
}

// Put adds a file to a folder.
func (m *MemoryStore) Put(folderID string, f File, data []byte) {
	m.folders[folderID] = append(m.folders[folderID], f)
	m.content[f.ID] = data
}

// ListFiles implements Store.
func (m *MemoryStore) ListFiles(ctx context.Context, q Query) (*Page, error) {
	m.ListCalls++
	if m.ListErr != nil {
		return nil, &types.RemoteReadError{Op: "list files", Target: q.FolderID, Err: m.ListErr}
	}

	var files []File
	for _, f := range m.folders[q.FolderID] {
		if q.MimeType == "" || f.MimeType == q.MimeType {
			files = append(files, f)
		}
	}
	return paginate(files, q.PageToken, m.PageSize)
}

// Download implements Store.
func (m *MemoryStore) Download(ctx context.Context, fileID string) ([]byte, error) {
	data, ok := m.content[fileID]
	if !ok {
		return nil, &types.RemoteReadError{Op: "download", Target: fileID, Err: fmt.Errorf("file not found")}
	}
	return data, nil
}

// paginate slices files into a page. The token is the decimal offset of the
// first file on the page.
func paginate(files []File, token string, pageSize int) (*Page, error) {
	start := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(files) {
			return nil, fmt.Errorf("invalid page token %q", token)
		}
		start = n
	}

	end := len(files)
	if pageSize > 0 && start+pageSize < end {
		end = start + pageSize
	}

	page := &Page{Files: files[start:end]}
	if end < len(files) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}
