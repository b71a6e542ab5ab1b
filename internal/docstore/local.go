package docstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

// LocalStore serves a directory tree. A folder ID is a slash-separated path
// below the root and a file ID is the folder ID joined with the file name.
// Hidden entries, including the ".trash" directory, are never listed.
type LocalStore struct {
	root      string
	pageSize  int
	chunkSize int
}

// NewLocalStore returns a store rooted at root.
func NewLocalStore(root string, pageSize, chunkSize int) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve document root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document root %s is not a directory", abs)
	}
	return &LocalStore{root: abs, pageSize: pageSize, chunkSize: chunkSize}, nil
}

// ListFiles implements Store.
func (s *LocalStore) ListFiles(ctx context.Context, q Query) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := s.resolve(q.FolderID)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "list files", Target: q.FolderID, Err: err}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "list files", Target: q.FolderID, Err: err}
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, &types.RemoteReadError{Op: "list files", Target: q.FolderID, Err: err}
		}
		mimeType := mimeTypeOf(entry.Name())
		if q.MimeType != "" && mimeType != q.MimeType {
			continue
		}
		files = append(files, File{
			ID:          path.Join(q.FolderID, entry.Name()),
			Name:        entry.Name(),
			MimeType:    mimeType,
			WebViewLink: "file://" + filepath.ToSlash(filepath.Join(dir, entry.Name())),
			CreatedTime: info.ModTime(),
		})
	}

	page, err := paginate(files, q.PageToken, s.pageSize)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "list files", Target: q.FolderID, Err: err}
	}
	return page, nil
}

// Download implements Store.
func (s *LocalStore) Download(ctx context.Context, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.resolve(fileID)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "download", Target: fileID, Err: err}
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "download", Target: fileID, Err: err}
	}
	defer f.Close()

	data, err := readChunked(f, s.chunkSize)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "download", Target: fileID, Err: err}
	}
	return data, nil
}

// resolve maps an ID onto a path inside the root.
func (s *LocalStore) resolve(id string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(id))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is outside the document root", id)
	}
	return p, nil
}
