package docstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

const driveListFields = "nextPageToken, files(id, name, mimeType, createdTime, webViewLink)"

// DriveStore reads folders of a Google Drive, shared drives included.
type DriveStore struct {
	svc       *drive.Service
	pageSize  int
	chunkSize int
}

// NewDriveStore wraps an authenticated Drive service.
func NewDriveStore(svc *drive.Service, pageSize, chunkSize int) *DriveStore {
	return &DriveStore{svc: svc, pageSize: pageSize, chunkSize: chunkSize}
}

// ListFiles implements Store.
func (s *DriveStore) ListFiles(ctx context.Context, q Query) (*Page, error) {
	call := s.svc.Files.List().
		Q(driveQuery(q)).
		Fields(googleapi.Field(driveListFields)).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx)
	if s.pageSize > 0 {
		call = call.PageSize(int64(s.pageSize))
	}
	if q.OrderBy != "" {
		call = call.OrderBy(q.OrderBy)
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, &types.RemoteReadError{Op: "list files", Target: q.FolderID, Err: err}
	}

	page := &Page{NextPageToken: resp.NextPageToken}
	for _, f := range resp.Files {
		created, err := time.Parse(time.RFC3339, f.CreatedTime)
		if err != nil && f.CreatedTime != "" {
			return nil, &types.RemoteReadError{
				Op:     "list files",
				Target: q.FolderID,
				Err:    fmt.Errorf("file %s: created time %q: %w", f.Id, f.CreatedTime, err),
			}
		}
		page.Files = append(page.Files, File{
			ID:          f.Id,
			Name:        f.Name,
			MimeType:    f.MimeType,
			WebViewLink: f.WebViewLink,
			CreatedTime: created,
		})
	}
	return page, nil
}

// Download implements Store.
func (s *DriveStore) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := s.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, &types.RemoteReadError{Op: "download", Target: fileID, Err: err}
	}
	defer resp.Body.Close()

	data, err := readChunked(resp.Body, s.chunkSize)
	if err != nil {
		return nil, &types.RemoteReadError{Op: "download", Target: fileID, Err: err}
	}
	return data, nil
}

// driveQuery builds the Drive search expression for q.
func driveQuery(q Query) string {
	expr := fmt.Sprintf("'%s' in parents and trashed = false", escapeQueryValue(q.FolderID))
	if q.MimeType != "" {
		expr += fmt.Sprintf(" and mimeType = '%s'", escapeQueryValue(q.MimeType))
	}
	return expr
}

// escapeQueryValue escapes a literal for a Drive query string.
func escapeQueryValue(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}
