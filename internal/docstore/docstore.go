// =============================================================================
// Receivable Reminder Sync - Document Store
// =============================================================================
//
// A document store is a folder-oriented file service: list the files of a
// folder one page at a time and download a file by ID. The CSV snapshots and
// the attachment files are both read through this contract.
//
// BACKENDS:
//   - drive:  Google Drive v3
//   - s3:     AWS S3, where a folder is a key prefix
//   - local:  a directory tree on disk
//   - memory: an in-memory store for tests
//
// =============================================================================

package docstore

import (
	"context"
	"fmt"
	"io"
	"time"
)

// MimeTypeCSV is the mime type of the receivable export.
const MimeTypeCSV = "text/csv"

// Store is implemented by every document backend.
type Store interface {
	// ListFiles returns one page of the non-trashed files in q.FolderID.
	ListFiles(ctx context.Context, q Query) (*Page, error)

	// Download returns the full content of a file.
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Query selects the files of one folder.
type Query struct {
	FolderID string

	// MimeType restricts the listing when non-empty.
	MimeType string

	// OrderBy is passed to backends that can sort server-side. Callers must
	// not rely on it.
	OrderBy string

	// PageToken continues a previous listing. Empty starts from the beginning.
	PageToken string
}

// Page is one page of a listing.
type Page struct {
	Files []File

	// NextPageToken is empty on the last page.
	NextPageToken string
}

// File is the metadata of one stored file.
type File struct {
	ID          string
	Name        string
	MimeType    string
	WebViewLink string
	CreatedTime time.Time
}

// ForEachPage lists every page of q, calling fn for each file in listing
// order. It stops at the first error returned by the store or by fn.
// A continuation token that was already seen is reported as an error.
func ForEachPage(ctx context.Context, store Store, q Query, fn func(File) error) error {
	seen := make(map[string]bool)
	q.PageToken = ""

	for {
		page, err := store.ListFiles(ctx, q)
		if err != nil {
			return err
		}

		for _, f := range page.Files {
			if err := fn(f); err != nil {
				return err
			}
		}

		if page.NextPageToken == "" {
			return nil
		}
		if seen[page.NextPageToken] {
			return fmt.Errorf("folder %q: page token %q repeated", q.FolderID, page.NextPageToken)
		}
		seen[page.NextPageToken] = true
		q.PageToken = page.NextPageToken
	}
}

// readChunked drains r through a buffer of chunkSize bytes.
func readChunked(r io.Reader, chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}

	var out []byte
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}
