package types

import (
	"fmt"
	"strings"
)

// NotFoundError reports that a folder held no file of the requested type.
type NotFoundError struct {
	Folder   string
	MimeType string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s file found in folder %q", e.MimeType, e.Folder)
}

// RemoteReadError wraps a failure reported by a document or tabular store.
type RemoteReadError struct {
	// Op names the operation, for example "list files" or "read worksheet".
	Op string

	// Target identifies what was being read (folder, file ID, sheet/worksheet).
	Target string

	Err error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *RemoteReadError) Unwrap() error { return e.Err }

// SchemaMismatchError reports expected columns that are absent after loading.
type SchemaMismatchError struct {
	// Source names the table, for example "csv" or "roster GCP".
	Source string

	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: missing column(s): %s", e.Source, strings.Join(e.Missing, ", "))
}
