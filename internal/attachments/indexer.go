// Package attachments indexes the files of an attachment folder by the keys
// found in their names.
package attachments

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/docstore"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

// DefaultKeyPattern matches sales invoice codes.
const DefaultKeyPattern = `SI\d+`

// Indexer builds an AttachmentIndex from a document-store folder.
type Indexer struct {
	docs    docstore.Store
	pattern *regexp.Regexp
	log     *zap.Logger
}

// NewIndexer compiles pattern. When the pattern has a capture group the first
// group is the key, otherwise the whole match.
func NewIndexer(docs docstore.Store, pattern string, log *zap.Logger) (*Indexer, error) {
	if pattern == "" {
		pattern = DefaultKeyPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("attachment key pattern: %w", err)
	}
	return &Indexer{docs: docs, pattern: re, log: log}, nil
}

// Build lists every file in folderID and records its view link under each key
// found in its name. Links keep discovery order and repeat when a key occurs
// in several files or several times in one name.
func (ix *Indexer) Build(ctx context.Context, folderID string) (*types.AttachmentIndex, error) {
	index := types.NewAttachmentIndex()
	files := 0

	err := docstore.ForEachPage(ctx, ix.docs, docstore.Query{FolderID: folderID}, func(f docstore.File) error {
		files++
		for _, key := range ix.Keys(f.Name) {
			index.Add(key, f.WebViewLink)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index attachments: %w", err)
	}

	ix.log.Info("attachments: index built",
		zap.String("folder", folderID),
		zap.Int("files", files),
		zap.Int("keys", index.Len()),
	)
	return index, nil
}

// Keys returns every key in name, in order of appearance.
func (ix *Indexer) Keys(name string) []string {
	matches := ix.pattern.FindAllStringSubmatch(name, -1)
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 {
			keys = append(keys, m[1])
		} else {
			keys = append(keys, m[0])
		}
	}
	return keys
}
