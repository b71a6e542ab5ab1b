package cmd

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/config"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/docstore"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/gcp"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/sheetstore"
)

// backends holds the stores selected by the configuration.
type backends struct {
	docs   docstore.Store
	sheets sheetstore.Store
}

// openBackends builds the document and tabular stores. A Google session is
// created only when one of the stores needs it.
func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	ds := cfg.DocumentStore

	var session *gcp.Session
	if ds.Type == "drive" || cfg.TabularStore.Type == "sheets" {
		s, err := gcp.NewSession(ctx, cfg.Google.CredentialsFile)
		if err != nil {
			return nil, err
		}
		session = s
	}

	b := &backends{}
	switch ds.Type {
	case "drive":
		b.docs = docstore.NewDriveStore(session.Drive(), ds.PageSize, ds.ChunkSizeBytes)
	case "s3":
		client, err := docstore.NewS3Client(ctx, ds.Region, ds.Profile)
		if err != nil {
			return nil, err
		}
		b.docs = docstore.NewS3Store(client, docstore.S3Options{
			Bucket:      ds.Bucket,
			LinkBaseURL: ds.LinkBaseURL,
			PageSize:    ds.PageSize,
			ChunkSize:   ds.ChunkSizeBytes,
		})
	case "local":
		local, err := docstore.NewLocalStore(ds.Root, ds.PageSize, ds.ChunkSizeBytes)
		if err != nil {
			return nil, err
		}
		b.docs = local
	default:
		return nil, fmt.Errorf("unsupported document store %q", ds.Type)
	}

	switch cfg.TabularStore.Type {
	case "sheets":
		b.sheets = sheetstore.NewSheetsStore(session.Sheets(), session.Drive())
	case "xlsx":
		b.sheets = sheetstore.NewWorkbookStore(cfg.TabularStore.Dir)
	default:
		return nil, fmt.Errorf("unsupported tabular store %q", cfg.TabularStore.Type)
	}

	return b, nil
}
