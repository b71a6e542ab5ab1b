// Package gcp builds the Google API clients used by the Drive and Sheets
// backends. One Session is constructed per run and passed to the stores.
package gcp

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for every session.
var Scopes = []string{
	drive.DriveReadonlyScope,
	sheets.SpreadsheetsScope,
}

// Session holds authenticated Drive and Sheets services.
type Session struct {
	drive  *drive.Service
	sheets *sheets.Service
}

// NewSession authenticates with credentialsFile (a service account or
// authorized user JSON file) or, when empty, Application Default Credentials.
func NewSession(ctx context.Context, credentialsFile string) (*Session, error) {
	var (
		creds *google.Credentials
		err   error
	)

	if credentialsFile != "" {
		data, readErr := os.ReadFile(credentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("read google credentials: %w", readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, Scopes...)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, Scopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}

	return NewSessionWithOptions(ctx, option.WithTokenSource(creds.TokenSource))
}

// NewSessionWithOptions builds the services from explicit client options.
func NewSessionWithOptions(ctx context.Context, opts ...option.ClientOption) (*Session, error) {
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Session{drive: driveSvc, sheets: sheetsSvc}, nil
}

// Drive returns the Drive service.
func (s *Session) Drive() *drive.Service { return s.drive }

// Sheets returns the Sheets service.
func (s *Session) Sheets() *sheets.Service { return s.sheets }
