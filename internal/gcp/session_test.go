package gcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestNewSession_AuthorizedUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	creds := `{"type":"authorized_user","client_id":"id","client_secret":"secret","refresh_token":"token"}`
	require.NoError(t, os.WriteFile(path, []byte(creds), 0o600))

	session, err := NewSession(context.Background(), path)
	require.NoError(t, err)
	assert.NotNil(t, session.Drive())
	assert.NotNil(t, session.Sheets())
}

func TestNewSession_MissingFile(t *testing.T) {
	_, err := NewSession(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read google credentials")
}

func TestNewSessionWithOptions(t *testing.T) {
	session, err := NewSessionWithOptions(context.Background(),
		option.WithEndpoint("http://127.0.0.1:1/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	assert.NotNil(t, session.Drive())
}
