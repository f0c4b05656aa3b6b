package events

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"id": "local-1",
		"kind": "push",
		"repositoryUrl": "https://example.com/octocat/sandbox.git",
		"repository": "octocat/sandbox",
		"commit": "5bb1cdbfc9821df1b14371837b6a8b1e012e1478",
		"ref": "refs/heads/main"
	}`), 0600))

	event, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, KindPush, event.Kind)
	assert.Equal(t, "local-1", event.ID)
	assert.False(t, event.Received.IsZero())
}

func TestEventFromFileRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"id": "local-2",
		"kind": "release",
		"repositoryUrl": "https://example.com/octocat/sandbox.git",
		"commit": "5bb1cdbfc9821df1b14371837b6a8b1e012e1478"
	}`), 0600))

	_, err := FromFile(path)
	require.Error(t, err)
}

func TestEventValidate(t *testing.T) {
	event := Event{
		Kind:          KindPullRequest,
		RepositoryURL: "https://example.com/octocat/sandbox.git",
		Commit:        "1435ef3b47e31c31b6da308cb6c96e65eba40e25",
	}
	assert.NoError(t, event.Validate())

	event.Commit = ""
	assert.Error(t, event.Validate())
}
