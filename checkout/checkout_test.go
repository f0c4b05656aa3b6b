package checkout

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minci/minci-worker/events"
	"github.com/minci/minci-worker/runtime/mocks"
)

var testEvent = events.Event{
	ID:            "delivery-1",
	Kind:          events.KindPush,
	RepositoryURL: "https://github.com/example/project.git",
	Repository:    "example/project",
	Commit:        "0123456789abcdef0123456789abcdef01234567",
	Ref:           "refs/heads/main",
}

func TestFetchArgs(t *testing.T) {
	c := New(Options{Monitor: mocks.NewMockMonitor(true)})
	steps := c.fetchArgs(testEvent)
	require.Len(t, steps, 4)
	assert.Equal(t, []string{"init", "--quiet"}, steps[0])
	assert.Equal(t, []string{
		"remote", "add", "origin", "https://github.com/example/project.git",
	}, steps[1])
	assert.Equal(t, []string{
		"fetch", "--quiet", "--depth", "1", "origin", testEvent.Commit,
	}, steps[2])
	assert.Equal(t, []string{
		"checkout", "--quiet", "--detach", testEvent.Commit,
	}, steps[3])
}

func TestFetchRunsCommands(t *testing.T) {
	var log bytes.Buffer
	// "true" swallows any arguments, so this exercises the full sequence
	c := New(Options{
		Command:  "true",
		Monitor:  mocks.NewMockMonitor(true),
		LogDrain: &log,
	})
	require.NoError(t, c.Fetch(testEvent, t.TempDir()))
}

func TestFetchReportsFailure(t *testing.T) {
	c := New(Options{
		Command:  "false",
		Monitor:  mocks.NewMockMonitor(true),
		LogDrain: &bytes.Buffer{},
	})
	err := c.Fetch(testEvent, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git init failed")
}

func TestDefaultCommand(t *testing.T) {
	c := New(Options{Monitor: mocks.NewMockMonitor(true)})
	assert.Equal(t, "git", c.command)
}
