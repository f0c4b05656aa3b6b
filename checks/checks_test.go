package checks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
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

func TestReportState(t *testing.T) {
	var (
		gotPath    string
		gotAuth    string
		gotPayload statusPayload
	)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotPayload))
		w.WriteHeader(http.StatusCreated)
	}))
	defer s.Close()

	r := NewHTTPReporter(HTTPReporterOptions{
		APIBase:     s.URL,
		AccessToken: "status-token",
		Monitor:     mocks.NewMockMonitor(true),
	})
	err := r.ReportState(testEvent, StateSuccess, "all tests passed")
	require.NoError(t, err)

	assert.Equal(t, "/repos/example/project/statuses/"+testEvent.Commit, gotPath)
	assert.Equal(t, "Bearer status-token", gotAuth)
	assert.Equal(t, StateSuccess, gotPayload.State)
	assert.Equal(t, "minci", gotPayload.Context)
	assert.Equal(t, "all tests passed", gotPayload.Description)
}

func TestReportStateServerError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer s.Close()

	// the monitor must not panic, a failed report is only a warning
	r := NewHTTPReporter(HTTPReporterOptions{
		APIBase: s.URL,
		Monitor: mocks.NewMockMonitor(false),
	})
	err := r.ReportState(testEvent, StateFailure, "tests failed")
	require.Error(t, err)
}

func TestNullReporter(t *testing.T) {
	assert.NoError(t, NullReporter{}.ReportState(testEvent, StatePending, ""))
}
