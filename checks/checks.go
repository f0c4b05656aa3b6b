// Package checks reports job state to the hosting platform, so a commit
// shows up as pending/success/failure next to the triggering event.
package checks

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	got "github.com/taskcluster/go-got"

	"github.com/minci/minci-worker/events"
	"github.com/minci/minci-worker/runtime"
)

// State is the visible state of a commit status.
type State string

const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailure State = "failure"
	StateError   State = "error"
)

// A Reporter publishes the state of a job.
//
// Implementations must be safe for concurrent use, jobs report
// independently of each other.
type Reporter interface {
	ReportState(event events.Event, state State, description string) error
}

// NullReporter discards all reports. It is used when no reporting endpoint
// is configured.
type NullReporter struct{}

// ReportState drops the report.
func (NullReporter) ReportState(events.Event, State, string) error {
	return nil
}

// HTTPReporterOptions is the set of options for NewHTTPReporter.
type HTTPReporterOptions struct {
	// APIBase is the base URL of the platform API, e.g.
	// "https://api.github.com".
	APIBase string
	// Context distinguishes this worker's status from other integrations,
	// defaults to "minci".
	Context string
	// AccessToken authenticates status updates. It is distinct from the
	// credential relayed into job environments.
	AccessToken string
	Monitor     runtime.Monitor
}

// HTTPReporter publishes commit statuses over the platform's REST API.
type HTTPReporter struct {
	apiBase     string
	context     string
	accessToken string
	monitor     runtime.Monitor
	got         *got.Got
}

func NewHTTPReporter(options HTTPReporterOptions) *HTTPReporter {
	context := options.Context
	if context == "" {
		context = "minci"
	}
	return &HTTPReporter{
		apiBase:     options.APIBase,
		context:     context,
		accessToken: options.AccessToken,
		monitor:     options.Monitor,
		got:         got.New(),
	}
}

type statusPayload struct {
	State       State  `json:"state"`
	Context     string `json:"context"`
	Description string `json:"description"`
}

// ReportState posts a commit status for the commit event refers to.
func (r *HTTPReporter) ReportState(event events.Event, state State, description string) error {
	body, err := json.Marshal(statusPayload{
		State:       state,
		Context:     r.context,
		Description: description,
	})
	if err != nil {
		panic(errors.Wrap(err, "failed to marshal commit status, this should be impossible"))
	}

	url := r.statusURL(event)
	req := r.got.Post(url, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	if r.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.accessToken)
	}

	if _, err := req.Send(); err != nil {
		r.monitor.ReportWarning(err, "failed to report commit status for ", event.Commit)
		return errors.Wrapf(err, "failed to report state '%s' for %s", state, event.Commit)
	}
	return nil
}

func (r *HTTPReporter) statusURL(event events.Event) string {
	return fmt.Sprintf("%s/repos/%s/statuses/%s", r.apiBase, event.Repository, event.Commit)
}
