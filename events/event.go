// Package events implements the trigger side of the worker: it models
// repository events and provides sources that produce them, notably an HTTP
// webhook endpoint accepting push and pull-request deliveries from the
// hosting platform.
//
// Exactly one job is scheduled per accepted event. Events of any other kind
// are acknowledged and dropped.
package events

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Kind is the kind of a repository event.
type Kind string

// Event kinds that trigger a job. Deliveries of any other kind are
// acknowledged without scheduling anything.
const (
	KindPush        Kind = "push"
	KindPullRequest Kind = "pull_request"
)

// Valid returns true if k is an event kind that triggers a job.
func (k Kind) Valid() bool {
	return k == KindPush || k == KindPullRequest
}

// An Event describes a single repository event. One event yields exactly one
// job; events carry no other payload fields than the ones below.
type Event struct {
	// ID is the delivery ID assigned by the platform, or a generated slug if
	// the delivery carried none.
	ID string `json:"id"`
	// Kind is either "push" or "pull_request".
	Kind Kind `json:"kind"`
	// RepositoryURL is the clone URL of the repository.
	RepositoryURL string `json:"repositoryUrl"`
	// Repository is the human readable "owner/name" slug, used for logging
	// and check-run reporting.
	Repository string `json:"repository"`
	// Commit is the commit to check out; for pull-request events this is the
	// head commit of the pull request.
	Commit string `json:"commit"`
	// Ref is the git ref the event concerns, may be empty.
	Ref string `json:"ref"`
	// Received is the time the event was accepted by this worker.
	Received time.Time `json:"received"`
}

// Validate returns an error if the event lacks the fields required to run a
// job for it.
func (e *Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unsupported event kind: '%s'", e.Kind)
	}
	if e.RepositoryURL == "" {
		return fmt.Errorf("event %s has no repository URL", e.ID)
	}
	if e.Commit == "" {
		return fmt.Errorf("event %s has no commit", e.ID)
	}
	return nil
}

// FromFile reads a single JSON-encoded event from the given file. This backs
// the one-shot 'once' command.
func FromFile(filename string) (Event, error) {
	var e Event
	data, err := os.ReadFile(filename)
	if err != nil {
		return e, fmt.Errorf("failed to read event file '%s': %s", filename, err)
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("failed to parse event file '%s': %s", filename, err)
	}
	if e.Received.IsZero() {
		e.Received = time.Now()
	}
	if err := e.Validate(); err != nil {
		return e, err
	}
	return e, nil
}
