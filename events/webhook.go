package events

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taskcluster/slugid-go/slugid"
	graceful "gopkg.in/tylerb/graceful.v1"

	"github.com/minci/minci-worker/runtime"
	"github.com/minci/minci-worker/runtime/atomics"
)

var debug = runtime.Debug("webhook")

// Largest webhook payload we're willing to read. The platform documents a
// much lower limit, this is merely to bound memory usage.
const maxPayloadSize = 10 * 1024 * 1024

// A WebhookServer listens for webhook deliveries from the hosting platform
// and produces one Event per accepted delivery on Events().
type WebhookServer struct {
	server  *graceful.Server
	monitor runtime.Monitor
	secret  []byte
	events  chan Event
	stopped atomics.Barrier
}

// NewWebhookServer returns a WebhookServer listening on the given address.
//
// If secret is non-empty every delivery must carry a valid HMAC-SHA256
// signature over the payload in the X-Hub-Signature-256 header; deliveries
// with a missing or invalid signature are rejected and schedule no job.
func NewWebhookServer(address, secret string, monitor runtime.Monitor) *WebhookServer {
	s := &WebhookServer{
		monitor: monitor,
		secret:  []byte(secret),
		events:  make(chan Event),
	}
	s.server = &graceful.Server{
		Timeout: 30 * time.Second,
		Server: &http.Server{
			Addr:    address,
			Handler: http.HandlerFunc(s.handle),
		},
		NoSignalHandling: true,
	}
	return s
}

// Events returns the channel on which accepted events are delivered. The
// channel is closed when the server stops.
func (s *WebhookServer) Events() <-chan Event {
	return s.events
}

// ListenAndServe runs the webhook server until Stop() is called.
func (s *WebhookServer) ListenAndServe() error {
	err := s.server.ListenAndServe()
	close(s.events)
	return err
}

// Stop stops the webhook server gracefully, allowing in-flight deliveries to
// be processed.
func (s *WebhookServer) Stop() {
	// Lower the barrier first, so handlers blocked on the events channel bail
	// out instead of hanging past the channel close
	s.stopped.Fall()
	s.server.Stop(s.server.Timeout)
}

func (s *WebhookServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}

	if len(s.secret) > 0 && !s.verifySignature(r.Header.Get("X-Hub-Signature-256"), body) {
		s.monitor.Warn("rejected webhook delivery with missing or invalid signature")
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	kind := Kind(r.Header.Get("X-GitHub-Event"))
	if !kind.Valid() {
		// We only subscribe to push and pull_request; acknowledge anything
		// else so the platform doesn't retry the delivery.
		debug("ignoring delivery of kind: %s", kind)
		w.WriteHeader(http.StatusOK)
		return
	}

	event, err := parsePayload(kind, body)
	if err != nil {
		s.monitor.ReportWarning(err, "failed to parse webhook payload")
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	if event.ID == "" {
		event.ID = r.Header.Get("X-GitHub-Delivery")
	}
	if event.ID == "" {
		event.ID = slugid.Nice()
	}
	event.Received = time.Now()

	if err := event.Validate(); err != nil {
		s.monitor.ReportWarning(err, "webhook payload is missing required fields")
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	debug("accepted %s event %s for %s@%s", event.Kind, event.ID, event.Repository, event.Commit)
	select {
	case s.events <- event:
		w.WriteHeader(http.StatusCreated)
	case <-s.stopped.Barrier():
		http.Error(w, "worker is shutting down", http.StatusServiceUnavailable)
	}
}

func (s *WebhookServer) verifySignature(header string, body []byte) bool {
	signature, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// payload structures hold the few fields we consult; everything else in the
// delivery is ignored.
type repository struct {
	FullName string `json:"full_name"`
	CloneURL string `json:"clone_url"`
}

type pushPayload struct {
	Ref        string     `json:"ref"`
	After      string     `json:"after"`
	Repository repository `json:"repository"`
}

type pullRequestPayload struct {
	PullRequest struct {
		Head struct {
			SHA string `json:"sha"`
			Ref string `json:"ref"`
		} `json:"head"`
	} `json:"pull_request"`
	Repository repository `json:"repository"`
}

func parsePayload(kind Kind, body []byte) (Event, error) {
	event := Event{Kind: kind}
	switch kind {
	case KindPush:
		var p pushPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return event, err
		}
		event.RepositoryURL = p.Repository.CloneURL
		event.Repository = p.Repository.FullName
		event.Commit = p.After
		event.Ref = p.Ref
	case KindPullRequest:
		var p pullRequestPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return event, err
		}
		event.RepositoryURL = p.Repository.CloneURL
		event.Repository = p.Repository.FullName
		event.Commit = p.PullRequest.Head.SHA
		event.Ref = p.PullRequest.Head.Ref
	}
	return event, nil
}
