package events

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minci/minci-worker/runtime/mocks"
)

const testSecret = "webhook-secret"

var pushBody = []byte(`{
	"ref": "refs/heads/main",
	"after": "5bb1cdbfc9821df1b14371837b6a8b1e012e1478",
	"repository": {
		"full_name": "octocat/sandbox",
		"clone_url": "https://example.com/octocat/sandbox.git"
	}
}`)

var pullRequestBody = []byte(`{
	"pull_request": {
		"head": {
			"sha": "1435ef3b47e31c31b6da308cb6c96e65eba40e25",
			"ref": "feature-branch"
		}
	},
	"repository": {
		"full_name": "octocat/sandbox",
		"clone_url": "https://example.com/octocat/sandbox.git"
	}
}`)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestServer(secret string) *WebhookServer {
	return NewWebhookServer("127.0.0.1:0", secret, mocks.NewMockMonitor(false))
}

func deliver(s *WebhookServer, kind string, signature string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", kind)
	req.Header.Set("X-GitHub-Delivery", "test-delivery-1")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	w := httptest.NewRecorder()
	s.handle(w, req)
	return w
}

func TestWebhookPushEvent(t *testing.T) {
	s := newTestServer(testSecret)

	done := make(chan Event, 1)
	go func() { done <- <-s.events }()

	w := deliver(s, "push", sign(testSecret, pushBody), pushBody)
	require.Equal(t, http.StatusCreated, w.Code)

	event := <-done
	assert.Equal(t, KindPush, event.Kind)
	assert.Equal(t, "test-delivery-1", event.ID)
	assert.Equal(t, "octocat/sandbox", event.Repository)
	assert.Equal(t, "https://example.com/octocat/sandbox.git", event.RepositoryURL)
	assert.Equal(t, "5bb1cdbfc9821df1b14371837b6a8b1e012e1478", event.Commit)
	assert.Equal(t, "refs/heads/main", event.Ref)
	assert.False(t, event.Received.IsZero())
}

func TestWebhookPullRequestEvent(t *testing.T) {
	s := newTestServer(testSecret)

	done := make(chan Event, 1)
	go func() { done <- <-s.events }()

	w := deliver(s, "pull_request", sign(testSecret, pullRequestBody), pullRequestBody)
	require.Equal(t, http.StatusCreated, w.Code)

	event := <-done
	assert.Equal(t, KindPullRequest, event.Kind)
	assert.Equal(t, "1435ef3b47e31c31b6da308cb6c96e65eba40e25", event.Commit)
	assert.Equal(t, "feature-branch", event.Ref)
}

func TestWebhookInvalidSignature(t *testing.T) {
	s := newTestServer(testSecret)

	w := deliver(s, "push", sign("wrong-secret", pushBody), pushBody)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookMissingSignature(t *testing.T) {
	s := newTestServer(testSecret)

	w := deliver(s, "push", "", pushBody)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookIgnoresOtherKinds(t *testing.T) {
	s := newTestServer(testSecret)

	body := []byte(`{"zen": "Keep it logically awesome."}`)
	w := deliver(s, "ping", sign(testSecret, body), body)
	// acknowledged, but no job scheduled
	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case e := <-s.events:
		t.Fatalf("unexpected event scheduled: %+v", e)
	default:
	}
}

func TestWebhookNoSecretSkipsVerification(t *testing.T) {
	s := newTestServer("")

	done := make(chan Event, 1)
	go func() { done <- <-s.events }()

	w := deliver(s, "push", "", pushBody)
	assert.Equal(t, http.StatusCreated, w.Code)
	<-done
}

func TestWebhookRejectsGet(t *testing.T) {
	s := newTestServer(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.handle(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestWebhookDeliveryDuringShutdown(t *testing.T) {
	s := newTestServer(testSecret)
	s.stopped.Fall()

	// Nobody is receiving events anymore, the handler must not block
	w := deliver(s, "push", sign(testSecret, pushBody), pushBody)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebhookMalformedPayload(t *testing.T) {
	s := newTestServer(testSecret)

	body := []byte(`{"repository": 42}`)
	w := deliver(s, "push", sign(testSecret, body), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
