package webhook

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, relay *MockMessenger) *Server {
	t.Helper()

	h := NewHandler(relay, new(MockTranscriber), new(MockExtractor), nil, t.TempDir(), "en")
	return NewServer(":0", h)
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_LivenessProbes(t *testing.T) {
	s := newTestServer(t, new(MockMessenger))

	rec := doRequest(s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = doRequest(s, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
	assert.Contains(t, rec.Body.String(), "voicehook")
}

func TestServer_SetWebhookRequiresURL(t *testing.T) {
	relay := new(MockMessenger)
	s := newTestServer(t, relay)

	rec := doRequest(s, http.MethodPost, "/set-webhook")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	relay.AssertNotCalled(t, "SetWebhook")
}

func TestServer_SetWebhookIdempotent(t *testing.T) {
	relay := new(MockMessenger)
	s := newTestServer(t, relay)

	relay.On("SetWebhook", "https://bot.example.com").
		Return([]byte(`{"ok":true,"result":true,"description":"Webhook was set"}`), nil).
		Twice()

	first := doRequest(s, http.MethodPost, "/set-webhook?url=https://bot.example.com")
	second := doRequest(s, http.MethodPost, "/set-webhook?url=https://bot.example.com")

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Contains(t, first.Body.String(), "Webhook was set")

	relay.AssertExpectations(t)
}

func TestServer_DeleteWebhook(t *testing.T) {
	relay := new(MockMessenger)
	s := newTestServer(t, relay)

	relay.On("DeleteWebhook").
		Return([]byte(`{"ok":true,"result":true}`), nil)

	rec := doRequest(s, http.MethodPost, "/delete-webhook")
	assert.Equal(t, http.StatusOK, rec.Code)

	relay.AssertExpectations(t)
}
