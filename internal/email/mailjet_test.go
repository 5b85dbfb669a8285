package email

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPreviewModeWithoutCredentials(t *testing.T) {
	client := NewClient(Config{}, discardLogger())

	require.True(t, client.preview)

	// No HTTP call happens; both sends succeed locally
	assert.NoError(t, client.SendOTP(context.Background(), "parent@example.com", "123456"))
	assert.NoError(t, client.SendAlert(context.Background(), "parent@example.com", "Emma", "limit reached"))
}

func TestSendOTPCallsMailjet(t *testing.T) {
	var captured sendRequest
	var gotAuth bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3.1/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "key" && pass == "secret"

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:    "key",
		APISecret: "secret",
		FromEmail: "noreply@kidsafe.app",
		BaseURL:   server.URL,
	}, discardLogger())

	require.NoError(t, client.SendOTP(context.Background(), "parent@example.com", "654321"))

	assert.True(t, gotAuth)
	require.Len(t, captured.Messages, 1)
	msg := captured.Messages[0]
	assert.Equal(t, "noreply@kidsafe.app", msg.From.Email)
	require.Len(t, msg.To, 1)
	assert.Equal(t, "parent@example.com", msg.To[0].Email)
	assert.Contains(t, msg.TextPart, "654321")
	assert.Contains(t, msg.HTMLPart, "654321")
}

func TestSendAlertIncludesChildName(t *testing.T) {
	var captured sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   server.URL,
	}, discardLogger())

	require.NoError(t, client.SendAlert(context.Background(), "parent@example.com", "Emma", "Emma has reached their time limit."))

	require.Len(t, captured.Messages, 1)
	assert.Contains(t, captured.Messages[0].Subject, "Emma")
}

func TestSendFailsOnAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:    "key",
		APISecret: "wrong",
		BaseURL:   server.URL,
	}, discardLogger())

	err := client.SendOTP(context.Background(), "parent@example.com", "123456")
	assert.ErrorContains(t, err, "status 401")
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{APIKey: "key", APISecret: "secret"}, nil)

	assert.Equal(t, defaultBaseURL, client.config.BaseURL)
	assert.Equal(t, "noreply@kidsafe.app", client.config.FromEmail)
	assert.Equal(t, "KidSafe", client.config.FromName)
	assert.False(t, client.preview)
}
