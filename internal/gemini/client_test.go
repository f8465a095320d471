package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-key", "gemini-2.5-flash", 5*time.Second)
	client.SetBaseURL(server.URL)
	return client
}

func TestTransform_Success(t *testing.T) {
	var gotPrompt string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		gotPrompt = req.Contents[0].Parts[0].Text

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "  Rewritten output.  "}},
				}},
			},
		})
	})

	out, err := client.Transform(context.Background(), "hello there", "casual", "100")
	require.NoError(t, err)
	assert.Equal(t, "Rewritten output.", out)
	assert.Contains(t, gotPrompt, "hello there")
	assert.Contains(t, gotPrompt, "casual, friendly, and conversational")
	assert.Contains(t, gotPrompt, "approximately 100 words")
}

func TestTransform_UnknownSelectorsFallBack(t *testing.T) {
	var gotPrompt string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Contents[0].Parts[0].Text

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "ok"}},
				}},
			},
		})
	})

	_, err := client.Transform(context.Background(), "text", "sarcastic", "9000")
	require.NoError(t, err)
	assert.Contains(t, gotPrompt, "professional, formal, and business-appropriate")
	assert.Contains(t, gotPrompt, "approximately 100 words")
}

func TestTransform_NoAPIKey(t *testing.T) {
	client := NewClient("", "gemini-2.5-flash", time.Second)

	_, err := client.Transform(context.Background(), "text", "casual", "100")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTransform_SafetyBlock(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"promptFeedback": map[string]string{"blockReason": "SAFETY"},
		})
	})

	_, err := client.Transform(context.Background(), "text", "casual", "100")
	require.Error(t, err)
	assert.Equal(t, FailureContentBlocked, Classify(err))
}

func TestTransform_UpstreamRateLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.Transform(context.Background(), "text", "casual", "100")
	require.Error(t, err)
	assert.Equal(t, FailureRateLimited, Classify(err))
}

func TestTransform_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := client.Transform(context.Background(), "text", "casual", "100")
		require.Error(t, err)
	}

	// Breaker is open now; the failure must read as retriable.
	_, err := client.Transform(context.Background(), "text", "casual", "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, FailureRateLimited, Classify(err))
}
