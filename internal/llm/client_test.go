package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vedthemaster/lexsy-backend/internal/config"
)

func testClient(endpoint string) *OpenAIClient {
	client := NewOpenAIClient(config.Config{
		OpenAIAPIKey:  "test-key",
		OpenAIModel:   "gpt-4o-mini",
		LLMTimeout:    5 * time.Second,
		LLMMaxRetries: 2,
	})
	client.endpoint = endpoint
	return client
}

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestCompleteReturnsTrimmedContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "gpt-4o-mini", payload.Model)
		require.Len(t, payload.Messages, 1)
		require.Equal(t, "user", payload.Messages[0].Role)

		w.Write([]byte(completionBody("  0.85\n")))
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.Complete(context.Background(), "score this")

	require.NoError(t, err)
	require.Equal(t, "0.85", result)
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
			return
		}
		w.Write([]byte(completionBody("ok")))
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.Complete(context.Background(), "prompt")

	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.EqualValues(t, 3, calls.Load())
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad request", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Complete(context.Background(), "prompt")

	require.Error(t, err)
	require.Contains(t, err.Error(), "bad request")
	require.EqualValues(t, 1, calls.Load())
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewOpenAIClient(config.Config{LLMTimeout: time.Second})

	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestCompleteFuncAdapter(t *testing.T) {
	fn := CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		return "reply to " + prompt, nil
	})

	result, err := fn.Complete(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "reply to hello", result)
}
