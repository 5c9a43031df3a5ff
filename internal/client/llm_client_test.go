package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio-api/internal/config"
	"portfolio-api/internal/models"
)

func newTestLLM(baseURL, apiKey string) *LLMClient {
	return NewLLMClient(config.LLMConfig{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       "test-model",
		Temperature: 0.2,
		MaxTokens:   100,
		Timeout:     2 * time.Second,
	}, zap.NewNop())
}

func TestCompleteSendsConversation(t *testing.T) {
	var got completionRequest
	var gotAuth string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"content":"hello from the model"}}]}`))
	}))
	defer provider.Close()

	c := newTestLLM(provider.URL+"/", "secret-key")
	reply, err := c.Complete(context.Background(), []models.ChatMessage{
		{Role: "system", Content: "context"},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from the model", reply)

	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestCompleteProviderError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer provider.Close()

	c := newTestLLM(provider.URL, "")
	_, err := c.Complete(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteEmptyChoices(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer provider.Close()

	c := newTestLLM(provider.URL, "")
	_, err := c.Complete(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}})
	assert.EqualError(t, err, "no response from model")
}

func TestCompleteNoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer provider.Close()

	c := newTestLLM(provider.URL, "")
	_, err := c.Complete(context.Background(), []models.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}
