package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ikkim/videokb-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAIService(url string, timeout time.Duration) AIService {
	return NewAIService(config.LLMConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: url,
		Timeout: timeout,
	})
}

func chatCompletionBody(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestAIService_CompleteJSON(t *testing.T) {
	var received openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody(` {"platform":"tiktok"} `)))
	}))
	defer server.Close()

	ai := newTestAIService(server.URL+"/", time.Second)
	content, err := ai.CompleteJSON(context.Background(), JSONCompletionRequest{
		SystemPrompt: "system",
		UserPrompt:   "找抖音的影片",
		SchemaName:   "parsed_query",
		Schema:       parsedQuerySchema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"platform":"tiktok"}`, content)

	assert.Equal(t, "test-model", received.Model)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, "system", received.Messages[0].Role)
	assert.Equal(t, "找抖音的影片", received.Messages[1].Content)
	require.NotNil(t, received.ResponseFormat)
	assert.Equal(t, "json_schema", received.ResponseFormat.Type)
	assert.True(t, received.ResponseFormat.JSONSchema.Strict)
}

func TestAIService_Failures(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		ai := NewAIService(config.LLMConfig{BaseURL: "http://127.0.0.1:1"})
		_, err := ai.CompleteJSON(context.Background(), JSONCompletionRequest{})
		assert.ErrorIs(t, err, ErrAINotConfigured)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
		}))
		defer server.Close()

		_, err := newTestAIService(server.URL, time.Second).CompleteJSON(context.Background(), JSONCompletionRequest{})
		var statusErr *AIStatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
		assert.Equal(t, "bad_status", modelFailureCause(err))
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		_, err := newTestAIService(server.URL, time.Second).CompleteJSON(context.Background(), JSONCompletionRequest{})
		assert.Error(t, err)
	})

	t.Run("client timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		_, err := newTestAIService(server.URL, 50*time.Millisecond).CompleteJSON(context.Background(), JSONCompletionRequest{})
		require.Error(t, err)
		assert.Equal(t, "timeout", modelFailureCause(err))
	})
}
