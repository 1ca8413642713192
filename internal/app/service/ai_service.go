package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ikkim/videokb-backend/config"
)

var ErrAINotConfigured = errors.New("LLM API key is not configured")

// AIStatusError is returned when the provider answers with a non-200 status.
type AIStatusError struct {
	StatusCode int
	Body       string
}

func (e *AIStatusError) Error() string {
	return fmt.Sprintf("LLM API returned status %d", e.StatusCode)
}

// JSONCompletionRequest 要求模型以指定 JSON schema 回覆
type JSONCompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       map[string]interface{}
}

// AIService AI 服務介面
type AIService interface {
	CompleteJSON(ctx context.Context, req JSONCompletionRequest) (string, error)
}

type aiService struct {
	config config.LLMConfig
	client *http.Client
}

// NewAIService AI 服務建構子
func NewAIService(cfg config.LLMConfig) AIService {
	return &aiService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// OpenAI API 請求結構
type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema openAIJSONSchema `json:"json_schema"`
}

type openAIJSONSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// CompleteJSON sends one chat completion constrained to the given schema and
// returns the raw message content.
func (s *aiService) CompleteJSON(ctx context.Context, req JSONCompletionRequest) (string, error) {
	if s.config.APIKey == "" {
		return "", ErrAINotConfigured
	}

	reqData := openAIRequest{
		Model: s.config.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: 0,
		ResponseFormat: &openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: openAIJSONSchema{
				Name:   req.SchemaName,
				Strict: true,
				Schema: req.Schema,
			},
		},
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(s.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AIStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if openAIResp.Error != nil {
		return "", fmt.Errorf("LLM API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		return "", errors.New("no choices in LLM response")
	}

	return strings.TrimSpace(openAIResp.Choices[0].Message.Content), nil
}
