package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOpenRouterURL = "https://openrouter.ai/api/v1"
	// DefaultOpenRouterModel is used when Config.Model is empty.
	DefaultOpenRouterModel = "google/gemini-2.5-flash"
)

// OpenRouterGenerator calls any model behind the OpenRouter chat API.
type OpenRouterGenerator struct {
	baseURL string
	client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenRouterGenerator(baseURL string) *OpenRouterGenerator {
	if baseURL == "" {
		baseURL = defaultOpenRouterURL
	}
	return &OpenRouterGenerator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *OpenRouterGenerator) Name() string {
	return "openrouter"
}

func (g *OpenRouterGenerator) RequiresAPIKey() bool {
	return true
}

func (g *OpenRouterGenerator) Generate(ctx context.Context, cfg Config, prompt string) (string, error) {
	if cfg.APIKey == "" {
		return "", fmt.Errorf("openrouter: %w", ErrMissingAPIKey)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenRouterModel
	}

	reqBody := chatRequest{
		Model:     model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: 1024,
	}
	if cfg.JSON {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal openrouter request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat/completions", g.baseURL), bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create openrouter request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))
	req.Header.Set("X-Title", "LinguaBridge")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Provider: g.Name(), Code: resp.StatusCode, Body: truncate(string(body), 300)}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode openrouter response: %w", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openrouter: %w", ErrEmptyResponse)
	}
	return chatResp.Choices[0].Message.Content, nil
}
