package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when Config.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

const geminiTemperature = 0.3

// GeminiGenerator calls the Gemini API through the genai SDK. A client is
// built per call because the key may change between requests.
type GeminiGenerator struct {
	baseURL string
	client  *http.Client
}

// NewGeminiGenerator creates a Gemini-backed generator. baseURL may be
// empty to use the public endpoint.
func NewGeminiGenerator(baseURL string) *GeminiGenerator {
	return &GeminiGenerator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *GeminiGenerator) Name() string {
	return "gemini"
}

func (g *GeminiGenerator) RequiresAPIKey() bool {
	return true
}

func (g *GeminiGenerator) Generate(ctx context.Context, cfg Config, prompt string) (string, error) {
	if cfg.APIKey == "" {
		return "", fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  g.client,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(geminiTemperature)),
	}
	if cfg.JSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", classifyGeminiError(err))
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}

// classifyGeminiError lifts SDK API errors into a StatusError so retry
// policy sees the HTTP code.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Provider: "gemini", Code: apiErr.Code, Body: truncate(apiErr.Message, 300)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &StatusError{Provider: "gemini", Code: apiErrPtr.Code, Body: truncate(apiErrPtr.Message, 300)}
	}
	return err
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
