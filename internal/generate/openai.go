package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// OpenAIRequest represents the request body for OpenAI-compatible APIs
type OpenAIRequest struct {
	Model    string              `json:"model"`
	Messages []map[string]string `json:"messages"`
}

// OpenAIResponse represents the response from OpenAI-compatible APIs
type OpenAIResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage map[string]interface{} `json:"usage"`
}

// OpenAIConfig holds OpenAI client configuration
type OpenAIConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	config     OpenAIConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewOpenAIGenerator creates a generator backed by an OpenAI-compatible API.
func NewOpenAIGenerator(config OpenAIConfig, logger zerolog.Logger) *OpenAIGenerator {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	return &OpenAIGenerator{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With().Str("component", "openai-generator").Logger(),
	}
}

// Generate asks the model for the document body.
func (g *OpenAIGenerator) Generate(ctx context.Context, degree, task, topic string) (string, error) {
	reqBody := OpenAIRequest{
		Model: g.config.Model,
		Messages: []map[string]string{
			{
				"role": "system",
				"content": "Siz o'qituvchilar uchun o'quv hujjatlarini tayyorlaydigan yordamchisiz. " +
					"Javobni faqat hujjat matni sifatida qaytaring.",
			},
			{
				"role":    "user",
				"content": buildPrompt(degree, task, topic),
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(g.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("content-type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var apiResp OpenAIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	g.logger.Debug().
		Str("model", apiResp.Model).
		Dur("duration", time.Since(start)).
		Msg("Generation completed")

	if len(apiResp.Choices) > 0 && apiResp.Choices[0].Message.Content != "" {
		return apiResp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("empty response from generator")
}

func buildPrompt(degree, task, topic string) string {
	return fmt.Sprintf(
		"Daraja: %s\nHujjat turi: %s\nMavzu: %s\n\n"+
			"Shu mavzu bo'yicha to'liq hujjat matnini yozing.",
		degree, task, topic,
	)
}
