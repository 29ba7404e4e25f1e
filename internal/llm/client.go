package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/riskwise/internal/metrics"
)

// Client talks to an OpenAI-compatible chat completions endpoint (DeepSeek by default)
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// ClientConfig contains configuration for the LLM client
type ClientConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration // 0 leaves the transport default in place
	HTTPClient  *http.Client
}

// NewClient creates a new LLM client
func NewClient(config ClientConfig) *Client {
	if config.Endpoint == "" {
		config.Endpoint = "https://api.deepseek.com/v1/chat/completions"
	}
	if config.Model == "" {
		config.Model = "deepseek-chat"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1000
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		endpoint:    config.Endpoint,
		apiKey:      config.APIKey,
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		httpClient:  httpClient,
	}
}

// Complete sends a chat completion request and returns the first choice's content
func (c *Client) Complete(ctx context.Context, messages []ChatMessage, params Params) (string, error) {
	resp, err := c.CompleteRaw(ctx, messages, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteRaw sends a chat completion request and returns the decoded response
func (c *Client) CompleteRaw(ctx context.Context, messages []ChatMessage, params Params) (resp *ChatResponse, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordGatewayCall(metrics.GatewayLLM, err, float64(time.Since(start).Milliseconds()))
	}()

	request := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if params.Temperature > 0 {
		request.Temperature = params.Temperature
	}
	if params.MaxTokens > 0 {
		request.MaxTokens = params.MaxTokens
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log.Debug().
		Str("endpoint", c.endpoint).
		Str("model", c.model).
		Int("message_count", len(messages)).
		Float64("temperature", request.Temperature).
		Int("max_tokens", request.MaxTokens).
		Msg("Sending LLM request")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: httpResp.StatusCode, Message: string(body)}
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			apiErr.Message = errResp.Error.Message
		}
		return nil, apiErr
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	log.Debug().
		Str("model", chatResp.Model).
		Int("prompt_tokens", chatResp.Usage.PromptTokens).
		Int("completion_tokens", chatResp.Usage.CompletionTokens).
		Dur("duration", time.Since(start)).
		Msg("LLM request completed")

	return &chatResp, nil
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseJSON extracts a JSON object from model output (bare, fenced, or
// embedded in prose) and decodes it into target
func ParseJSON(content string, target any) error {
	content = extractJSONFromMarkdown(content)
	if !json.Valid([]byte(content)) {
		if m := jsonObjectPattern.FindString(content); m != "" {
			content = m
		}
	}

	if err := json.Unmarshal([]byte(content), target); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// extractJSONFromMarkdown extracts JSON from markdown code blocks
func extractJSONFromMarkdown(content string) string {
	start := -1

	if idx := strings.Index(content, "```json"); idx >= 0 {
		start = idx + 7
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		start = idx + 3
	}

	if start >= 0 {
		if idx := strings.Index(content[start:], "```"); idx >= 0 {
			content = content[start : start+idx]
		}
	}

	return strings.TrimSpace(content)
}
