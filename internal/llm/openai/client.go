package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resume-match/internal/llm"
	"resume-match/internal/shared/telemetry"
	"resume-match/internal/shared/util"
)

const (
	provider       = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client. An empty baseURL selects the public API.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Chat sends one chat completion request and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	body := chatRequest{Model: req.Model, Messages: req.Messages}
	if !isGPT5(req.Model) {
		temp := float32(0)
		body.Temperature = &temp
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", llm.Unavailable(provider, req.Model, 0, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", llm.Unavailable(provider, req.Model, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.Unavailable(provider, req.Model, resp.StatusCode, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", llm.Unavailable(provider, req.Model, resp.StatusCode, fmt.Errorf("openai error: %s", util.TruncateForLog(string(raw), 200)))
		}
		return "", llm.Unavailable(provider, req.Model, resp.StatusCode, fmt.Errorf("openai response parse: %w", err))
	}
	if parsed.Error != nil {
		return "", llm.Unavailable(provider, req.Model, resp.StatusCode, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", llm.Unavailable(provider, req.Model, resp.StatusCode, fmt.Errorf("openai unexpected status"))
	}
	if len(parsed.Choices) == 0 {
		return "", llm.Unavailable(provider, req.Model, resp.StatusCode, fmt.Errorf("openai response missing choices"))
	}

	content := parsed.Choices[0].Message.Content
	logUsage(req.Model, parsed)
	return content, nil
}

func logUsage(model string, parsed chatResponse) {
	fields := map[string]any{"provider": provider, "model": model}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Debug("llm response", fields)
}

// gpt-5 models reject an explicit temperature.
func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
