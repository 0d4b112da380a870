package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resume-match/internal/llm"
	"resume-match/internal/shared/util"
)

const provider = "ollama"

// Client implements llm.Client against the Ollama /api/chat endpoint.
// The http.Client carries no timeout; callers bound each call with their context.
type Client struct {
	host       string
	httpClient *http.Client
}

// NewClient constructs a client for the Ollama server at host.
func NewClient(host string) (*Client, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return nil, fmt.Errorf("OLLAMA_HOST is required")
	}
	return &Client{host: host, httpClient: &http.Client{}}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message llm.Message `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// Chat sends a single non-streaming chat request and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: req.Model, Messages: req.Messages, Stream: false})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", llm.Unavailable(provider, req.Model, 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", llm.Unavailable(provider, req.Model, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.Unavailable(provider, req.Model, resp.StatusCode, err)
	}

	var parsed chatResponse
	parseErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(parsed.Error)
		if parseErr != nil || msg == "" {
			msg = util.TruncateForLog(string(body), 200)
		}
		return "", llm.Unavailable(provider, req.Model, resp.StatusCode, fmt.Errorf("ollama error: %s", msg))
	}
	if parseErr != nil {
		return "", llm.Unavailable(provider, req.Model, resp.StatusCode, fmt.Errorf("ollama response parse: %w", parseErr))
	}
	if strings.TrimSpace(parsed.Error) != "" {
		return "", llm.Unavailable(provider, req.Model, resp.StatusCode, fmt.Errorf("ollama error: %s", parsed.Error))
	}
	// An empty reply is still a reply; the caller's result contract rejects it.
	return parsed.Message.Content, nil
}

var _ llm.Client = (*Client)(nil)
