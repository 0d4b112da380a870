package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"resume-match/internal/llm"
)

const provider = "gemini"

// contentGenerator is the subset of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client on the Gemini API backend.
type Client struct {
	models contentGenerator
}

// NewClient creates a Gemini client for the given API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{models: client.Models}, nil
}

// Chat sends the system messages as the system instruction and the rest as user content.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	system, user := llm.SystemAndUser(req.Messages)

	temp := float32(0)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := c.models.GenerateContent(ctx, req.Model, genai.Text(user), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", llm.Unavailable(provider, req.Model, apiErr.Code, fmt.Errorf("generate content: %w", err))
		}
		return "", llm.Unavailable(provider, req.Model, 0, fmt.Errorf("generate content: %w", err))
	}
	if resp == nil {
		return "", llm.Unavailable(provider, req.Model, 0, errors.New("gemini api returned no response"))
	}

	if len(resp.Candidates) == 0 {
		return "", llm.Unavailable(provider, req.Model, 0, errors.New("gemini api returned no candidates"))
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(part.Text)
		}
	}

	return builder.String(), nil
}

var _ llm.Client = (*Client)(nil)
