package provider

import (
	"context"
	"testing"

	"resume-match/internal/llm/ollama"
	"resume-match/internal/llm/openai"
	"resume-match/internal/shared/config"
)

func TestNewSelectsProvider(t *testing.T) {
	client, err := New(context.Background(), config.Config{LLMProvider: config.ProviderOllama, OllamaHost: "http://localhost:11434"})
	if err != nil {
		t.Fatalf("ollama: %v", err)
	}
	if _, ok := client.(*ollama.Client); !ok {
		t.Fatalf("expected *ollama.Client, got %T", client)
	}

	client, err = New(context.Background(), config.Config{LLMProvider: config.ProviderOpenAI, OpenAIAPIKey: "k"})
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := client.(*openai.Client); !ok {
		t.Fatalf("expected *openai.Client, got %T", client)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), config.Config{LLMProvider: "bard"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if _, err := New(context.Background(), config.Config{LLMProvider: config.ProviderGemini}); err == nil {
		t.Fatalf("expected error for gemini without key")
	}
}
