package provider

import (
	"context"
	"fmt"

	"resume-match/internal/llm"
	"resume-match/internal/llm/gemini"
	"resume-match/internal/llm/ollama"
	"resume-match/internal/llm/openai"
	"resume-match/internal/shared/config"
)

// New builds the model client selected by cfg.LLMProvider.
func New(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderOllama, "":
		return ollama.NewClient(cfg.OllamaHost)
	case config.ProviderOpenAI:
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	case config.ProviderGemini:
		return gemini.NewClient(ctx, cfg.GeminiAPIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
