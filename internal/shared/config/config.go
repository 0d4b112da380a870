package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	LLMProvider   string
	LLMModel      string
	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string

	EvaluationTimeout time.Duration
	EvaluationRetries int

	RateLimitRPS   float64
	RateLimitBurst int

	RabbitMQURL       string
	RabbitMQQueue     string
	WorkerConcurrency int
	WorkerMaxAttempts int
	WorkerRetryDelay  time.Duration

	LogJSON      bool
	LogDebug     bool
	LogMaxLength int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	dbURL := strings.TrimSpace(v.GetString("database_url"))
	return Config{
		Port:            v.GetString("port"),
		Env:             normalizeEnv(v.GetString("env")),
		CORSAllowOrigin: splitAndTrim(v.GetString("cors_allow_origins")),

		StoreDriver: normalizeStoreDriver(v.GetString("store_driver"), dbURL),
		DatabaseURL: dbURL,
		SQLitePath:  v.GetString("sqlite_path"),

		LLMProvider:   normalizeProvider(v.GetString("llm_provider")),
		LLMModel:      strings.TrimSpace(v.GetString("llm_model")),
		OllamaHost:    strings.TrimRight(strings.TrimSpace(v.GetString("ollama_host")), "/"),
		OpenAIAPIKey:  strings.TrimSpace(v.GetString("openai_api_key")),
		OpenAIBaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("openai_base_url")), "/"),
		GeminiAPIKey:  strings.TrimSpace(v.GetString("gemini_api_key")),

		EvaluationTimeout: v.GetDuration("evaluation_timeout"),
		EvaluationRetries: v.GetInt("evaluation_retries"),

		RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),

		RabbitMQURL:       strings.TrimSpace(v.GetString("rabbitmq_url")),
		RabbitMQQueue:     v.GetString("rabbitmq_queue"),
		WorkerConcurrency: v.GetInt("worker_concurrency"),
		WorkerMaxAttempts: v.GetInt("worker_max_attempts"),
		WorkerRetryDelay:  v.GetDuration("worker_retry_delay"),

		LogJSON:      v.GetBool("log_json"),
		LogDebug:     v.GetBool("log_debug"),
		LogMaxLength: v.GetInt("log_max_length"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("cors_allow_origins", "http://localhost:3000")
	v.SetDefault("store_driver", "")
	v.SetDefault("database_url", "")
	v.SetDefault("sqlite_path", "./data/resume-match.db")
	v.SetDefault("llm_provider", ProviderOllama)
	v.SetDefault("llm_model", "llama3")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("evaluation_timeout", 2*time.Minute)
	v.SetDefault("evaluation_retries", 0)
	v.SetDefault("rate_limit_rps", 1.0)
	v.SetDefault("rate_limit_burst", 5)
	v.SetDefault("rabbitmq_url", "")
	v.SetDefault("rabbitmq_queue", "evaluation_queue")
	v.SetDefault("worker_concurrency", 4)
	v.SetDefault("worker_max_attempts", 5)
	v.SetDefault("worker_retry_delay", 2*time.Second)
	v.SetDefault("log_json", true)
	v.SetDefault("log_debug", false)
	v.SetDefault("log_max_length", 200)
}

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// Validate checks that the selected provider and store have what they need.
func (c Config) Validate() error {
	if c.LLMModel == "" {
		return &ConfigError{Field: "LLM_MODEL", Message: "LLM_MODEL is required"}
	}
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return &ConfigError{Field: "OPENAI_API_KEY", Message: "OPENAI_API_KEY is required for the openai provider"}
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return &ConfigError{Field: "GEMINI_API_KEY", Message: "GEMINI_API_KEY is required for the gemini provider"}
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return &ConfigError{Field: "OLLAMA_HOST", Message: "OLLAMA_HOST is required for the ollama provider"}
		}
	default:
		return &ConfigError{Field: "LLM_PROVIDER", Message: fmt.Sprintf("unsupported LLM_PROVIDER %q", c.LLMProvider)}
	}
	if c.StoreDriver == StorePostgres && c.DatabaseURL == "" {
		return &ConfigError{Field: "DATABASE_URL", Message: "DATABASE_URL is required for the postgres store"}
	}
	if c.StoreDriver == StoreSQLite && strings.TrimSpace(c.SQLitePath) == "" {
		return &ConfigError{Field: "SQLITE_PATH", Message: "SQLITE_PATH is required for the sqlite store"}
	}
	if c.Env == "production" && c.StoreDriver == StoreMemory {
		return &ConfigError{Field: "STORE_DRIVER", Message: "a persistent store is required in production"}
	}
	return nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreDriver(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg", "postgresql":
		return StorePostgres
	case "sqlite", "sqlite3":
		return StoreSQLite
	case "memory", "mem":
		return StoreMemory
	}
	if dbURL != "" {
		return StorePostgres
	}
	return StoreMemory
}

func normalizeProvider(raw string) string {
	provider := strings.ToLower(strings.TrimSpace(raw))
	if provider == "" {
		return ProviderOllama
	}
	return provider
}
