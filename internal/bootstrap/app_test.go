package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resume-match/internal/evaluation"
	"resume-match/internal/llm"
	"resume-match/internal/shared/config"
)

func fakeLLM() llm.Client {
	return llm.ClientFunc(func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return `{"score": 91, "reason": "Great fit"}`, nil
	})
}

func baseConfig() config.Config {
	return config.Config{
		Env:               "dev",
		StoreDriver:       config.StoreMemory,
		LLMProvider:       config.ProviderOllama,
		LLMModel:          "llama3",
		OllamaHost:        "http://localhost:11434",
		EvaluationTimeout: time.Second,
	}
}

func TestBuildMemoryStore(t *testing.T) {
	app, err := Build(context.Background(), baseConfig(), Options{LLM: fakeLLM()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.Nil(t, app.DB)
	require.NotNil(t, app.Router)
	require.Nil(t, app.Queue)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, strings.Contains(resp.Body.String(), `"store":"memory"`))
}

func TestBuildSQLiteStoreEvaluates(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreDriver = config.StoreSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "data", "match.db")

	ctx := context.Background()
	app, err := Build(ctx, cfg, Options{LLM: fakeLLM()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	require.NotNil(t, app.DB)

	res, err := app.ContentService.CreateResume(ctx, "user-1", "cv.txt", "Go engineer")
	require.NoError(t, err)
	offer, err := app.ContentService.CreateJobOffer(ctx, "offer.txt", "Go backend role")
	require.NoError(t, err)

	out, err := app.EvaluationService.Evaluate(ctx, evaluation.Request{ResumeID: res.ID, JobOfferID: offer.ID})
	require.NoError(t, err)
	require.Equal(t, 91, out.Score)

	stored, err := app.ScoreStore.Get(ctx, res.ID, offer.ID)
	require.NoError(t, err)
	require.Equal(t, out.ScoreID, stored.ID)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.LLMProvider = config.ProviderOpenAI

	_, err := Build(context.Background(), cfg, Options{LLM: fakeLLM()})
	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "OPENAI_API_KEY", cfgErr.Field)
}
