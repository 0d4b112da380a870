package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-match/internal/content"
	"resume-match/internal/evaluation"
	"resume-match/internal/llm"
	"resume-match/internal/llm/provider"
	"resume-match/internal/queue"
	"resume-match/internal/scores"
	"resume-match/internal/shared/config"
	"resume-match/internal/shared/server"
	"resume-match/internal/shared/server/middleware"
	"resume-match/internal/shared/storage/db"
	"resume-match/internal/shared/telemetry"
)

// App holds shared dependencies for every binary.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Dialect db.Dialect
	Queue   *queue.RabbitClient

	ContentRepo content.Repo
	ScoreStore  scores.Store

	ContentService    *content.Service
	Evaluator         *evaluation.Evaluator
	EvaluationService *evaluation.Service

	ContentHandler    *content.Handler
	ScoresHandler     *scores.Handler
	EvaluationHandler *evaluation.Handler
}

// Options overrides pieces of the dependency graph.
type Options struct {
	// LLM replaces the provider selected by configuration.
	LLM llm.Client
	// Publisher connects the RabbitMQ publisher when RABBITMQ_URL is set.
	Publisher bool
}

// Build connects storage, runs migrations and wires services and routes.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	if err := app.buildStore(ctx); err != nil {
		return nil, err
	}

	client := opts.LLM
	if client == nil {
		var err error
		client, err = provider.New(ctx, cfg)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("build llm client: %w", err)
		}
	}

	if opts.Publisher && cfg.RabbitMQURL != "" {
		q, err := queue.DialRabbit(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Queue = q
	}

	app.buildServices(client)

	var publisher queue.Client
	if app.Queue != nil {
		publisher = app.Queue
	}
	app.ContentHandler = content.NewHandler(app.ContentService)
	app.ScoresHandler = scores.NewHandler(app.ScoreStore)
	app.EvaluationHandler = evaluation.NewHandler(app.EvaluationService, app.Evaluator, publisher)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		DB:                app.DB,
		ContentHandler:    app.ContentHandler,
		ScoresHandler:     app.ScoresHandler,
		EvaluationHandler: app.EvaluationHandler,
		RateLimiter:       middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"store":    cfg.StoreDriver,
		"provider": cfg.LLMProvider,
		"model":    cfg.LLMModel,
		"queue":    app.Queue != nil,
	})
	return app, nil
}

func (a *App) buildStore(ctx context.Context) error {
	cfg := a.Config
	var (
		conn *sql.DB
		err  error
	)
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		telemetry.Info("bootstrap.store", map[string]any{"driver": config.StoreMemory})
		contentRepo := content.NewMemoryRepo()
		scoreStore := scores.NewMemoryRepo()
		scoreStore.References = content.PairExists(contentRepo)
		a.ContentRepo = contentRepo
		a.ScoreStore = scoreStore
		return nil
	case config.StorePostgres:
		a.Dialect = db.Postgres
		conn, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	case config.StoreSQLite:
		a.Dialect = db.SQLite
		conn, err = db.ConnectSQLite(ctx, cfg.SQLitePath, db.OptionsFromEnv(db.DefaultSQLiteOptions()))
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	if err != nil {
		return fmt.Errorf("connect %s store: %w", cfg.StoreDriver, err)
	}
	if err := db.RunMigrations(ctx, conn, a.Dialect); err != nil {
		_ = conn.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	a.DB = conn
	a.ContentRepo = &content.SQLRepo{DB: conn, Dialect: a.Dialect}
	a.ScoreStore = &scores.SQLRepo{DB: conn, Dialect: a.Dialect}
	telemetry.Info("bootstrap.store", map[string]any{"driver": cfg.StoreDriver})
	return nil
}

func (a *App) buildServices(client llm.Client) {
	cfg := a.Config
	a.ContentService = &content.Service{Repo: a.ContentRepo, Scores: a.ScoreStore}
	a.Evaluator = evaluation.NewEvaluator(client, cfg.LLMModel, cfg.LogMaxLength)
	a.EvaluationService = &evaluation.Service{
		Content:      a.ContentService,
		Evaluator:    evaluation.WithRetry(a.Evaluator, cfg.EvaluationRetries, 0),
		Scores:       a.ScoreStore,
		DefaultModel: cfg.LLMModel,
		Timeout:      cfg.EvaluationTimeout,
	}
}

// Close releases the database and queue connections.
func (a *App) Close() error {
	var errs []error
	if a.Queue != nil {
		errs = append(errs, a.Queue.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
