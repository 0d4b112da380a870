package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-match/internal/content"
	"resume-match/internal/evaluation"
	"resume-match/internal/scores"
	"resume-match/internal/services/health"
	"resume-match/internal/shared/config"
	"resume-match/internal/shared/metrics"
	"resume-match/internal/shared/server/middleware"
	"resume-match/internal/shared/server/respond"
)

const evaluationRateGroup = "EVALUATION"

// RouterDeps carries the handlers and resources the router exposes.
type RouterDeps struct {
	Config            config.Config
	DB                *sql.DB // nil for the in-memory store
	ContentHandler    *content.Handler
	ScoresHandler     *scores.Handler
	EvaluationHandler *evaluation.Handler
	RateLimiter       *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	var pinger health.Pinger
	if deps.DB != nil {
		pinger = deps.DB
	}
	api.GET("/health", healthHandler(health.NewService(pinger, deps.Config.StoreDriver)))
	registerMeRoutes(api)

	if deps.ContentHandler != nil {
		deps.ContentHandler.RegisterRoutes(api)
	}
	if deps.ScoresHandler != nil {
		deps.ScoresHandler.RegisterRoutes(api)
	}
	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.RegisterRoutes(api, evaluationRateLimit(deps))
	}

	return r
}

// evaluationRateLimit throttles model-bound endpoints per caller.
func evaluationRateLimit(deps RouterDeps) gin.HandlerFunc {
	rps := deps.Config.RateLimitRPS
	burst := deps.Config.RateLimitBurst
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        map[string]middleware.RateLimitRule{evaluationRateGroup: {Rate: rps, Burst: burst}},
		DefaultGroup: evaluationRateGroup,
		Limiter:      deps.RateLimiter,
	})
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := svc.Status(c.Request.Context())
		if !status.OK {
			respond.JSON(c, http.StatusServiceUnavailable, status)
			return
		}
		respond.JSON(c, http.StatusOK, status)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
