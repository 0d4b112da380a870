package evaluation

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-match/internal/queue"
	"resume-match/internal/shared/server/middleware"
	"resume-match/internal/shared/server/respond"
)

// Evaluating runs synchronous evaluations.
type Evaluating interface {
	Evaluate(ctx context.Context, req Request) (Outcome, error)
}

// Generator runs free-form prompts.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// Handler exposes evaluation and generation endpoints.
type Handler struct {
	Svc       Evaluating
	Generator Generator
	Queue     queue.Client // nil disables the async endpoint
	Now       func() time.Time
}

// NewHandler constructs a Handler. queueClient may be nil.
func NewHandler(svc Evaluating, gen Generator, queueClient queue.Client) *Handler {
	return &Handler{Svc: svc, Generator: gen, Queue: queueClient, Now: time.Now}
}

// RegisterRoutes attaches evaluation routes. extra runs before each handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, extra ...gin.HandlerFunc) {
	chain := func(last gin.HandlerFunc) []gin.HandlerFunc {
		out := make([]gin.HandlerFunc, 0, len(extra)+1)
		return append(append(out, extra...), last)
	}
	rg.POST("/evaluations", chain(h.evaluate)...)
	rg.POST("/evaluations/async", chain(h.enqueue)...)
	rg.POST("/generate", chain(h.generate)...)
}

type evaluateRequest struct {
	ResumeID   string `json:"resumeId"`
	JobOfferID string `json:"jobOfferId"`
	Model      string `json:"model"`
}

type evaluateResponse struct {
	Message string `json:"message"`
	Score   int    `json:"score"`
	Reason  string `json:"reason"`
	ScoreID string `json:"scoreId"`
	Model   string `json:"model"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

func bindPair(c *gin.Context) (evaluateRequest, bool) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return req, false
	}
	req.ResumeID = strings.TrimSpace(req.ResumeID)
	req.JobOfferID = strings.TrimSpace(req.JobOfferID)
	if req.ResumeID == "" || req.JobOfferID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resumeId and jobOfferId are required", nil)
		return req, false
	}
	c.Set(middleware.ResumeIDKey, req.ResumeID)
	c.Set(middleware.JobOfferIDKey, req.JobOfferID)
	return req, true
}

func (h *Handler) evaluate(c *gin.Context) {
	req, ok := bindPair(c)
	if !ok {
		return
	}

	out, err := h.Svc.Evaluate(c.Request.Context(), Request{
		ResumeID:   req.ResumeID,
		JobOfferID: req.JobOfferID,
		Model:      req.Model,
	})
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.Set(middleware.ScoreIDKey, out.ScoreID)
	respond.OK(c, evaluateResponse{
		Message: "Score calculated and saved successfully",
		Score:   out.Score,
		Reason:  out.Reason,
		ScoreID: out.ScoreID,
		Model:   out.Model,
	})
}

func (h *Handler) enqueue(c *gin.Context) {
	if h.Queue == nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "async evaluation is not configured", nil)
		return
	}
	req, ok := bindPair(c)
	if !ok {
		return
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	msg := queue.Message{
		ResumeID:   req.ResumeID,
		JobOfferID: req.JobOfferID,
		Model:      strings.TrimSpace(req.Model),
		RequestID:  middleware.RequestIDFromContext(c),
		EnqueuedAt: now().UTC().Format(time.RFC3339),
		Version:    queue.MessageVersion,
	}
	if err := h.Queue.Send(c.Request.Context(), msg); err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "failed to enqueue evaluation", nil)
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{
		"status":     "queued",
		"resumeId":   msg.ResumeID,
		"jobOfferId": msg.JobOfferID,
		"requestId":  msg.RequestID,
	})
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "prompt is required", nil)
		return
	}
	text, err := h.Generator.Generate(c.Request.Context(), req.Prompt, req.Model)
	if err != nil {
		writeFailure(c, err)
		return
	}
	respond.OK(c, gin.H{"generatedContent": text})
}

// StatusFor maps an evaluation error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch kind := Kind(err); kind {
	case "validation_error":
		return http.StatusBadRequest, kind
	case "not_found":
		return http.StatusNotFound, kind
	case "timeout":
		return http.StatusGatewayTimeout, kind
	case "canceled":
		return http.StatusRequestTimeout, kind
	case "model_unavailable", "malformed_model_output":
		return http.StatusBadGateway, kind
	case "duplicate_score":
		return http.StatusConflict, kind
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

var failureMessages = map[string]string{
	"validation_error":       "invalid evaluation request",
	"not_found":              "resume or job offer not found",
	"timeout":                "evaluation timed out",
	"canceled":               "evaluation canceled",
	"model_unavailable":      "model unavailable",
	"malformed_model_output": "model returned malformed output",
	"duplicate_score":        "concurrent evaluation conflict",
	"internal_error":         "evaluation failed",
}

func writeFailure(c *gin.Context, err error) {
	status, code := StatusFor(err)
	details := gin.H{}
	var fail *Failure
	if errors.As(err, &fail) {
		details["op"] = fail.Op
		details["persisted"] = fail.Persisted()
		if fail.Standing != nil {
			details["standingScoreId"] = fail.Standing.ID
			details["standingScore"] = fail.Standing.Score
		}
	}
	var malformed *MalformedOutputError
	if errors.As(err, &malformed) {
		details["reason"] = malformed.Reason
	}
	if len(details) == 0 {
		respond.Error(c, status, code, failureMessages[code], nil)
		return
	}
	respond.Error(c, status, code, failureMessages[code], details)
}
