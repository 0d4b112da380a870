package evaluation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"resume-match/internal/llm"
	"resume-match/internal/shared/telemetry"
	"resume-match/internal/shared/util"
)

// DefaultModel is used when neither the request nor configuration names one.
const DefaultModel = "llama3"

const defaultLogMaxLength = 200

// Evaluator scores already-loaded texts with one model call. It keeps no
// state between calls and is safe for concurrent use.
type Evaluator struct {
	Client       llm.Client
	DefaultModel string
	LogMaxLength int
}

// NewEvaluator constructs an Evaluator with the provider's default model.
func NewEvaluator(client llm.Client, defaultModel string, logMaxLength int) *Evaluator {
	return &Evaluator{Client: client, DefaultModel: defaultModel, LogMaxLength: logMaxLength}
}

// ResolveModel returns model or, when blank, the configured default.
func (e *Evaluator) ResolveModel(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	if m := strings.TrimSpace(e.DefaultModel); m != "" {
		return m
	}
	return DefaultModel
}

// Evaluate makes exactly one model call and validates the reply.
func (e *Evaluator) Evaluate(ctx context.Context, resumeText, jobOfferText, model string) (Result, error) {
	model = e.ResolveModel(model)
	system, user := BuildPrompt(resumeText, jobOfferText)

	log := telemetry.L()
	log.Debug("evaluation.prompt",
		zap.String("model", model),
		zap.Int("resume_len", len(resumeText)),
		zap.Int("job_offer_len", len(jobOfferText)),
		zap.String("resume_preview", util.TruncateForLog(resumeText, e.logLimit())),
		zap.String("job_offer_preview", util.TruncateForLog(jobOfferText, e.logLimit())),
	)

	raw, err := e.Client.Chat(ctx, llm.ChatRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
	})
	if err != nil {
		return Result{}, err
	}
	log.Debug("evaluation.reply", zap.String("model", model), zap.String("raw_preview", util.TruncateForLog(raw, e.logLimit())))

	return Extract(raw)
}

// Generate sends a free-form prompt and returns the model's text unchanged.
func (e *Evaluator) Generate(ctx context.Context, prompt, model string) (string, error) {
	return e.Client.Chat(ctx, llm.ChatRequest{
		Model:    e.ResolveModel(model),
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
}

func (e *Evaluator) logLimit() int {
	if e.LogMaxLength > 0 {
		return e.LogMaxLength
	}
	return defaultLogMaxLength
}
