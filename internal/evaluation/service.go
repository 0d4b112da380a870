package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-match/internal/scores"
	"resume-match/internal/shared/metrics"
	"resume-match/internal/shared/telemetry"
)

const standingLookupTimeout = 2 * time.Second

// ContentSource resolves stored document text by id.
type ContentSource interface {
	ResumeText(ctx context.Context, id string) (string, error)
	JobOfferText(ctx context.Context, id string) (string, error)
}

// MatchEvaluator turns two texts into a validated Result.
type MatchEvaluator interface {
	Evaluate(ctx context.Context, resumeText, jobOfferText, model string) (Result, error)
}

// Request names the pair to evaluate. Model is optional.
type Request struct {
	ResumeID   string
	JobOfferID string
	Model      string
}

// Outcome is the score persisted for a successful evaluation.
type Outcome struct {
	ScoreID string
	Score   int
	Reason  string
	Model   string
}

// Service loads documents, evaluates them and persists the score.
type Service struct {
	Content      ContentSource
	Evaluator    MatchEvaluator
	Scores       scores.Store
	DefaultModel string
	Timeout      time.Duration
}

// Evaluate runs one evaluation for the pair. Any error is a *Failure. The
// stored score for the pair changes only when the model reply is valid, and
// then it is overwritten in place.
func (s *Service) Evaluate(ctx context.Context, req Request) (Outcome, error) {
	req.ResumeID = strings.TrimSpace(req.ResumeID)
	req.JobOfferID = strings.TrimSpace(req.JobOfferID)
	req.Model = s.resolveModel(req.Model)

	start := time.Now()
	metrics.IncEvaluationStarted()

	out, op, err := s.run(ctx, req)
	metrics.ObserveEvaluationDurationMs(float64(time.Since(start).Milliseconds()))

	fields := map[string]any{
		"resume_id":    req.ResumeID,
		"job_offer_id": req.JobOfferID,
		"model":        req.Model,
		"duration_ms":  time.Since(start).Milliseconds(),
	}
	if err != nil {
		kind := Kind(err)
		metrics.IncEvaluationFailed(kind)
		fail := &Failure{
			Op:         op,
			ResumeID:   req.ResumeID,
			JobOfferID: req.JobOfferID,
			Model:      req.Model,
			Err:        err,
		}
		if op != "validate" {
			fail.Standing = s.standing(ctx, req)
		}
		fields["op"] = op
		fields["kind"] = kind
		fields["error"] = err.Error()
		fields["persisted"] = fail.Persisted()
		telemetry.Warn("evaluation.failed", fields)
		return Outcome{}, fail
	}

	metrics.IncEvaluationCompleted()
	fields["score_id"] = out.ScoreID
	fields["score"] = out.Score
	telemetry.Info("evaluation.completed", fields)
	return out, nil
}

func (s *Service) run(ctx context.Context, req Request) (Outcome, string, error) {
	if req.ResumeID == "" || req.JobOfferID == "" {
		return Outcome{}, "validate", fmt.Errorf("%w: resumeId and jobOfferId are required", ErrInvalidRequest)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	resumeText, err := s.Content.ResumeText(ctx, req.ResumeID)
	if err != nil {
		return Outcome{}, "load_resume", err
	}
	jobOfferText, err := s.Content.JobOfferText(ctx, req.JobOfferID)
	if err != nil {
		return Outcome{}, "load_job_offer", err
	}

	res, err := s.Evaluator.Evaluate(ctx, resumeText, jobOfferText, req.Model)
	if err != nil {
		return Outcome{}, "evaluate", err
	}

	saved, err := s.Scores.Upsert(ctx, scores.UpsertInput{
		ResumeID:   req.ResumeID,
		JobOfferID: req.JobOfferID,
		Score:      res.Score,
		Reason:     res.Reason,
		Model:      req.Model,
	})
	if err != nil {
		if errors.Is(err, scores.ErrMissingReference) {
			// A document was deleted between load and write.
			return Outcome{}, "persist", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return Outcome{}, "persist", err
	}

	return Outcome{ScoreID: saved.ID, Score: saved.Score, Reason: saved.Reason, Model: saved.Model}, "", nil
}

// standing looks up the score the failure left in place. It runs detached
// from ctx so a timed-out evaluation can still report it.
func (s *Service) standing(ctx context.Context, req Request) *scores.Score {
	if s.Scores == nil {
		return nil
	}
	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), standingLookupTimeout)
	defer cancel()
	sc, err := s.Scores.Get(lookupCtx, req.ResumeID, req.JobOfferID)
	if err != nil {
		if !errors.Is(err, scores.ErrNotFound) {
			telemetry.Warn("evaluation.standing_lookup_failed", map[string]any{
				"resume_id":    req.ResumeID,
				"job_offer_id": req.JobOfferID,
				"error":        err.Error(),
			})
		}
		return nil
	}
	return &sc
}

func (s *Service) resolveModel(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	if m := strings.TrimSpace(s.DefaultModel); m != "" {
		return m
	}
	return DefaultModel
}
