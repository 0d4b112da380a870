package evaluation

import (
	"context"
	"errors"
	"time"

	"resume-match/internal/shared/telemetry"
)

const defaultRetryBackoff = 300 * time.Millisecond

type retryingEvaluator struct {
	base    MatchEvaluator
	retries int
	backoff time.Duration
}

// WithRetry repeats model calls that failed with ErrModelUnavailable up to
// retries extra times. Malformed replies are never retried. retries <= 0
// returns ev unchanged.
func WithRetry(ev MatchEvaluator, retries int, backoff time.Duration) MatchEvaluator {
	if ev == nil || retries <= 0 {
		return ev
	}
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	return &retryingEvaluator{base: ev, retries: retries, backoff: backoff}
}

func (r *retryingEvaluator) Evaluate(ctx context.Context, resumeText, jobOfferText, model string) (Result, error) {
	res, err := r.base.Evaluate(ctx, resumeText, jobOfferText, model)
	for attempt := 1; attempt <= r.retries && shouldRetry(ctx, err); attempt++ {
		telemetry.Warn("evaluation.retry", map[string]any{
			"attempt": attempt,
			"model":   model,
			"error":   err.Error(),
		})
		timer := time.NewTimer(r.backoff * time.Duration(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Result{}, err
		}
		res, err = r.base.Evaluate(ctx, resumeText, jobOfferText, model)
	}
	return res, err
}

func shouldRetry(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	return errors.Is(err, ErrModelUnavailable) && !errors.Is(err, context.Canceled)
}
