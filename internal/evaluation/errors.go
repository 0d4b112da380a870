package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-match/internal/content"
	"resume-match/internal/llm"
	"resume-match/internal/scores"
)

var (
	// ErrNotFound means the resume or job offer does not exist.
	ErrNotFound = content.ErrNotFound
	// ErrModelUnavailable means the model backend gave no usable reply.
	ErrModelUnavailable = llm.ErrUnavailable
	// ErrMalformedModelOutput means the reply did not satisfy the result contract.
	ErrMalformedModelOutput = errors.New("malformed model output")
	// ErrDuplicateScore means a write race on the pair could not be reconciled.
	ErrDuplicateScore = scores.ErrDuplicateScore
	// ErrInvalidRequest means the request is missing identifiers.
	ErrInvalidRequest = errors.New("invalid evaluation request")
)

// MalformedOutputError carries diagnostics for a reply that could not be turned into a Result.
type MalformedOutputError struct {
	Reason    string
	Candidate string // first 200 characters of the extracted span
	Raw       string // first 200 characters of the model reply
	Err       error
}

func (e *MalformedOutputError) Error() string {
	var b strings.Builder
	b.WriteString("malformed model output: ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Candidate != "" {
		fmt.Fprintf(&b, "; candidate=%q", e.Candidate)
	}
	if e.Raw != "" {
		fmt.Fprintf(&b, "; raw=%q", e.Raw)
	}
	return b.String()
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

func (e *MalformedOutputError) Is(target error) bool { return target == ErrMalformedModelOutput }

// Failure is returned by Service.Evaluate for every unsuccessful evaluation.
// Standing is the previously persisted score for the pair, which the failure
// left untouched, or nil when the pair was never scored.
type Failure struct {
	Op         string
	ResumeID   string
	JobOfferID string
	Model      string
	Standing   *scores.Score
	Err        error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s resume=%s job_offer=%s model=%s: %v", f.Op, f.ResumeID, f.JobOfferID, f.Model, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Persisted reports whether an earlier score for the pair still stands.
func (f *Failure) Persisted() bool { return f.Standing != nil }

// Kind classifies err into a stable label used for metrics and API error codes.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrMalformedModelOutput):
		return "malformed_model_output"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrDuplicateScore):
		return "duplicate_score"
	default:
		return "internal"
	}
}
