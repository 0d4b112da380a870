package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"resume-match/internal/evaluation"
	"resume-match/internal/queue"
)

// Action tells the consumer how to settle a delivery.
type Action int

const (
	// Ack removes the message after success.
	Ack Action = iota
	// Drop rejects the message without requeue; it can never succeed.
	Drop
	// Requeue returns the delivery to the queue unchanged, used on shutdown.
	Requeue
	// Retry republishes the message with its attempt count bumped and acks
	// the original delivery.
	Retry
)

func (a Action) String() string {
	switch a {
	case Ack:
		return "ack"
	case Drop:
		return "drop"
	case Requeue:
		return "requeue"
	case Retry:
		return "retry"
	default:
		return "unknown"
	}
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body []byte) MessageMeta {
	if len(body) == 0 {
		return MessageMeta{}
	}
	sum := sha256.Sum256(body)
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingIDs indicates a message without a resume or job offer id.
type ErrMissingIDs struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingIDs) Error() string { return "missing resume or job offer id" }

func (e ErrMissingIDs) Unwrap() error { return queue.ErrInvalidMessage }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body []byte) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(string(body)) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage(body)
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if err := msg.Validate(); err != nil {
		return msg, meta, ErrMissingIDs{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage runs the evaluation named by msg and decides how to settle it.
// Retryable failures are retried until msg.Attempt reaches maxAttempts.
func HandleMessage(ctx context.Context, svc evaluation.Evaluating, msg queue.Message, maxAttempts int) (Action, error) {
	if svc == nil {
		return Requeue, errors.New("evaluation service not configured")
	}
	_, err := svc.Evaluate(ctx, evaluation.Request{
		ResumeID:   msg.ResumeID,
		JobOfferID: msg.JobOfferID,
		Model:      msg.Model,
	})
	return Decide(ctx, err, msg.Attempt, maxAttempts), err
}

// Decide maps an evaluation outcome to a settlement action. attempt is the
// number of earlier retryable failures for the message; once attempt+1
// reaches maxAttempts a retryable failure is dropped. maxAttempts <= 0
// disables retries.
func Decide(ctx context.Context, err error, attempt, maxAttempts int) Action {
	switch {
	case err == nil:
		return Ack
	case ctx.Err() != nil:
		// Shutting down; hand the delivery back untouched.
		return Requeue
	case retryable(err):
		if attempt+1 < maxAttempts {
			return Retry
		}
		return Drop
	default:
		return Drop
	}
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, evaluation.ErrNotFound),
		errors.Is(err, evaluation.ErrMalformedModelOutput),
		errors.Is(err, evaluation.ErrInvalidRequest),
		errors.Is(err, queue.ErrInvalidMessage):
		return false
	}
	// A per-evaluation timeout means the model did not answer in time.
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, evaluation.ErrModelUnavailable) ||
		errors.Is(err, evaluation.ErrDuplicateScore)
}

// NextAttempt returns the message to publish when retrying msg.
func NextAttempt(msg queue.Message) queue.Message {
	msg.Attempt++
	return msg
}
