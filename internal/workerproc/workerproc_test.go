package workerproc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"resume-match/internal/evaluation"
	"resume-match/internal/llm"
	"resume-match/internal/queue"
)

type fakeService struct {
	err error
	got evaluation.Request
}

func (f *fakeService) Evaluate(ctx context.Context, req evaluation.Request) (evaluation.Outcome, error) {
	f.got = req
	return evaluation.Outcome{ScoreID: "s-1"}, f.err
}

func TestParseMessage(t *testing.T) {
	body, _ := queue.EncodeMessage(queue.Message{ResumeID: "r-1", JobOfferID: "j-1", RequestID: "req-1"})
	msg, meta, err := ParseMessage(body)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.ResumeID != "r-1" || meta.BodyLen != len(body) || len(meta.BodySHA) != 64 {
		t.Fatalf("unexpected parse result: %+v %+v", msg, meta)
	}
}

func TestParseMessageErrors(t *testing.T) {
	if _, _, err := ParseMessage([]byte("  ")); !errors.As(err, new(ErrEmptyBody)) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if _, _, err := ParseMessage([]byte("{bad-json")); !errors.As(err, new(ErrDecode)) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	_, _, err := ParseMessage([]byte(`{"resumeId":"r-1","requestId":"req-2"}`))
	var missing ErrMissingIDs
	if !errors.As(err, &missing) || missing.RequestID != "req-2" {
		t.Fatalf("expected ErrMissingIDs, got %v", err)
	}
	if !errors.Is(err, queue.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage in chain")
	}
}

func TestHandleMessagePassesPair(t *testing.T) {
	svc := &fakeService{}
	action, err := HandleMessage(context.Background(), svc, queue.Message{ResumeID: "r", JobOfferID: "j", Model: "mistral"}, 5)
	if err != nil || action != Ack {
		t.Fatalf("expected ack, got %s %v", action, err)
	}
	if svc.got.ResumeID != "r" || svc.got.JobOfferID != "j" || svc.got.Model != "mistral" {
		t.Fatalf("unexpected request: %+v", svc.got)
	}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Action
	}{
		{name: "success", want: Ack},
		{name: "not found", err: &evaluation.Failure{Err: evaluation.ErrNotFound}, want: Drop},
		{name: "malformed", err: &evaluation.Failure{Err: &evaluation.MalformedOutputError{Reason: "x"}}, want: Drop},
		{name: "unavailable", err: &evaluation.Failure{Err: llm.Unavailable("ollama", "m", 503, nil)}, want: Retry},
		{name: "timeout", err: &evaluation.Failure{Err: llm.Unavailable("ollama", "m", 0, context.DeadlineExceeded)}, want: Retry},
		{name: "duplicate", err: fmt.Errorf("%w: race", evaluation.ErrDuplicateScore), want: Retry},
		{name: "unknown", err: errors.New("boom"), want: Drop},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(context.Background(), tc.err, 0, 5); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDecideRequeuesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := Decide(ctx, &evaluation.Failure{Err: evaluation.ErrNotFound}, 0, 5); got != Requeue {
		t.Fatalf("expected requeue during shutdown, got %s", got)
	}
}

func TestDecideDropsWhenAttemptsExhausted(t *testing.T) {
	unavailable := &evaluation.Failure{Err: llm.Unavailable("ollama", "m", 503, nil)}
	cases := []struct {
		attempt, max int
		want         Action
	}{
		{attempt: 0, max: 5, want: Retry},
		{attempt: 3, max: 5, want: Retry},
		{attempt: 4, max: 5, want: Drop},
		{attempt: 9, max: 5, want: Drop},
		{attempt: 0, max: 1, want: Drop},
		{attempt: 0, max: 0, want: Drop},
	}
	for _, tc := range cases {
		if got := Decide(context.Background(), unavailable, tc.attempt, tc.max); got != tc.want {
			t.Fatalf("attempt %d of %d: expected %s, got %s", tc.attempt, tc.max, tc.want, got)
		}
	}
}

func TestHandleMessageStopsRetryingPersistentOutage(t *testing.T) {
	svc := &fakeService{err: &evaluation.Failure{Err: llm.Unavailable("ollama", "m", 503, nil)}}
	msg := queue.Message{ResumeID: "r", JobOfferID: "j"}

	deliveries := 0
	for {
		deliveries++
		if deliveries > 10 {
			t.Fatalf("message still retried after %d deliveries", deliveries)
		}
		action, err := HandleMessage(context.Background(), svc, msg, 3)
		if err == nil {
			t.Fatalf("expected evaluation error")
		}
		if action == Drop {
			break
		}
		if action != Retry {
			t.Fatalf("expected retry, got %s", action)
		}
		msg = NextAttempt(msg)
	}
	if deliveries != 3 || msg.Attempt != 2 {
		t.Fatalf("expected drop on third delivery, got delivery %d attempt %d", deliveries, msg.Attempt)
	}
}
