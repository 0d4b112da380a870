package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-match/internal/llm"
	"resume-match/internal/queue"
	"resume-match/internal/scores"
	"resume-match/internal/shared/server/middleware"
)

type fakeEvaluating struct {
	out Outcome
	err error
	got Request
}

func (f *fakeEvaluating) Evaluate(ctx context.Context, req Request) (Outcome, error) {
	f.got = req
	return f.out, f.err
}

type fakeGenerator struct {
	text string
	err  error
}

func (f fakeGenerator) Generate(ctx context.Context, prompt, model string) (string, error) {
	return f.text, f.err
}

type fakeQueue struct {
	sent []queue.Message
	err  error
}

func (f *fakeQueue) Send(ctx context.Context, msg queue.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func newHandlerRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func post(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestEvaluateEndpointReturnsScore(t *testing.T) {
	svc := &fakeEvaluating{out: Outcome{ScoreID: "s-1", Score: 77, Reason: "Good", Model: "llama3"}}
	router := newHandlerRouter(NewHandler(svc, fakeGenerator{}, nil))

	resp := post(router, "/api/v1/evaluations", gin.H{"resumeId": "r-1", "jobOfferId": "j-1", "model": "llama3"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body evaluateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Score != 77 || body.ScoreID != "s-1" || body.Reason != "Good" || body.Message == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if svc.got.ResumeID != "r-1" || svc.got.JobOfferID != "j-1" || svc.got.Model != "llama3" {
		t.Fatalf("unexpected request: %+v", svc.got)
	}
}

func TestEvaluateEndpointMapsFailures(t *testing.T) {
	standing := &scores.Score{ID: "s-9", Score: 64}
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not found", err: &Failure{Op: "load_resume", Err: ErrNotFound}, status: http.StatusNotFound, code: "not_found"},
		{name: "unavailable", err: &Failure{Op: "evaluate", Err: llm.Unavailable("ollama", "m", 500, nil)}, status: http.StatusBadGateway, code: "model_unavailable"},
		{name: "malformed", err: &Failure{Op: "evaluate", Standing: standing, Err: &MalformedOutputError{Reason: "score out of range"}}, status: http.StatusBadGateway, code: "malformed_model_output"},
		{name: "duplicate", err: &Failure{Op: "persist", Err: fmt.Errorf("%w: race", ErrDuplicateScore)}, status: http.StatusConflict, code: "duplicate_score"},
		{name: "timeout", err: &Failure{Op: "evaluate", Err: llm.Unavailable("ollama", "m", 0, context.DeadlineExceeded)}, status: http.StatusGatewayTimeout, code: "timeout"},
		{name: "internal", err: &Failure{Op: "persist", Err: errors.New("disk full")}, status: http.StatusInternalServerError, code: "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newHandlerRouter(NewHandler(&fakeEvaluating{err: tc.err}, fakeGenerator{}, nil))
			resp := post(router, "/api/v1/evaluations", gin.H{"resumeId": "r", "jobOfferId": "j"})
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
			var body struct {
				Error struct {
					Code    string         `json:"code"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, body.Error.Code)
			}
		})
	}
}

func TestEvaluateEndpointReportsStandingScore(t *testing.T) {
	fail := &Failure{Op: "evaluate", Standing: &scores.Score{ID: "s-9", Score: 64}, Err: &MalformedOutputError{Reason: "no JSON object found"}}
	router := newHandlerRouter(NewHandler(&fakeEvaluating{err: fail}, fakeGenerator{}, nil))

	resp := post(router, "/api/v1/evaluations", gin.H{"resumeId": "r", "jobOfferId": "j"})
	var body struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	d := body.Error.Details
	if d["persisted"] != true || d["standingScoreId"] != "s-9" || d["reason"] != "no JSON object found" {
		t.Fatalf("unexpected details: %v", d)
	}
}

func TestEvaluateEndpointValidatesBody(t *testing.T) {
	svc := &fakeEvaluating{}
	router := newHandlerRouter(NewHandler(svc, fakeGenerator{}, nil))

	resp := post(router, "/api/v1/evaluations", gin.H{"resumeId": "r"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.got.ResumeID != "" {
		t.Fatalf("service should not be called")
	}
}

func TestEnqueueEndpoint(t *testing.T) {
	q := &fakeQueue{}
	h := NewHandler(&fakeEvaluating{}, fakeGenerator{}, q)
	h.Now = func() time.Time { return time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC) }
	router := newHandlerRouter(h)

	resp := post(router, "/api/v1/evaluations/async", gin.H{"resumeId": "r-1", "jobOfferId": "j-1"})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(q.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(q.sent))
	}
	msg := q.sent[0]
	if msg.ResumeID != "r-1" || msg.JobOfferID != "j-1" || msg.RequestID != "req-1" || msg.EnqueuedAt != "2026-03-02T09:00:00Z" || msg.Version != queue.MessageVersion {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestEnqueueEndpointWithoutQueue(t *testing.T) {
	router := newHandlerRouter(NewHandler(&fakeEvaluating{}, fakeGenerator{}, nil))
	resp := post(router, "/api/v1/evaluations/async", gin.H{"resumeId": "r", "jobOfferId": "j"})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	router := newHandlerRouter(NewHandler(&fakeEvaluating{}, fakeGenerator{text: "Hello"}, nil))
	resp := post(router, "/api/v1/generate", gin.H{"prompt": "Say hello"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["generatedContent"] != "Hello" {
		t.Fatalf("unexpected body: %v", body)
	}

	resp = post(router, "/api/v1/generate", gin.H{"prompt": " "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank prompt, got %d", resp.Code)
	}

	router = newHandlerRouter(NewHandler(&fakeEvaluating{}, fakeGenerator{err: llm.Unavailable("ollama", "m", 0, errors.New("refused"))}, nil))
	resp = post(router, "/api/v1/generate", gin.H{"prompt": "hi"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}
