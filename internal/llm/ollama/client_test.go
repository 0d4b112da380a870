package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resume-match/internal/llm"
)

func TestChatSendsNonStreamingRequest(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"{\"score\":80,\"reason\":\"fit\"}"},"done":true}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL + "/")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Chat(context.Background(), llm.ChatRequest{
		Model: "llama3",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "sys"},
			{Role: llm.RoleUser, Content: "usr"},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out != `{"score":80,"reason":"fit"}` {
		t.Fatalf("unexpected reply %q", out)
	}
	if got.Stream {
		t.Fatalf("expected stream=false")
	}
	if got.Model != "llama3" || len(got.Messages) != 2 || got.Messages[0].Role != llm.RoleSystem {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestChatFailuresAreUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"model 'llama9' not found"}`},
		{name: "backend error field", status: http.StatusOK, body: `{"error":"out of memory"}`},
		{name: "garbage body", status: http.StatusOK, body: `not json`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewClient(server.URL)
			_, err := client.Chat(context.Background(), llm.ChatRequest{Model: "llama3"})
			if !errors.Is(err, llm.ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestChatHonorsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, _ := NewClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, llm.ChatRequest{Model: "llama3"})
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline cause, got %v", err)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatalf("expected error for empty host")
	}
}

func TestChatReturnsEmptyContentAsReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  "},"done":true}`))
	}))
	defer server.Close()

	client, _ := NewClient(server.URL)
	out, err := client.Chat(context.Background(), llm.ChatRequest{Model: "llama3"})
	if err != nil {
		t.Fatalf("expected no error for an empty reply, got %v", err)
	}
	if out != "  " {
		t.Fatalf("expected reply passed through, got %q", out)
	}
}
