package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resume-match/internal/evaluation"
	"resume-match/internal/llm"
	"resume-match/internal/shared/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunPrintsResult(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		resumePath: writeFile(t, dir, "cv.txt", "Go engineer, 6 years"),
		jobPath:    writeFile(t, dir, "offer.md", "Senior Go engineer"),
	}
	var got llm.ChatRequest
	client := llm.ClientFunc(func(ctx context.Context, req llm.ChatRequest) (string, error) {
		got = req
		return "```json\n{\"score\": 83, \"reason\": \"Solid Go experience\"}\n```", nil
	})

	var out bytes.Buffer
	cfg := config.Config{LLMModel: "llama3"}
	if err := run(context.Background(), cfg, opts, client, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	var res evaluation.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if res.Score != 83 || res.Reason != "Solid Go experience" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got.Model != "llama3" || !strings.Contains(got.Messages[1].Content, "Go engineer, 6 years") {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestRunReportsMalformedOutput(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		resumePath: writeFile(t, dir, "cv.txt", "Go engineer"),
		jobPath:    writeFile(t, dir, "offer.txt", "Go role"),
	}
	client := llm.ClientFunc(func(ctx context.Context, req llm.ChatRequest) (string, error) {
		return "about 80", nil
	})

	err := run(context.Background(), config.Config{LLMModel: "llama3"}, opts, client, &bytes.Buffer{})
	if !errors.Is(err, evaluation.ErrMalformedModelOutput) {
		t.Fatalf("expected malformed output error, got %v", err)
	}
}

func TestRunMissingFile(t *testing.T) {
	opts := options{resumePath: filepath.Join(t.TempDir(), "missing.txt"), jobPath: "x"}
	client := llm.ClientFunc(func(ctx context.Context, req llm.ChatRequest) (string, error) {
		t.Fatalf("model should not be called")
		return "", nil
	})
	if err := run(context.Background(), config.Config{}, opts, client, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for missing resume")
	}
}

func TestRootCmdRequiresFlags(t *testing.T) {
	cmd := newRootCmd(func(ctx context.Context, cfg config.Config) (llm.Client, error) {
		t.Fatalf("client factory should not be called")
		return nil, nil
	})
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected missing flag error")
	}
}
