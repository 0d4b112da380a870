package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single chat turn sent to a model backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries one non-streaming chat call.
type ChatRequest struct {
	Model    string
	Messages []Message
}

// Client abstracts generative model providers.
// Implementations make exactly one backend call per Chat and never retry.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// ErrUnavailable marks any failure to obtain a reply from the model backend.
var ErrUnavailable = errors.New("model unavailable")

// UnavailableError describes why a backend call produced no usable reply.
type UnavailableError struct {
	Provider   string
	Model      string
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(" model ")
	b.WriteString(e.Model)
	b.WriteString(" unavailable")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUnavailable) match without losing the cause chain.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Unavailable wraps err as an *UnavailableError.
func Unavailable(provider, model string, status int, err error) error {
	return &UnavailableError{Provider: provider, Model: model, StatusCode: status, Err: err}
}

// SystemAndUser splits a request into its system and concatenated user content.
func SystemAndUser(messages []Message) (system, user string) {
	var sys, usr []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		usr = append(usr, m.Content)
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req ChatRequest) (string, error)

func (f ClientFunc) Chat(ctx context.Context, req ChatRequest) (string, error) {
	return f(ctx, req)
}
