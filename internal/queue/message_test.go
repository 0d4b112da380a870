package queue

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeMessageUsesWireNames(t *testing.T) {
	payload := []byte(`{"resumeId":"r-1","jobOfferId":"j-1","model":"llama3","requestId":"req-9","enqueuedAt":"2026-01-30T22:00:00Z","version":1}`)

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.ResumeID != "r-1" || got.JobOfferID != "j-1" || got.Model != "llama3" || got.RequestID != "req-9" {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.Version != MessageVersion {
		t.Fatalf("expected version %d, got %d", MessageVersion, got.Version)
	}
}

func TestEncodeMessageOmitsEmptyModel(t *testing.T) {
	payload, err := EncodeMessage(Message{ResumeID: "r", JobOfferID: "j", Version: MessageVersion})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	if strings.Contains(string(payload), `"model"`) {
		t.Fatalf("expected model to be omitted, got %s", payload)
	}
}

func TestDecodeMessageRejectsInvalidJSON(t *testing.T) {
	if _, err := DecodeMessage([]byte("{bad-json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMessageValidate(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		ok   bool
	}{
		{name: "complete", msg: Message{ResumeID: "r", JobOfferID: "j"}, ok: true},
		{name: "missing resume", msg: Message{JobOfferID: "j"}},
		{name: "blank job offer", msg: Message{ResumeID: "r", JobOfferID: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
		})
	}
}
