package queue

import (
	"encoding/json"
	"errors"
	"strings"
)

// MessageVersion is the payload version written by this build.
const MessageVersion = 1

// ErrInvalidMessage marks a payload missing the pair identifiers.
var ErrInvalidMessage = errors.New("invalid evaluation message")

// Message asks a worker to evaluate one resume against one job offer.
type Message struct {
	ResumeID   string `json:"resumeId"`
	JobOfferID string `json:"jobOfferId"`
	Model      string `json:"model,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
	// Attempt counts prior deliveries that ended in a retryable failure.
	Attempt int `json:"attempt,omitempty"`
}

// Validate reports whether the message names a complete pair.
func (m Message) Validate() error {
	if strings.TrimSpace(m.ResumeID) == "" || strings.TrimSpace(m.JobOfferID) == "" {
		return ErrInvalidMessage
	}
	return nil
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
