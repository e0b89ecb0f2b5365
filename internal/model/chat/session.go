package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput marks a request whose shape cannot be relayed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrHistoryRequired is the InvalidInput case of a missing or non-array history.
	ErrHistoryRequired = fmt.Errorf("%w: history is required and must be an array", ErrInvalidInput)
)

// SessionContext is the caller-owned state of one widget interaction.
// The backend keeps nothing between requests; the widget resends it every turn.
type SessionContext struct {
	SessionID string    `json:"sessionId"`
	History   []Message `json:"history"`
}

// ParseSessionContext decodes a chat request body.
func ParseSessionContext(raw []byte) (SessionContext, error) {
	var envelope struct {
		SessionID string          `json:"sessionId"`
		History   json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return SessionContext{}, fmt.Errorf("%w: invalid request body", ErrInvalidInput)
	}

	history, err := DecodeHistory(envelope.History)
	if err != nil {
		return SessionContext{}, err
	}

	return SessionContext{SessionID: strings.TrimSpace(envelope.SessionID), History: history}, nil
}

// DecodeHistory accepts only a JSON array of well-formed messages.
func DecodeHistory(raw json.RawMessage) ([]Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrHistoryRequired
	}

	history := make([]Message, 0)
	if err := json.Unmarshal(trimmed, &history); err != nil {
		return nil, fmt.Errorf("%w: malformed history: %v", ErrInvalidInput, err)
	}

	for i, msg := range history {
		if !msg.Role.Valid() {
			return nil, fmt.Errorf("%w: message %d has unsupported role %q", ErrInvalidInput, i, msg.Role)
		}
	}
	return history, nil
}

// EnsureSessionID fills in a server-minted identifier when the widget sent none.
func (s SessionContext) EnsureSessionID() SessionContext {
	if s.SessionID == "" {
		s.SessionID = "session_" + uuid.NewString()
	}
	return s
}
