package sessionlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/zesty/backend/internal/model/booking"
	"github.com/zhouzirui/zesty/backend/internal/model/chat"
)

// leadCapturedPrefix starts the system message the widget appends after its lead form.
const leadCapturedPrefix = "Lead Captured:"

// Outcome describes what happened to a submitted session log.
type Outcome string

const (
	OutcomeLogged    Outcome = "logged"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeDuplicate Outcome = "duplicate"
)

// Sink receives session logs.
type Sink interface {
	Send(ctx context.Context, payload any) error
}

// Entry is a session log submitted by the widget.
type Entry struct {
	SessionID string
	History   []chat.Message
	LeadName  string
	LeadEmail string
}

// Service forwards widget transcripts to the logging webhook once per distinct transcript.
type Service struct {
	sink   Sink
	dedup  Deduper
	logger *zap.Logger
}

// NewService returns a Service; a nil dedup disables duplicate suppression.
func NewService(sink Sink, dedup Deduper, logger *zap.Logger) *Service {
	if dedup == nil {
		dedup = NoopDeduper{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sink: sink, dedup: dedup, logger: logger.Named("sessionlog")}
}

// Record forwards entry unless it only holds the greeting or was already logged.
func (s *Service) Record(ctx context.Context, entry Entry) (Outcome, error) {
	if entry.SessionID == "" {
		return "", fmt.Errorf("%w: sessionId is required", chat.ErrInvalidInput)
	}
	if len(entry.History) <= 1 {
		return OutcomeSkipped, nil
	}

	transcript := chat.RenderTranscript(entry.History)
	name, email := entry.LeadName, entry.LeadEmail
	if name == "" && email == "" {
		name, email = LeadFromHistory(entry.History)
	}

	if s.sink == nil {
		return "", errors.New("no session log sink configured")
	}

	key := dedupKey(entry.SessionID, transcript)
	first, err := s.dedup.FirstSeen(ctx, key)
	if err != nil {
		// Redis trouble must not lose transcripts.
		s.logger.Warn("dedup check failed, forwarding anyway", zap.String("session_id", entry.SessionID), zap.Error(err))
		first = true
	}
	if !first {
		s.logger.Debug("duplicate session log suppressed", zap.String("session_id", entry.SessionID))
		return OutcomeDuplicate, nil
	}

	payload := booking.SessionLogPayload{
		SessionID:      entry.SessionID,
		FullTranscript: transcript,
		LeadName:       name,
		LeadEmail:      email,
	}
	if err := s.sink.Send(ctx, payload); err != nil {
		if forgetErr := s.dedup.Forget(ctx, key); forgetErr != nil {
			s.logger.Warn("failed to release dedup key", zap.String("session_id", entry.SessionID), zap.Error(forgetErr))
		}
		return "", fmt.Errorf("send session log: %w", err)
	}

	s.logger.Info("session logged",
		zap.String("session_id", entry.SessionID),
		zap.Int("messages", len(entry.History)),
		zap.Bool("lead", name != "" || email != ""),
	)
	return OutcomeLogged, nil
}

// LeadFromHistory reads "Lead Captured: Name=..., Email=..." from the first matching system message.
func LeadFromHistory(history []chat.Message) (name, email string) {
	for _, msg := range history {
		if msg.Role != chat.RoleSystem {
			continue
		}
		rest, ok := strings.CutPrefix(msg.Content, leadCapturedPrefix)
		if !ok {
			continue
		}
		for _, part := range strings.Split(rest, ",") {
			key, value, found := strings.Cut(strings.TrimSpace(part), "=")
			if !found {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "name":
				name = strings.TrimSpace(value)
			case "email":
				email = strings.TrimSpace(value)
			}
		}
		return name, email
	}
	return "", ""
}

func dedupKey(sessionID, transcript string) string {
	sum := sha256.Sum256([]byte(transcript))
	return sessionID + ":" + hex.EncodeToString(sum[:])
}
