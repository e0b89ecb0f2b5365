package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/zesty/backend/internal/model/booking"
	"github.com/zhouzirui/zesty/backend/internal/model/chat"
	"github.com/zhouzirui/zesty/backend/internal/model/knowledge"
)

// Marker is the sentinel the model emits once every booking field is collected.
const Marker = "BOOKING_CONFIRMED"

// FallbackReply replaces the model output when a booking cannot be finalized.
const FallbackReply = "I had trouble finalizing the booking. A team member will reach out to you shortly to confirm."

// ErrMalformedBooking means the marker fired without a usable record after it.
var ErrMalformedBooking = errors.New("malformed booking record")

// State is the outcome of inspecting one model reply.
type State string

const (
	StateNormal    State = "normal"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

// LeadSink receives captured bookings.
type LeadSink interface {
	Send(ctx context.Context, payload any) error
}

// Result is the reply to hand back to the widget.
type Result struct {
	Reply  string
	State  State
	Record *booking.Record
	Err    error
}

// Extractor turns marker-bearing model replies into webhook bookings.
type Extractor struct {
	sink   LeadSink
	logger *zap.Logger
}

// NewExtractor returns an Extractor forwarding bookings to sink.
func NewExtractor(sink LeadSink, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{sink: sink, logger: logger.Named("booking")}
}

// Process inspects text and, when the marker is present, books the meeting.
// Failures never propagate: they are logged and the fallback reply is returned.
func (e *Extractor) Process(ctx context.Context, text string, session chat.SessionContext, meetingMinutes int) Result {
	if !strings.Contains(text, Marker) {
		return Result{Reply: text, State: StateNormal}
	}

	rec, err := ParseRecord(text)
	if err == nil {
		err = e.deliver(ctx, booking.NewLeadPayload(rec, session))
	}
	if err != nil {
		e.logger.Error("failed to finalize booking",
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
		return Result{Reply: FallbackReply, State: StateFailed, Err: err}
	}

	e.logger.Info("booking forwarded",
		zap.String("session_id", session.SessionID),
		zap.String("requested_time", rec.Time),
	)
	return Result{
		Reply:  ConfirmationReply(rec, meetingMinutes),
		State:  StateConfirmed,
		Record: &rec,
	}
}

func (e *Extractor) deliver(ctx context.Context, payload booking.LeadPayload) error {
	if e.sink == nil {
		return errors.New("no booking sink configured")
	}
	if err := e.sink.Send(ctx, payload); err != nil {
		return fmt.Errorf("send booking: %w", err)
	}
	return nil
}

// ParseRecord decodes the single JSON object that must directly follow the
// first marker. Between them only whitespace, a colon, quotes, emphasis or a
// code fence may appear; text after the object is ignored.
func ParseRecord(text string) (booking.Record, error) {
	idx := strings.Index(text, Marker)
	if idx < 0 {
		return booking.Record{}, fmt.Errorf("%w: marker not found", ErrMalformedBooking)
	}

	rest := skipDecoration(text[idx+len(Marker):])
	if !strings.HasPrefix(rest, "{") {
		return booking.Record{}, fmt.Errorf("%w: no object follows the marker", ErrMalformedBooking)
	}

	var raw struct {
		Name    scalar `json:"name"`
		Email   scalar `json:"email"`
		Phone   scalar `json:"phone"`
		Address scalar `json:"address"`
		Time    scalar `json:"time"`
	}
	if err := json.NewDecoder(strings.NewReader(rest)).Decode(&raw); err != nil {
		return booking.Record{}, fmt.Errorf("%w: %v", ErrMalformedBooking, err)
	}
	rec := booking.Record{
		Name:    string(raw.Name),
		Email:   string(raw.Email),
		Phone:   string(raw.Phone),
		Address: string(raw.Address),
		Time:    string(raw.Time),
	}

	var missing []string
	if strings.TrimSpace(rec.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(rec.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(rec.Time) == "" {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return booking.Record{}, fmt.Errorf("%w: missing %s", ErrMalformedBooking, strings.Join(missing, ", "))
	}
	return rec, nil
}

// skipDecoration drops the markdown models wrap around the marker and its
// record: `"BOOKING_CONFIRMED": {`, `**BOOKING_CONFIRMED** {` or a ```json fence.
func skipDecoration(s string) string {
	s = strings.TrimLeft(s, " \t\r\n:\"'*`")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimLeft(s[4:], " \t\r\n")
	}
	return s
}

// scalar keeps a record field as the model wrote it. Strings are unquoted,
// null is empty and any other value keeps its JSON text.
type scalar string

func (v *scalar) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*v = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = scalar(s)
	default:
		*v = scalar(trimmed)
	}
	return nil
}

// ConfirmationReply is the thank-you text sent instead of the raw model output.
func ConfirmationReply(rec booking.Record, meetingMinutes int) string {
	if meetingMinutes <= 0 {
		meetingMinutes = knowledge.DefaultMeetingMinutes
	}
	return fmt.Sprintf(
		"Thank you, %s! I have scheduled a %d-minute consultation for you. You will receive a calendar invitation at %s shortly.",
		rec.Name, meetingMinutes, rec.Email,
	)
}
