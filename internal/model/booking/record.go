package booking

import "github.com/zhouzirui/zesty/backend/internal/model/chat"

// Record is the booking the model emitted after the confirmation marker.
// Field formats are taken as the model wrote them.
type Record struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Time    string `json:"time"`
}

// LeadPayload is posted to the scheduling webhook once a booking is captured.
type LeadPayload struct {
	LeadName       string `json:"leadName"`
	LeadEmail      string `json:"leadEmail"`
	LeadPhone      string `json:"leadPhone,omitempty"`
	LeadAddress    string `json:"leadAddress,omitempty"`
	RequestedTime  string `json:"requestedTime"`
	SessionID      string `json:"sessionId"`
	FullTranscript string `json:"fullTranscript"`
}

// NewLeadPayload combines a booking with the session it came from.
func NewLeadPayload(rec Record, session chat.SessionContext) LeadPayload {
	return LeadPayload{
		LeadName:       rec.Name,
		LeadEmail:      rec.Email,
		LeadPhone:      rec.Phone,
		LeadAddress:    rec.Address,
		RequestedTime:  rec.Time,
		SessionID:      session.SessionID,
		FullTranscript: chat.RenderTranscript(session.History),
	}
}

// SessionLogPayload is posted to the transcript webhook when the widget closes
// or a lead is captured through the inline form.
type SessionLogPayload struct {
	SessionID      string `json:"sessionId"`
	FullTranscript string `json:"fullTranscript"`
	LeadName       string `json:"leadName"`
	LeadEmail      string `json:"leadEmail"`
}
