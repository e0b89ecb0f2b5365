package knowledge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration marks knowledge data that cannot be turned into a prompt.
var ErrConfiguration = errors.New("knowledge configuration error")

// Mode selects which file shape backs the assistant.
type Mode string

const (
	// ModeFAQ serves a static list of question/answer pairs.
	ModeFAQ Mode = "faq"
	// ModeMaster serves a client master profile and collects phone and address.
	ModeMaster Mode = "master"
)

const (
	DefaultAssistantName  = "Zesty"
	DefaultMeetingMinutes = 30
)

// ParseMode validates a KNOWLEDGE_MODE value.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeFAQ:
		return ModeFAQ, nil
	case ModeMaster:
		return ModeMaster, nil
	default:
		return "", fmt.Errorf("unsupported knowledge mode %q", raw)
	}
}

// FAQ is one question/answer pair of the knowledge base.
type FAQ struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// FAQBase is the static knowledge-base file.
type FAQBase struct {
	AssistantName string `json:"assistantName,omitempty" yaml:"assistantName,omitempty"`
	ClientName    string `json:"clientName" yaml:"clientName"`
	ClientSummary string `json:"clientSummary,omitempty" yaml:"clientSummary,omitempty"`
	FAQs          []FAQ  `json:"faqs" yaml:"faqs"`
}

// Validate checks the keys the prompt cannot do without.
func (b FAQBase) Validate() error {
	if strings.TrimSpace(b.ClientName) == "" {
		return fmt.Errorf("%w: clientName is required", ErrConfiguration)
	}
	for i, faq := range b.FAQs {
		if strings.TrimSpace(faq.Question) == "" || strings.TrimSpace(faq.Answer) == "" {
			return fmt.Errorf("%w: faq %d needs both question and answer", ErrConfiguration, i)
		}
	}
	return nil
}

// ClientProfile is the master configuration file of a deployed client.
type ClientProfile struct {
	AssistantName          string   `json:"assistantName,omitempty" yaml:"assistantName,omitempty"`
	ClientName             string   `json:"clientName" yaml:"clientName"`
	Industry               string   `json:"industry" yaml:"industry"`
	Location               string   `json:"location" yaml:"location"`
	OwnerName              string   `json:"ownerName,omitempty" yaml:"ownerName,omitempty"`
	Philosophy             string   `json:"philosophy,omitempty" yaml:"philosophy,omitempty"`
	Specialties            []string `json:"specialties,omitempty" yaml:"specialties,omitempty"`
	BookingMeetingDuration int      `json:"bookingMeetingDuration" yaml:"bookingMeetingDuration"`
	FAQs                   []FAQ    `json:"faqs,omitempty" yaml:"faqs,omitempty"`
}

// Validate fails fast on missing required keys.
func (c ClientProfile) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ClientName) == "" {
		missing = append(missing, "clientName")
	}
	if strings.TrimSpace(c.Industry) == "" {
		missing = append(missing, "industry")
	}
	if strings.TrimSpace(c.Location) == "" {
		missing = append(missing, "location")
	}
	if c.BookingMeetingDuration <= 0 {
		missing = append(missing, "bookingMeetingDuration")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required keys: %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// Profile is what a Source hands to the relay: exactly one of FAQ or Client is set.
type Profile struct {
	Mode   Mode
	FAQ    *FAQBase
	Client *ClientProfile
}

// Validate checks that the profile matches its mode.
func (p Profile) Validate() error {
	switch p.Mode {
	case ModeFAQ:
		if p.FAQ == nil {
			return fmt.Errorf("%w: faq mode without knowledge base", ErrConfiguration)
		}
		return p.FAQ.Validate()
	case ModeMaster:
		if p.Client == nil {
			return fmt.Errorf("%w: master mode without client profile", ErrConfiguration)
		}
		return p.Client.Validate()
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrConfiguration, p.Mode)
	}
}

// AssistantName is the persona the model speaks as.
func (p Profile) AssistantName() string {
	var name string
	switch {
	case p.Client != nil:
		name = p.Client.AssistantName
	case p.FAQ != nil:
		name = p.FAQ.AssistantName
	}
	if strings.TrimSpace(name) == "" {
		return DefaultAssistantName
	}
	return name
}

// ClientName is the business the assistant represents.
func (p Profile) ClientName() string {
	switch {
	case p.Client != nil:
		return p.Client.ClientName
	case p.FAQ != nil:
		return p.FAQ.ClientName
	}
	return ""
}

// MeetingMinutes is the consultation length quoted to the user.
func (p Profile) MeetingMinutes() int {
	if p.Client != nil && p.Client.BookingMeetingDuration > 0 {
		return p.Client.BookingMeetingDuration
	}
	return DefaultMeetingMinutes
}

// CollectsContactDetails reports whether bookings also need phone and address.
func (p Profile) CollectsContactDetails() bool {
	return p.Mode == ModeMaster
}
