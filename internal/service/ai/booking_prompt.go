package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/zesty/backend/internal/model/knowledge"
	"github.com/zhouzirui/zesty/backend/internal/service/booking"
)

// PromptBuilder renders the system prompt for a knowledge profile.
type PromptBuilder struct {
	now func() time.Time
}

// NewPromptBuilder creates a builder that stamps prompts with the current date.
func NewPromptBuilder(now func() time.Time) *PromptBuilder {
	if now == nil {
		now = time.Now
	}
	return &PromptBuilder{now: now}
}

// bookingField is one piece of information the model must gather before booking.
type bookingField struct {
	key     string
	label   string
	example string
}

var (
	baseFields = []bookingField{
		{key: "name", label: "name", example: "Jane Doe"},
		{key: "email", label: "email", example: "jane.doe@example.com"},
	}
	contactFields = []bookingField{
		{key: "phone", label: "phone number", example: "970-555-0123"},
		{key: "address", label: "project address", example: "123 Main St, Steamboat Springs, CO"},
	}
	timeField = bookingField{key: "time", label: "preferred day and time", example: "2025-07-08T15:00:00-06:00"}
)

// BuildSystemPrompt assembles persona, goal, booking contract and knowledge text.
func (b *PromptBuilder) BuildSystemPrompt(profile knowledge.Profile) (string, error) {
	if err := profile.Validate(); err != nil {
		return "", err
	}

	fields := append([]bookingField(nil), baseFields...)
	if profile.CollectsContactDetails() {
		fields = append(fields, contactFields...)
	}
	fields = append(fields, timeField)

	keys := make([]string, 0, len(fields))
	labels := make([]string, 0, len(fields))
	examples := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.key)
		labels = append(labels, f.label)
		examples = append(examples, fmt.Sprintf("%q:%q", f.key, f.example))
	}

	return fmt.Sprintf(systemPromptTemplate,
		profile.AssistantName(),
		profile.ClientName(),
		describeClient(profile),
		profile.MeetingMinutes(),
		strings.Join(keys, ", "),
		joinLabels(labels),
		booking.Marker,
		booking.Marker,
		strings.Join(examples, ","),
		b.now().Format("Monday, January 2, 2006 (MST -07:00)"),
		renderKnowledge(profile),
	), nil
}

const systemPromptTemplate = `You are "%s," a friendly and highly capable AI assistant for %s%s.

Your Primary Goal: To answer user questions accurately based on the provided Knowledge Base and to book a "%d-minute project consultation" when a user is ready.

You have access to one tool:
- book_meeting(%s): Use this tool when a user confirms they want to schedule a consultation.

Conversation Flow:
1. Answer any initial questions using ONLY the Knowledge Base below.
2. If the user asks about scheduling, pricing, or expresses clear intent to start a project, proactively offer to book a consultation.
3. To use the book_meeting tool, you MUST first collect the user's %s.
4. Once you have all of this information, you MUST respond with the exact phrase: "%s" followed by a single-line JSON object containing the user's details. The time must be converted to a full ISO 8601 format, including timezone.
    - Example: %s {%s}

Today is %s.

--- Knowledge Base ---
%s
--- End Knowledge Base ---`

func describeClient(profile knowledge.Profile) string {
	switch {
	case profile.Client != nil:
		return fmt.Sprintf(", a %s business in %s", profile.Client.Industry, profile.Client.Location)
	case profile.FAQ != nil && strings.TrimSpace(profile.FAQ.ClientSummary) != "":
		return ", " + strings.TrimSpace(profile.FAQ.ClientSummary)
	default:
		return ""
	}
}

func joinLabels(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + ", and their " + labels[len(labels)-1]
	}
}

func renderKnowledge(profile knowledge.Profile) string {
	var sections []string

	if c := profile.Client; c != nil {
		var builder strings.Builder
		fmt.Fprintf(&builder, "Company: %s\nIndustry: %s\nLocation: %s", c.ClientName, c.Industry, c.Location)
		if c.OwnerName != "" {
			fmt.Fprintf(&builder, "\nOwner: %s", c.OwnerName)
		}
		if c.Philosophy != "" {
			fmt.Fprintf(&builder, "\nPhilosophy: %s", c.Philosophy)
		}
		if len(c.Specialties) > 0 {
			builder.WriteString("\nSpecialties:\n- ")
			builder.WriteString(strings.Join(c.Specialties, "\n- "))
		}
		fmt.Fprintf(&builder, "\nConsultation length: %d minutes", c.BookingMeetingDuration)
		sections = append(sections, builder.String())
		sections = append(sections, renderFAQs(c.FAQs)...)
	}

	if profile.FAQ != nil {
		sections = append(sections, renderFAQs(profile.FAQ.FAQs)...)
	}

	return strings.Join(sections, "\n\n")
}

func renderFAQs(faqs []knowledge.FAQ) []string {
	out := make([]string, 0, len(faqs))
	for _, faq := range faqs {
		out = append(out, fmt.Sprintf("Q: %s\nA: %s", faq.Question, faq.Answer))
	}
	return out
}
