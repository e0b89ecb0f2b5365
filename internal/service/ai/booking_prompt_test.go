package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/zesty/backend/internal/model/knowledge"
)

func fixedClock() time.Time {
	return time.Date(2025, time.July, 7, 10, 0, 0, 0, time.FixedZone("MDT", -6*3600))
}

func faqProfile() knowledge.Profile {
	return knowledge.Profile{
		Mode: knowledge.ModeFAQ,
		FAQ: &knowledge.FAQBase{
			ClientName:    "P2 Construction",
			ClientSummary: "a design-build firm in Steamboat Springs, Colorado",
			FAQs: []knowledge.FAQ{
				{Question: "Do you build custom homes?", Answer: "Yes."},
				{Question: "Where do you work?", Answer: "Routt County."},
			},
		},
	}
}

func TestBuildSystemPromptFAQMode(t *testing.T) {
	prompt, err := NewPromptBuilder(fixedClock).BuildSystemPrompt(faqProfile())
	require.NoError(t, err)

	assert.Contains(t, prompt, `You are "Zesty," a friendly and highly capable AI assistant for P2 Construction, a design-build firm in Steamboat Springs, Colorado.`)
	assert.Contains(t, prompt, `"30-minute project consultation"`)
	assert.Contains(t, prompt, "book_meeting(name, email, time)")
	assert.Contains(t, prompt, "collect the user's name, email, and their preferred day and time.")
	assert.Contains(t, prompt, `Example: BOOKING_CONFIRMED {"name":"Jane Doe","email":"jane.doe@example.com","time":"2025-07-08T15:00:00-06:00"}`)
	assert.Contains(t, prompt, "Today is Monday, July 7, 2025")
	assert.Contains(t, prompt, "--- Knowledge Base ---\nQ: Do you build custom homes?\nA: Yes.\n\nQ: Where do you work?\nA: Routt County.\n--- End Knowledge Base ---")
	assert.NotContains(t, prompt, "phone")
}

func TestBuildSystemPromptMasterMode(t *testing.T) {
	profile := knowledge.Profile{
		Mode: knowledge.ModeMaster,
		Client: &knowledge.ClientProfile{
			AssistantName:          "Sage",
			ClientName:             "Alpine Landscaping",
			Industry:               "landscaping",
			Location:               "Boulder, Colorado",
			OwnerName:              "Maria Lopez",
			Philosophy:             "Native plants first.",
			Specialties:            []string{"xeriscaping", "irrigation"},
			BookingMeetingDuration: 45,
		},
	}

	prompt, err := NewPromptBuilder(fixedClock).BuildSystemPrompt(profile)
	require.NoError(t, err)

	assert.Contains(t, prompt, `You are "Sage," a friendly and highly capable AI assistant for Alpine Landscaping, a landscaping business in Boulder, Colorado.`)
	assert.Contains(t, prompt, `"45-minute project consultation"`)
	assert.Contains(t, prompt, "book_meeting(name, email, phone, address, time)")
	assert.Contains(t, prompt, "name, email, phone number, project address, and their preferred day and time")
	assert.Contains(t, prompt, `"phone":"970-555-0123"`)
	assert.Contains(t, prompt, "Owner: Maria Lopez")
	assert.Contains(t, prompt, "Specialties:\n- xeriscaping\n- irrigation")
	assert.Contains(t, prompt, "Consultation length: 45 minutes")
}

func TestBuildSystemPromptRejectsIncompleteProfile(t *testing.T) {
	profile := knowledge.Profile{Mode: knowledge.ModeMaster, Client: &knowledge.ClientProfile{ClientName: "Acme"}}

	_, err := NewPromptBuilder(fixedClock).BuildSystemPrompt(profile)
	require.ErrorIs(t, err, knowledge.ErrConfiguration)
}
