package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSourceLoadsFAQJSON(t *testing.T) {
	path := writeFile(t, "knowledge_base.json", `{
		"clientName": "P2 Construction",
		"clientSummary": "a design-build firm in Steamboat Springs, Colorado",
		"faqs": [{"question": "Do you do remodels?", "answer": "Yes, kitchens and baths."}]
	}`)

	src, err := NewFileSource(ModeFAQ, path)
	require.NoError(t, err)

	profile, err := src.Load(context.Background())
	require.NoError(t, err)

	require.NotNil(t, profile.FAQ)
	assert.Equal(t, ModeFAQ, profile.Mode)
	assert.Equal(t, "P2 Construction", profile.ClientName())
	assert.Equal(t, DefaultAssistantName, profile.AssistantName())
	assert.Equal(t, DefaultMeetingMinutes, profile.MeetingMinutes())
	assert.False(t, profile.CollectsContactDetails())
	assert.Len(t, profile.FAQ.FAQs, 1)
}

func TestFileSourceLoadsMasterYAML(t *testing.T) {
	path := writeFile(t, "master_config.yaml", `
assistantName: Sage
clientName: Alpine Landscaping
industry: landscaping
location: Boulder, Colorado
ownerName: Maria Lopez
philosophy: Native plants first.
specialties:
  - xeriscaping
  - irrigation
bookingMeetingDuration: 45
`)

	src, err := NewFileSource(ModeMaster, path)
	require.NoError(t, err)

	profile, err := src.Load(context.Background())
	require.NoError(t, err)

	require.NotNil(t, profile.Client)
	assert.Equal(t, "Sage", profile.AssistantName())
	assert.Equal(t, 45, profile.MeetingMinutes())
	assert.True(t, profile.CollectsContactDetails())
	assert.Equal(t, []string{"xeriscaping", "irrigation"}, profile.Client.Specialties)
}

func TestFileSourceMissingRequiredKeys(t *testing.T) {
	path := writeFile(t, "master.json", `{"clientName": "Acme"}`)

	src, err := NewFileSource(ModeMaster, path)
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "industry")
	assert.Contains(t, err.Error(), "bookingMeetingDuration")
}

func TestFileSourceUnreadableAndMalformed(t *testing.T) {
	src, err := NewFileSource(ModeFAQ, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	require.ErrorIs(t, err, ErrConfiguration)

	bad := writeFile(t, "bad.json", `{"faqs": [`)
	src, err = NewFileSource(ModeFAQ, bad)
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNewFileSourceRejectsBadInput(t *testing.T) {
	_, err := NewFileSource(Mode("wiki"), "kb.json")
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewFileSource(ModeFAQ, " ")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeFAQ, mode)

	mode, err = ParseMode("MASTER")
	require.NoError(t, err)
	assert.Equal(t, ModeMaster, mode)

	_, err = ParseMode("other")
	require.Error(t, err)
}

func TestMemorySourceValidates(t *testing.T) {
	_, err := NewMemorySource(Profile{Mode: ModeFAQ}).Load(context.Background())
	require.ErrorIs(t, err, ErrConfiguration)

	profile := Profile{Mode: ModeFAQ, FAQ: &FAQBase{ClientName: "Acme"}}
	got, err := NewMemorySource(profile).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.ClientName())
}
