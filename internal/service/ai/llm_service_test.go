package ai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/zesty/backend/internal/config"
	"github.com/zhouzirui/zesty/backend/internal/model/chat"
	"github.com/zhouzirui/zesty/backend/internal/model/knowledge"
	"github.com/zhouzirui/zesty/backend/internal/service/ai"
	"github.com/zhouzirui/zesty/backend/internal/service/ai/aitest"
)

func testSource() knowledge.Source {
	return knowledge.NewMemorySource(knowledge.Profile{
		Mode: knowledge.ModeFAQ,
		FAQ: &knowledge.FAQBase{
			ClientName: "P2 Construction",
			FAQs:       []knowledge.FAQ{{Question: "Do you remodel?", Answer: "Yes."}},
		},
	})
}

func newService(t *testing.T, model *aitest.FakeChatModel, source knowledge.Source) *ai.Service {
	t.Helper()
	svc, err := ai.NewService(context.Background(), model, source, config.AIConfig{Timeout: time.Second}, nil)
	require.NoError(t, err)
	return svc
}

func TestReplyPrependsSystemPromptAndKeepsOrder(t *testing.T) {
	model := aitest.NewFakeChatModel("We remodel kitchens {and} baths.")
	svc := newService(t, model, testSource())

	session := chat.SessionContext{
		SessionID: "session_1",
		History: []chat.Message{
			{Role: chat.RoleUser, Content: "hi"},
			{Role: chat.RoleAssistant, Content: "Hello! How can I help?"},
			{Role: chat.RoleSystem, Content: "Lead Captured: Name=A, Email=a@b.c"},
			{Role: chat.RoleUser, Content: "Do you remodel {kitchens}?"},
		},
	}

	turn, err := svc.Reply(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "We remodel kitchens {and} baths.", turn.Content)
	assert.Equal(t, "P2 Construction", turn.Profile.ClientName())

	calls := model.Calls()
	require.Len(t, calls, 1)
	sent := calls[0]
	require.Len(t, sent, 5)

	assert.Equal(t, schema.System, sent[0].Role)
	assert.Contains(t, sent[0].Content, "BOOKING_CONFIRMED")
	assert.Contains(t, sent[0].Content, "Q: Do you remodel?\nA: Yes.")

	assert.Equal(t, schema.User, sent[1].Role)
	assert.Equal(t, "hi", sent[1].Content)
	assert.Equal(t, schema.Assistant, sent[2].Role)
	assert.Equal(t, schema.System, sent[3].Role)
	assert.Equal(t, "Do you remodel {kitchens}?", sent[4].Content)
}

func TestReplyEachCallHitsTheModel(t *testing.T) {
	model := aitest.NewFakeChatModel("ok")
	svc := newService(t, model, testSource())
	session := chat.SessionContext{SessionID: "s", History: []chat.Message{{Role: chat.RoleUser, Content: "hi"}}}

	for i := 0; i < 2; i++ {
		_, err := svc.Reply(context.Background(), session)
		require.NoError(t, err)
	}
	assert.Len(t, model.Calls(), 2)
}

func TestReplyRejectsMissingHistory(t *testing.T) {
	model := aitest.NewFakeChatModel("unused")
	svc := newService(t, model, testSource())

	_, err := svc.Reply(context.Background(), chat.SessionContext{SessionID: "s"})
	require.ErrorIs(t, err, chat.ErrInvalidInput)
	assert.Empty(t, model.Calls())
}

func TestReplyWrapsProviderFailure(t *testing.T) {
	cause := errors.New("429 too many requests")
	svc := newService(t, aitest.NewFailingChatModel(cause), testSource())

	_, err := svc.Reply(context.Background(), chat.SessionContext{History: []chat.Message{}})
	require.ErrorIs(t, err, ai.ErrUpstream)
}

func TestReplyKnowledgeFailureSkipsModel(t *testing.T) {
	model := aitest.NewFakeChatModel("unused")
	broken := knowledge.NewMemorySource(knowledge.Profile{Mode: knowledge.ModeMaster})
	svc := newService(t, model, broken)

	_, err := svc.Reply(context.Background(), chat.SessionContext{History: []chat.Message{}})
	require.ErrorIs(t, err, knowledge.ErrConfiguration)
	assert.Empty(t, model.Calls())
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := ai.NewService(context.Background(), nil, testSource(), config.AIConfig{}, nil)
	require.Error(t, err)

	_, err = ai.NewService(context.Background(), aitest.NewFakeChatModel(""), nil, config.AIConfig{}, nil)
	require.Error(t, err)
}
