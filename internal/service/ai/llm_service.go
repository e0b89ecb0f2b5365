package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/zesty/backend/internal/config"
	"github.com/zhouzirui/zesty/backend/internal/model/chat"
	"github.com/zhouzirui/zesty/backend/internal/model/knowledge"
)

// ErrUpstream wraps any failure of the completion provider.
var ErrUpstream = errors.New("completion provider failed")

// Turn is the raw model output of one relay call plus the profile it was grounded on.
type Turn struct {
	Content string
	Profile knowledge.Profile
}

// Service relays widget conversations to the completion model.
type Service struct {
	source  knowledge.Source
	prompts *PromptBuilder
	timeout time.Duration
	chain   compose.Runnable[map[string]any, *schema.Message]
	logger  *zap.Logger
}

// NewService compiles the system-prompt + history chain around chatModel.
func NewService(ctx context.Context, chatModel model.ChatModel, source knowledge.Source, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if source == nil {
		return nil, errors.New("knowledge source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		source:  source,
		prompts: NewPromptBuilder(nil),
		timeout: cfg.Timeout,
		chain:   runnable,
		logger:  logger.Named("relay"),
	}, nil
}

// WithPromptBuilder swaps the prompt builder, mainly to pin the clock in tests.
func (s *Service) WithPromptBuilder(builder *PromptBuilder) *Service {
	if builder != nil {
		s.prompts = builder
	}
	return s
}

// Reply makes exactly one completion call for the session and returns its text verbatim.
func (s *Service) Reply(ctx context.Context, session chat.SessionContext) (*Turn, error) {
	if session.History == nil {
		return nil, chat.ErrHistoryRequired
	}

	profile, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}

	system, err := s.prompts.BuildSystemPrompt(profile)
	if err != nil {
		return nil, fmt.Errorf("build system prompt: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system":  system,
		"history": buildHistoryMessages(session.History),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if response == nil {
		return nil, fmt.Errorf("%w: empty completion", ErrUpstream)
	}

	s.logger.Info("generated reply",
		zap.String("session_id", session.SessionID),
		zap.Int("history_len", len(session.History)),
		zap.Int("reply_len", len(response.Content)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Turn{Content: response.Content, Profile: profile}, nil
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			history = append(history, schema.SystemMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		default:
			history = append(history, schema.UserMessage(msg.Content))
		}
	}
	return history
}
