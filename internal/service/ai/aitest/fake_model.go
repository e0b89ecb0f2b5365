// Package aitest provides an in-memory completion model for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel answers every call with a fixed reply and records its inputs.
type FakeChatModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]*schema.Message
}

// NewFakeChatModel returns a model that replies with text.
func NewFakeChatModel(reply string) *FakeChatModel {
	return &FakeChatModel{reply: reply}
}

// NewFailingChatModel returns a model whose every call fails with err.
func NewFailingChatModel(err error) *FakeChatModel {
	return &FakeChatModel{err: err}
}

func (f *FakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]*schema.Message(nil), input...))
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *FakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *FakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

// Calls returns the message sequences received so far.
func (f *FakeChatModel) Calls() [][]*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*schema.Message(nil), f.calls...)
}
