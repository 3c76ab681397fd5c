// Package testutil provides shared test doubles for the gateway's
// provider.LanguageModel interface, covering its four-method contract:
// Provider, ModelID, DoGenerate, and DoStream.
package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

// MockLanguageModel is a test double for provider.LanguageModel: it returns
// DoGenerateFunc/DoStreamFunc's result when set, or a canned single-turn
// response otherwise, and records every call it receives.
type MockLanguageModel struct {
	DoGenerateFunc func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error)
	DoStreamFunc   func(ctx context.Context, opts *provider.GenerateOptions) (provider.EventStream, error)
	ProviderName   string
	ModelName      string

	mu            sync.Mutex
	GenerateCalls []*provider.GenerateOptions
	StreamCalls   []*provider.GenerateOptions
}

func (m *MockLanguageModel) Provider() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockLanguageModel) ModelID() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

func (m *MockLanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, opts)
	m.mu.Unlock()

	if m.DoGenerateFunc != nil {
		return m.DoGenerateFunc(ctx, opts)
	}
	return &types.GenerateResult{
		Text:         "mock response",
		FinishReason: types.FinishReasonStop,
		Usage:        types.Usage{PromptTokens: 10, CompletionTokens: 5},
	}, nil
}

func (m *MockLanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.EventStream, error) {
	m.mu.Lock()
	m.StreamCalls = append(m.StreamCalls, opts)
	m.mu.Unlock()

	if m.DoStreamFunc != nil {
		return m.DoStreamFunc(ctx, opts)
	}
	return NewMockEventStream([]*provider.StreamChunk{
		{Type: provider.ChunkTypeText, Text: "mock "},
		{Type: provider.ChunkTypeText, Text: "response"},
		{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStop, Usage: &types.Usage{}},
	}), nil
}

// MockEventStream is a test double for provider.EventStream over a fixed
// chunk slice.
type MockEventStream struct {
	chunks []*provider.StreamChunk
	index  int
	err    error
	mu     sync.Mutex
}

// NewMockEventStream returns a MockEventStream that yields chunks in order,
// then io.EOF.
func NewMockEventStream(chunks []*provider.StreamChunk) *MockEventStream {
	return &MockEventStream{chunks: chunks}
}

// NewMockEventStreamWithError returns a MockEventStream whose first Next
// call returns err.
func NewMockEventStreamWithError(err error) *MockEventStream {
	return &MockEventStream{err: err}
}

func (s *MockEventStream) Next() (*provider.StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.index >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.index]
	s.index++
	return c, nil
}

func (s *MockEventStream) Close() error { return nil }
