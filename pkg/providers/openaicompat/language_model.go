package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/hushhenry/ai-gateway/pkg/convert"
	internalhttp "github.com/hushhenry/ai-gateway/pkg/internal/http"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
)

// LanguageModel implements provider.LanguageModel for one Bearer/OpenAI-
// compatible id.
type LanguageModel struct {
	provider *Provider
	modelID  string
}

func (m *LanguageModel) Provider() string { return m.provider.cfg.ProviderID }
func (m *LanguageModel) ModelID() string  { return m.modelID }

func (m *LanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	body := m.buildRequestBody(opts, false)

	httpResp, err := m.provider.client.Do(ctx, internalhttp.Request{
		Method: http.MethodPost,
		Path:   m.provider.chatPath(),
		Body:   body,
	})
	if err != nil {
		return nil, classifyRequestError(ctx, m.provider.cfg.ProviderID, err)
	}
	if httpResp.StatusCode >= 400 {
		return nil, providererrors.NewUpstreamRejectedError(m.provider.cfg.ProviderID, httpResp.StatusCode, string(httpResp.Body))
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(httpResp.Body, &resp); err != nil {
		return nil, providererrors.NewProtocolParseFailedError(m.provider.cfg.ProviderID, err)
	}
	return convertResponse(resp), nil
}

func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.EventStream, error) {
	body := m.buildRequestBody(opts, true)

	httpResp, err := m.provider.client.DoStream(ctx, internalhttp.Request{
		Method:  http.MethodPost,
		Path:    m.provider.chatPath(),
		Body:    body,
		Headers: map[string]string{"Accept": "text/event-stream"},
	})
	if err != nil {
		return nil, classifyRequestError(ctx, m.provider.cfg.ProviderID, err)
	}
	return newEventStream(httpResp.Body), nil
}

// classifyRequestError distinguishes a non-2xx upstream response, a
// deadline/cancellation, and any other transport failure.
func classifyRequestError(ctx context.Context, providerID string, err error) error {
	var statusErr *internalhttp.StatusError
	if errors.As(err, &statusErr) {
		return providererrors.NewUpstreamRejectedError(providerID, statusErr.StatusCode, statusErr.Body)
	}
	if ctx.Err() == context.DeadlineExceeded {
		return providererrors.NewTimeoutError(providerID)
	}
	return providererrors.NewUpstreamUnreachableError(providerID, err)
}

func (m *LanguageModel) buildRequestBody(opts *provider.GenerateOptions, stream bool) map[string]interface{} {
	body := map[string]interface{}{
		"model":  m.modelID,
		"stream": stream,
	}

	var messages []types.Message
	if opts.Prompt.IsMessages() {
		messages = opts.Prompt.Messages
	} else {
		messages = []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextPart(opts.Prompt.Text)}}}
	}
	body["messages"] = convert.ToOpenAIMessages(messages, opts.Prompt.System)

	if opts.Temperature != nil {
		body["temperature"] = *opts.Temperature
	}
	if opts.TopP != nil {
		body["top_p"] = *opts.TopP
	}
	if opts.MaxTokens != nil {
		body["max_tokens"] = *opts.MaxTokens
	}
	if len(opts.StopSequences) > 0 {
		body["stop"] = opts.StopSequences
	}
	if len(opts.Tools) > 0 {
		body["tools"] = convert.ToOpenAIToolFormat(opts.Tools)
		if opts.ToolChoice.Type != "" {
			body["tool_choice"] = convert.ToolChoiceToOpenAI(opts.ToolChoice)
		}
	}

	return body
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string             `json:"content"`
			ToolCalls []wireChatToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

type wireChatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

func convertResponse(resp chatCompletionResponse) *types.GenerateResult {
	result := &types.GenerateResult{
		Usage: types.Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens},
	}
	if len(resp.Choices) == 0 {
		return result
	}
	choice := resp.Choices[0]
	result.Text = choice.Message.Content
	result.FinishReason = providerutils.MapOpenAIFinishReason(choice.FinishReason)
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, types.ToolCall{ID: tc.ID, ToolName: tc.Function.Name, Arguments: providerutils.DecodeToolArgs(tc.Function.Arguments)})
	}
	return result
}

// eventStream implements provider.EventStream, accumulating streaming
// tool-call argument fragments by index until the upstream closes that
// index out.
type eventStream struct {
	body   io.ReadCloser
	parser *streaming.SSEParser

	pending map[int]*pendingToolCall
	order   []int

	finished bool
	queue    []*provider.StreamChunk
}

type pendingToolCall struct {
	id, name string
	args     string
}

func newEventStream(body io.ReadCloser) *eventStream {
	return &eventStream{
		body:    body,
		parser:  streaming.NewSSEParser(body),
		pending: make(map[int]*pendingToolCall),
	}
}

func (s *eventStream) Close() error { return s.body.Close() }

func (s *eventStream) Next() (*provider.StreamChunk, error) {
	for {
		if len(s.queue) > 0 {
			c := s.queue[0]
			s.queue = s.queue[1:]
			return c, nil
		}
		if s.finished {
			return nil, io.EOF
		}

		event, err := s.parser.Next()
		if err != nil {
			return nil, err
		}
		if streaming.IsStreamDone(event) {
			s.finished = true
			s.flushToolCalls()
			if len(s.queue) > 0 {
				continue
			}
			return nil, io.EOF
		}

		var chunk streamChunkWire
		if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
			// Malformed JSON within a stream line is skipped silently.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			s.queue = append(s.queue, &provider.StreamChunk{Type: provider.ChunkTypeText, Text: choice.Delta.Content})
		}

		for _, tc := range choice.Delta.ToolCalls {
			entry, ok := s.pending[tc.Index]
			if !ok {
				entry = &pendingToolCall{}
				s.pending[tc.Index] = entry
				s.order = append(s.order, tc.Index)
			}
			if tc.ID != "" {
				entry.id = tc.ID
			}
			if tc.Function.Name != "" {
				entry.name = tc.Function.Name
			}
			entry.args += tc.Function.Arguments
		}

		if choice.FinishReason != nil {
			s.flushToolCalls()
			s.queue = append(s.queue, &provider.StreamChunk{
				Type:         provider.ChunkTypeFinish,
				FinishReason: providerutils.MapOpenAIFinishReason(*choice.FinishReason),
			})
			s.finished = true
		}

		if len(s.queue) > 0 {
			continue
		}
	}
}

// flushToolCalls emits one ToolCall event per accumulated index, in the
// order the upstream first introduced them.
func (s *eventStream) flushToolCalls() {
	indices := append([]int(nil), s.order...)
	sort.Ints(indices)
	for _, idx := range indices {
		entry := s.pending[idx]
		s.queue = append(s.queue, &provider.StreamChunk{
			Type:     provider.ChunkTypeToolCall,
			ToolCall: &types.ToolCall{ID: entry.id, ToolName: entry.name, Arguments: providerutils.DecodeToolArgs(entry.args)},
		})
	}
	s.pending = make(map[int]*pendingToolCall)
	s.order = nil
}

type streamChunkWire struct {
	Choices []struct {
		Delta struct {
			Content   string                  `json:"content"`
			ToolCalls []wireStreamToolCallFrag `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type wireStreamToolCallFrag struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}
