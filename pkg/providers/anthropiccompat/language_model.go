package anthropiccompat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hushhenry/ai-gateway/pkg/convert"
	internalhttp "github.com/hushhenry/ai-gateway/pkg/internal/http"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
)

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
		Path:   "/v1/messages",
		Body:   body,
	})
	if err != nil {
		return nil, classifyRequestError(ctx, m.provider.cfg.ProviderID, err)
	}
	if httpResp.StatusCode >= 400 {
		return nil, providererrors.NewUpstreamRejectedError(m.provider.cfg.ProviderID, httpResp.StatusCode, string(httpResp.Body))
	}

	var resp messagesResponse
	if err := json.Unmarshal(httpResp.Body, &resp); err != nil {
		return nil, providererrors.NewProtocolParseFailedError(m.provider.cfg.ProviderID, err)
	}
	return convertResponse(resp), nil
}

func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.EventStream, error) {
	body := m.buildRequestBody(opts, true)

	httpResp, err := m.provider.client.DoStream(ctx, internalhttp.Request{
		Method:  http.MethodPost,
		Path:    "/v1/messages",
		Body:    body,
		Headers: map[string]string{"Accept": "text/event-stream"},
	})
	if err != nil {
		return nil, classifyRequestError(ctx, m.provider.cfg.ProviderID, err)
	}
	return newEventStream(httpResp.Body), nil
}

func (m *LanguageModel) buildRequestBody(opts *provider.GenerateOptions, stream bool) map[string]interface{} {
	var messages []types.Message
	if opts.Prompt.IsMessages() {
		messages = opts.Prompt.Messages
	} else {
		messages = []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextPart(opts.Prompt.Text)}}}
	}

	maxTokens := 4096
	if opts.MaxTokens != nil {
		maxTokens = *opts.MaxTokens
	}

	body := map[string]interface{}{
		"model":      m.modelID,
		"stream":     stream,
		"messages":   convert.ToAnthropicMessages(messages),
		"max_tokens": maxTokens,
	}
	if opts.Prompt.System != "" {
		body["system"] = opts.Prompt.System
	}
	if opts.Temperature != nil {
		body["temperature"] = *opts.Temperature
	}
	if opts.TopP != nil {
		body["top_p"] = *opts.TopP
	}
	if len(opts.StopSequences) > 0 {
		body["stop_sequences"] = opts.StopSequences
	}
	if len(opts.Tools) > 0 {
		body["tools"] = convert.ToAnthropicToolFormat(opts.Tools)
		if opts.ToolChoice.Type != "" {
			if tc := convert.ToolChoiceToAnthropic(opts.ToolChoice); tc != nil {
				body["tool_choice"] = tc
			}
		}
	}
	return body
}

type messagesResponse struct {
	Content []struct {
		Type  string                 `json:"type"`
		Text  string                 `json:"text"`
		ID    string                 `json:"id"`
		Name  string                 `json:"name"`
		Input map[string]interface{} `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

func convertResponse(resp messagesResponse) *types.GenerateResult {
	result := &types.GenerateResult{
		FinishReason: providerutils.MapAnthropicStopReason(resp.StopReason),
		Usage:        types.Usage{PromptTokens: resp.Usage.InputTokens, CompletionTokens: resp.Usage.OutputTokens},
	}
	for _, b := range resp.Content {
		switch b.Type {
		case "text":
			result.Text += b.Text
		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, types.ToolCall{ID: b.ID, ToolName: b.Name, Arguments: b.Input})
		}
	}
	return result
}

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

// eventStream implements provider.EventStream over Anthropic's streaming
// protocol: content_block_delta/text_delta -> TextDelta; a tool_use block
// (content_block_start through content_block_stop) accumulates
// input_json_delta fragments into one ToolCall; message_delta.stop_reason
// drives Finish.
type eventStream struct {
	body   io.ReadCloser
	parser *streaming.SSEParser

	openToolID, openToolName string
	toolArgsBuf              string
	inToolBlock              bool

	queue    []*provider.StreamChunk
	finished bool
}

func newEventStream(body io.ReadCloser) *eventStream {
	return &eventStream{body: body, parser: streaming.NewSSEParser(body)}
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

		switch event.Event {
		case "content_block_start":
			var payload struct {
				ContentBlock struct {
					Type string `json:"type"`
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"content_block"`
			}
			if err := json.Unmarshal([]byte(event.Data), &payload); err != nil {
				continue
			}
			if payload.ContentBlock.Type == "tool_use" {
				s.inToolBlock = true
				s.openToolID = payload.ContentBlock.ID
				s.openToolName = payload.ContentBlock.Name
				s.toolArgsBuf = ""
			}

		case "content_block_delta":
			var payload struct {
				Delta struct {
					Type        string `json:"type"`
					Text        string `json:"text"`
					PartialJSON string `json:"partial_json"`
				} `json:"delta"`
			}
			if err := json.Unmarshal([]byte(event.Data), &payload); err != nil {
				continue
			}
			switch payload.Delta.Type {
			case "text_delta":
				s.queue = append(s.queue, &provider.StreamChunk{Type: provider.ChunkTypeText, Text: payload.Delta.Text})
			case "input_json_delta":
				s.toolArgsBuf += payload.Delta.PartialJSON
			}

		case "content_block_stop":
			if s.inToolBlock {
				s.queue = append(s.queue, &provider.StreamChunk{
					Type:     provider.ChunkTypeToolCall,
					ToolCall: &types.ToolCall{ID: s.openToolID, ToolName: s.openToolName, Arguments: providerutils.DecodeToolArgs(s.toolArgsBuf)},
				})
				s.inToolBlock = false
			}

		case "message_delta":
			var payload struct {
				Delta struct {
					StopReason string `json:"stop_reason"`
				} `json:"delta"`
				Usage struct {
					OutputTokens int64 `json:"output_tokens"`
				} `json:"usage"`
			}
			if err := json.Unmarshal([]byte(event.Data), &payload); err != nil {
				continue
			}
			s.queue = append(s.queue, &provider.StreamChunk{
				Type:         provider.ChunkTypeFinish,
				FinishReason: providerutils.MapAnthropicStopReason(payload.Delta.StopReason),
				Usage:        &types.Usage{CompletionTokens: payload.Usage.OutputTokens},
			})

		case "message_stop":
			s.finished = true
		}
	}
}
