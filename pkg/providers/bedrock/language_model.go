package bedrock

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hushhenry/ai-gateway/pkg/convert"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils"
)

type LanguageModel struct {
	provider *Provider
	modelID  string
}

func (m *LanguageModel) Provider() string { return "bedrock" }
func (m *LanguageModel) ModelID() string  { return m.modelID }

func (m *LanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	body, err := json.Marshal(m.buildRequestBody(opts))
	if err != nil {
		return nil, providererrors.NewBadRequestError("failed to marshal bedrock request", err)
	}

	resp, err := m.doSigned(ctx, fmt.Sprintf("/model/%s/invoke", m.modelID), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providererrors.NewUpstreamUnreachableError("bedrock", err)
	}
	if resp.StatusCode >= 400 {
		return nil, providererrors.NewUpstreamRejectedError("bedrock", resp.StatusCode, string(respBody))
	}

	var wire bedrockMessagesResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, providererrors.NewProtocolParseFailedError("bedrock", err)
	}
	return convertBedrockResponse(wire), nil
}

func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.EventStream, error) {
	body, err := json.Marshal(m.buildRequestBody(opts))
	if err != nil {
		return nil, providererrors.NewBadRequestError("failed to marshal bedrock request", err)
	}

	resp, err := m.doSigned(ctx, fmt.Sprintf("/model/%s/invoke-with-response-stream", m.modelID), body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, providererrors.NewUpstreamRejectedError("bedrock", resp.StatusCode, string(respBody))
	}
	return newBedrockEventStream(resp.Body), nil
}

func (m *LanguageModel) doSigned(ctx context.Context, path string, body []byte) (*http.Response, error) {
	url := m.provider.baseURL() + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, providererrors.NewUpstreamUnreachableError("bedrock", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := m.provider.signer.SignRequest(req, body); err != nil {
		return nil, providererrors.NewUpstreamUnreachableError("bedrock", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, providererrors.NewTimeoutError("bedrock")
		}
		return nil, providererrors.NewUpstreamUnreachableError("bedrock", err)
	}
	return resp, nil
}

func (m *LanguageModel) buildRequestBody(opts *provider.GenerateOptions) map[string]interface{} {
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
		"anthropic_version": anthropicVersion,
		"messages":          convert.ToAnthropicMessages(messages),
		"max_tokens":        maxTokens,
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
		if tc := convert.ToolChoiceToAnthropic(opts.ToolChoice); tc != nil {
			body["tool_choice"] = tc
		}
	}
	return body
}

type bedrockMessagesResponse struct {
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

func convertBedrockResponse(resp bedrockMessagesResponse) *types.GenerateResult {
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

// bedrockEventStream implements provider.EventStream over Bedrock's
// invoke-with-response-stream route: the AWS event-stream binary framing
// carries PayloadPart frames whose "bytes" field is base64-encoded JSON of
// the same Anthropic streaming event shapes anthropiccompat parses off SSE,
// minus the "event:" line (the event name lives in the JSON "type" field
// instead).
type bedrockEventStream struct {
	body    io.ReadCloser
	decoder *eventStreamDecoder

	openToolID, openToolName string
	toolArgsBuf              string
	inToolBlock              bool

	queue    []*provider.StreamChunk
	finished bool
}

func newBedrockEventStream(body io.ReadCloser) *bedrockEventStream {
	return &bedrockEventStream{body: body, decoder: newEventStreamDecoder(body)}
}

func (s *bedrockEventStream) Close() error { return s.body.Close() }

func (s *bedrockEventStream) Next() (*provider.StreamChunk, error) {
	for {
		if len(s.queue) > 0 {
			c := s.queue[0]
			s.queue = s.queue[1:]
			return c, nil
		}
		if s.finished {
			return nil, io.EOF
		}

		frame, err := s.decoder.next()
		if err != nil {
			return nil, err
		}

		var envelope struct {
			Bytes string `json:"bytes"`
		}
		if err := json.Unmarshal(frame, &envelope); err != nil {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(envelope.Bytes)
		if err != nil {
			continue
		}

		var event struct {
			Type         string `json:"type"`
			ContentBlock struct {
				Type string `json:"type"`
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"content_block"`
			Delta struct {
				Type        string `json:"type"`
				Text        string `json:"text"`
				PartialJSON string `json:"partial_json"`
				StopReason  string `json:"stop_reason"`
			} `json:"delta"`
			Usage struct {
				OutputTokens int64 `json:"output_tokens"`
			} `json:"usage"`
		}
		if err := json.Unmarshal(decoded, &event); err != nil {
			continue
		}

		switch event.Type {
		case "content_block_start":
			if event.ContentBlock.Type == "tool_use" {
				s.inToolBlock = true
				s.openToolID = event.ContentBlock.ID
				s.openToolName = event.ContentBlock.Name
				s.toolArgsBuf = ""
			}
		case "content_block_delta":
			switch event.Delta.Type {
			case "text_delta":
				s.queue = append(s.queue, &provider.StreamChunk{Type: provider.ChunkTypeText, Text: event.Delta.Text})
			case "input_json_delta":
				s.toolArgsBuf += event.Delta.PartialJSON
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
			s.queue = append(s.queue, &provider.StreamChunk{
				Type:         provider.ChunkTypeFinish,
				FinishReason: providerutils.MapAnthropicStopReason(event.Delta.StopReason),
				Usage:        &types.Usage{CompletionTokens: event.Usage.OutputTokens},
			})
		case "message_stop":
			s.finished = true
		}
	}
}
