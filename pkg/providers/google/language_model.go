package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	internalhttp "github.com/hushhenry/ai-gateway/pkg/internal/http"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
)

type LanguageModel struct {
	client     *internalhttp.Client
	modelID    string
	apiKey     string
	providerID string
}

func (m *LanguageModel) Provider() string { return m.providerID }
func (m *LanguageModel) ModelID() string  { return m.modelID }

func (m *LanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	body := m.buildRequestBody(opts)

	httpResp, err := m.client.Do(ctx, internalhttp.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s", m.modelID, m.apiKey),
		Body:   body,
	})
	if err != nil {
		return nil, classifyRequestError(ctx, m.providerID, err)
	}
	if httpResp.StatusCode >= 400 {
		return nil, providererrors.NewUpstreamRejectedError(m.providerID, httpResp.StatusCode, string(httpResp.Body))
	}

	var resp generateContentResponse
	if err := json.Unmarshal(httpResp.Body, &resp); err != nil {
		return nil, providererrors.NewProtocolParseFailedError(m.providerID, err)
	}
	return convertResponse(resp), nil
}

func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.EventStream, error) {
	body := m.buildRequestBody(opts)

	httpResp, err := m.client.DoStream(ctx, internalhttp.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/v1beta/models/%s:streamGenerateContent?alt=sse&key=%s", m.modelID, m.apiKey),
		Body:    body,
		Headers: map[string]string{"Accept": "text/event-stream"},
	})
	if err != nil {
		return nil, classifyRequestError(ctx, m.providerID, err)
	}
	return newEventStream(httpResp.Body), nil
}

func (m *LanguageModel) buildRequestBody(opts *provider.GenerateOptions) map[string]interface{} {
	var messages []types.Message
	if opts.Prompt.IsMessages() {
		messages = opts.Prompt.Messages
	} else {
		messages = []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextPart(opts.Prompt.Text)}}}
	}

	body := map[string]interface{}{
		"contents": ToGeminiContents(messages),
	}
	if opts.Prompt.System != "" {
		body["systemInstruction"] = Content{Role: "user", Parts: []Part{{Text: opts.Prompt.System}}}
	}
	if cfg := BuildGenerationConfig(opts); len(cfg) > 0 {
		body["generationConfig"] = cfg
	}
	if tools, toolConfig := BuildTools(opts); tools != nil {
		body["tools"] = tools
		body["toolConfig"] = toolConfig
	}
	return body
}

func classifyRequestError(ctx context.Context, providerID string, err error) error {
	if statusErr, ok := err.(*internalhttp.StatusError); ok {
		return providererrors.NewUpstreamRejectedError(providerID, statusErr.StatusCode, statusErr.Body)
	}
	if ctx.Err() == context.DeadlineExceeded {
		return providererrors.NewTimeoutError(providerID)
	}
	return providererrors.NewUpstreamUnreachableError(providerID, err)
}

type generateContentResponse struct {
	Candidates []struct {
		Content      googleContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

func convertResponse(resp generateContentResponse) *types.GenerateResult {
	result := &types.GenerateResult{
		Usage: types.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
		},
	}
	if len(resp.Candidates) == 0 {
		result.FinishReason = types.FinishReasonOther
		return result
	}
	c := resp.Candidates[0]
	result.FinishReason = providerutils.MapGoogleFinishReason(c.FinishReason)
	for _, p := range c.Content.Parts {
		if p.FunctionCall != nil {
			// Gemini does not assign tool-call ids; the function name
			// doubles as the synthetic id, matched back up by name when
			// the result is later replayed as a tool_result part.
			result.ToolCalls = append(result.ToolCalls, types.ToolCall{
				ID:        p.FunctionCall.Name,
				ToolName:  p.FunctionCall.Name,
				Arguments: p.FunctionCall.Args,
			})
			continue
		}
		result.Text += p.Text
	}
	if len(result.ToolCalls) > 0 && result.FinishReason == types.FinishReasonStop {
		result.FinishReason = types.FinishReasonToolCalls
	}
	return result
}

// eventStream implements provider.EventStream over Gemini's
// streamGenerateContent SSE protocol: each event carries one full
// candidate delta (Google does not fragment function call args across
// events), so functionCall parts map directly onto one ToolCall chunk
// apiece and the final event's finishReason drives Finish.
type eventStream struct {
	body   io.ReadCloser
	parser *streaming.SSEParser

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
		if event.Data == "" {
			continue
		}

		var resp generateContentResponse
		if err := json.Unmarshal([]byte(event.Data), &resp); err != nil {
			continue
		}
		if len(resp.Candidates) == 0 {
			continue
		}
		c := resp.Candidates[0]
		hasToolCalls := false
		for _, p := range c.Content.Parts {
			if p.FunctionCall != nil {
				hasToolCalls = true
				s.queue = append(s.queue, &provider.StreamChunk{
					Type: provider.ChunkTypeToolCall,
					ToolCall: &types.ToolCall{
						ID:        p.FunctionCall.Name,
						ToolName:  p.FunctionCall.Name,
						Arguments: p.FunctionCall.Args,
					},
				})
				continue
			}
			if p.Text != "" {
				s.queue = append(s.queue, &provider.StreamChunk{Type: provider.ChunkTypeText, Text: p.Text})
			}
		}
		if c.FinishReason != "" {
			finish := providerutils.MapGoogleFinishReason(c.FinishReason)
			if hasToolCalls && finish == types.FinishReasonStop {
				finish = types.FinishReasonToolCalls
			}
			s.queue = append(s.queue, &provider.StreamChunk{
				Type:         provider.ChunkTypeFinish,
				FinishReason: finish,
				Usage: &types.Usage{
					PromptTokens:     resp.UsageMetadata.PromptTokenCount,
					CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
				},
			})
			s.finished = true
		}
	}
}
