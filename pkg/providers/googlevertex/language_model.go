package googlevertex

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
	"github.com/hushhenry/ai-gateway/pkg/providers/google"
	"github.com/hushhenry/ai-gateway/pkg/providerutils"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
)

type LanguageModel struct {
	client  *internalhttp.Client
	modelID string
}

func (m *LanguageModel) Provider() string { return "vertex" }
func (m *LanguageModel) ModelID() string  { return m.modelID }

func (m *LanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	httpResp, err := m.client.Do(ctx, internalhttp.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/models/%s:generateContent", m.modelID),
		Body:   m.buildRequestBody(opts),
	})
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}
	if httpResp.StatusCode >= 400 {
		return nil, providererrors.NewUpstreamRejectedError("vertex", httpResp.StatusCode, string(httpResp.Body))
	}

	var resp vertexGenerateContentResponse
	if err := json.Unmarshal(httpResp.Body, &resp); err != nil {
		return nil, providererrors.NewProtocolParseFailedError("vertex", err)
	}
	return convertVertexResponse(resp), nil
}

func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.EventStream, error) {
	httpResp, err := m.client.DoStream(ctx, internalhttp.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/models/%s:streamGenerateContent?alt=sse", m.modelID),
		Body:    m.buildRequestBody(opts),
		Headers: map[string]string{"Accept": "text/event-stream"},
	})
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}
	return newVertexEventStream(httpResp.Body), nil
}

func (m *LanguageModel) buildRequestBody(opts *provider.GenerateOptions) map[string]interface{} {
	var messages []types.Message
	if opts.Prompt.IsMessages() {
		messages = opts.Prompt.Messages
	} else {
		messages = []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextPart(opts.Prompt.Text)}}}
	}

	body := map[string]interface{}{"contents": google.ToGeminiContents(messages)}
	if opts.Prompt.System != "" {
		body["systemInstruction"] = google.Content{Role: "user", Parts: []google.Part{{Text: opts.Prompt.System}}}
	}
	if cfg := google.BuildGenerationConfig(opts); len(cfg) > 0 {
		body["generationConfig"] = cfg
	}
	if tools, toolConfig := google.BuildTools(opts); tools != nil {
		body["tools"] = tools
		body["toolConfig"] = toolConfig
	}
	return body
}

func classifyRequestError(ctx context.Context, err error) error {
	if statusErr, ok := err.(*internalhttp.StatusError); ok {
		return providererrors.NewUpstreamRejectedError("vertex", statusErr.StatusCode, statusErr.Body)
	}
	if ctx.Err() == context.DeadlineExceeded {
		return providererrors.NewTimeoutError("vertex")
	}
	return providererrors.NewUpstreamUnreachableError("vertex", err)
}

type vertexGenerateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text         string               `json:"text,omitempty"`
				FunctionCall *google.FunctionCall `json:"functionCall,omitempty"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func convertVertexResponse(resp vertexGenerateContentResponse) *types.GenerateResult {
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

// vertexEventStream mirrors pkg/providers/google's event stream: each SSE
// frame carries one full candidate delta.
type vertexEventStream struct {
	body   io.ReadCloser
	parser *streaming.SSEParser

	queue    []*provider.StreamChunk
	finished bool
}

func newVertexEventStream(body io.ReadCloser) *vertexEventStream {
	return &vertexEventStream{body: body, parser: streaming.NewSSEParser(body)}
}

func (s *vertexEventStream) Close() error { return s.body.Close() }

func (s *vertexEventStream) Next() (*provider.StreamChunk, error) {
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

		var resp vertexGenerateContentResponse
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
