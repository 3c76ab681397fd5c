package codeassist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	internalhttp "github.com/hushhenry/ai-gateway/pkg/internal/http"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providers/google"
	"github.com/hushhenry/ai-gateway/pkg/providerutils"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
)

// ideMetadata is the fixed client-identification body loadCodeAssist
// expects; Code-Assist uses it to attribute usage, not to vary behavior.
var ideMetadata = map[string]interface{}{
	"metadata": map[string]interface{}{
		"ideType":    "IDE_UNSPECIFIED",
		"platform":   "PLATFORM_UNSPECIFIED",
		"pluginType": "GEMINI",
	},
}

type LanguageModel struct {
	provider *Provider
	modelID  string

	projectOnce sync.Once
	projectID   string
	projectErr  error
}

func (m *LanguageModel) Provider() string { return m.provider.cfg.ProviderID }
func (m *LanguageModel) ModelID() string  { return m.modelID }

func (m *LanguageModel) resolveProjectID(ctx context.Context) (string, error) {
	if m.provider.cfg.ProjectID != "" {
		return m.provider.cfg.ProjectID, nil
	}
	m.projectOnce.Do(func() {
		m.projectID, m.projectErr = m.loadCodeAssistProject(ctx)
	})
	return m.projectID, m.projectErr
}

func (m *LanguageModel) loadCodeAssistProject(ctx context.Context) (string, error) {
	httpResp, err := m.provider.client.Do(ctx, internalhttp.Request{
		Method: http.MethodPost,
		Path:   "/v1internal:loadCodeAssist",
		Body:   ideMetadata,
	})
	if err != nil {
		return "", classifyRequestError(ctx, m.provider.cfg.ProviderID, err)
	}
	if httpResp.StatusCode >= 400 {
		return "", providererrors.NewUpstreamRejectedError(m.provider.cfg.ProviderID, httpResp.StatusCode, string(httpResp.Body))
	}

	var resp struct {
		CloudaicompanionProject struct {
			ID string `json:"id"`
		} `json:"cloudaicompanionProject"`
	}
	if err := json.Unmarshal(httpResp.Body, &resp); err != nil {
		return "", providererrors.NewProtocolParseFailedError(m.provider.cfg.ProviderID, err)
	}
	if resp.CloudaicompanionProject.ID == "" {
		return "", providererrors.NewProtocolParseFailedError(m.provider.cfg.ProviderID, fmt.Errorf("loadCodeAssist response carried no project id"))
	}
	if m.provider.cfg.OnProjectDiscovered != nil {
		m.provider.cfg.OnProjectDiscovered(resp.CloudaicompanionProject.ID)
	}
	return resp.CloudaicompanionProject.ID, nil
}

func (m *LanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	projectID, err := m.resolveProjectID(ctx)
	if err != nil {
		return nil, err
	}

	httpResp, err := m.provider.client.Do(ctx, internalhttp.Request{
		Method: http.MethodPost,
		Path:   "/v1internal:generateContent",
		Body:   m.buildRequestBody(projectID, opts),
	})
	if err != nil {
		return nil, classifyRequestError(ctx, m.provider.cfg.ProviderID, err)
	}
	if httpResp.StatusCode >= 400 {
		return nil, providererrors.NewUpstreamRejectedError(m.provider.cfg.ProviderID, httpResp.StatusCode, string(httpResp.Body))
	}

	var resp codeAssistResponse
	if err := json.Unmarshal(httpResp.Body, &resp); err != nil {
		return nil, providererrors.NewProtocolParseFailedError(m.provider.cfg.ProviderID, err)
	}
	return convertCodeAssistResponse(resp), nil
}

func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.EventStream, error) {
	projectID, err := m.resolveProjectID(ctx)
	if err != nil {
		return nil, err
	}

	httpResp, err := m.provider.client.DoStream(ctx, internalhttp.Request{
		Method:  http.MethodPost,
		Path:    "/v1internal:streamGenerateContent?alt=sse",
		Body:    m.buildRequestBody(projectID, opts),
		Headers: map[string]string{"Accept": "text/event-stream"},
	})
	if err != nil {
		return nil, classifyRequestError(ctx, m.provider.cfg.ProviderID, err)
	}
	return newEventStream(httpResp.Body), nil
}

func (m *LanguageModel) buildRequestBody(projectID string, opts *provider.GenerateOptions) map[string]interface{} {
	var messages []types.Message
	if opts.Prompt.IsMessages() {
		messages = opts.Prompt.Messages
	} else {
		messages = []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextPart(opts.Prompt.Text)}}}
	}

	genConfig := google.BuildGenerationConfig(opts)
	genConfig["thinkingConfig"] = map[string]interface{}{"includeThoughts": true, "thinkingLevel": "LOW"}

	innerReq := map[string]interface{}{
		"contents":         google.ToGeminiContents(messages),
		"generationConfig": genConfig,
	}
	if tools, toolConfig := google.BuildTools(opts); tools != nil {
		innerReq["tools"] = tools
		innerReq["toolConfig"] = toolConfig
	}

	return map[string]interface{}{
		"project":   projectID,
		"model":     m.modelID,
		"request":   innerReq,
		"userAgent": "ai-gateway",
		"requestId": newRequestID(),
	}
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

type codeAssistResponse struct {
	Response struct {
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
			ThoughtsTokenCount   int64 `json:"thoughtsTokenCount"`
		} `json:"usageMetadata"`
	} `json:"response"`
}

func convertCodeAssistResponse(resp codeAssistResponse) *types.GenerateResult {
	result := &types.GenerateResult{
		Usage: types.Usage{
			PromptTokens:     resp.Response.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.Response.UsageMetadata.CandidatesTokenCount + resp.Response.UsageMetadata.ThoughtsTokenCount,
		},
	}
	if len(resp.Response.Candidates) == 0 {
		result.FinishReason = types.FinishReasonOther
		return result
	}
	c := resp.Response.Candidates[0]
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

// eventStream implements provider.EventStream over Code-Assist's SSE
// protocol, which wraps each Gemini candidate delta under a top-level
// "response" envelope, unlike the public Gemini API's
// unwrapped candidates array.
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

		var resp codeAssistResponse
		if err := json.Unmarshal([]byte(event.Data), &resp); err != nil {
			continue
		}
		if len(resp.Response.Candidates) == 0 {
			continue
		}
		c := resp.Response.Candidates[0]
		for _, p := range c.Content.Parts {
			if p.FunctionCall != nil {
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
		if c.FinishReason == "STOP" {
			s.queue = append(s.queue, &provider.StreamChunk{
				Type:         provider.ChunkTypeFinish,
				FinishReason: types.FinishReasonStop,
				Usage: &types.Usage{
					PromptTokens:     resp.Response.UsageMetadata.PromptTokenCount,
					CompletionTokens: resp.Response.UsageMetadata.CandidatesTokenCount + resp.Response.UsageMetadata.ThoughtsTokenCount,
				},
			})
			s.finished = true
		}
	}
}
