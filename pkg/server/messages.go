package server

import (
	"encoding/json"
	"net/http"

	"github.com/hushhenry/ai-gateway/pkg/convert"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
	"github.com/hushhenry/ai-gateway/pkg/stream"
)

// messagesRequest is the inbound Messages wire shape.
type messagesRequest struct {
	Model         string                      `json:"model"`
	System        json.RawMessage             `json:"system"`
	Messages      []convert.AnthropicMessage  `json:"messages"`
	Stream        bool                        `json:"stream"`
	Tools         []convert.AnthropicToolDecl `json:"tools"`
	ToolChoice    json.RawMessage             `json:"tool_choice"`
	Temperature   *float64                    `json:"temperature"`
	TopP          *float64                    `json:"top_p"`
	MaxTokens     *int                        `json:"max_tokens"`
	StopSequences []string                    `json:"stop_sequences"`
}

type messagesResponse struct {
	ID         string               `json:"id"`
	Type       string               `json:"type"`
	Role       string               `json:"role"`
	Model      string               `json:"model"`
	Content    []map[string]any     `json:"content"`
	StopReason string               `json:"stop_reason"`
	Usage      anthropicUsageFields `json:"usage"`
}

type anthropicUsageFields struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var req messagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}

	messages, err := convert.AnthropicToCanonical(req.Messages)
	if err != nil {
		writeError(w, err)
		return
	}

	system, err := convert.AnthropicSystemToCanonical(req.System)
	if err != nil {
		writeError(w, err)
		return
	}

	var tools []types.Tool
	for _, t := range req.Tools {
		tools = append(tools, convert.AnthropicToolDeclToCanonical(t))
	}

	opts := &provider.GenerateOptions{
		Prompt:        types.Prompt{Messages: messages, System: system},
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		MaxTokens:     req.MaxTokens,
		StopSequences: req.StopSequences,
		Tools:         tools,
		ToolChoice:    convert.AnthropicToolChoiceToCanonical(req.ToolChoice),
		Stream:        req.Stream,
	}

	model, err := s.Registry.Resolve(r.Context(), req.Model)
	if err != nil {
		writeError(w, err)
		return
	}

	id := newID("msg")

	if req.Stream {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		es, endSpan, err := doStreamTraced(r.Context(), model, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		sw := streaming.NewSSEWriter(w)
		err = stream.WriteMessagesStream(sw, es, id, req.Model)
		endSpan(err)
		if err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		return
	}

	result, err := doGenerateTraced(r.Context(), model, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := messagesResponse{
		ID:         id,
		Type:       "message",
		Role:       "assistant",
		Model:      req.Model,
		Content:    resultToContentBlocks(result),
		StopReason: finishReasonToAnthropicStopReason(result.FinishReason, len(result.ToolCalls) > 0),
		Usage: anthropicUsageFields{
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func resultToContentBlocks(result *types.GenerateResult) []map[string]any {
	var blocks []map[string]any
	if result.Text != "" {
		blocks = append(blocks, map[string]any{"type": "text", "text": result.Text})
	}
	for _, tc := range result.ToolCalls {
		blocks = append(blocks, map[string]any{
			"type":  "tool_use",
			"id":    tc.ID,
			"name":  tc.ToolName,
			"input": tc.Arguments,
		})
	}
	if blocks == nil {
		blocks = []map[string]any{}
	}
	return blocks
}

// finishReasonToAnthropicStopReason is the inverse of
// providerutils.MapAnthropicStopReason: the canonical finish reason
// (produced by whichever upstream adapter ran) back onto the Messages
// surface's stop_reason vocabulary.
func finishReasonToAnthropicStopReason(reason types.FinishReason, hasToolCalls bool) string {
	switch {
	case hasToolCalls || reason == types.FinishReasonToolCalls:
		return "tool_use"
	case reason == types.FinishReasonLength:
		return "max_tokens"
	default:
		return "end_turn"
	}
}
