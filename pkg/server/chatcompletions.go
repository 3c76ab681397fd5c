package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hushhenry/ai-gateway/pkg/convert"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
	"github.com/hushhenry/ai-gateway/pkg/stream"
)

// chatCompletionsRequest is the inbound Chat-Completions wire shape.
type chatCompletionsRequest struct {
	Model       string               `json:"model"`
	Messages    []convert.ChatMessage `json:"messages"`
	Stream      bool                 `json:"stream"`
	Tools       []convert.ChatToolDecl `json:"tools"`
	ToolChoice  json.RawMessage      `json:"tool_choice"`
	Temperature *float64             `json:"temperature"`
	TopP        *float64             `json:"top_p"`
	MaxTokens   *int                 `json:"max_tokens"`
	Stop        []string             `json:"stop"`
}

type chatCompletionResponse struct {
	ID      string                   `json:"id"`
	Object  string                   `json:"object"`
	Created int64                    `json:"created"`
	Model   string                   `json:"model"`
	Choices []chatCompletionChoice   `json:"choices"`
	Usage   chatCompletionUsage      `json:"usage"`
}

type chatCompletionChoice struct {
	Index        int                 `json:"index"`
	Message      chatCompletionMsg   `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatCompletionMsg struct {
	Role      string                     `json:"role"`
	Content   string                     `json:"content"`
	ToolCalls []stream.ChatCompletionsToolCall `json:"tool_calls,omitempty"`
}

type chatCompletionUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}

	messages, err := convert.ChatCompletionsToCanonical(r.Context(), req.Messages)
	if err != nil {
		writeError(w, err)
		return
	}

	var tools []types.Tool
	for _, t := range req.Tools {
		tools = append(tools, convert.ChatToolDeclToCanonical(t))
	}

	opts := &provider.GenerateOptions{
		Prompt:        types.Prompt{Messages: messages},
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		MaxTokens:     req.MaxTokens,
		StopSequences: req.Stop,
		Tools:         tools,
		ToolChoice:    convert.ChatToolChoiceToCanonical(req.ToolChoice),
		Stream:        req.Stream,
	}

	model, err := s.Registry.Resolve(r.Context(), req.Model)
	if err != nil {
		writeError(w, err)
		return
	}

	id := newID("chatcmpl")
	created := time.Now().Unix()

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
		err = stream.WriteChatCompletionsStream(sw, es, id, created, req.Model)
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

	resp := chatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: created,
		Model:   req.Model,
		Choices: []chatCompletionChoice{{
			Index:        0,
			Message:      chatCompletionMsg{Role: "assistant", Content: result.Text, ToolCalls: toolCallsToWire(result.ToolCalls)},
			FinishReason: string(result.FinishReason),
		}},
		Usage: chatCompletionUsage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.PromptTokens + result.Usage.CompletionTokens,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func toolCallsToWire(calls []types.ToolCall) []stream.ChatCompletionsToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]stream.ChatCompletionsToolCall, len(calls))
	for i, tc := range calls {
		argsJSON, _ := json.Marshal(tc.Arguments)
		out[i] = stream.ChatCompletionsToolCall{
			Index: i,
			ID:    tc.ID,
			Type:  "function",
			Function: stream.ChatCompletionsToolFunction{
				Name:      tc.ToolName,
				Arguments: string(argsJSON),
			},
		}
	}
	return out
}
