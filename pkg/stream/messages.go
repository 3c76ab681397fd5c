package stream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
)

// messageStart is the `message_start` event payload.
type messageStart struct {
	Type    string         `json:"type"`
	Message messageStartBody `json:"message"`
}

type messageStartBody struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Role    string         `json:"role"`
	Model   string         `json:"model"`
	Content []struct{}     `json:"content"`
	Usage   anthropicUsage `json:"usage"`
}

type anthropicUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

type contentBlockStart struct {
	Type         string         `json:"type"`
	Index        int            `json:"index"`
	ContentBlock map[string]any `json:"content_block"`
}

type contentBlockDelta struct {
	Type  string         `json:"type"`
	Index int            `json:"index"`
	Delta map[string]any `json:"delta"`
}

type contentBlockStop struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type messageDelta struct {
	Type  string             `json:"type"`
	Delta messageDeltaFields `json:"delta"`
	Usage anthropicUsage     `json:"usage"`
}

type messageDeltaFields struct {
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// WriteMessagesStream drains src and writes an Anthropic Messages-framed SSE
// stream, maintaining a small state machine: a monotonically increasing
// block index, a textBlockOpen flag, and a hasToolCalls flag that decides
// the final stop_reason.
func WriteMessagesStream(w *streaming.SSEWriter, src provider.EventStream, id string, model string) error {
	defer src.Close()

	if err := writeNamed(w, "message_start", messageStart{
		Type: "message_start",
		Message: messageStartBody{
			ID:    id,
			Type:  "message",
			Role:  "assistant",
			Model: model,
		},
	}); err != nil {
		return err
	}

	blockIndex := -1
	textBlockOpen := false
	hasToolCalls := false

	for {
		chunk, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch chunk.Type {
		case provider.ChunkTypeText:
			if !textBlockOpen {
				blockIndex++
				if err := writeNamed(w, "content_block_start", contentBlockStart{
					Type: "content_block_start", Index: blockIndex,
					ContentBlock: map[string]any{"type": "text", "text": ""},
				}); err != nil {
					return err
				}
				textBlockOpen = true
			}
			if err := writeNamed(w, "content_block_delta", contentBlockDelta{
				Type: "content_block_delta", Index: blockIndex,
				Delta: map[string]any{"type": "text_delta", "text": chunk.Text},
			}); err != nil {
				return err
			}

		case provider.ChunkTypeToolCall:
			if textBlockOpen {
				if err := writeNamed(w, "content_block_stop", contentBlockStop{Type: "content_block_stop", Index: blockIndex}); err != nil {
					return err
				}
				textBlockOpen = false
			}
			blockIndex++
			tc := chunk.ToolCall
			argsJSON, err := json.Marshal(tc.Arguments)
			if err != nil {
				return err
			}
			if err := writeNamed(w, "content_block_start", contentBlockStart{
				Type: "content_block_start", Index: blockIndex,
				ContentBlock: map[string]any{"type": "tool_use", "id": tc.ID, "name": tc.ToolName, "input": map[string]any{}},
			}); err != nil {
				return err
			}
			if err := writeNamed(w, "content_block_delta", contentBlockDelta{
				Type: "content_block_delta", Index: blockIndex,
				Delta: map[string]any{"type": "input_json_delta", "partial_json": string(argsJSON)},
			}); err != nil {
				return err
			}
			if err := writeNamed(w, "content_block_stop", contentBlockStop{Type: "content_block_stop", Index: blockIndex}); err != nil {
				return err
			}
			hasToolCalls = true

		case provider.ChunkTypeFinish:
			if textBlockOpen {
				if err := writeNamed(w, "content_block_stop", contentBlockStop{Type: "content_block_stop", Index: blockIndex}); err != nil {
					return err
				}
				textBlockOpen = false
			}
			stopReason := "end_turn"
			if hasToolCalls {
				stopReason = "tool_use"
			} else if chunk.FinishReason == types.FinishReasonLength {
				stopReason = "max_tokens"
			}
			// output_tokens is always 0 in this frame regardless of the real
			// count; preserved for wire compatibility rather than corrected.
			if err := writeNamed(w, "message_delta", messageDelta{
				Type:  "message_delta",
				Delta: messageDeltaFields{StopReason: stopReason},
				Usage: anthropicUsage{OutputTokens: 0},
			}); err != nil {
				return err
			}
			return writeNamed(w, "message_stop", map[string]string{"type": "message_stop"})

		case provider.ChunkTypeError:
			return fmt.Errorf("stream: upstream error mid-stream: %s", chunk.ErrMessage)
		}
	}

	return nil
}

func writeNamed(w *streaming.SSEWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteNamedEvent(event, string(data))
}
