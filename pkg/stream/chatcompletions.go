// Package stream implements the Stream Multiplexer: it drains a
// canonical provider.EventStream and frames it as one of the two external
// SSE surfaces, Chat-Completions chunks or Anthropic Messages events.
//
// Frame emission goes through pkg/providerutils/streaming's SSEWriter; the
// block-index bookkeeping in messages.go tracks the Anthropic streaming
// protocol's content-block lifecycle across start/delta/stop events.
package stream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
)

// ChatCompletionsChunk is the wire shape of one `chat.completion.chunk` SSE
// frame.
type ChatCompletionsChunk struct {
	ID      string                     `json:"id"`
	Object  string                     `json:"object"`
	Created int64                     `json:"created"`
	Model   string                     `json:"model"`
	Choices []ChatCompletionsChoice    `json:"choices"`
}

type ChatCompletionsChoice struct {
	Index        int                  `json:"index"`
	Delta        ChatCompletionsDelta `json:"delta"`
	FinishReason *string              `json:"finish_reason"`
}

type ChatCompletionsDelta struct {
	Content   string                     `json:"content,omitempty"`
	ToolCalls []ChatCompletionsToolCall `json:"tool_calls,omitempty"`
}

type ChatCompletionsToolCall struct {
	Index    int                         `json:"index"`
	ID       string                      `json:"id,omitempty"`
	Type     string                      `json:"type,omitempty"`
	Function ChatCompletionsToolFunction `json:"function"`
}

type ChatCompletionsToolFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// WriteChatCompletionsStream drains src and writes a chat.completion.chunk
// SSE stream, terminated by a literal "data: [DONE]\n\n".
func WriteChatCompletionsStream(w *streaming.SSEWriter, src provider.EventStream, id string, created int64, model string) error {
	defer src.Close()

	for {
		chunk, err := src.Next()
		if err == io.EOF {
			return w.WriteRawDone()
		}
		if err != nil {
			return err
		}

		switch chunk.Type {
		case provider.ChunkTypeText:
			if err := writeChatChunk(w, ChatCompletionsChunk{
				ID: id, Object: "chat.completion.chunk", Created: created, Model: model,
				Choices: []ChatCompletionsChoice{{Index: 0, Delta: ChatCompletionsDelta{Content: chunk.Text}}},
			}); err != nil {
				return err
			}

		case provider.ChunkTypeToolCall:
			tc := chunk.ToolCall
			argsJSON, err := json.Marshal(tc.Arguments)
			if err != nil {
				return err
			}
			if err := writeChatChunk(w, ChatCompletionsChunk{
				ID: id, Object: "chat.completion.chunk", Created: created, Model: model,
				Choices: []ChatCompletionsChoice{{
					Index: 0,
					Delta: ChatCompletionsDelta{ToolCalls: []ChatCompletionsToolCall{{
						Index:    0,
						ID:       tc.ID,
						Type:     "function",
						Function: ChatCompletionsToolFunction{Name: tc.ToolName, Arguments: string(argsJSON)},
					}}},
				}},
			}); err != nil {
				return err
			}

		case provider.ChunkTypeFinish:
			reason := string(chunk.FinishReason)
			if err := writeChatChunk(w, ChatCompletionsChunk{
				ID: id, Object: "chat.completion.chunk", Created: created, Model: model,
				Choices: []ChatCompletionsChoice{{Index: 0, Delta: ChatCompletionsDelta{}, FinishReason: &reason}},
			}); err != nil {
				return err
			}
			return w.WriteRawDone()

		case provider.ChunkTypeError:
			return fmt.Errorf("stream: upstream error mid-stream: %s", chunk.ErrMessage)
		}
	}
}

func writeChatChunk(w *streaming.SSEWriter, c ChatCompletionsChunk) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return w.WriteData(string(data))
}
