package convert

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

func TestChatCompletionsToCanonical_StringContent(t *testing.T) {
	msgs := []ChatMessage{
		{Role: "user", Content: json.RawMessage(`"hi"`)},
	}
	out, err := ChatCompletionsToCanonical(context.Background(), msgs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, types.RoleUser, out[0].Role)
	assert.Equal(t, "hi", out[0].TextContent())
}

func TestChatCompletionsToCanonical_ToolMessage(t *testing.T) {
	msgs := []ChatMessage{
		{Role: "tool", ToolCallID: "call_1", Content: json.RawMessage(`"72F and sunny"`)},
	}
	out, err := ChatCompletionsToCanonical(context.Background(), msgs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Content, 1)
	assert.Equal(t, types.PartTypeToolResult, out[0].Content[0].Type)
	assert.Equal(t, "call_1", out[0].Content[0].ToolCallID)
	assert.Equal(t, "72F and sunny", out[0].Content[0].ToolResultText)
}

func TestChatCompletionsToCanonical_AssistantToolCalls(t *testing.T) {
	msgs := []ChatMessage{
		{
			Role:    "assistant",
			Content: json.RawMessage(`"let me check"`),
			ToolCalls: []ChatToolCall{
				{ID: "call_1", Type: "function"},
			},
		},
	}
	msgs[0].ToolCalls[0].Function.Name = "get_weather"
	msgs[0].ToolCalls[0].Function.Arguments = `{"location":"Tokyo"}`

	out, err := ChatCompletionsToCanonical(context.Background(), msgs)
	require.NoError(t, err)
	require.Len(t, out[0].Content, 2)
	assert.Equal(t, types.PartTypeText, out[0].Content[0].Type)
	assert.Equal(t, types.PartTypeToolCall, out[0].Content[1].Type)
	assert.Equal(t, "get_weather", out[0].Content[1].ToolName)
}

func TestChatCompletionsToCanonical_DataURLImageDecoded(t *testing.T) {
	// A single red pixel PNG, base64-encoded, wrapped in a data: URL.
	raw := "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNk+A8AAQUBAScY42YAAAAASUVORK5CYII="
	msgs := []ChatMessage{
		{Role: "user", Content: json.RawMessage(`[{"type":"image_url","image_url":{"url":"data:image/png;base64,` + raw + `"}}]`)},
	}
	out, err := ChatCompletionsToCanonical(context.Background(), msgs)
	require.NoError(t, err)
	require.Len(t, out[0].Content, 1)
	part := out[0].Content[0]
	assert.Equal(t, types.PartTypeImage, part.Type)
	assert.Equal(t, "image/png", part.ImageMimeType)
	assert.NotEqual(t, raw, string(part.ImageData), "ImageData must hold decoded bytes, not the base64 text")
}

// TestAnthropicToCanonical_ToolResultsPrecedeText verifies the ordering
// rule: tool_result blocks in a user message become standalone
// tool messages emitted before the user text from the same inbound message.
func TestAnthropicToCanonical_ToolResultsPrecedeText(t *testing.T) {
	content := json.RawMessage(`[
		{"type":"tool_result","tool_use_id":"call_1","content":"72F"},
		{"type":"text","text":"thanks, what about tomorrow?"}
	]`)
	msgs := []AnthropicMessage{{Role: "user", Content: content}}

	out, err := AnthropicToCanonical(msgs)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, types.RoleTool, out[0].Role)
	assert.Equal(t, "call_1", out[0].Content[0].ToolCallID)
	assert.Equal(t, types.RoleUser, out[1].Role)
	assert.Equal(t, "thanks, what about tomorrow?", out[1].TextContent())
}

func TestAnthropicToCanonical_ThinkingDropped(t *testing.T) {
	content := json.RawMessage(`[
		{"type":"thinking","text":"internal reasoning"},
		{"type":"text","text":"the answer is 4"}
	]`)
	msgs := []AnthropicMessage{{Role: "assistant", Content: content}}

	out, err := AnthropicToCanonical(msgs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Content, 1)
	assert.Equal(t, "the answer is 4", out[0].Content[0].Text)
}

func TestAnthropicToCanonical_ToolUse(t *testing.T) {
	content := json.RawMessage(`[
		{"type":"tool_use","id":"call_1","name":"get_weather","input":{"location":"Tokyo"}}
	]`)
	msgs := []AnthropicMessage{{Role: "assistant", Content: content}}

	out, err := AnthropicToCanonical(msgs)
	require.NoError(t, err)
	require.Len(t, out[0].Content, 1)
	part := out[0].Content[0]
	assert.Equal(t, types.PartTypeToolCall, part.Type)
	assert.Equal(t, "get_weather", part.ToolName)
	assert.JSONEq(t, `{"location":"Tokyo"}`, part.ToolArgsJSON)
}

func TestAnthropicToCanonical_ImageSourceDecoded(t *testing.T) {
	raw := "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNk+A8AAQUBAScY42YAAAAASUVORK5CYII="
	content := json.RawMessage(`[{"type":"image","source":{"media_type":"image/png","data":"` + raw + `"}}]`)
	msgs := []AnthropicMessage{{Role: "user", Content: content}}

	out, err := AnthropicToCanonical(msgs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	part := out[0].Content[0]
	assert.Equal(t, types.PartTypeImage, part.Type)
	assert.Equal(t, "image/png", part.ImageMimeType)
	assert.NotEqual(t, raw, string(part.ImageData), "ImageData must hold decoded bytes, not the base64 text")
}

func TestAnthropicSystemToCanonical_ArrayConcatenation(t *testing.T) {
	raw := json.RawMessage(`[{"type":"text","text":"be terse"},{"type":"text","text":"use markdown"}]`)
	got, err := AnthropicSystemToCanonical(raw)
	require.NoError(t, err)
	assert.Equal(t, "be terse\nuse markdown", got)
}
