package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
	"github.com/hushhenry/ai-gateway/pkg/providerutils/streaming"
)

// fakeStream replays a fixed slice of chunks, then io.EOF.
type fakeStream struct {
	chunks []*provider.StreamChunk
	i      int
}

func (f *fakeStream) Next() (*provider.StreamChunk, error) {
	if f.i >= len(f.chunks) {
		return nil, io.EOF
	}
	c := f.chunks[f.i]
	f.i++
	return c, nil
}

func (f *fakeStream) Close() error { return nil }

func TestWriteChatCompletionsStream_TextThenFinish(t *testing.T) {
	src := &fakeStream{chunks: []*provider.StreamChunk{
		{Type: provider.ChunkTypeText, Text: "hel"},
		{Type: provider.ChunkTypeText, Text: "lo"},
		{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStop},
	}}
	var buf bytes.Buffer
	w := streaming.NewSSEWriter(&buf)

	require.NoError(t, WriteChatCompletionsStream(w, src, "chatcmpl-1", 0, "openai/gpt-4o-mini"))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "data: [DONE]\n\n"))
	assert.Contains(t, out, `"content":"hel"`)
	assert.Contains(t, out, `"finish_reason":"stop"`)
}

func TestWriteChatCompletionsStream_ToolCall(t *testing.T) {
	src := &fakeStream{chunks: []*provider.StreamChunk{
		{Type: provider.ChunkTypeToolCall, ToolCall: &types.ToolCall{ID: "call_1", ToolName: "get_weather", Arguments: map[string]interface{}{"location": "Tokyo"}}},
		{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonToolCalls},
	}}
	var buf bytes.Buffer
	w := streaming.NewSSEWriter(&buf)

	require.NoError(t, WriteChatCompletionsStream(w, src, "chatcmpl-2", 0, "openai/gpt-4o-mini"))

	assert.Contains(t, buf.String(), `"name":"get_weather"`)
	assert.Contains(t, buf.String(), `"arguments":"{\"location\":\"Tokyo\"}"`)
}

func TestWriteMessagesStream_TextBlockBalanced(t *testing.T) {
	src := &fakeStream{chunks: []*provider.StreamChunk{
		{Type: provider.ChunkTypeText, Text: "hi"},
		{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStop},
	}}
	var buf bytes.Buffer
	w := streaming.NewSSEWriter(&buf)

	require.NoError(t, WriteMessagesStream(w, src, "msg_1", "anthropic/claude-3-5-sonnet"))

	events := splitEvents(t, buf.String())
	wantOrder := []string{"message_start", "content_block_start", "content_block_delta", "content_block_stop", "message_delta", "message_stop"}
	require.Len(t, events, len(wantOrder))
	for i, name := range wantOrder {
		assert.Equal(t, name, events[i])
	}
}

func TestWriteMessagesStream_ToolUseSetsStopReason(t *testing.T) {
	src := &fakeStream{chunks: []*provider.StreamChunk{
		{Type: provider.ChunkTypeToolCall, ToolCall: &types.ToolCall{ID: "call_1", ToolName: "get_weather", Arguments: map[string]interface{}{"location": "Tokyo"}}},
		{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonToolCalls},
	}}
	var buf bytes.Buffer
	w := streaming.NewSSEWriter(&buf)

	require.NoError(t, WriteMessagesStream(w, src, "msg_2", "openai/gpt-4o-mini"))

	out := buf.String()
	assert.Contains(t, out, `"stop_reason":"tool_use"`)

	// Block indices for the single tool_use block must both be 0 and the
	// content_block_start/stop pair must bracket exactly one delta.
	parser := streaming.NewSSEParser(strings.NewReader(out))
	var startIdx, stopIdx float64 = -99, -99
	for {
		ev, err := parser.Next()
		if err != nil {
			break
		}
		if ev.Event == "content_block_start" {
			var payload map[string]any
			require.NoError(t, json.Unmarshal([]byte(ev.Data), &payload))
			startIdx = payload["index"].(float64)
		}
		if ev.Event == "content_block_stop" {
			var payload map[string]any
			require.NoError(t, json.Unmarshal([]byte(ev.Data), &payload))
			stopIdx = payload["index"].(float64)
		}
	}
	assert.Equal(t, startIdx, stopIdx)
}

func TestWriteMessagesStream_TextThenToolCallClosesTextBlockFirst(t *testing.T) {
	src := &fakeStream{chunks: []*provider.StreamChunk{
		{Type: provider.ChunkTypeText, Text: "let me check"},
		{Type: provider.ChunkTypeToolCall, ToolCall: &types.ToolCall{ID: "call_1", ToolName: "get_weather", Arguments: map[string]interface{}{}}},
		{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonToolCalls},
	}}
	var buf bytes.Buffer
	w := streaming.NewSSEWriter(&buf)

	require.NoError(t, WriteMessagesStream(w, src, "msg_3", "openai/gpt-4o-mini"))

	events := splitEvents(t, buf.String())
	wantOrder := []string{
		"message_start",
		"content_block_start", "content_block_delta", "content_block_stop", // text block, index 0
		"content_block_start", "content_block_delta", "content_block_stop", // tool_use block, index 1
		"message_delta", "message_stop",
	}
	require.Len(t, events, len(wantOrder))
	for i, name := range wantOrder {
		assert.Equal(t, name, events[i])
	}
}

func TestWriteChatCompletionsStream_UpstreamErrorAbortsWithoutDone(t *testing.T) {
	src := &fakeStream{chunks: []*provider.StreamChunk{
		{Type: provider.ChunkTypeText, Text: "partial"},
		{Type: provider.ChunkTypeError, ErrMessage: "upstream connection reset"},
	}}
	var buf bytes.Buffer
	w := streaming.NewSSEWriter(&buf)

	err := WriteChatCompletionsStream(w, src, "chatcmpl-3", 0, "openai/gpt-4o-mini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream connection reset")

	out := buf.String()
	assert.NotContains(t, out, "[DONE]")
	assert.Contains(t, out, `"content":"partial"`)
}

func TestWriteMessagesStream_UpstreamErrorAbortsWithoutMessageStop(t *testing.T) {
	src := &fakeStream{chunks: []*provider.StreamChunk{
		{Type: provider.ChunkTypeText, Text: "partial"},
		{Type: provider.ChunkTypeError, ErrMessage: "upstream connection reset"},
	}}
	var buf bytes.Buffer
	w := streaming.NewSSEWriter(&buf)

	err := WriteMessagesStream(w, src, "msg_4", "anthropic/claude-3-5-sonnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream connection reset")

	events := splitEvents(t, buf.String())
	assert.NotContains(t, events, "message_stop")
}

func splitEvents(t *testing.T, raw string) []string {
	t.Helper()
	parser := streaming.NewSSEParser(strings.NewReader(raw))
	var names []string
	for {
		ev, err := parser.Next()
		if err != nil {
			break
		}
		names = append(names, ev.Event)
	}
	return names
}
