package anthropiccompat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

func TestDoGenerate_MapsToolUseAndStopReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"content": [{"type":"tool_use","id":"call_1","name":"get_weather","input":{"location":"Tokyo"}}],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 12, "output_tokens": 6}
		}`)
	}))
	defer srv.Close()

	p := New(Config{ProviderID: "anthropic", BaseURL: srv.URL, APIKey: "sk-ant", AuthHeader: "x-api-key"})
	m := p.LanguageModel("claude-3-5-sonnet")

	result, err := m.DoGenerate(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "weather in Tokyo"}})
	require.NoError(t, err)
	assert.Equal(t, types.FinishReasonToolCalls, result.FinishReason)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "get_weather", result.ToolCalls[0].ToolName)
	assert.Equal(t, int64(12), result.Usage.PromptTokens)
}

func TestDoStream_ToolUseBlockBracketedByStartAndStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		events := []struct{ name, data string }{
			{"message_start", `{"message":{"id":"msg_1"}}`},
			{"content_block_start", `{"index":0,"content_block":{"type":"tool_use","id":"call_1","name":"get_weather"}}`},
			{"content_block_delta", `{"index":0,"delta":{"type":"input_json_delta","partial_json":"{\"location\":"}}`},
			{"content_block_delta", `{"index":0,"delta":{"type":"input_json_delta","partial_json":"\"Tokyo\"}"}}`},
			{"content_block_stop", `{"index":0}`},
			{"message_delta", `{"delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":6}}`},
			{"message_stop", `{}`},
		}
		for _, e := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, e.data)
		}
	}))
	defer srv.Close()

	p := New(Config{ProviderID: "anthropic", BaseURL: srv.URL, APIKey: "sk-ant", AuthHeader: "x-api-key"})
	m := p.LanguageModel("claude-3-5-sonnet")

	es, err := m.DoStream(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "weather in Tokyo"}, Stream: true})
	require.NoError(t, err)
	defer es.Close()

	var chunks []*provider.StreamChunk
	for {
		c, err := es.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, c)
	}

	require.Len(t, chunks, 2)
	assert.Equal(t, provider.ChunkTypeToolCall, chunks[0].Type)
	assert.Equal(t, "Tokyo", chunks[0].ToolCall.Arguments["location"])
	assert.Equal(t, provider.ChunkTypeFinish, chunks[1].Type)
	assert.Equal(t, types.FinishReasonToolCalls, chunks[1].FinishReason)
}
