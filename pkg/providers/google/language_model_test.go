package google

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

func TestDoGenerate_MapsFunctionCallToToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"candidates": [{
				"content": {"parts": [{"functionCall": {"name": "get_weather", "args": {"location": "Tokyo"}}}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 4}
		}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "key-123", BaseURL: srv.URL})
	m := p.LanguageModel("gemini-2.0-flash")

	result, err := m.DoGenerate(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "weather in Tokyo"}})
	require.NoError(t, err)
	assert.Equal(t, types.FinishReasonToolCalls, result.FinishReason)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "get_weather", result.ToolCalls[0].ToolName)
	assert.Equal(t, "Tokyo", result.ToolCalls[0].Arguments["location"])
	assert.Equal(t, int64(10), result.Usage.PromptTokens)
}

func TestDoGenerate_SafetyFinishMapsToOther(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": "partial"}]}, "finishReason": "SAFETY"}]}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "key-123", BaseURL: srv.URL})
	m := p.LanguageModel("gemini-2.0-flash")

	result, err := m.DoGenerate(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, types.FinishReasonOther, result.FinishReason)
}

func TestDoStream_TextThenFunctionCallThenFinish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", `{"candidates":[{"content":{"parts":[{"text":"he"}]}}]}`)
		fmt.Fprintf(w, "data: %s\n\n", `{"candidates":[{"content":{"parts":[{"text":"llo"}]}}]}`)
		fmt.Fprintf(w, "data: %s\n\n", `{"candidates":[{"content":{"parts":[{"functionCall":{"name":"get_weather","args":{"location":"Tokyo"}}}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":8,"candidatesTokenCount":5}}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "key-123", BaseURL: srv.URL})
	m := p.LanguageModel("gemini-2.0-flash")

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

	require.Len(t, chunks, 4)
	assert.Equal(t, provider.ChunkTypeText, chunks[0].Type)
	assert.Equal(t, "he", chunks[0].Text)
	assert.Equal(t, provider.ChunkTypeText, chunks[1].Type)
	assert.Equal(t, "llo", chunks[1].Text)
	assert.Equal(t, provider.ChunkTypeToolCall, chunks[2].Type)
	assert.Equal(t, "get_weather", chunks[2].ToolCall.ToolName)
	assert.Equal(t, provider.ChunkTypeFinish, chunks[3].Type)
	assert.Equal(t, types.FinishReasonToolCalls, chunks[3].FinishReason)
}
