package openaicompat

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
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
)

func TestDoGenerate_MapsToolCallsAndUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"choices": [{"message": {"content": "", "tool_calls": [{"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"location\":\"Tokyo\"}"}}]}, "finish_reason": "tool_calls"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5}
		}`)
	}))
	defer srv.Close()

	p := New(Config{ProviderID: "openai", BaseURL: srv.URL, APIKey: "sk-test"})
	m := p.LanguageModel("gpt-4o-mini")

	result, err := m.DoGenerate(context.Background(), &provider.GenerateOptions{
		Prompt: types.Prompt{Text: "weather in Tokyo"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.FinishReasonToolCalls, result.FinishReason)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "get_weather", result.ToolCalls[0].ToolName)
	assert.Equal(t, "Tokyo", result.ToolCalls[0].Arguments["location"])
	assert.Equal(t, int64(10), result.Usage.PromptTokens)
}

func TestDoGenerate_NonOKStatusIsUpstreamRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"rate limited"}`)
	}))
	defer srv.Close()

	p := New(Config{ProviderID: "openai", BaseURL: srv.URL, APIKey: "sk-test"})
	m := p.LanguageModel("gpt-4o-mini")

	_, err := m.DoGenerate(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "hi"}})
	require.Error(t, err)
	assert.True(t, providererrors.IsUpstreamRejectedError(err))
}

func TestDoStream_AccumulatesToolCallArgumentsByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_weather","arguments":""}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"location\":"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Tokyo\"}"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := New(Config{ProviderID: "openai", BaseURL: srv.URL, APIKey: "sk-test"})
	m := p.LanguageModel("gpt-4o-mini")

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
	assert.Equal(t, "get_weather", chunks[0].ToolCall.ToolName)
	assert.Equal(t, "Tokyo", chunks[0].ToolCall.Arguments["location"])
	assert.Equal(t, provider.ChunkTypeFinish, chunks[1].Type)
	assert.Equal(t, types.FinishReasonToolCalls, chunks[1].FinishReason)
}

func TestDoStream_TextDeltasInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := New(Config{ProviderID: "openai", BaseURL: srv.URL, APIKey: "sk-test"})
	m := p.LanguageModel("gpt-4o-mini")

	es, err := m.DoStream(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "hi"}, Stream: true})
	require.NoError(t, err)
	defer es.Close()

	var text string
	for {
		c, err := es.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if c.Type == provider.ChunkTypeText {
			text += c.Text
		}
	}
	assert.Equal(t, "hello", text)
}
