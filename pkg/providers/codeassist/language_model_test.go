package codeassist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

func TestDoGenerate_DiscoversAndCachesProjectID(t *testing.T) {
	var loadCalls, generateCalls int32
	var capturedProject string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1internal:loadCodeAssist":
			atomic.AddInt32(&loadCalls, 1)
			fmt.Fprint(w, `{"cloudaicompanionProject": {"id": "proj-123"}}`)
		case "/v1internal:generateContent":
			atomic.AddInt32(&generateCalls, 1)
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			capturedProject, _ = body["project"].(string)
			fmt.Fprint(w, `{"response": {"candidates": [{"content": {"parts": [{"text": "hi"}]}, "finishReason": "STOP"}], "usageMetadata": {"promptTokenCount": 2, "candidatesTokenCount": 1, "thoughtsTokenCount": 1}}}`)
		}
	}))
	defer srv.Close()

	var discovered string
	p := New(Config{ProviderID: "gemini-cli", BaseURL: srv.URL, AccessToken: "tok", OnProjectDiscovered: func(id string) { discovered = id }})
	m := p.LanguageModel("gemini-2.5-pro")

	result, err := m.DoGenerate(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Text)
	assert.Equal(t, int64(2), result.Usage.PromptTokens)
	assert.Equal(t, int64(2), result.Usage.CompletionTokens)
	assert.Equal(t, "proj-123", discovered)
	assert.Equal(t, "proj-123", capturedProject)

	_, err = m.DoGenerate(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "again"}})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loadCalls), "project id discovery should be cached after the first call")
	assert.Equal(t, int32(2), atomic.LoadInt32(&generateCalls))
}
