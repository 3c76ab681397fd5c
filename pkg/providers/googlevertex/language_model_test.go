package googlevertex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushhenry/ai-gateway/pkg/provider"
	"github.com/hushhenry/ai-gateway/pkg/provider/types"
)

func TestDoGenerate_UsesPublisherModelPathAndBearerAuth(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		fmt.Fprint(w, `{
			"candidates": [{"content": {"parts": [{"text": "hi"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 1}
		}`)
	}))
	defer srv.Close()

	p := New(Config{Project: "proj", Location: "us-central1", AccessToken: "tok-1", BaseURL: srv.URL})
	m := p.LanguageModel("gemini-1.5-pro")

	result, err := m.DoGenerate(context.Background(), &provider.GenerateOptions{Prompt: types.Prompt{Text: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Text)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "/models/gemini-1.5-pro:generateContent", gotPath)
}
