// Package google implements the Google Gemini public API adapter, which
// authenticates via a `?key=apiKey` query parameter against the Google
// generative-language base URL. Its request/response wire shapes are shared
// with pkg/providers/codeassist, which wraps the same Gemini content schema
// under OAuth and a different endpoint.
package google

import (
	internalhttp "github.com/hushhenry/ai-gateway/pkg/internal/http"
	"github.com/hushhenry/ai-gateway/pkg/provider"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com"

type Config struct {
	APIKey  string
	BaseURL string
}

type Provider struct {
	apiKey string
	client *internalhttp.Client
}

func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		apiKey: cfg.APIKey,
		client: internalhttp.NewClient(internalhttp.Config{BaseURL: baseURL}),
	}
}

func (p *Provider) LanguageModel(modelID string) provider.LanguageModel {
	return &LanguageModel{client: p.client, modelID: modelID, apiKey: p.apiKey, providerID: "google"}
}
