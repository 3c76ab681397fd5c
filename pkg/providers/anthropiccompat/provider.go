// Package anthropiccompat implements the Anthropic-compatible adapter
// family: one HTTP codec shared by every provider id that speaks
// Anthropic's `/v1/messages` wire format. A per-binding Config lets the
// same codec serve anthropic, anthropic-token, minimax-cn, kimi-coding, and
// vercel-ai-gateway; pkg/providers/bedrock reuses this codec's wire shapes
// for the Anthropic-on-Bedrock path.
package anthropiccompat

import (
	internalhttp "github.com/hushhenry/ai-gateway/pkg/internal/http"
	"github.com/hushhenry/ai-gateway/pkg/provider"
)

// Config binds one provider id to its base URL and auth header shape.
// anthropic uses x-api-key; anthropic-token and the remaining ids use a
// bearer token, optionally with fixed extra headers.
type Config struct {
	ProviderID string
	BaseURL    string
	APIKey     string

	AuthHeader   string // "x-api-key" or "authorization"
	ExtraHeaders map[string]string
}

type Provider struct {
	cfg    Config
	client *internalhttp.Client
}

func New(cfg Config) *Provider {
	headers := map[string]string{
		"anthropic-version": "2023-06-01",
	}
	switch cfg.AuthHeader {
	case "authorization":
		headers["Authorization"] = "Bearer " + cfg.APIKey
	default:
		headers["x-api-key"] = cfg.APIKey
	}
	for k, v := range cfg.ExtraHeaders {
		headers[k] = v
	}
	return &Provider{
		cfg: cfg,
		client: internalhttp.NewClient(internalhttp.Config{
			BaseURL: cfg.BaseURL,
			Headers: headers,
		}),
	}
}

func (p *Provider) LanguageModel(modelID string) provider.LanguageModel {
	return &LanguageModel{provider: p, modelID: modelID}
}
