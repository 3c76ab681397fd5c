// Package openaicompat implements the Bearer/OpenAI-compatible adapter
// family: one HTTP codec shared by every provider id that speaks OpenAI's
// `/chat/completions` wire format with a bearer API key. A per-binding
// Config lets the same codec serve openai, deepseek, openrouter, xai,
// moonshot, zhipu, groq, together, minimax, cerebras, mistral, huggingface,
// opencode, zai, azure, github-copilot, openai-codex, qwen-cli, ollama, and
// litellm.
package openaicompat

import (
	"fmt"

	internalhttp "github.com/hushhenry/ai-gateway/pkg/internal/http"
	"github.com/hushhenry/ai-gateway/pkg/provider"
)

// Config binds one provider id to its base URL and auth header shape.
type Config struct {
	ProviderID string
	BaseURL    string // may be overridden per-call for ollama/litellm/azure/etc.
	APIKey     string

	// AuthHeader selects the auth header shape. "" (default) and
	// "authorization" both send "Authorization: Bearer <key>"; "api-key"
	// sends the raw key under an "api-key" header, as Azure OpenAI requires.
	AuthHeader string

	// ChatPath overrides the default "/chat/completions" request path.
	// Azure's deployment-scoped endpoint already encodes the model in
	// BaseURL and appends its own api-version query string here.
	ChatPath string

	// ExtraHeaders carries provider-specific fixed headers, e.g.
	// github-copilot's editor-identifying headers.
	ExtraHeaders map[string]string
}

// Provider is the bound adapter for one Bearer/OpenAI-compatible id.
type Provider struct {
	cfg    Config
	client *internalhttp.Client
}

func New(cfg Config) *Provider {
	headers := map[string]string{}
	switch cfg.AuthHeader {
	case "api-key":
		headers["api-key"] = cfg.APIKey
	default:
		headers["Authorization"] = fmt.Sprintf("Bearer %s", cfg.APIKey)
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

// chatPath returns the configured chat-completions request path, defaulting
// to the OpenAI-standard "/chat/completions".
func (p *Provider) chatPath() string {
	if p.cfg.ChatPath != "" {
		return p.cfg.ChatPath
	}
	return "/chat/completions"
}

func (p *Provider) LanguageModel(modelID string) provider.LanguageModel {
	return &LanguageModel{provider: p, modelID: modelID}
}
