// Package codeassist implements the Google Code-Assist adapter, bound under
// the gemini-cli and antigravity provider ids. Unlike pkg/providers/google's
// public generative-language API, Code-Assist is an internal RPC surface
// fronted by OAuth and a per-account GCP project id discovered on first use
// and cached on the credential record. It shares pkg/providers/google's
// Gemini content schema via that package's exported codec.
package codeassist

import (
	internalhttp "github.com/hushhenry/ai-gateway/pkg/internal/http"
	"github.com/hushhenry/ai-gateway/pkg/provider"
)

// Config binds one Code-Assist provider id to its base URL and access
// token. ProjectID is pre-filled when the credential record already cached
// a discovered project id; when empty, DoGenerate/DoStream discover it
// before issuing the wrapped call.
type Config struct {
	ProviderID  string
	BaseURL     string
	AccessToken string
	ProjectID   string

	// OnProjectDiscovered is invoked once loadCodeAssist resolves a project
	// id, so the caller can persist it onto the credential record.
	OnProjectDiscovered func(projectID string)
}

type Provider struct {
	cfg    Config
	client *internalhttp.Client
}

func New(cfg Config) *Provider {
	return &Provider{
		cfg: cfg,
		client: internalhttp.NewClient(internalhttp.Config{
			BaseURL: cfg.BaseURL,
			Headers: map[string]string{"Authorization": "Bearer " + cfg.AccessToken},
		}),
	}
}

func (p *Provider) LanguageModel(modelID string) provider.LanguageModel {
	return &LanguageModel{provider: p, modelID: modelID}
}
