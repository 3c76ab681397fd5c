// Package googlevertex implements the Vertex AI adapter: projectId holds
// the GCP project, apiKey holds the region, and auth comes from ADC or a
// stored access token. It reuses the Gemini content schema from
// pkg/providers/google, wrapped behind Vertex's publisher-model path and a
// Bearer access token instead of a `?key=` query parameter.
package googlevertex

import (
	"fmt"

	internalhttp "github.com/hushhenry/ai-gateway/pkg/internal/http"
	"github.com/hushhenry/ai-gateway/pkg/provider"
)

// Config carries the project/location/access-token triple the registry
// resolves from the credential record: apiKey holds the region, accessToken
// is the ADC-derived or refreshed OAuth bearer token.
type Config struct {
	Project     string
	Location    string
	AccessToken string
	BaseURL     string
}

type Provider struct {
	client *internalhttp.Client
}

func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google",
			cfg.Location, cfg.Project, cfg.Location)
	}
	return &Provider{
		client: internalhttp.NewClient(internalhttp.Config{
			BaseURL: baseURL,
			Headers: map[string]string{"Authorization": "Bearer " + cfg.AccessToken},
		}),
	}
}

func (p *Provider) LanguageModel(modelID string) provider.LanguageModel {
	return &LanguageModel{client: p.client, modelID: modelID}
}
