// Package bedrock implements the AWS Bedrock adapter, authenticating with
// AWS Signature V4 over an access key, secret, session token, and region.
// It reuses the Anthropic message wire shapes from pkg/providers/anthropiccompat,
// since Claude-on-Bedrock's request/response bodies are the same
// Messages-API JSON with the anthropic_version field pinned to a
// Bedrock-specific string and the request wrapped behind Bedrock's own
// invoke/invoke-with-response-stream routes instead of a bearer token.
package bedrock

import (
	"fmt"

	"github.com/hushhenry/ai-gateway/pkg/provider"
)

const anthropicVersion = "bedrock-2023-05-31"

// Config carries the AWS credentials and region used to sign and route
// Bedrock runtime requests.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
}

type Provider struct {
	cfg    Config
	signer *AWSSigner
}

func New(cfg Config) *Provider {
	return &Provider{
		cfg:    cfg,
		signer: NewAWSSigner(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken, cfg.Region),
	}
}

func (p *Provider) baseURL() string {
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", p.cfg.Region)
}

func (p *Provider) LanguageModel(modelID string) provider.LanguageModel {
	return &LanguageModel{provider: p, modelID: modelID}
}
