// Package cursor implements the cursor-agent subprocess adapter: the one
// provider id whose "wire protocol" is an NDJSON child process rather than
// an HTTP call. It talks to the subprocess over stdin/stdout pipes with a
// buffered scanner sized for large lines and a context-bound exec.Cmd.
package cursor

import "github.com/hushhenry/ai-gateway/pkg/provider"

const DefaultBinary = "cursor-agent"

// Config names the cursor-agent binary to exec; Binary defaults to
// DefaultBinary when empty, letting tests point at a fake.
type Config struct {
	Binary string
}

type Provider struct {
	binary string
}

func New(cfg Config) *Provider {
	binary := cfg.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	return &Provider{binary: binary}
}

func (p *Provider) LanguageModel(modelID string) provider.LanguageModel {
	return &LanguageModel{binary: p.binary, modelID: modelID}
}
