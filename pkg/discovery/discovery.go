// Package discovery implements model discovery: per-provider id, the usable
// model set is staticList ∪ liveFetch ∪ registry fallback. Any live-fetch
// failure degrades to the static list only; discovery never fails a caller.
//
// Outbound fetches go through the shared pkg/internal/http client, paced by
// a golang.org/x/time/rate limiter — this is rate limiting on the
// background fetches discovery itself issues against models.dev and each
// configured provider's /models endpoint, not inbound admission control.
package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/rs/zerolog/log"

	"github.com/hushhenry/ai-gateway/pkg/credential"
)

// staticModels is the fallback list returned when live discovery is
// unavailable or unconfigured for a provider id.
var staticModels = map[string][]string{
	"openai":          {"gpt-4o", "gpt-4o-mini", "o1", "o3-mini"},
	"anthropic":       {"claude-opus-4-20250514", "claude-sonnet-4-20250514", "claude-3-5-haiku-20241022"},
	"anthropic-token": {"claude-opus-4-20250514", "claude-sonnet-4-20250514"},
	"google":          {"gemini-2.0-flash", "gemini-1.5-pro"},
	"gemini-cli":      {"gemini-2.0-flash", "gemini-1.5-pro"},
	"antigravity":     {"gemini-2.0-flash"},
	"deepseek":        {"deepseek-chat", "deepseek-reasoner"},
	"openrouter":      {"anthropic/claude-3.5-sonnet", "openai/gpt-4o"},
	"xai":             {"grok-2-latest"},
	"moonshot":        {"moonshot-v1-8k"},
	"zhipu":           {"glm-4"},
	"groq":            {"llama-3.3-70b-versatile"},
	"together":        {"meta-llama/Llama-3.3-70B-Instruct-Turbo"},
	"minimax":         {"abab6.5s-chat"},
	"minimax-cn":      {"abab6.5s-chat"},
	"cerebras":        {"llama3.1-70b"},
	"mistral":         {"mistral-large-latest"},
	"huggingface":     {},
	"opencode":        {},
	"zai":             {"glm-4"},
	"kimi-coding":     {"moonshot-v1-8k"},
	"vercel-ai-gateway": {},
	"github-copilot":  {"gpt-4o", "claude-3.5-sonnet"},
	"openai-codex":    {"gpt-4o"},
	"qwen-cli":        {"qwen-max"},
	"azure":           {},
	"vertex":          {"gemini-1.5-pro"},
	"bedrock":         {"anthropic.claude-3-5-sonnet-20241022-v2:0"},
	"cursor":          {"gpt-4o", "claude-3.5-sonnet"},
	"ollama":          {},
	"litellm":         {},
}

// codeAssistInternalModels is unioned into the fallback set for the
// Code-Assist provider ids, since they expose no public /models endpoint at
// all and models.dev does not carry their internal catalog.
var codeAssistInternalModels = []string{"gemini-2.0-flash-exp", "gemini-exp-1206"}

// Discoverer enumerates usable model ids per provider.
type Discoverer struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// New returns a Discoverer pacing outbound discovery calls to at most 2 per
// second with a burst of 4, shared across all providers probed by one
// /v1/models request.
func New() *Discoverer {
	return &Discoverer{
		HTTPClient: http.DefaultClient,
		Limiter:    rate.NewLimiter(rate.Limit(2), 4),
	}
}

func (d *Discoverer) client() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return http.DefaultClient
}

// Enumerate returns the usable model set for providerID: staticList ∪
// liveFetch. It never returns an error; a live-fetch failure
// just means the result is the static list alone.
func (d *Discoverer) Enumerate(ctx context.Context, providerID string, rec credential.Record) []string {
	static := staticModels[providerID]

	live, err := d.liveFetch(ctx, providerID, rec)
	if err != nil {
		log.Warn().Err(err).Str("provider", providerID).Msg("model discovery: live fetch failed, using static list")
		live = nil
	}

	return union(static, live)
}

func (d *Discoverer) liveFetch(ctx context.Context, providerID string, rec credential.Record) ([]string, error) {
	if err := d.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	switch providerID {
	case "openrouter":
		return d.fetchOpenRouter(ctx)
	case "xai", "moonshot", "zhipu", "groq", "together", "minimax", "cerebras", "mistral", "huggingface", "opencode", "zai", "deepseek":
		return d.fetchOpenAICompatible(ctx, openAICompatBaseURL(providerID), rec.APIKey)
	case "anthropic":
		return d.fetchAnthropic(ctx, "x-api-key", rec.APIKey)
	case "anthropic-token":
		return d.fetchAnthropic(ctx, "authorization", "Bearer "+rec.APIKey)
	case "ollama", "litellm":
		if rec.ProjectID == "" {
			return nil, nil
		}
		return d.fetchOpenAICompatible(ctx, rec.ProjectID, rec.APIKey)
	case "gemini-cli", "antigravity":
		models, err := d.fetchModelsDev(ctx, providerID)
		return union(models, codeAssistInternalModels), err
	default:
		return d.fetchModelsDev(ctx, providerID)
	}
}

func (d *Discoverer) fetchOpenRouter(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://openrouter.ai/api/v1/models", nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Data []struct {
			ID                 string   `json:"id"`
			SupportedParameters []string `json:"supported_parameters"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var out []string
	for _, m := range body.Data {
		for _, p := range m.SupportedParameters {
			if p == "tools" {
				out = append(out, m.ID)
				break
			}
		}
	}
	return out, nil
}

func (d *Discoverer) fetchOpenAICompatible(ctx context.Context, base, apiKey string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/models", nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := d.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	out := make([]string, len(body.Data))
	for i, m := range body.Data {
		out[i] = m.ID
	}
	return out, nil
}

func (d *Discoverer) fetchAnthropic(ctx context.Context, headerName, headerValue string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.anthropic.com/v1/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(headerName, headerValue)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := d.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	out := make([]string, len(body.Data))
	for i, m := range body.Data {
		out[i] = m.ID
	}
	return out, nil
}

// modelsDevEntry is one models.dev catalog entry, keyed by provider then
// model id.
type modelsDevEntry struct {
	ToolCall bool `json:"tool_call"`
}

func (d *Discoverer) fetchModelsDev(ctx context.Context, providerID string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://models.dev/api.json", nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var catalog map[string]map[string]modelsDevEntry
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return nil, err
	}

	models, ok := catalog[providerID]
	if !ok {
		return nil, nil
	}
	var out []string
	for id, entry := range models {
		if entry.ToolCall {
			out = append(out, id)
		}
	}
	return out, nil
}

// openAICompatBaseURL mirrors pkg/bindings' fixed base URL table for the
// OpenAI-compatible discovery targets.
func openAICompatBaseURL(providerID string) string {
	bases := map[string]string{
		"xai":         "https://api.x.ai/v1",
		"moonshot":    "https://api.moonshot.cn/v1",
		"zhipu":       "https://open.bigmodel.cn/api/paas/v4",
		"groq":        "https://api.groq.com/openai/v1",
		"together":    "https://api.together.xyz/v1",
		"minimax":     "https://api.minimaxi.com/v1",
		"cerebras":    "https://api.cerebras.ai/v1",
		"mistral":     "https://api.mistral.ai/v1",
		"huggingface": "https://api-inference.huggingface.co/v1",
		"opencode":    "https://opencode.ai/zen/v1",
		"zai":         "https://api.z.ai/api/paas/v4",
		"deepseek":    "https://api.deepseek.com/v1",
	}
	return bases[providerID]
}

// union merges two id lists, deduplicating while preserving the first list's
// order followed by any ids newly seen in the second.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
