// Package bindings wires every provider id in the binding policy table onto
// the registry: factory functions that turn a stored credential record into
// a bound LanguageModel, plus the OAuth refreshers the registry consults
// before each call for OAuth-kind credentials. Each provider id gets one
// switch-free Bind call.
package bindings

import (
	"fmt"

	"github.com/hushhenry/ai-gateway/pkg/config"
	"github.com/hushhenry/ai-gateway/pkg/credential"
	"github.com/hushhenry/ai-gateway/pkg/oauth"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
	"github.com/hushhenry/ai-gateway/pkg/providers/anthropiccompat"
	"github.com/hushhenry/ai-gateway/pkg/providers/bedrock"
	"github.com/hushhenry/ai-gateway/pkg/providers/codeassist"
	"github.com/hushhenry/ai-gateway/pkg/providers/cursor"
	"github.com/hushhenry/ai-gateway/pkg/providers/google"
	"github.com/hushhenry/ai-gateway/pkg/providers/googlevertex"
	"github.com/hushhenry/ai-gateway/pkg/providers/openaicompat"
	"github.com/hushhenry/ai-gateway/pkg/registry"
)

// bearerBase holds the fixed base URL for each Bearer/OpenAI-compatible
// provider id that does not derive its endpoint from the credential record.
var bearerBase = map[string]string{
	"openai":      "https://api.openai.com/v1",
	"deepseek":    "https://api.deepseek.com/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
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
}

// anthropicCompatBase holds the fixed base URL for each Anthropic-style
// messages-endpoint provider id besides anthropic/anthropic-token
// themselves.
var anthropicCompatBase = map[string]string{
	"minimax-cn":        "https://api.minimaxi.com/anthropic",
	"kimi-coding":       "https://api.moonshot.cn/anthropic",
	"vercel-ai-gateway": "https://ai-gateway.vercel.sh/v1",
}

// codeAssistBase holds the distinct Code-Assist base URL for the
// gemini-cli and antigravity provider ids.
var codeAssistBase = map[string]string{
	"gemini-cli":  "https://cloudcode-pa.googleapis.com",
	"antigravity": "https://daedalus-pa.googleapis.com",
}

// RegisterAll binds every provider id in the policy table onto reg, backed
// by store for credential reads/writes and oauthFlows for OAuth refresh.
func RegisterAll(reg *registry.Registry, store *credential.Store, oauthFlows *oauth.Flows) {
	for id, base := range bearerBase {
		registerBearer(reg, id, base)
	}
	registerBearer(reg, "ollama", "") // BaseURL comes from the credential record
	registerBearer(reg, "litellm", "")

	reg.Bind("anthropic", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		return anthropiccompat.New(anthropiccompat.Config{
			ProviderID: "anthropic", BaseURL: "https://api.anthropic.com", APIKey: rec.APIKey, AuthHeader: "x-api-key",
		}).LanguageModel(modelID), nil
	})
	reg.Bind("anthropic-token", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		return anthropiccompat.New(anthropiccompat.Config{
			ProviderID: "anthropic-token", BaseURL: "https://api.anthropic.com", APIKey: rec.APIKey, AuthHeader: "authorization",
			ExtraHeaders: map[string]string{
				"anthropic-beta": "oauth-2025-04-20",
				"user-agent":     "ai-gateway",
				"x-app":          "cli",
			},
		}).LanguageModel(modelID), nil
	})
	for id, base := range anthropicCompatBase {
		id, base := id, base
		reg.Bind(id, func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
			return anthropiccompat.New(anthropiccompat.Config{ProviderID: id, BaseURL: base, APIKey: rec.APIKey, AuthHeader: "authorization"}).LanguageModel(modelID), nil
		})
	}

	reg.Bind("google", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		return google.New(google.Config{APIKey: rec.APIKey}).LanguageModel(modelID), nil
	})

	for id, base := range codeAssistBase {
		id, base := id, base
		reg.Bind(id, func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
			return codeassist.New(codeassist.Config{
				ProviderID: id, BaseURL: base, AccessToken: rec.APIKey, ProjectID: rec.ProjectID,
				OnProjectDiscovered: func(projectID string) {
					rec.ProjectID = projectID
					_ = store.Put(id, rec)
				},
			}).LanguageModel(modelID), nil
		})
		reg.BindRefresher(id, oauthFlows.RefreshGoogle)
	}

	reg.Bind("github-copilot", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		base := rec.ProjectID // overloaded: Copilot's derived proxy-ep base URL
		if base == "" {
			base = "https://api.individual.githubcopilot.com"
		}
		return openaicompat.New(openaicompat.Config{
			ProviderID: "github-copilot", BaseURL: base, APIKey: rec.APIKey, AuthHeader: "authorization",
			ExtraHeaders: map[string]string{"editor-version": "ai-gateway/1.0"},
		}).LanguageModel(modelID), nil
	})
	reg.BindRefresher("github-copilot", oauthFlows.RefreshGitHubCopilot)

	reg.Bind("openai-codex", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		return openaicompat.New(openaicompat.Config{
			ProviderID: "openai-codex", BaseURL: "https://chatgpt.com/backend-api", APIKey: rec.APIKey, AuthHeader: "authorization",
		}).LanguageModel(modelID), nil
	})
	reg.BindRefresher("openai-codex", oauthFlows.RefreshOpenAICodex)

	reg.Bind("qwen-cli", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		base := rec.ProjectID // overloaded: resource_url-derived base
		if base == "" {
			return nil, providererrors.NewNoCredentialsError("qwen-cli")
		}
		return openaicompat.New(openaicompat.Config{
			ProviderID: "qwen-cli", BaseURL: base, APIKey: rec.APIKey, AuthHeader: "authorization",
		}).LanguageModel(modelID), nil
	})
	reg.BindRefresher("qwen-cli", oauthFlows.RefreshQwen)

	reg.Bind("azure", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		resource := rec.ProjectID // overloaded: Azure resource name
		base := fmt.Sprintf("https://%s.openai.azure.com/openai/deployments/%s", resource, modelID)
		return openaicompat.New(openaicompat.Config{
			ProviderID: "azure", BaseURL: base, APIKey: rec.APIKey,
			AuthHeader: "api-key", ChatPath: "/chat/completions?api-version=2024-06-01",
		}).LanguageModel(modelID), nil
	})

	reg.Bind("vertex", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		project := rec.ProjectID
		if project == "" {
			project = config.GoogleCloudProject()
		}
		return googlevertex.New(googlevertex.Config{Project: project, Location: rec.APIKey, AccessToken: rec.Refresh}).LanguageModel(modelID), nil
	})
	reg.BindRefresher("vertex", oauthFlows.RefreshGoogle)

	reg.Bind("bedrock", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		// Overloaded: apiKey is the AWS access key id, projectId the secret
		// access key, refresh the region (bedrock has no OAuth refresh flow,
		// so the field is free for this use).
		region := rec.Refresh
		if region == "" {
			region = config.AWSRegion()
		}
		return bedrock.New(bedrock.Config{
			AccessKeyID: rec.APIKey, SecretAccessKey: rec.ProjectID, Region: region,
		}).LanguageModel(modelID), nil
	})

	reg.Bind("cursor", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		return cursor.New(cursor.Config{Binary: config.CursorAgentExecutable()}).LanguageModel(modelID), nil
	})
}

func registerBearer(reg *registry.Registry, id, fixedBase string) {
	reg.Bind(id, func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		base := fixedBase
		if base == "" {
			base = rec.ProjectID // ollama/litellm derive their base URL from the credential record
			if base == "" {
				return nil, providererrors.NewNoCredentialsError(id)
			}
		}
		return openaicompat.New(openaicompat.Config{ProviderID: id, BaseURL: base, APIKey: rec.APIKey}).LanguageModel(modelID), nil
	})
}
