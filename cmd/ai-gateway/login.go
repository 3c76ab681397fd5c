package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hushhenry/ai-gateway/pkg/config"
	"github.com/hushhenry/ai-gateway/pkg/credential"
	"github.com/hushhenry/ai-gateway/pkg/discovery"
	"github.com/hushhenry/ai-gateway/pkg/oauth"
)

// oauthLogin is one of pkg/oauth's PKCE or device-code login flows, keyed by
// the provider id it authenticates.
type oauthLogin func(flows *oauth.Flows, ctx context.Context) (credential.Record, error)

var oauthLogins = map[string]oauthLogin{
	"gemini-cli":     func(f *oauth.Flows, ctx context.Context) (credential.Record, error) { return f.LoginGoogle(ctx) },
	"antigravity":    func(f *oauth.Flows, ctx context.Context) (credential.Record, error) { return f.LoginGoogle(ctx) },
	"openai-codex":   func(f *oauth.Flows, ctx context.Context) (credential.Record, error) { return f.LoginOpenAICodex(ctx) },
	"qwen-cli":       func(f *oauth.Flows, ctx context.Context) (credential.Record, error) { return f.LoginQwen(ctx) },
	"github-copilot": func(f *oauth.Flows, ctx context.Context) (credential.Record, error) { return f.LoginGitHubCopilot(ctx) },
}

// baseURLPrompts lists the API-key provider ids whose credential record also
// needs a base URL (stored in the overloaded ProjectID field) collected
// interactively: ollama and litellm need a base URL, Azure needs a resource
// name.
var baseURLPrompts = map[string]string{
	"ollama":  "Ollama base URL (e.g. http://localhost:11434/v1)",
	"litellm": "LiteLLM base URL",
	"azure":   "Azure OpenAI resource name",
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <provider>",
		Short: "Store a credential for one provider id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Load()
			providerID := args[0]

			store := credential.NewStore(config.CredentialStorePath())
			flows := &oauth.Flows{OpenBrowser: openBrowser}

			rec, err := loginRecord(cmd, providerID, flows)
			if err != nil {
				return err
			}

			rec.EnabledModels = discovery.New().Enumerate(cmd.Context(), providerID, rec)

			if err := store.Put(providerID, rec); err != nil {
				return fmt.Errorf("login: saving credential: %w", err)
			}
			log.Info().Str("provider", providerID).Int("models", len(rec.EnabledModels)).Msg("login: credential saved")
			return nil
		},
	}
}

func loginRecord(cmd *cobra.Command, providerID string, flows *oauth.Flows) (credential.Record, error) {
	if login, ok := oauthLogins[providerID]; ok {
		return login(flows, cmd.Context())
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprintf(cmd.OutOrStdout(), "API key for %s: ", providerID)
	apiKey, err := reader.ReadString('\n')
	if err != nil {
		return credential.Record{}, fmt.Errorf("login: reading API key: %w", err)
	}

	rec := credential.Record{Kind: credential.KindKey, APIKey: strings.TrimSpace(apiKey)}

	if prompt, ok := baseURLPrompts[providerID]; ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ", prompt)
		value, err := reader.ReadString('\n')
		if err != nil {
			return credential.Record{}, fmt.Errorf("login: reading %s: %w", prompt, err)
		}
		rec.ProjectID = strings.TrimSpace(value)
	}

	return rec, nil
}

// openBrowser shells out to the platform opener, matching what a CLI OAuth
// flow typically does; a failure here just falls back to the printed URL
// pkg/oauth's Flows already emits.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}
