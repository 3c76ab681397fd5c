package oauth

import (
	"io"
	"net/http"
	"os"
	"time"
)

// refreshSafetyMargin is subtracted from a server-reported token expiry
// before it is stored, so the registry's 5-minute refresh horizon always
// sees a credential that still needs refreshing a little before it is
// actually dead.
const refreshSafetyMargin = 5 * time.Minute

// These are public OAuth client ids for installed/CLI applications, not
// secrets that gate access on their own; they are kept as plain constants
// rather than base64-encoded, since base64 over a public id buys nothing
// beyond casual grep-ability.
const (
	googleOAuthClientID     = "681255809395-oo8ft2oprdrnp9e3aqf6av3hmdib135j.apps.googleusercontent.com"
	googleOAuthClientSecret = "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"
	googleAuthEndpoint      = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenEndpoint     = "https://oauth2.googleapis.com/token"
	googleOAuthScope        = "https://www.googleapis.com/auth/cloud-platform https://www.googleapis.com/auth/userinfo.email"
	googleCallbackAddr      = "127.0.0.1:8085"
	googleCallbackPath      = "/oauth2callback"
	googleCallbackTimeout   = 60 * time.Second

	codexClientID        = "app_EMoamEEZ73f0CkXaXp7hrann"
	codexAuthEndpoint    = "https://auth.openai.com/oauth/authorize"
	codexTokenEndpoint   = "https://auth.openai.com/oauth/token"
	codexRedirectURI     = "http://127.0.0.1:1455/auth/callback"
	codexCallbackAddr    = "127.0.0.1:1455"
	codexCallbackPath    = "/auth/callback"
	codexScope           = "openid profile email offline_access"
	codexCallbackTimeout = 60 * time.Second

	qwenClientID           = "f0304373b74a44d2b584a3fb70ca9e56"
	qwenDeviceCodeEndpoint = "https://chat.qwen.ai/api/v1/oauth2/device/code"
	qwenTokenEndpoint      = "https://chat.qwen.ai/api/v1/oauth2/token"
	qwenResourceEndpoint   = "https://chat.qwen.ai/api/v1/oauth2/userinfo"
	qwenDefaultBaseURL     = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	qwenScope              = "openid profile email model.completion"

	githubCopilotClientID      = "01ab8ac9400c4e429b23"
	githubDeviceCodeEndpoint   = "https://github.com/login/device/code"
	githubTokenEndpoint        = "https://github.com/login/oauth/access_token"
	githubCopilotTokenEndpoint = "https://api.github.com/copilot_internal/v2/token"
	githubCopilotScope         = "read:user"
)

// BrowserOpener opens url in the user's default browser. Login flows treat
// a failing or nil opener as a soft requirement: they still print the URL
// for manual visiting.
type BrowserOpener func(url string) error

// Flows implements the OAuth login, device-code, and refresh operations for
// every OAuth-kind provider id.
type Flows struct {
	// HTTPClient is used for all token-endpoint calls; defaults to
	// http.DefaultClient when nil.
	HTTPClient *http.Client

	// Out receives human-facing login prompts (device codes, auth URLs,
	// manual-paste instructions). Defaults to os.Stdout.
	Out io.Writer

	// In is read for the manual-paste fallback. Defaults to os.Stdin.
	In io.Reader

	// OpenBrowser opens the authorization URL automatically. May be nil; the
	// login flow prints the URL regardless, so headless use always works.
	OpenBrowser BrowserOpener
}

func (f *Flows) httpClient() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return http.DefaultClient
}

func (f *Flows) out() io.Writer {
	if f.Out != nil {
		return f.Out
	}
	return os.Stdout
}

func (f *Flows) in() io.Reader {
	if f.In != nil {
		return f.In
	}
	return os.Stdin
}

func (f *Flows) openBrowser(url string) {
	if f.OpenBrowser == nil {
		return
	}
	_ = f.OpenBrowser(url) // best-effort; the printed URL is the fallback
}
