package oauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/hushhenry/ai-gateway/pkg/credential"
)

func codexOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    codexClientID,
		RedirectURL: codexRedirectURI,
		Scopes:      strings.Split(codexScope, " "),
		Endpoint: oauth2.Endpoint{
			AuthURL:  codexAuthEndpoint,
			TokenURL: codexTokenEndpoint,
		},
	}
}

// codexAuthClaims is the subset of the OpenAI access-token JWT this gateway
// reads. ParseUnverified is used deliberately: the gateway is a client of
// this token, not its verifier.
type codexAuthClaims struct {
	OpenAIAuth struct {
		ChatGPTAccountID string `json:"chatgpt_account_id"`
	} `json:"https://api.openai.com/auth"`
	jwt.RegisteredClaims
}

// LoginOpenAICodex implements the PKCE authorization-code flow for OpenAI
// Codex: a local callback listener on 127.0.0.1:1455, browser launch, up to
// 60s wait with manual-paste fallback, and chatgpt_account_id extraction
// from the returned access token's JWT claims.
func (f *Flows) LoginOpenAICodex(ctx context.Context) (credential.Record, error) {
	verifier, err := newPKCEVerifier()
	if err != nil {
		return credential.Record{}, err
	}
	state, err := newState()
	if err != nil {
		return credential.Record{}, err
	}

	cfg := codexOAuthConfig()
	authURL := cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pkceChallengeS256(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("id_token_add_organizations", "true"),
	)

	fmt.Fprintf(f.out(), "Visit this URL to sign in to ChatGPT:\n\n%s\n\n", authURL)
	f.openBrowser(authURL)

	result, err := f.awaitCallback(ctx, codexCallbackAddr, codexCallbackPath, codexCallbackTimeout)
	if err != nil {
		return credential.Record{}, fmt.Errorf("openai-codex login: %w", err)
	}
	if result.State != "" {
		if err := verifyState(result.State, state); err != nil {
			return credential.Record{}, err
		}
	}

	token, err := cfg.Exchange(ctx, result.Code,
		oauth2.SetAuthURLParam("code_verifier", verifier),
	)
	if err != nil {
		return credential.Record{}, fmt.Errorf("openai-codex login: token exchange: %w", err)
	}

	accountID, err := extractChatGPTAccountID(token.AccessToken)
	if err != nil {
		return credential.Record{}, fmt.Errorf("openai-codex login: %w", err)
	}

	return credential.Record{
		Kind:             credential.KindOAuth,
		APIKey:           token.AccessToken,
		Refresh:          token.RefreshToken,
		ExpiresAtEpochMs: token.Expiry.UnixMilli() - int64(refreshSafetyMargin/time.Millisecond),
		ProjectID:        accountID, // overloaded: ChatGPT account id
	}, nil
}

// RefreshOpenAICodex exchanges the stored refresh token for a new OpenAI
// Codex access token, then re-derives chatgpt_account_id from it.
func (f *Flows) RefreshOpenAICodex(ctx context.Context, rec credential.Record) (credential.Record, error) {
	cfg := codexOAuthConfig()
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: rec.Refresh})
	token, err := src.Token()
	if err != nil {
		return credential.Record{}, fmt.Errorf("openai-codex refresh: %w", err)
	}

	accountID, err := extractChatGPTAccountID(token.AccessToken)
	if err != nil {
		accountID = rec.ProjectID // keep the previously-known account id rather than fail the whole refresh
	}

	rec.APIKey = token.AccessToken
	if token.RefreshToken != "" {
		rec.Refresh = token.RefreshToken
	}
	rec.ExpiresAtEpochMs = token.Expiry.UnixMilli() - int64(refreshSafetyMargin/time.Millisecond)
	rec.ProjectID = accountID
	return rec, nil
}

// extractChatGPTAccountID decodes the "https://api.openai.com/auth" claim
// of the access-token JWT without verifying its signature.
func extractChatGPTAccountID(accessToken string) (string, error) {
	var claims codexAuthClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return "", fmt.Errorf("decode access token claims: %w", err)
	}
	if claims.OpenAIAuth.ChatGPTAccountID == "" {
		return "", fmt.Errorf("access token missing chatgpt_account_id claim")
	}
	return claims.OpenAIAuth.ChatGPTAccountID, nil
}
