package oauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/hushhenry/ai-gateway/pkg/credential"
)

// googleOAuthConfig returns the oauth2.Config shared by the gemini-cli and
// antigravity Code-Assist login flows, and by vertex's ADC-style login.
func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     googleOAuthClientID,
		ClientSecret: googleOAuthClientSecret,
		RedirectURL:  "http://" + googleCallbackAddr + googleCallbackPath,
		Scopes:       strings.Split(googleOAuthScope, " "),
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthEndpoint,
			TokenURL: googleTokenEndpoint,
		},
	}
}

// LoginGoogle implements the PKCE authorization-code flow shared by the
// gemini-cli and antigravity provider ids. The discovered GCP project id is
// filled in lazily by the Code-Assist adapter on first call, not here.
func (f *Flows) LoginGoogle(ctx context.Context) (credential.Record, error) {
	verifier, err := newPKCEVerifier()
	if err != nil {
		return credential.Record{}, err
	}
	state, err := newState()
	if err != nil {
		return credential.Record{}, err
	}

	cfg := googleOAuthConfig()
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("code_challenge", pkceChallengeS256(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	fmt.Fprintf(f.out(), "Visit this URL to sign in with Google:\n\n%s\n\n", authURL)
	f.openBrowser(authURL)

	result, err := f.awaitCallback(ctx, googleCallbackAddr, googleCallbackPath, googleCallbackTimeout)
	if err != nil {
		return credential.Record{}, fmt.Errorf("google login: %w", err)
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
		return credential.Record{}, fmt.Errorf("google login: token exchange: %w", err)
	}

	return credential.Record{
		Kind:             credential.KindOAuth,
		APIKey:           token.AccessToken,
		Refresh:          token.RefreshToken,
		ExpiresAtEpochMs: token.Expiry.UnixMilli() - int64(refreshSafetyMargin/time.Millisecond),
	}, nil
}

// RefreshGoogle implements the Google OAuth refresh operation used by
// gemini-cli, antigravity, and vertex.
func (f *Flows) RefreshGoogle(ctx context.Context, rec credential.Record) (credential.Record, error) {
	cfg := googleOAuthConfig()
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: rec.Refresh})
	token, err := src.Token()
	if err != nil {
		return credential.Record{}, fmt.Errorf("google refresh: %w", err)
	}

	rec.APIKey = token.AccessToken
	if token.RefreshToken != "" {
		rec.Refresh = token.RefreshToken
	}
	rec.ExpiresAtEpochMs = token.Expiry.UnixMilli() - int64(refreshSafetyMargin/time.Millisecond)
	return rec, nil
}
