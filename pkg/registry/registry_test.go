package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushhenry/ai-gateway/pkg/credential"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
)

func TestParseQualifiedModelID_SplitsAtFirstSlashOnly(t *testing.T) {
	p, m, err := ParseQualifiedModelID("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "a", p)
	assert.Equal(t, "b/c", m)
}

func TestParseQualifiedModelID_NoSlashIsBadRequest(t *testing.T) {
	_, _, err := ParseQualifiedModelID("gpt-4o-mini")
	require.Error(t, err)
	assert.True(t, providererrors.IsBadRequestError(err))
}

func TestResolve_UnknownProviderFailsFast(t *testing.T) {
	store := credential.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	reg := New(store)

	_, err := reg.Resolve(context.Background(), "nope/x")
	require.Error(t, err)
	assert.True(t, providererrors.IsUnknownProviderError(err))
	assert.Equal(t, "Unsupported provider: nope", err.Error())
}

func TestResolve_NoCredentialsFailsFast(t *testing.T) {
	store := credential.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	reg := New(store)
	reg.Bind("openai", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		t.Fatal("factory should not be called without credentials")
		return nil, nil
	})

	_, err := reg.Resolve(context.Background(), "openai/gpt-4o-mini")
	require.Error(t, err)
	assert.True(t, providererrors.IsNoCredentialsError(err))
}

func TestResolve_BoundProviderWithCredentialsSucceeds(t *testing.T) {
	store := credential.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, store.Put("openai", credential.Record{Kind: credential.KindKey, APIKey: "sk-test"}))

	reg := New(store)
	var gotModelID string
	reg.Bind("openai", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		gotModelID = modelID
		return nil, nil
	})

	_, err := reg.Resolve(context.Background(), "openai/gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", gotModelID)
}

func TestResolve_OAuthCredentialRefreshedWithinHorizon(t *testing.T) {
	store := credential.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, store.Put("google-code-assist", credential.Record{
		Kind:             credential.KindOAuth,
		Refresh:          "refresh-tok",
		ExpiresAtEpochMs: 1, // already expired, well within the 5-minute horizon
	}))

	reg := New(store)
	refreshCalled := false
	reg.BindRefresher("google-code-assist", func(ctx context.Context, rec credential.Record) (credential.Record, error) {
		refreshCalled = true
		return credential.Record{Kind: credential.KindOAuth, Refresh: "new-tok", ExpiresAtEpochMs: 9999999999999}, nil
	})
	reg.Bind("google-code-assist", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		assert.Equal(t, "new-tok", rec.Refresh)
		return nil, nil
	})

	_, err := reg.Resolve(context.Background(), "google-code-assist/gemini-2.5-pro")
	require.NoError(t, err)
	assert.True(t, refreshCalled)

	persisted, ok := store.Get("google-code-assist")
	require.True(t, ok)
	assert.Equal(t, "new-tok", persisted.Refresh)
}

func TestResolve_OAuthRefreshFailureIsAuthRefreshFailedError(t *testing.T) {
	store := credential.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, store.Put("openai-codex", credential.Record{
		Kind:             credential.KindOAuth,
		Refresh:          "refresh-tok",
		ExpiresAtEpochMs: 1,
	}))

	reg := New(store)
	reg.BindRefresher("openai-codex", func(ctx context.Context, rec credential.Record) (credential.Record, error) {
		return credential.Record{}, assert.AnError
	})
	reg.Bind("openai-codex", func(rec credential.Record, modelID string) (provider.LanguageModel, error) {
		t.Fatal("factory should not be called when refresh fails")
		return nil, nil
	})

	_, err := reg.Resolve(context.Background(), "openai-codex/gpt-5")
	require.Error(t, err)
	assert.True(t, providererrors.IsAuthRefreshFailedError(err))
}

func TestListProviders_ReturnsAllBound(t *testing.T) {
	store := credential.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	reg := New(store)
	reg.Bind("openai", func(credential.Record, string) (provider.LanguageModel, error) { return nil, nil })
	reg.Bind("anthropic", func(credential.Record, string) (provider.LanguageModel, error) { return nil, nil })

	assert.ElementsMatch(t, []string{"openai", "anthropic"}, reg.ListProviders())
}
