// Package registry implements the Provider Registry: a closed set of
// provider ids mapped to adapter factories, credential binding, and the
// OAuth refresh-before-call check.
//
// Qualified model ids use the wire format "provider/model", so parsing here
// splits on the first "/" only — a model id may itself contain slashes.
package registry

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hushhenry/ai-gateway/pkg/credential"
	"github.com/hushhenry/ai-gateway/pkg/provider"
	providererrors "github.com/hushhenry/ai-gateway/pkg/provider/errors"
)

// Factory constructs a bound LanguageModel handle for one provider id, given
// the credential record currently on file and the requested (opaque)
// upstream model id.
type Factory func(rec credential.Record, modelID string) (provider.LanguageModel, error)

// Refresher exchanges a stored refresh token for a new credential record.
// Implemented per OAuth provider id in pkg/oauth.
type Refresher func(ctx context.Context, rec credential.Record) (credential.Record, error)

// refreshHorizon is the 5-minute window inside which a credential is
// refreshed before use.
const refreshHorizon = 5 * time.Minute

// Registry is the closed set of bound provider ids.
type Registry struct {
	store      *credential.Store
	factories  map[string]Factory
	refreshers map[string]Refresher
}

// New creates a Registry over the given credential store.
func New(store *credential.Store) *Registry {
	return &Registry{
		store:      store,
		factories:  make(map[string]Factory),
		refreshers: make(map[string]Refresher),
	}
}

// Bind registers the adapter factory for a provider id. Called once per
// provider id at startup wiring; binding an id twice overwrites the first.
func (r *Registry) Bind(providerID string, factory Factory) {
	r.factories[providerID] = factory
}

// BindRefresher registers the OAuth refresh flow for a provider id.
func (r *Registry) BindRefresher(providerID string, refresher Refresher) {
	r.refreshers[providerID] = refresher
}

// ParseQualifiedModelID splits a "provider/model" wire id at the first "/"
// only, so "a/b/c" yields provider="a", model="b/c".
func ParseQualifiedModelID(id string) (providerID, modelID string, err error) {
	i := strings.IndexByte(id, '/')
	if i < 0 {
		return "", "", providererrors.NewBadRequestError("model id must be of the form provider/model: "+id, nil)
	}
	return id[:i], id[i+1:], nil
}

// Resolve binds credentials and returns a ready-to-call LanguageModel for a
// qualified model id, refreshing an OAuth credential first if it is within
// five minutes of expiry.
func (r *Registry) Resolve(ctx context.Context, qualifiedModelID string) (provider.LanguageModel, error) {
	providerID, modelID, err := ParseQualifiedModelID(qualifiedModelID)
	if err != nil {
		return nil, err
	}

	factory, ok := r.factories[providerID]
	if !ok {
		return nil, providererrors.NewUnknownProviderError(providerID)
	}

	rec, ok := r.store.Get(providerID)
	if !ok || (rec.Kind == credential.KindKey && rec.APIKey == "") {
		return nil, providererrors.NewNoCredentialsError(providerID)
	}

	if rec.Kind == credential.KindOAuth {
		rec, err = r.refreshIfNeeded(ctx, providerID, rec)
		if err != nil {
			return nil, err
		}
	}

	return factory(rec, modelID)
}

func (r *Registry) refreshIfNeeded(ctx context.Context, providerID string, rec credential.Record) (credential.Record, error) {
	horizon := time.Now().Add(refreshHorizon).UnixMilli()
	if rec.ExpiresAtEpochMs > horizon {
		return rec, nil
	}

	refresher, ok := r.refreshers[providerID]
	if !ok {
		// No refresh flow registered; proceed with the stored credential as-is
		// and let the upstream call fail if it has actually expired.
		return rec, nil
	}

	lock := r.store.Lock(providerID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock in case a concurrent caller already refreshed.
	current, ok := r.store.Get(providerID)
	if ok && current.ExpiresAtEpochMs > horizon {
		return current, nil
	}

	refreshed, err := refresher(ctx, current)
	if err != nil {
		return credential.Record{}, providererrors.NewAuthRefreshFailedError(providerID, err)
	}
	if err := r.store.Put(providerID, refreshed); err != nil {
		log.Warn().Err(err).Str("provider", providerID).Msg("credential refresh: failed to persist refreshed record")
	}
	return refreshed, nil
}

// ListProviders returns all bound provider ids.
func (r *Registry) ListProviders() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	return ids
}
