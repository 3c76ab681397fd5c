package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MissingFileIsEmptyNotFatal(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "does-not-exist", "auth.json"))
	_, ok := s.Get("openai")
	assert.False(t, ok)
}

func TestStore_MalformedJSONIsEmptyNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	s := NewStore(path)
	assert.Empty(t, s.List())
}

func TestStore_PutThenGetRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")
	s := NewStore(path)

	rec := Record{Kind: KindKey, APIKey: "sk-test", EnabledModels: []string{"gpt-4o-mini"}}
	require.NoError(t, s.Put("openai", rec))

	got, ok := s.Get("openai")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	// A fresh store loading the same file sees the persisted record.
	reloaded := NewStore(path)
	got2, ok := reloaded.Get("openai")
	require.True(t, ok)
	assert.Equal(t, rec, got2)
}

func TestStore_LockIsStablePerProvider(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "auth.json"))
	a := s.Lock("openai")
	b := s.Lock("openai")
	assert.Same(t, a, b)
}
