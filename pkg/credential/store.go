// Package credential implements the Credential Store: a file-backed,
// typed key/value store of per-provider credential records.
//
// Writes use an atomic-replace pattern (write to a temp file, fsync, rename
// over the target) plus the per-provider locking the registry and OAuth
// flows require to serialize refresh against concurrent reads.
package credential

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Kind distinguishes an API-key credential from an OAuth one.
type Kind string

const (
	KindKey   Kind = "key"
	KindOAuth Kind = "oauth"
)

// Record is one provider's credential record.
type Record struct {
	Kind Kind `json:"type,omitempty"`

	APIKey  string `json:"apiKey,omitempty"`
	Refresh string `json:"refresh,omitempty"`

	// ExpiresAtEpochMs is the token expiry, already adjusted by the 5-minute
	// safety margin applied at refresh time.
	ExpiresAtEpochMs int64 `json:"expires,omitempty"`

	// ProjectID is overloaded per-provider: a GCP project id for Vertex/Gemini,
	// an Azure resource name for azure, a derived proxy base URL for
	// github-copilot, a resource_url-derived base for qwen-cli, and an AWS
	// secret access key for bedrock.
	ProjectID string `json:"projectId,omitempty"`

	EnabledModels []string `json:"enabledModels,omitempty"`
}

// Store is the in-memory-authoritative, file-backed credential map.
type Store struct {
	path string

	mu      sync.RWMutex // guards records map membership/reads
	records map[string]Record

	providerLocksMu sync.Mutex
	providerLocks   map[string]*sync.Mutex
}

// DefaultPath returns the primary credential file location:
// ${XDG_CONFIG_HOME:-$HOME/.config}/ai-gateway/auth.json.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, "ai-gateway", "auth.json")
}

// fallbackPath is a read-only fallback consulted when the primary file is
// absent.
func fallbackPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "pi", "auth.json")
}

// NewStore loads the credential store from path (DefaultPath() if empty).
// A missing file, unreadable file, or malformed JSON yields an empty store
// with a single warning log; it is never fatal.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	s := &Store{
		path:          path,
		records:       make(map[string]Record),
		providerLocks: make(map[string]*sync.Mutex),
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("credential store: unreadable file, starting empty")
			return
		}
		// Primary absent: try the read-only fallback.
		data, err = os.ReadFile(fallbackPath())
		if err != nil {
			log.Warn().Str("path", s.path).Msg("credential store: no file found, starting empty")
			return
		}
	}
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("credential store: malformed JSON, starting empty")
		return
	}
	s.records = records
}

// Get returns the credential record for providerID, or false if absent.
func (s *Store) Get(providerID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[providerID]
	return r, ok
}

// List returns a copy of the full provider id → record map.
func (s *Store) List() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// Put writes a provider's credential record and atomically replaces the
// backing file. Callers that need read-modify-write semantics (OAuth
// refresh) must hold the lock returned by Lock(providerID) across both the
// Get and the Put.
func (s *Store) Put(providerID string, record Record) error {
	s.mu.Lock()
	s.records[providerID] = record
	snapshot := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		snapshot[k] = v
	}
	s.mu.Unlock()

	return s.writeAtomic(snapshot)
}

func (s *Store) writeAtomic(records map[string]Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".auth-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// Lock returns the per-provider mutex serializing writers against providerID,
// creating it on first use. Concurrent reads of the store are not gated by
// this lock; only refresh/re-login writers must hold it.
func (s *Store) Lock(providerID string) *sync.Mutex {
	s.providerLocksMu.Lock()
	defer s.providerLocksMu.Unlock()
	m, ok := s.providerLocks[providerID]
	if !ok {
		m = &sync.Mutex{}
		s.providerLocks[providerID] = m
	}
	return m
}
