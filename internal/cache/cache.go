package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Entry is one cached payload with its write timestamp. One entry per key,
// overwritten on each successful fetch.
type Entry struct {
	Key        string    `json:"-"`
	SavedAtUTC time.Time `json:"saved_at_utc"`
	Payload    []byte    `json:"payload"`
}

// Age returns how old the entry is relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.SavedAtUTC)
}

// Store is a keyed, timestamped byte store with last-writer-wins semantics.
type Store interface {
	Get(key string) (Entry, bool)
	Put(key string, payload []byte) error
}

// Key builds the deterministic request key from its identifying parts.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// FileStore persists entries as JSON files under a directory, fronted by an
// in-memory cache so hot keys skip disk.
type FileStore struct {
	dir string
	mu  sync.Mutex
	mem *gocache.Cache
}

// NewFileStore creates the backing directory if needed. memTTL bounds how long
// entries stay in the memory front; disk entries have no expiry of their own,
// age ceilings are the caller's concern.
func NewFileStore(dir string, memTTL time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{
		dir: dir,
		mem: gocache.New(memTTL, 2*memTTL),
	}, nil
}

func (s *FileStore) Get(key string) (Entry, bool) {
	if cached, ok := s.mem.Get(key); ok {
		if entry, ok := cached.(Entry); ok {
			return entry, true
		}
	}

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false
	}
	entry.Key = key

	s.mem.SetDefault(key, entry)
	return entry, true
}

func (s *FileStore) Put(key string, payload []byte) error {
	entry := Entry{
		Key:        key,
		SavedAtUTC: time.Now().UTC(),
		Payload:    payload,
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Write-then-rename keeps concurrent readers off half-written files.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}
	s.mem.SetDefault(key, entry)
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
