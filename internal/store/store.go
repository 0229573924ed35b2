// Package store persists small string values by key. It is the terminal
// counterpart of a browser's origin-scoped local storage: no encryption, no
// expiry, no size limits.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Keys used by the session holder, the API client and the theme preference.
const (
	KeyUser  = "pro_tasker_user"
	KeyToken = "pro_tasker_token"
	KeyTheme = "theme"
)

// Store saves, loads and removes values by key.
type Store interface {
	Save(key, value string) error
	// Load returns ok=false when the key is absent.
	Load(key string) (value string, ok bool, err error)
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// FileStore keeps one file per key under Dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a store rooted at dir. The directory is created lazily.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the key files.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Save writes value to the file for key, creating the directory if needed.
func (s *FileStore) Save(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.path(key)
	if err != nil {
		return fmt.Errorf("store.Save: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("store.Save: create dir: %w", err)
	}
	if err := os.WriteFile(p, []byte(value), 0600); err != nil {
		return fmt.Errorf("store.Save: %w", err)
	}
	return nil
}

// Load reads the file for key. A missing file is reported as ok == false.
func (s *FileStore) Load(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.path(key)
	if err != nil {
		return "", false, fmt.Errorf("store.Load: %w", err)
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store.Load: %w", err)
	}
	return string(data), true, nil
}

// Remove deletes the file for key. Removing a missing key is not an error.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.path(key)
	if err != nil {
		return fmt.Errorf("store.Remove: %w", err)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store.Remove: %w", err)
	}
	return nil
}

// MemoryStore is a map-backed Store used by tests and ephemeral runs.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Save stores value under key.
func (s *MemoryStore) Save(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Load returns the value under key and whether it was present.
func (s *MemoryStore) Load(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Remove deletes key.
func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Has reports whether key is present. Handy in tests.
func (s *MemoryStore) Has(key string) bool {
	_, ok, _ := s.Load(key) //nolint:errcheck // memory store never errors
	return ok
}
