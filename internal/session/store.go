package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"car-rental-client/internal/logger"

	"gopkg.in/yaml.v3"
)

// Store persists a session between process runs
type Store interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

type storedSession struct {
	Token     string    `yaml:"token"`
	CreatedAt time.Time `yaml:"created_at"`
}

// FileStore keeps the token in a YAML file readable only by the owner
type FileStore struct {
	path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (f *FileStore) Path() string { return f.path }

// Load returns nil without error when no session is stored. A stored token
// whose advisory expiry has passed is discarded.
func (f *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var stored storedSession
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if stored.Token == "" {
		return nil, nil
	}

	s, err := New(stored.Token, stored.CreatedAt)
	if err != nil {
		logger.Warn("Discarding unreadable stored session", "path", f.path, "error", err)
		return nil, f.Clear()
	}
	if s.Expired(f.now()) {
		logger.Info("Stored session has expired", "path", f.path, "expired_at", s.ExpiresAt())
		return nil, f.Clear()
	}
	return s, nil
}

func (f *FileStore) Save(s *Session) error {
	if !s.Authenticated() {
		return f.Clear()
	}
	data, err := yaml.Marshal(storedSession{Token: s.Token, CreatedAt: s.CreatedAt})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemoryStore keeps the session for the lifetime of the process
type MemoryStore struct {
	mu      sync.Mutex
	current *Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}
