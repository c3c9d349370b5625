// Package file stores the session entry as a small YAML file so the CLI and
// the desktop window share one login.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

type sessionEntry struct {
	Token     string    `yaml:"token"`
	Phone     string    `yaml:"phone,omitempty"`
	ExpiresAt time.Time `yaml:"expires_at,omitempty"`
}

// SessionRepository implements ports.SessionRepository on a YAML file.
// The file is written with owner-only permissions.
type SessionRepository struct {
	path string
	mu   sync.Mutex
}

// NewSessionRepository creates a repository backed by path. The file and its
// directory are created on the first Save.
func NewSessionRepository(path string) *SessionRepository {
	return &SessionRepository{path: path}
}

// Path returns the backing file path.
func (r *SessionRepository) Path() string {
	return r.path
}

// Save writes the session, replacing any previous entry.
func (r *SessionRepository) Save(session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(sessionEntry{
		Token:     session.Token,
		Phone:     session.Phone,
		ExpiresAt: session.ExpiresAt.UTC(),
	})
	if err != nil {
		return domain.NewRepositoryError("save", "session", "failed to encode session", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return domain.NewRepositoryError("save", "session", "failed to create directory", err)
	}

	// Write then rename so a crash never leaves a truncated file behind.
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return domain.NewRepositoryError("save", "session", "failed to write session file", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return domain.NewRepositoryError("save", "session", "failed to replace session file", err)
	}
	return nil
}

// Load reads the session. A missing file or an entry without a token yields
// domain.ErrNoSession.
func (r *SessionRepository) Load() (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Session{}, domain.ErrNoSession
	}
	if err != nil {
		return domain.Session{}, domain.NewRepositoryError("load", "session", "failed to read session file", err)
	}

	var entry sessionEntry
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return domain.Session{}, domain.NewRepositoryError("load", "session",
			fmt.Sprintf("malformed session file %s", r.path), err)
	}
	if entry.Token == "" {
		return domain.Session{}, domain.ErrNoSession
	}
	return domain.Session{Token: entry.Token, Phone: entry.Phone, ExpiresAt: entry.ExpiresAt}, nil
}

// Delete removes the session file. Deleting a missing file succeeds.
func (r *SessionRepository) Delete() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.NewRepositoryError("delete", "session", "failed to remove session file", err)
	}
	return nil
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
