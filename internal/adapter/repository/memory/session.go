// Package memory provides an in-process session repository. Nothing survives
// a restart; it backs the mock engine mode and tests.
package memory

import (
	"sync"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// SessionRepository keeps at most one session in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SessionRepository struct {
	session *domain.Session
	mu      sync.RWMutex
}

// NewSessionRepository creates an empty repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

// Save replaces the stored session.
func (r *SessionRepository) Save(session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = &session
	return nil
}

// Load returns the stored session or domain.ErrNoSession.
func (r *SessionRepository) Load() (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.session == nil {
		return domain.Session{}, domain.ErrNoSession
	}
	return *r.session, nil
}

// Delete forgets the stored session.
func (r *SessionRepository) Delete() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	return nil
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
