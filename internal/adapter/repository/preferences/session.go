// Package preferences stores the session entry in fyne's per-app preferences,
// next to the rest of the window state.
package preferences

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

const (
	keyToken     = "session.token"
	keyPhone     = "session.phone"
	keyExpiresAt = "session.expires_at"
)

// SessionRepository implements ports.SessionRepository using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SessionRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewSessionRepository creates a repository. prefs should come from
// fyne.CurrentApp().Preferences().
func NewSessionRepository(prefs fyne.Preferences) *SessionRepository {
	return &SessionRepository{prefs: prefs}
}

// Save persists the session. The expiry is kept as unix seconds.
func (r *SessionRepository) Save(session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetString(keyToken, session.Token)
	r.prefs.SetString(keyPhone, session.Phone)
	r.prefs.SetInt(keyExpiresAt, int(session.ExpiresAt.Unix()))
	return nil
}

// Load returns the stored session or domain.ErrNoSession.
func (r *SessionRepository) Load() (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token := r.prefs.String(keyToken)
	if token == "" {
		return domain.Session{}, domain.ErrNoSession
	}

	session := domain.Session{
		Token: token,
		Phone: r.prefs.String(keyPhone),
	}
	if exp := r.prefs.Int(keyExpiresAt); exp > 0 {
		session.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return session, nil
}

// Delete removes the stored session.
func (r *SessionRepository) Delete() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyToken)
	r.prefs.RemoveValue(keyPhone)
	r.prefs.RemoveValue(keyExpiresAt)
	return nil
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
