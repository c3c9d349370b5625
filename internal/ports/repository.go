// Package ports define repository interfaces for data persistence abstraction.
package ports

import (
	"github.com/formleszs/music-app/internal/domain"
)

// SessionRepository persists the single session entry (the token and its expiry).
// It is the only durable state the application keeps.
//
// Thread-safety: Implementations must be thread-safe.
type SessionRepository interface {
	// Save replaces the stored session.
	Save(session domain.Session) error

	// Load returns the stored session, or domain.ErrNoSession when there is none.
	// Expiry is not checked here.
	Load() (domain.Session, error)

	// Delete removes the stored session. Deleting a missing entry is not an error.
	Delete() error
}
