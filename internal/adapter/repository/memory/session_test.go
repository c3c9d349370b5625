package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formleszs/music-app/internal/domain"
)

func TestSessionRepository(t *testing.T) {
	repo := NewSessionRepository()

	_, err := repo.Load()
	assert.ErrorIs(t, err, domain.ErrNoSession)

	session := domain.Session{Token: "abc", Phone: "79991234567", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Save(session))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, session, loaded)

	require.NoError(t, repo.Delete())
	require.NoError(t, repo.Delete())
	_, err = repo.Load()
	assert.ErrorIs(t, err, domain.ErrNoSession)
}
