package service

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formleszs/music-app/internal/adapter/eventbus"
	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/logger"
)

type fakeSession struct{ authenticated atomic.Bool }

func (f *fakeSession) IsAuthenticated() bool { return f.authenticated.Load() }

func newTestRatings(t *testing.T, authenticated bool) (*RatingService, *fakeSession, *eventRecorder) {
	t.Helper()
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	t.Cleanup(func() { _ = bus.Close() })
	session := &fakeSession{}
	session.authenticated.Store(authenticated)
	return NewRatingService(log, session, bus), session, recordEvents(bus)
}

func TestRatingService_RequiresSession(t *testing.T) {
	ratings, _, events := newTestRatings(t, false)

	rating, err := ratings.ToggleLike(5)

	var authErr *domain.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "like", authErr.Action)
	assert.Equal(t, 5, authErr.TrackID)
	assert.ErrorIs(t, err, domain.ErrNoSession)
	assert.Equal(t, domain.RatingNone, rating)

	_, err = ratings.ToggleDislike(5)
	assert.Error(t, err)

	assert.Equal(t, domain.RatingNone, ratings.Rating(5))
	assert.Empty(t, events.types())
}

func TestRatingService_ToggleLike(t *testing.T) {
	ratings, _, _ := newTestRatings(t, true)

	rating, err := ratings.ToggleLike(5)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingLiked, rating)
	assert.Equal(t, domain.RatingLiked, ratings.Rating(5))

	rating, err = ratings.ToggleLike(5)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingNone, rating)
	assert.Equal(t, domain.RatingNone, ratings.Rating(5))
}

func TestRatingService_MutuallyExclusive(t *testing.T) {
	ratings, _, events := newTestRatings(t, true)

	_, err := ratings.ToggleLike(5)
	require.NoError(t, err)
	rating, err := ratings.ToggleDislike(5)
	require.NoError(t, err)

	assert.Equal(t, domain.RatingDisliked, rating)
	assert.Empty(t, ratings.Liked())
	assert.Equal(t, []int{5}, ratings.Disliked())

	rating, err = ratings.ToggleLike(5)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingLiked, rating)
	assert.Empty(t, ratings.Disliked())

	changes := events.ofType(domain.EventRatingChanged)
	require.Len(t, changes, 3)
	assert.Equal(t, domain.RatingLiked, changes[2].(domain.RatingChangedEvent).Rating)
}

func TestRatingService_SurvivesLogout(t *testing.T) {
	ratings, session, _ := newTestRatings(t, true)

	for _, id := range []int{9, 2, 4} {
		_, err := ratings.ToggleLike(id)
		require.NoError(t, err)
	}
	session.authenticated.Store(false)

	assert.Equal(t, []int{2, 4, 9}, ratings.Liked())
	_, err := ratings.ToggleLike(2)
	assert.Error(t, err)
	assert.Equal(t, domain.RatingLiked, ratings.Rating(2))
}

func TestRatingService_ClearedByNewCatalog(t *testing.T) {
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	t.Cleanup(func() { _ = bus.Close() })
	session := &fakeSession{}
	session.authenticated.Store(true)
	ratings := NewRatingService(log, session, bus)

	_, err := ratings.ToggleLike(3)
	require.NoError(t, err)
	_, err = ratings.ToggleDislike(1)
	require.NoError(t, err)
	events := recordEvents(bus)

	bus.Publish(domain.NewCatalogLoadedEvent("/music", 2, 0))

	assert.Empty(t, ratings.Liked())
	assert.Empty(t, ratings.Disliked())
	changed := events.ofType(domain.EventRatingChanged)
	require.Len(t, changed, 2)
	assert.Equal(t, 1, changed[0].(domain.RatingChangedEvent).TrackID)
	assert.Equal(t, 3, changed[1].(domain.RatingChangedEvent).TrackID)
	assert.Equal(t, domain.RatingNone, changed[1].(domain.RatingChangedEvent).Rating)

	// Once detached, a catalog load no longer touches ratings.
	_, err = ratings.ToggleLike(2)
	require.NoError(t, err)
	ratings.Shutdown()
	bus.Publish(domain.NewCatalogLoadedEvent("/music", 2, 0))
	assert.Equal(t, []int{2}, ratings.Liked())
}
