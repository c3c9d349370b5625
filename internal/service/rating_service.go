package service

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// SessionChecker reports whether a user session exists.
type SessionChecker interface {
	IsAuthenticated() bool
}

// RatingService keeps per-track like/dislike state in memory.
//
// Both operations toggle: liking a liked track clears it, liking anything else
// makes it liked and drops a dislike. Dislike is symmetric. Ratings need a
// session but survive logout. They are keyed by catalog track ID, so
// installing a new catalog clears them.
type RatingService struct {
	logger  *slog.Logger
	session SessionChecker
	bus     ports.EventBus

	ratings    map[int]domain.Rating
	catalogSub domain.SubscriptionID
	mu         sync.RWMutex
}

// NewRatingService creates a rating service gated by session.
func NewRatingService(logger *slog.Logger, session SessionChecker, bus ports.EventBus) *RatingService {
	s := &RatingService{
		logger:  logger.With(slog.String("service", "rating")),
		session: session,
		bus:     bus,
		ratings: make(map[int]domain.Rating),
	}
	s.catalogSub = bus.Subscribe(domain.EventCatalogLoaded, s.onCatalogLoaded)
	return s
}

// Shutdown detaches the service from the bus.
func (s *RatingService) Shutdown() {
	s.bus.Unsubscribe(s.catalogSub)
}

// onCatalogLoaded drops every rating; the new catalog reuses IDs from 1.
func (s *RatingService) onCatalogLoaded(domain.Event) {
	s.mu.Lock()
	cleared := make([]int, 0, len(s.ratings))
	for id := range s.ratings {
		cleared = append(cleared, id)
	}
	clear(s.ratings)
	s.mu.Unlock()

	if len(cleared) == 0 {
		return
	}
	slices.Sort(cleared)
	s.logger.Debug("ratings cleared for new catalog", slog.Int("count", len(cleared)))
	for _, id := range cleared {
		s.bus.Publish(domain.NewRatingChangedEvent(id, domain.RatingNone))
	}
}

// ToggleLike toggles the liked state of a track and returns the new rating.
func (s *RatingService) ToggleLike(trackID int) (domain.Rating, error) {
	return s.toggle("like", trackID, domain.RatingLiked)
}

// ToggleDislike toggles the disliked state of a track and returns the new rating.
func (s *RatingService) ToggleDislike(trackID int) (domain.Rating, error) {
	return s.toggle("dislike", trackID, domain.RatingDisliked)
}

func (s *RatingService) toggle(action string, trackID int, target domain.Rating) (domain.Rating, error) {
	if !s.session.IsAuthenticated() {
		return s.Rating(trackID), domain.NewAuthorizationError(action, trackID)
	}

	s.mu.Lock()
	next := target
	if s.ratings[trackID] == target {
		next = domain.RatingNone
	}
	if next == domain.RatingNone {
		delete(s.ratings, trackID)
	} else {
		s.ratings[trackID] = next
	}
	s.mu.Unlock()

	s.logger.Debug("rating changed", slog.Int("track_id", trackID), slog.String("rating", next.String()))
	s.bus.Publish(domain.NewRatingChangedEvent(trackID, next))
	return next, nil
}

// Rating returns the rating of a track; unrated tracks are RatingNone.
func (s *RatingService) Rating(trackID int) domain.Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratings[trackID]
}

// Liked returns the IDs of liked tracks in ascending order.
func (s *RatingService) Liked() []int {
	return s.withRating(domain.RatingLiked)
}

// Disliked returns the IDs of disliked tracks in ascending order.
func (s *RatingService) Disliked() []int {
	return s.withRating(domain.RatingDisliked)
}

func (s *RatingService) withRating(r domain.Rating) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int
	for id, rating := range s.ratings {
		if rating == r {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
