// Package ports define the view capabilities the presenter drives.
// The presenter depends only on these interfaces, never on a widget toolkit.
package ports

import (
	"time"

	"github.com/formleszs/music-app/internal/domain"
)

// Tab identifies the track list the view is showing.
type Tab int

const (
	TabRecommendations Tab = iota
	TabFavorites
)

// TrackListView renders the current catalog view.
type TrackListView interface {
	SetTracks(tracks []domain.Track)
	SetSelection(index int)
	SetFilterOptions(genres, moods []string)
}

// TransportView renders the now-playing area and transport controls.
type TransportView interface {
	SetNowPlaying(track *domain.Track)
	SetPlayState(playing bool)
	SetProgress(position, duration time.Duration)
	SetTransportEnabled(enabled bool)
}

// RatingView renders the like/dislike state of the current track.
type RatingView interface {
	SetRating(rating domain.Rating)
}

// AuthView reflects the session state. Favorites and filter controls are
// visible only while authenticated.
type AuthView interface {
	SetAuthenticated(authenticated bool)
	SetSubmitting(submitting bool)
	CloseAuthDialog()
}

// FavoritesView renders the liked-tracks tab.
type FavoritesView interface {
	SetFavorites(tracks []domain.Track)
	ShowTab(tab Tab)
}

// NotificationView shows messages to the user.
type NotificationView interface {
	ShowError(title, message string)
	ShowInfo(title, message string)
}

// View is the full set of capabilities a UI binder must provide.
//
// Thread-safety: implementations marshal calls onto their UI thread; the
// presenter calls them from event bus handlers on arbitrary goroutines.
type View interface {
	TrackListView
	TransportView
	RatingView
	AuthView
	FavoritesView
	NotificationView
}
