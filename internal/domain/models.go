// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the music app: catalog tracks,
// player state, ratings and the user session.
package domain

import (
	"strings"
	"time"
)

// Track is a single catalog entry.
type Track struct {
	// ID is assigned from the accepted row order of the catalog, starting at 1.
	ID int

	// Title is the song title
	Title string

	// Artist is the performing artist name
	Artist string

	// AlbumArtURL points at the cover image
	AlbumArtURL string

	// Duration is the catalog-declared length of the track
	Duration time.Duration

	// AudioURL is the streamable audio location handed to the playback engine
	AudioURL string

	// Genre and Mood are optional classification tags used by catalog filters
	Genre string
	Mood  string
}

// Criteria selects a view of the catalog.
// Empty fields and the literal "all" match every track.
type Criteria struct {
	Genre string
	Mood  string
	Query string
}

// AllValue is the criterion value that matches every track.
const AllValue = "all"

// IsAll reports whether a criterion value places no restriction.
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, AllValue)
}

// IsZero reports whether the criteria select the full catalog.
func (c Criteria) IsZero() bool {
	return IsAll(c.Genre) && IsAll(c.Mood) && strings.TrimSpace(c.Query) == ""
}

// PlayerStatus represents the state of the player state machine.
type PlayerStatus int

const (
	// StatusEmpty means no track list is loaded
	StatusEmpty PlayerStatus = iota

	// StatusReady means a track is selected and paused
	StatusReady

	// StatusPlaying means the current track is playing
	StatusPlaying

	// StatusEnded is transient: the engine reported the end of the current track
	StatusEnded
)

// String returns a human-readable representation of the player status.
func (s PlayerStatus) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusReady:
		return "ready"
	case StatusPlaying:
		return "playing"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// PlayerState is a snapshot of the player.
type PlayerState struct {
	// Tracks is the list the player cycles through
	Tracks []Track

	// CurrentIndex is the position in Tracks, -1 when nothing is loaded
	CurrentIndex int

	// Status is the state machine state
	Status PlayerStatus

	// Position is the last known playback position of the current track
	Position time.Duration

	// Duration is the effective length of the current track
	Duration time.Duration
}

// CurrentTrack returns the selected track, or nil when the player is empty.
func (s PlayerState) CurrentTrack() *Track {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Tracks) {
		return nil
	}
	t := s.Tracks[s.CurrentIndex]
	return &t
}

// Paused reports whether a track is loaded but not playing.
func (s PlayerState) Paused() bool {
	return s.Status != StatusPlaying
}

// TrackHandle represents a handle to an audio track in the audio engine.
// This is an opaque identifier used by the audio engine to reference loaded tracks.
type TrackHandle int64

const (
	// InvalidTrackHandle represents an invalid or uninitialized track handle
	InvalidTrackHandle TrackHandle = 0
)

// EngineStatus is the low-level state reported by a playback engine.
type EngineStatus int

const (
	EngineStopped EngineStatus = iota
	EnginePlaying
	EnginePaused
)

func (s EngineStatus) String() string {
	switch s {
	case EngineStopped:
		return "stopped"
	case EnginePlaying:
		return "playing"
	case EnginePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Rating is a user's opinion of a track. Liked and disliked are mutually exclusive.
type Rating int

const (
	RatingNone Rating = iota
	RatingLiked
	RatingDisliked
)

func (r Rating) String() string {
	switch r {
	case RatingLiked:
		return "liked"
	case RatingDisliked:
		return "disliked"
	default:
		return "none"
	}
}

// Session is an authenticated user session backed by a bearer token.
type Session struct {
	// Token is the opaque bearer token issued by the auth endpoint
	Token string

	// Phone holds the normalized digits the session was opened with, if known
	Phone string

	// ExpiresAt is when the persisted token stops being offered
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthState is the session manager state.
type AuthState int

const (
	AuthAnonymous AuthState = iota
	AuthSubmitting
	AuthAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthAnonymous:
		return "anonymous"
	case AuthSubmitting:
		return "submitting"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SessionOrigin records how a session came to exist.
type SessionOrigin string

const (
	OriginLogin    SessionOrigin = "login"
	OriginRegister SessionOrigin = "register"
	OriginRestore  SessionOrigin = "restore"
)

// ScanProgress represents the progress of a library scan operation.
type ScanProgress struct {
	// CurrentFile is the file currently being scanned
	CurrentFile string

	// FilesScanned is the number of files processed so far
	FilesScanned int

	// TracksFound is the number of valid music tracks found
	TracksFound int
}
