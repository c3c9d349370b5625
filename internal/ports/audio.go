// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/formleszs/music-app/internal/domain"
)

// EndedHandler is called by an engine when a track plays to its end.
// Engines must not hold internal locks while invoking it.
type EndedHandler func(handle domain.TrackHandle)

// AudioEngine is the playback engine capability the player drives.
// It abstracts the underlying audio library and allows for testing with mocks.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type AudioEngine interface {
	// Initialize prepares the output device.
	Initialize() error

	// Shutdown releases all engine resources.
	Shutdown() error

	// IsInitialized returns true if the engine has been successfully initialized.
	IsInitialized() bool

	// Load opens the audio at source and returns a handle to it.
	// duration is the catalog-declared length; engines that can measure the
	// stream may report their own value from Duration instead.
	Load(source string, duration time.Duration) (domain.TrackHandle, error)

	// Play starts or resumes playback of the specified track.
	Play(handle domain.TrackHandle) error

	// Pause pauses playback, preserving the position.
	Pause(handle domain.TrackHandle) error

	// Stop stops playback and releases the track. The handle becomes invalid.
	Stop(handle domain.TrackHandle) error

	// Status returns the current engine status of the specified track.
	Status(handle domain.TrackHandle) (domain.EngineStatus, error)

	// Position returns the current playback position within the track.
	Position(handle domain.TrackHandle) (time.Duration, error)

	// Duration returns the total duration of the specified track.
	Duration(handle domain.TrackHandle) (time.Duration, error)

	// Seek sets the playback position. Callers clamp into [0, Duration].
	Seek(handle domain.TrackHandle, position time.Duration) error

	// SetEndedHandler registers the callback for end-of-track notifications.
	// A nil handler disables notifications.
	SetEndedHandler(handler EndedHandler)
}

// MetadataReader extracts catalog fields from a local audio file.
type MetadataReader interface {
	// ReadMetadata returns a track with Title, Artist, Genre, Duration and
	// AudioURL filled from the file. ID is left zero.
	ReadMetadata(path string) (domain.Track, error)

	// SupportedExtensions lists lower-case extensions, dot included.
	SupportedExtensions() []string
}
