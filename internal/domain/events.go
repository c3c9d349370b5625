// Package domain defines events for the event-driven architecture.
// Events are how components observe each other: producers publish on the
// event bus and consumers subscribe explicitly.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackLoaded    EventType = "track.loaded"
	EventTrackStarted   EventType = "track.started"
	EventTrackPaused    EventType = "track.paused"
	EventTrackStopped   EventType = "track.stopped"
	EventTrackCompleted EventType = "track.completed"
	EventTrackProgress  EventType = "track.progress"
	EventTrackError     EventType = "track.error"
	EventAutoNext       EventType = "track.auto_next"
	EventQueueChanged   EventType = "queue.changed"

	// Catalog events
	EventCatalogLoaded EventType = "catalog.loaded"
	EventViewChanged   EventType = "catalog.view_changed"

	// Rating events
	EventRatingChanged EventType = "rating.changed"

	// Session events
	EventSessionStarted    EventType = "session.started"
	EventSessionEnded      EventType = "session.ended"
	EventSubmissionChanged EventType = "session.submission_changed"

	// Library scanning events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanCancelled EventType = "scan.cancelled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadedEvent is published when the player selects and loads a track.
type TrackLoadedEvent struct {
	baseEvent
	Track    Track
	Handle   TrackHandle
	Duration time.Duration
	Index    int
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track, handle TrackHandle, duration time.Duration, index int) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Handle:    handle,
		Duration:  duration,
		Index:     index,
	}
}

// TrackStartedEvent is published when playback starts or resumes.
type TrackStartedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackStoppedEvent is published when playback stops and the player empties.
type TrackStoppedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e TrackStoppedEvent) Type() EventType {
	return EventTrackStopped
}

// NewTrackStoppedEvent creates a new TrackStoppedEvent.
func NewTrackStoppedEvent() TrackStoppedEvent {
	return TrackStoppedEvent{baseEvent: newBaseEvent()}
}

// TrackCompletedEvent is published when the engine reports the current track ended.
type TrackCompletedEvent struct {
	baseEvent
	Track Track
	Index int
}

// Type returns the event type.
func (e TrackCompletedEvent) Type() EventType {
	return EventTrackCompleted
}

// NewTrackCompletedEvent creates a new TrackCompletedEvent.
func NewTrackCompletedEvent(track Track, index int) TrackCompletedEvent {
	return TrackCompletedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
	}
}

// TrackProgressEvent carries a progress sample. It never changes player state.
type TrackProgressEvent struct {
	baseEvent
	TrackID  int
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// Fraction returns the position as a share of the duration in [0, 1].
func (e TrackProgressEvent) Fraction() float64 {
	if e.Duration <= 0 {
		return 0
	}
	f := float64(e.Position) / float64(e.Duration)
	return max(0, min(1, f))
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(trackID int, position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
		Position:  position,
		Duration:  duration,
	}
}

// TrackErrorEvent is published when the engine fails to load or play a track.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// AutoNextEvent is published when the player advances on its own after a track ended.
type AutoNextEvent struct {
	baseEvent
	Track Track
	Index int
}

// Type returns the event type.
func (e AutoNextEvent) Type() EventType {
	return EventAutoNext
}

// NewAutoNextEvent creates a new AutoNextEvent.
func NewAutoNextEvent(track Track, index int) AutoNextEvent {
	return AutoNextEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
	}
}

// QueueChangedEvent is published when the player's track list is replaced.
type QueueChangedEvent struct {
	baseEvent
	Tracks []Track
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(tracks []Track) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Tracks:    tracks,
	}
}

// CatalogLoadedEvent is published after the catalog has been (re)loaded.
type CatalogLoadedEvent struct {
	baseEvent
	Source  string
	Count   int
	Skipped int
}

// Type returns the event type.
func (e CatalogLoadedEvent) Type() EventType {
	return EventCatalogLoaded
}

// NewCatalogLoadedEvent creates a new CatalogLoadedEvent.
func NewCatalogLoadedEvent(source string, count, skipped int) CatalogLoadedEvent {
	return CatalogLoadedEvent{
		baseEvent: newBaseEvent(),
		Source:    source,
		Count:     count,
		Skipped:   skipped,
	}
}

// ViewChangedEvent is published when a filter or search selects a new catalog view.
type ViewChangedEvent struct {
	baseEvent
	Tracks   []Track
	Criteria Criteria
}

// Type returns the event type.
func (e ViewChangedEvent) Type() EventType {
	return EventViewChanged
}

// NewViewChangedEvent creates a new ViewChangedEvent.
func NewViewChangedEvent(tracks []Track, criteria Criteria) ViewChangedEvent {
	return ViewChangedEvent{
		baseEvent: newBaseEvent(),
		Tracks:    tracks,
		Criteria:  criteria,
	}
}

// RatingChangedEvent is published when a track's rating changes.
type RatingChangedEvent struct {
	baseEvent
	TrackID int
	Rating  Rating
}

// Type returns the event type.
func (e RatingChangedEvent) Type() EventType {
	return EventRatingChanged
}

// NewRatingChangedEvent creates a new RatingChangedEvent.
func NewRatingChangedEvent(trackID int, rating Rating) RatingChangedEvent {
	return RatingChangedEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
		Rating:    rating,
	}
}

// SessionStartedEvent is published when the user becomes authenticated.
type SessionStartedEvent struct {
	baseEvent
	Origin    SessionOrigin
	ExpiresAt time.Time
}

// Type returns the event type.
func (e SessionStartedEvent) Type() EventType {
	return EventSessionStarted
}

// NewSessionStartedEvent creates a new SessionStartedEvent.
func NewSessionStartedEvent(origin SessionOrigin, expiresAt time.Time) SessionStartedEvent {
	return SessionStartedEvent{
		baseEvent: newBaseEvent(),
		Origin:    origin,
		ExpiresAt: expiresAt,
	}
}

// SessionEndedEvent is published on logout.
type SessionEndedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e SessionEndedEvent) Type() EventType {
	return EventSessionEnded
}

// NewSessionEndedEvent creates a new SessionEndedEvent.
func NewSessionEndedEvent() SessionEndedEvent {
	return SessionEndedEvent{baseEvent: newBaseEvent()}
}

// SubmissionChangedEvent reports whether a login or register call is in flight.
type SubmissionChangedEvent struct {
	baseEvent
	Op         string
	Submitting bool
}

// Type returns the event type.
func (e SubmissionChangedEvent) Type() EventType {
	return EventSubmissionChanged
}

// NewSubmissionChangedEvent creates a new SubmissionChangedEvent.
func NewSubmissionChangedEvent(op string, submitting bool) SubmissionChangedEvent {
	return SubmissionChangedEvent{
		baseEvent:  newBaseEvent(),
		Op:         op,
		Submitting: submitting,
	}
}

// ScanStartedEvent is published when a library scan begins.
type ScanStartedEvent struct {
	baseEvent
	Path string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType {
	return EventScanStarted
}

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(path string) ScanStartedEvent {
	return ScanStartedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
	}
}

// ScanProgressEvent is published periodically during a library scan.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType {
	return EventScanProgress
}

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// ScanCompletedEvent is published when a library scan completes.
type ScanCompletedEvent struct {
	baseEvent
	Tracks []Track
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType {
	return EventScanCompleted
}

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(tracks []Track) ScanCompletedEvent {
	return ScanCompletedEvent{
		baseEvent: newBaseEvent(),
		Tracks:    tracks,
	}
}

// ScanCancelledEvent is published when a library scan is canceled.
type ScanCancelledEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e ScanCancelledEvent) Type() EventType {
	return EventScanCancelled
}

// NewScanCancelledEvent creates a new ScanCancelledEvent.
func NewScanCancelledEvent(reason string) ScanCancelledEvent {
	return ScanCancelledEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}
