// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrTrackNotFound is returned when a requested track cannot be found.
	ErrTrackNotFound = errors.New("track not found")

	// ErrInvalidTrackHandle is returned when an invalid track handle is used.
	ErrInvalidTrackHandle = errors.New("invalid track handle")

	// ErrInvalidIndex is returned when a track list index is out of bounds.
	ErrInvalidIndex = errors.New("invalid track index")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrUnsupportedFormat is returned when an audio stream format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNoTrackLoaded is returned when a transport operation needs a loaded track.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrPlaybackFailed is returned when playback cannot be started.
	ErrPlaybackFailed = errors.New("playback failed")

	// ErrSubmissionInProgress is returned when a login or register call is
	// made while another one is still in flight.
	ErrSubmissionInProgress = errors.New("a submission is already in progress")

	// ErrSubmissionCancelled is returned by a login or register call whose
	// result arrived after a Logout.
	ErrSubmissionCancelled = errors.New("submission cancelled by logout")

	// ErrNoSession is returned when no stored session exists.
	ErrNoSession = errors.New("no session")

	// ErrCatalogNotLoaded is returned when the catalog is queried before Load.
	ErrCatalogNotLoaded = errors.New("catalog not loaded")

	// ErrUnsupportedSource is returned for catalog locations no source can open.
	ErrUnsupportedSource = errors.New("unsupported catalog source")

	// ErrScanInProgress is returned when a library scan is already running.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrScanCancelled is returned when a library scan is canceled.
	ErrScanCancelled = errors.New("scan cancelled")
)

// AudioEngineError represents an error from the audio engine.
// This wraps low-level audio library errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "load", "play", "stop")
	Source  string // Audio location (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("audio engine %s failed for '%s': %s", e.Op, e.Source, e.Message)
	}
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, source, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load", "delete")
	Type    string // Repository type (e.g., "session")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a local input check that failed before any
// network call was made.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// AuthReason classifies a rejection from the auth endpoint.
type AuthReason string

const (
	AuthReasonUserNotFound      AuthReason = "user-not-found"
	AuthReasonWrongPassword     AuthReason = "wrong-password"
	AuthReasonAlreadyRegistered AuthReason = "already-registered"
	AuthReasonOther             AuthReason = "other"
)

// AuthError is a well-formed rejection returned by the auth endpoint.
type AuthError struct {
	Op     string     // "login" or "register"
	Reason AuthReason // Classified reason
	Detail string     // Server-provided detail text
	Status int        // HTTP status code
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s rejected (%s): %s", e.Op, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s rejected (%s)", e.Op, e.Reason)
}

// NewAuthError creates a new AuthError.
func NewAuthError(op string, reason AuthReason, detail string, status int) *AuthError {
	return &AuthError{
		Op:     op,
		Reason: reason,
		Detail: detail,
		Status: status,
	}
}

// NetworkError represents a transport failure or an unreadable response.
type NetworkError struct {
	Op  string // Operation that failed
	URL string // Target URL
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s (%s): %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError.
func NewNetworkError(op, url string, err error) *NetworkError {
	return &NetworkError{
		Op:  op,
		URL: url,
		Err: err,
	}
}

// AuthorizationError is returned when an operation requires a session and none exists.
type AuthorizationError struct {
	Action  string // Attempted action, e.g. "like"
	TrackID int    // Track the action targeted
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s track %d: login required", e.Action, e.TrackID)
}

// Unwrap lets callers match against ErrNoSession.
func (e *AuthorizationError) Unwrap() error {
	return ErrNoSession
}

// NewAuthorizationError creates a new AuthorizationError.
func NewAuthorizationError(action string, trackID int) *AuthorizationError {
	return &AuthorizationError{Action: action, TrackID: trackID}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "PlayerService", "CatalogService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
