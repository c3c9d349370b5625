// Package mock provides an in-memory implementation of the AudioEngine interface.
// It backs the service tests and the --engine mock mode, where nothing is decoded
// or played and progress only moves when a test asks for it.
package mock

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// DefaultDuration is used for tracks loaded without a declared duration.
const DefaultDuration = 3 * time.Minute

// Engine simulates audio playback in memory without actually playing audio.
//
// Thread-safety: This implementation is thread-safe. The ended handler is
// always invoked without the engine lock held.
type Engine struct {
	logger *slog.Logger

	initialized bool

	tracks     map[domain.TrackHandle]*mockTrack
	nextHandle domain.TrackHandle
	loads      []string
	onEnded    ports.EndedHandler
	mu         sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failLoad       map[string]bool
	failLoadAll    bool
	failPlay       bool
	loadHook       func(source string)
}

type mockTrack struct {
	source   string
	duration time.Duration
	position time.Duration
	status   domain.EngineStatus
}

// NewEngine creates a new mock audio engine. A nil logger discards output.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		logger:     logger.With(slog.String("engine", "mock")),
		tracks:     make(map[domain.TrackHandle]*mockTrack),
		failLoad:   make(map[string]bool),
		nextHandle: 1,
	}
}

// SetFailInitialize configures the mock to fail initialization.
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailLoad configures the mock to fail loading every source.
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoadAll = fail
}

// SetFailLoadFor configures the mock to fail loading one source.
func (m *Engine) SetFailLoadFor(source string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad[source] = fail
}

// SetLoadHook registers a function that Load calls with the source before
// doing anything else, without the engine lock held. Tests use it to hold a
// load in flight. A nil hook removes it.
func (m *Engine) SetLoadHook(hook func(source string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadHook = hook
}

// SetFailPlay configures the mock to fail playback.
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Initialize initializes the mock audio engine.
func (m *Engine) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", "mock initialization failed", nil)
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	return nil
}

// Shutdown shuts down the mock audio engine and drops every track.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.tracks = make(map[domain.TrackHandle]*mockTrack)
	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Load registers a track and returns its handle.
func (m *Engine) Load(source string, duration time.Duration) (domain.TrackHandle, error) {
	m.mu.RLock()
	hook := m.loadHook
	m.mu.RUnlock()
	if hook != nil {
		hook(source)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}
	if source == "" {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", source, "empty source", nil)
	}
	m.loads = append(m.loads, source)
	if m.failLoadAll || m.failLoad[source] {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", source, "mock load failed", nil)
	}

	if duration <= 0 {
		duration = DefaultDuration
	}

	handle := m.nextHandle
	m.nextHandle++
	m.tracks[handle] = &mockTrack{
		source:   source,
		duration: duration,
		status:   domain.EngineStopped,
	}

	m.logger.Debug("track loaded", slog.Int64("handle", int64(handle)), slog.String("source", source))
	return handle, nil
}

// Play starts or resumes playback.
func (m *Engine) Play(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.trackLocked(handle)
	if err != nil {
		return err
	}
	if m.failPlay {
		return domain.ErrPlaybackFailed
	}

	if track.status == domain.EngineStopped {
		track.position = 0
	}
	track.status = domain.EnginePlaying
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.trackLocked(handle)
	if err != nil {
		return err
	}
	if track.status == domain.EnginePlaying {
		track.status = domain.EnginePaused
	}
	return nil
}

// Stop stops playback and unloads the track.
func (m *Engine) Stop(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.trackLocked(handle); err != nil {
		return err
	}
	delete(m.tracks, handle)
	return nil
}

// Status returns the playback status.
func (m *Engine) Status(handle domain.TrackHandle) (domain.EngineStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.trackLocked(handle)
	if err != nil {
		return domain.EngineStopped, err
	}
	return track.status, nil
}

// Position returns the current playback position.
func (m *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.trackLocked(handle)
	if err != nil {
		return 0, err
	}
	return track.position, nil
}

// Duration returns the total track duration.
func (m *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.trackLocked(handle)
	if err != nil {
		return 0, err
	}
	return track.duration, nil
}

// Seek sets the playback position.
func (m *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.trackLocked(handle)
	if err != nil {
		return err
	}
	if position < 0 || position > track.duration {
		return domain.ErrInvalidPosition
	}
	track.position = position
	return nil
}

// SetEndedHandler registers the end-of-track callback.
func (m *Engine) SetEndedHandler(handler ports.EndedHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = handler
}

// trackLocked must be called with m.mu held.
func (m *Engine) trackLocked(handle domain.TrackHandle) (*mockTrack, error) {
	if !m.initialized {
		return nil, domain.ErrNotInitialized
	}
	track, ok := m.tracks[handle]
	if !ok {
		return nil, domain.ErrInvalidTrackHandle
	}
	return track, nil
}

// LoadedTracks returns the number of currently loaded tracks.
func (m *Engine) LoadedTracks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracks)
}

// Loads returns every source passed to Load, in call order, failures included.
func (m *Engine) Loads() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.loads...)
}

// SimulateProgress advances a playing track. Reaching the duration ends the
// track and fires the ended handler.
func (m *Engine) SimulateProgress(handle domain.TrackHandle, delta time.Duration) error {
	m.mu.Lock()
	track, err := m.trackLocked(handle)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if track.status != domain.EnginePlaying {
		m.mu.Unlock()
		return fmt.Errorf("track %d is not playing", handle)
	}

	track.position += delta
	ended := track.position >= track.duration
	if ended {
		track.position = track.duration
		track.status = domain.EngineStopped
	}
	handler := m.onEnded
	m.mu.Unlock()

	if ended && handler != nil {
		handler(handle)
	}
	return nil
}

// SimulateEnd ends a track immediately and fires the ended handler.
func (m *Engine) SimulateEnd(handle domain.TrackHandle) error {
	m.mu.Lock()
	track, err := m.trackLocked(handle)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	track.position = track.duration
	track.status = domain.EngineStopped
	handler := m.onEnded
	m.mu.Unlock()

	if handler != nil {
		handler(handle)
	}
	return nil
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
