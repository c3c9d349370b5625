// Package service provides the business logic of the music app: catalog views,
// the player state machine, ratings, the user session and library scans.
package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// DefaultProgressInterval is how often the progress sampler reads the engine position.
const DefaultProgressInterval = time.Second

// PlayerService is the player state machine. It owns the track list, the
// current index and the engine handle of the current track.
//
// States: Empty (no list), Ready (track selected, paused), Playing, and the
// transient Ended that immediately advances to the next track.
//
// Engine loads run without the service lock, so a slow download never blocks
// GetState or the transport controls. While a load is pending the player is
// Ready on the new index without a handle; a newer selection, Stop or Shutdown
// supersedes it.
//
// Events are published after the service lock is released, so subscribers may
// call back into the service. All operations are thread-safe.
type PlayerService struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.AudioEngine
	bus    ports.EventBus

	// State
	tracks   []domain.Track
	index    int
	handle   domain.TrackHandle
	status   domain.PlayerStatus
	duration time.Duration
	closed   bool

	// Pending engine load
	loadGen        uint64
	loading        bool
	playWhenLoaded bool

	// Progress sampling: one live sampler per loaded track
	progressInterval time.Duration
	cancelSampler    context.CancelFunc
	samplers         sync.WaitGroup
	liveSamplers     atomic.Int32

	viewSub    domain.SubscriptionID
	catalogSub domain.SubscriptionID
	mu         sync.Mutex
}

// PlayerOption configures a PlayerService.
type PlayerOption func(*PlayerService)

// WithProgressInterval sets the sampling period of the progress sampler.
func WithProgressInterval(d time.Duration) PlayerOption {
	return func(s *PlayerService) {
		if d > 0 {
			s.progressInterval = d
		}
	}
}

// NewPlayerService creates the player and wires it to the engine's end-of-track
// notifications and to catalog view changes. Installing a new catalog empties
// the player.
func NewPlayerService(
	logger *slog.Logger,
	engine ports.AudioEngine,
	bus ports.EventBus,
	opts ...PlayerOption,
) *PlayerService {
	s := &PlayerService{
		logger:           logger.With(slog.String("service", "player")),
		engine:           engine,
		bus:              bus,
		index:            -1,
		handle:           domain.InvalidTrackHandle,
		status:           domain.StatusEmpty,
		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	engine.SetEndedHandler(s.onEngineEnded)
	s.viewSub = bus.Subscribe(domain.EventViewChanged, s.onViewChanged)
	s.catalogSub = bus.Subscribe(domain.EventCatalogLoaded, s.onCatalogLoaded)

	s.logger.Debug("player service initialized", slog.Duration("progress_interval", s.progressInterval))
	return s
}

// Load replaces the track list. An empty list stops playback and leaves the
// player Empty; otherwise the first track is loaded and starts playing.
func (s *PlayerService) Load(tracks []domain.Track) error {
	return s.LoadAt(tracks, 0)
}

// LoadAt replaces the track list and starts playing the track at index.
// index is ignored for an empty list.
func (s *PlayerService) LoadAt(tracks []domain.Track, index int) error {
	if len(tracks) > 0 && (index < 0 || index >= len(tracks)) {
		return domain.ErrInvalidIndex
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrNotInitialized
	}

	s.tracks = slices.Clone(tracks)
	events := []domain.Event{domain.NewQueueChangedEvent(slices.Clone(tracks))}

	var err error
	if len(s.tracks) == 0 {
		events = append(events, s.resetLocked()...)
	} else {
		var ev []domain.Event
		ev, err = s.selectLocked(index, true)
		if len(ev) == 0 {
			// Superseded while loading: announce the list the player holds now.
			events = []domain.Event{domain.NewQueueChangedEvent(slices.Clone(s.tracks))}
		}
		events = append(events, ev...)
	}
	s.mu.Unlock()

	s.publish(events)
	return err
}

// TogglePlay pauses a playing track and plays a paused one. It is a no-op
// while the player is Empty.
func (s *PlayerService) TogglePlay() error {
	s.mu.Lock()
	if s.loading {
		s.playWhenLoaded = !s.playWhenLoaded
		s.mu.Unlock()
		return nil
	}
	var events []domain.Event
	var err error
	switch s.status {
	case domain.StatusEmpty:
		s.mu.Unlock()
		return nil
	case domain.StatusPlaying:
		events, err = s.pauseLocked()
	default:
		events, err = s.playLocked()
	}
	s.mu.Unlock()

	s.publish(events)
	return err
}

// Play starts or resumes the current track.
func (s *PlayerService) Play() error {
	s.mu.Lock()
	if s.status == domain.StatusEmpty {
		s.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}
	if s.status == domain.StatusPlaying {
		s.mu.Unlock()
		return nil
	}
	events, err := s.playLocked()
	s.mu.Unlock()

	s.publish(events)
	return err
}

// Pause pauses the current track. Pausing a track that is not playing is a no-op.
func (s *PlayerService) Pause() error {
	s.mu.Lock()
	if s.status != domain.StatusPlaying {
		s.playWhenLoaded = false
		s.mu.Unlock()
		return nil
	}
	events, err := s.pauseLocked()
	s.mu.Unlock()

	s.publish(events)
	return err
}

// Next advances to the following track, wrapping to the first, and plays it.
// It is a no-op with an empty list.
func (s *PlayerService) Next() error {
	return s.step(1)
}

// Previous moves to the preceding track, wrapping to the last, and plays it.
// It is a no-op with an empty list.
func (s *PlayerService) Previous() error {
	return s.step(-1)
}

func (s *PlayerService) step(delta int) error {
	s.mu.Lock()
	events, err := s.stepLocked(delta)
	s.mu.Unlock()

	s.publish(events)
	return err
}

// PlayAt selects the track at index and plays it.
func (s *PlayerService) PlayAt(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.tracks) {
		s.mu.Unlock()
		return domain.ErrInvalidIndex
	}
	events, err := s.selectLocked(index, true)
	s.mu.Unlock()

	s.publish(events)
	return err
}

// Stop releases the current track and empties the player.
func (s *PlayerService) Stop() error {
	s.mu.Lock()
	s.tracks = nil
	events := append([]domain.Event{domain.NewQueueChangedEvent(nil)}, s.resetLocked()...)
	s.mu.Unlock()

	s.publish(events)
	return nil
}

// Seek moves the playback position, clamped into [0, duration].
func (s *PlayerService) Seek(position time.Duration) error {
	s.mu.Lock()
	if s.status == domain.StatusEmpty || s.handle == domain.InvalidTrackHandle {
		s.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}

	position = max(0, min(position, s.duration))
	if err := s.engine.Seek(s.handle, position); err != nil {
		s.mu.Unlock()
		return err
	}
	event := domain.NewTrackProgressEvent(s.tracks[s.index].ID, position, s.duration)
	s.mu.Unlock()

	s.bus.Publish(event)
	return nil
}

// SeekFraction seeks to a share of the current track's duration. Values
// outside [0, 1] are clamped.
func (s *PlayerService) SeekFraction(fraction float64) error {
	s.mu.Lock()
	duration := s.duration
	s.mu.Unlock()

	fraction = max(0, min(1, fraction))
	return s.Seek(time.Duration(fraction * float64(duration)))
}

// GetState returns a snapshot of the player.
func (s *PlayerService) GetState() domain.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.PlayerState{
		Tracks:       slices.Clone(s.tracks),
		CurrentIndex: s.index,
		Status:       s.status,
		Duration:     s.duration,
	}
	if s.handle != domain.InvalidTrackHandle {
		if pos, err := s.engine.Position(s.handle); err == nil {
			state.Position = pos
		}
	}
	return state
}

// Shutdown stops playback, detaches from the engine and the bus, and waits
// for the progress sampler to exit.
func (s *PlayerService) Shutdown() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.tracks = nil
	events := s.resetLocked()
	s.mu.Unlock()

	s.engine.SetEndedHandler(nil)
	s.bus.Unsubscribe(s.viewSub)
	s.bus.Unsubscribe(s.catalogSub)
	s.samplers.Wait()

	s.publish(events)
	s.logger.Debug("player service shut down")
	return nil
}

func (s *PlayerService) onViewChanged(event domain.Event) {
	e, ok := event.(domain.ViewChangedEvent)
	if !ok {
		return
	}
	if err := s.Load(e.Tracks); err != nil {
		s.logger.Warn("failed to load catalog view", slog.Any("error", err))
	}
}

// onCatalogLoaded empties the player. The old list's IDs and sources belong
// to the replaced catalog.
func (s *PlayerService) onCatalogLoaded(domain.Event) {
	if err := s.Stop(); err != nil {
		s.logger.Warn("failed to reset player for new catalog", slog.Any("error", err))
	}
}

// onEngineEnded advances to the next track when the current one finishes.
// Notifications for handles that are no longer current are ignored.
func (s *PlayerService) onEngineEnded(handle domain.TrackHandle) {
	s.mu.Lock()
	if s.closed || handle == domain.InvalidTrackHandle || handle != s.handle {
		s.mu.Unlock()
		s.logger.Debug("ignoring stale end of track", slog.Int64("handle", int64(handle)))
		return
	}

	finished := s.tracks[s.index]
	events := []domain.Event{domain.NewTrackCompletedEvent(finished, s.index)}
	s.status = domain.StatusEnded

	ev, err := s.stepLocked(1)
	events = append(events, ev...)
	// A superseded load returns no events.
	if cur := s.currentLocked(); cur != nil && len(ev) > 0 {
		events = append(events, domain.NewAutoNextEvent(*cur, s.index))
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("auto-advance failed", slog.Any("error", err))
	}
	s.publish(events)
}

func (s *PlayerService) stepLocked(delta int) ([]domain.Event, error) {
	n := len(s.tracks)
	if n == 0 {
		return nil, nil
	}
	next := ((s.index+delta)%n + n) % n
	return s.selectLocked(next, true)
}

// selectLocked releases the current track, loads the track at index and
// optionally starts it. s.mu is released around the engine load and held again
// on return, so callers must not reuse state read before the call.
//
// A load superseded meanwhile is released and yields no events. A failed
// engine load leaves the player Ready on that index without a handle; the
// next play retries the load.
func (s *PlayerService) selectLocked(index int, autoplay bool) ([]domain.Event, error) {
	s.releaseLocked()

	track := s.tracks[index]
	s.index = index
	s.status = domain.StatusReady
	s.duration = track.Duration
	s.loading = true
	s.playWhenLoaded = autoplay
	gen := s.loadGen

	s.mu.Unlock()
	handle, err := s.engine.Load(track.AudioURL, track.Duration)
	s.mu.Lock()

	if s.closed || gen != s.loadGen {
		if err == nil {
			if serr := s.engine.Stop(handle); serr != nil {
				s.logger.Warn("failed to release superseded track", slog.Int64("handle", int64(handle)), slog.Any("error", serr))
			}
		}
		s.logger.Debug("track load superseded", slog.Int("track_id", track.ID))
		return nil, nil
	}
	s.loading = false
	autoplay = s.playWhenLoaded
	s.playWhenLoaded = false

	if err != nil {
		s.logger.Warn("failed to load track",
			slog.Int("track_id", track.ID),
			slog.String("source", track.AudioURL),
			slog.Any("error", err))
		return []domain.Event{domain.NewTrackErrorEvent(track, err)}, err
	}

	if s.duration <= 0 {
		if d, derr := s.engine.Duration(handle); derr == nil {
			s.duration = d
		}
	}
	s.handle = handle
	s.startSamplerLocked(handle, track.ID, s.duration)

	s.logger.Debug("track loaded",
		slog.Int("index", index),
		slog.Int("track_id", track.ID),
		slog.Int64("handle", int64(handle)))

	events := []domain.Event{domain.NewTrackLoadedEvent(track, handle, s.duration, index)}
	if !autoplay {
		return events, nil
	}
	ev, err := s.playLocked()
	return append(events, ev...), err
}

func (s *PlayerService) playLocked() ([]domain.Event, error) {
	if s.loading {
		s.playWhenLoaded = true
		return nil, nil
	}
	if s.handle == domain.InvalidTrackHandle {
		if s.index < 0 || s.index >= len(s.tracks) {
			return nil, domain.ErrNoTrackLoaded
		}
		return s.selectLocked(s.index, true)
	}

	track := s.tracks[s.index]
	if err := s.engine.Play(s.handle); err != nil {
		s.logger.Warn("failed to start playback", slog.Int("track_id", track.ID), slog.Any("error", err))
		return []domain.Event{domain.NewTrackErrorEvent(track, err)}, err
	}
	s.status = domain.StatusPlaying
	return []domain.Event{domain.NewTrackStartedEvent(track)}, nil
}

func (s *PlayerService) pauseLocked() ([]domain.Event, error) {
	position, err := s.engine.Position(s.handle)
	if err != nil {
		position = 0
	}
	if err := s.engine.Pause(s.handle); err != nil {
		return nil, err
	}
	s.status = domain.StatusReady
	return []domain.Event{domain.NewTrackPausedEvent(s.tracks[s.index], position)}, nil
}

// releaseLocked cancels the sampler, supersedes any pending load and releases
// the engine handle.
func (s *PlayerService) releaseLocked() {
	s.loadGen++
	s.loading = false
	s.playWhenLoaded = false

	if s.cancelSampler != nil {
		s.cancelSampler()
		s.cancelSampler = nil
	}
	if s.handle != domain.InvalidTrackHandle {
		if err := s.engine.Stop(s.handle); err != nil {
			s.logger.Warn("failed to stop track", slog.Int64("handle", int64(s.handle)), slog.Any("error", err))
		}
		s.handle = domain.InvalidTrackHandle
	}
}

// resetLocked moves the player to Empty.
func (s *PlayerService) resetLocked() []domain.Event {
	wasLoaded := s.status != domain.StatusEmpty
	s.releaseLocked()
	s.index = -1
	s.status = domain.StatusEmpty
	s.duration = 0
	if !wasLoaded {
		return nil
	}
	return []domain.Event{domain.NewTrackStoppedEvent()}
}

func (s *PlayerService) currentLocked() *domain.Track {
	if s.index < 0 || s.index >= len(s.tracks) {
		return nil
	}
	t := s.tracks[s.index]
	return &t
}

// startSamplerLocked replaces the progress sampler with one bound to handle.
// The sampler only reads the engine and publishes; it never touches player state.
func (s *PlayerService) startSamplerLocked(handle domain.TrackHandle, trackID int, duration time.Duration) {
	if s.cancelSampler != nil {
		s.cancelSampler()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelSampler = cancel

	s.samplers.Add(1)
	s.liveSamplers.Add(1)
	go func() {
		defer s.samplers.Done()
		defer s.liveSamplers.Add(-1)

		ticker := time.NewTicker(s.progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sample(ctx, handle, trackID, duration)
			}
		}
	}()
}

func (s *PlayerService) sample(ctx context.Context, handle domain.TrackHandle, trackID int, duration time.Duration) {
	status, err := s.engine.Status(handle)
	if err != nil || status != domain.EnginePlaying {
		return
	}
	position, err := s.engine.Position(handle)
	if err != nil || ctx.Err() != nil {
		return
	}
	s.bus.Publish(domain.NewTrackProgressEvent(trackID, position, duration))
}

func (s *PlayerService) publish(events []domain.Event) {
	for _, e := range events {
		s.bus.Publish(e)
	}
}

// Verify that PlayerService implements the expected interface patterns
var _ interface {
	Load([]domain.Track) error
	TogglePlay() error
	Play() error
	Pause() error
	Next() error
	Previous() error
	PlayAt(int) error
	Stop() error
	Seek(time.Duration) error
	SeekFraction(float64) error
	GetState() domain.PlayerState
	Shutdown() error
} = (*PlayerService)(nil)
