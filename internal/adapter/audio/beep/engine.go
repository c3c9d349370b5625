// Package beep implements the playback engine on top of gopxl/beep.
//
// Sources may be local paths or http(s) URLs. Remote audio is fetched whole
// into memory so the decoder can seek. Every track is resampled to the
// speaker rate chosen at Initialize.
package beep

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"resty.dev/v3"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

const (
	// DefaultSampleRate is the speaker rate used when none is configured.
	DefaultSampleRate beep.SampleRate = 44100

	resampleQuality = 4
	speakerBuffer   = time.Second / 10
)

// Engine plays tracks through the system speaker.
//
// Thread-safety: all methods are safe for concurrent use. Streamer state is
// only touched under speaker.Lock, and the ended handler runs on its own
// goroutine so it never executes inside the speaker callback.
type Engine struct {
	logger     *slog.Logger
	http       *resty.Client
	sampleRate beep.SampleRate

	initialized bool
	tracks      map[domain.TrackHandle]*track
	nextHandle  domain.TrackHandle
	onEnded     ports.EndedHandler
	mu          sync.Mutex
}

type track struct {
	source   string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	declared time.Duration
	started  bool
	done     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithSampleRate sets the speaker sample rate.
func WithSampleRate(rate int) Option {
	return func(e *Engine) {
		if rate > 0 {
			e.sampleRate = beep.SampleRate(rate)
		}
	}
}

// WithHTTPClient replaces the client used for remote sources.
func WithHTTPClient(client *resty.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.http = client
		}
	}
}

// NewEngine creates an engine. Initialize must be called before Load.
func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger:     logger.With(slog.String("engine", "beep")),
		sampleRate: DefaultSampleRate,
		tracks:     make(map[domain.TrackHandle]*track),
		nextHandle: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.http == nil {
		e.http = newStreamClient()
	}
	return e
}

// Initialize opens the speaker.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}
	if err := speaker.Init(e.sampleRate, e.sampleRate.N(speakerBuffer)); err != nil {
		return domain.NewAudioEngineError("initialize", "", "failed to open speaker", err)
	}
	e.initialized = true
	e.logger.Info("speaker initialized", slog.Int("sample_rate", int(e.sampleRate)))
	return nil
}

// Shutdown stops every track and closes the speaker.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil
	}
	tracks := e.tracks
	e.tracks = make(map[domain.TrackHandle]*track)
	e.initialized = false
	e.mu.Unlock()

	speaker.Clear()
	for _, t := range tracks {
		_ = t.streamer.Close()
	}
	speaker.Close()
	_ = e.http.Close()

	e.logger.Info("engine shut down")
	return nil
}

// IsInitialized reports whether the speaker is open.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Load opens and decodes source. Playback does not start until Play.
func (e *Engine) Load(source string, duration time.Duration) (domain.TrackHandle, error) {
	if !e.IsInitialized() {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}

	// Decoding can involve a download, so it runs without the engine lock.
	streamer, format, err := e.open(source)
	if err != nil {
		return domain.InvalidTrackHandle, err
	}

	var out beep.Streamer = streamer
	if format.SampleRate != e.sampleRate {
		out = beep.Resample(resampleQuality, format.SampleRate, e.sampleRate, streamer)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		_ = streamer.Close()
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}

	handle := e.nextHandle
	e.nextHandle++
	e.tracks[handle] = &track{
		source:   source,
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: out, Paused: true},
		declared: duration,
	}

	e.logger.Debug("track loaded",
		slog.Int64("handle", int64(handle)),
		slog.String("source", source),
		slog.Int("sample_rate", int(format.SampleRate)))
	return handle, nil
}

// Play starts or resumes playback.
func (e *Engine) Play(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return domain.ErrInvalidTrackHandle
	}
	if t.done {
		return domain.NewAudioEngineError("play", t.source, "track already finished", domain.ErrPlaybackFailed)
	}

	if !t.started {
		t.started = true
		t.ctrl.Paused = false
		speaker.Play(beep.Seq(t.ctrl, beep.Callback(func() {
			go e.finished(handle)
		})))
		return nil
	}

	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause pauses playback, keeping the position.
func (e *Engine) Pause(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return domain.ErrInvalidTrackHandle
	}
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Stop halts playback and releases the track.
func (e *Engine) Stop(handle domain.TrackHandle) error {
	e.mu.Lock()
	t, ok := e.tracks[handle]
	delete(e.tracks, handle)
	e.mu.Unlock()

	if !ok {
		return domain.ErrInvalidTrackHandle
	}

	// A nil streamer ends the sequence; the callback then finds no track
	// for the handle and does nothing.
	speaker.Lock()
	t.ctrl.Streamer = nil
	speaker.Unlock()

	if err := t.streamer.Close(); err != nil {
		e.logger.Warn("failed to close streamer", slog.String("source", t.source), slog.Any("error", err))
	}
	return nil
}

// Status reports the engine state of a track.
func (e *Engine) Status(handle domain.TrackHandle) (domain.EngineStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return domain.EngineStopped, domain.ErrInvalidTrackHandle
	}
	if t.done {
		return domain.EngineStopped, nil
	}

	speaker.Lock()
	paused := t.ctrl.Paused
	speaker.Unlock()
	if paused || !t.started {
		return domain.EnginePaused, nil
	}
	return domain.EnginePlaying, nil
}

// Position returns the decoder position.
func (e *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return 0, domain.ErrInvalidTrackHandle
	}
	speaker.Lock()
	pos := t.format.SampleRate.D(t.streamer.Position())
	speaker.Unlock()
	return pos, nil
}

// Duration returns the decoded length, falling back to the declared one for
// streams of unknown length.
func (e *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return 0, domain.ErrInvalidTrackHandle
	}
	return t.length(), nil
}

// Seek moves the decoder to position.
func (e *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tracks[handle]
	if !ok {
		return domain.ErrInvalidTrackHandle
	}
	if position < 0 || position > t.length() {
		return domain.ErrInvalidPosition
	}

	sample := t.format.SampleRate.N(position)
	if n := t.streamer.Len(); n > 0 && sample >= n {
		sample = n - 1
	}

	speaker.Lock()
	err := t.streamer.Seek(sample)
	speaker.Unlock()
	if err != nil {
		return domain.NewAudioEngineError("seek", t.source, "decoder rejected seek", err)
	}
	return nil
}

// SetEndedHandler registers the end-of-track callback.
func (e *Engine) SetEndedHandler(handler ports.EndedHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnded = handler
}

func (e *Engine) finished(handle domain.TrackHandle) {
	e.mu.Lock()
	t, ok := e.tracks[handle]
	if ok {
		t.done = true
	}
	handler := e.onEnded
	e.mu.Unlock()

	if !ok {
		return
	}
	e.logger.Debug("track finished", slog.Int64("handle", int64(handle)))
	if handler != nil {
		handler(handle)
	}
}

func (t *track) length() time.Duration {
	if n := t.streamer.Len(); n > 0 {
		return t.format.SampleRate.D(n)
	}
	return t.declared
}

var _ ports.AudioEngine = (*Engine)(nil)
