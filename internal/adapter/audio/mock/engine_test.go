package mock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formleszs/music-app/internal/domain"
)

func newInitializedEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine(nil)
	require.NoError(t, engine.Initialize())
	return engine
}

func TestNewEngine(t *testing.T) {
	engine := NewEngine(nil)

	require.NotNil(t, engine)
	assert.False(t, engine.IsInitialized())
	assert.Equal(t, 0, engine.LoadedTracks())
}

func TestInitializeTwice(t *testing.T) {
	engine := newInitializedEngine(t)

	assert.ErrorIs(t, engine.Initialize(), domain.ErrAlreadyInitialized)
}

func TestShutdownDropsTracks(t *testing.T) {
	engine := newInitializedEngine(t)
	_, err := engine.Load("http://x/a.mp3", time.Minute)
	require.NoError(t, err)

	require.NoError(t, engine.Shutdown())
	assert.False(t, engine.IsInitialized())
	assert.Equal(t, 0, engine.LoadedTracks())
	assert.ErrorIs(t, engine.Shutdown(), domain.ErrNotInitialized)
}

func TestLoad(t *testing.T) {
	engine := newInitializedEngine(t)

	h1, err := engine.Load("http://x/a.mp3", 200*time.Second)
	require.NoError(t, err)
	h2, err := engine.Load("http://x/b.mp3", 0)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 2, engine.LoadedTracks())
	assert.Equal(t, []string{"http://x/a.mp3", "http://x/b.mp3"}, engine.Loads())

	d, err := engine.Duration(h1)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Second, d)

	d, err = engine.Duration(h2)
	require.NoError(t, err)
	assert.Equal(t, DefaultDuration, d)
}

func TestLoadHook(t *testing.T) {
	engine := newInitializedEngine(t)
	var seen []string
	engine.SetLoadHook(func(source string) {
		// The engine stays usable while a load is held in the hook.
		assert.Equal(t, 0, engine.LoadedTracks())
		seen = append(seen, source)
	})

	_, err := engine.Load("http://x/a.mp3", time.Minute)
	require.NoError(t, err)
	engine.SetLoadHook(nil)
	_, err = engine.Load("http://x/b.mp3", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://x/a.mp3"}, seen)
	assert.Equal(t, 2, engine.LoadedTracks())
}

func TestLoadWithoutInitialize(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.Load("http://x/a.mp3", time.Minute)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestLoadEmptySource(t *testing.T) {
	engine := newInitializedEngine(t)

	_, err := engine.Load("", time.Minute)
	var engineErr *domain.AudioEngineError
	assert.ErrorAs(t, err, &engineErr)
}

func TestPlayPauseStop(t *testing.T) {
	engine := newInitializedEngine(t)
	h, err := engine.Load("http://x/a.mp3", time.Minute)
	require.NoError(t, err)

	status, err := engine.Status(h)
	require.NoError(t, err)
	assert.Equal(t, domain.EngineStopped, status)

	require.NoError(t, engine.Play(h))
	status, _ = engine.Status(h)
	assert.Equal(t, domain.EnginePlaying, status)

	require.NoError(t, engine.Pause(h))
	status, _ = engine.Status(h)
	assert.Equal(t, domain.EnginePaused, status)

	require.NoError(t, engine.Stop(h))
	_, err = engine.Status(h)
	assert.ErrorIs(t, err, domain.ErrInvalidTrackHandle)
	assert.ErrorIs(t, engine.Play(h), domain.ErrInvalidTrackHandle)
}

func TestSeek(t *testing.T) {
	engine := newInitializedEngine(t)
	h, err := engine.Load("http://x/a.mp3", time.Minute)
	require.NoError(t, err)

	require.NoError(t, engine.Seek(h, 30*time.Second))
	pos, err := engine.Position(h)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, pos)

	assert.ErrorIs(t, engine.Seek(h, -time.Second), domain.ErrInvalidPosition)
	assert.ErrorIs(t, engine.Seek(h, 2*time.Minute), domain.ErrInvalidPosition)
}

func TestSimulateProgressEndsTrack(t *testing.T) {
	engine := newInitializedEngine(t)

	var ended []domain.TrackHandle
	engine.SetEndedHandler(func(h domain.TrackHandle) {
		// Re-entering the engine must not deadlock.
		_, _ = engine.Status(h)
		ended = append(ended, h)
	})

	h, err := engine.Load("http://x/a.mp3", 10*time.Second)
	require.NoError(t, err)

	assert.Error(t, engine.SimulateProgress(h, time.Second), "not playing yet")

	require.NoError(t, engine.Play(h))
	require.NoError(t, engine.SimulateProgress(h, 4*time.Second))
	pos, _ := engine.Position(h)
	assert.Equal(t, 4*time.Second, pos)
	assert.Empty(t, ended)

	require.NoError(t, engine.SimulateProgress(h, 20*time.Second))
	pos, _ = engine.Position(h)
	assert.Equal(t, 10*time.Second, pos)
	assert.Equal(t, []domain.TrackHandle{h}, ended)
}

func TestSimulateEnd(t *testing.T) {
	engine := newInitializedEngine(t)

	var ended domain.TrackHandle
	engine.SetEndedHandler(func(h domain.TrackHandle) { ended = h })

	h, err := engine.Load("http://x/a.mp3", time.Minute)
	require.NoError(t, err)
	require.NoError(t, engine.SimulateEnd(h))

	assert.Equal(t, h, ended)
	assert.ErrorIs(t, engine.SimulateEnd(domain.TrackHandle(999)), domain.ErrInvalidTrackHandle)
}

func TestFailureSwitches(t *testing.T) {
	engine := NewEngine(nil)
	engine.SetFailInitialize(true)
	assert.Error(t, engine.Initialize())
	engine.SetFailInitialize(false)
	require.NoError(t, engine.Initialize())

	engine.SetFailLoadFor("http://x/bad.mp3", true)
	_, err := engine.Load("http://x/bad.mp3", time.Minute)
	assert.Error(t, err)
	_, err = engine.Load("http://x/good.mp3", time.Minute)
	assert.NoError(t, err)

	engine.SetFailLoad(true)
	_, err = engine.Load("http://x/good.mp3", time.Minute)
	assert.Error(t, err)
	engine.SetFailLoad(false)

	h, err := engine.Load("http://x/good.mp3", time.Minute)
	require.NoError(t, err)
	engine.SetFailPlay(true)
	assert.ErrorIs(t, engine.Play(h), domain.ErrPlaybackFailed)
}

func TestConcurrentLoad(t *testing.T) {
	engine := newInitializedEngine(t)

	const workers = 10
	handles := make(chan domain.TrackHandle, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := engine.Load("http://x/a.mp3", time.Minute)
			assert.NoError(t, err)
			handles <- h
		}()
	}
	wg.Wait()
	close(handles)

	seen := make(map[domain.TrackHandle]bool)
	for h := range handles {
		assert.False(t, seen[h], "duplicate handle %d", h)
		seen[h] = true
	}
	assert.Equal(t, workers, engine.LoadedTracks())
}
