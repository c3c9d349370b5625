package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/formleszs/music-app/internal/adapter/audio/mock"
	"github.com/formleszs/music-app/internal/adapter/eventbus"
	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/logger"
	"github.com/formleszs/music-app/internal/testutil"
)

// eventRecorder captures every event published on a bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func recordEvents(bus *eventbus.SyncEventBus) *eventRecorder {
	r := &eventRecorder{}
	bus.SubscribeAll(func(e domain.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *eventRecorder) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, 0, len(r.events))
	for _, e := range r.events {
		if e.Type() != domain.EventTrackProgress {
			out = append(out, e.Type())
		}
	}
	return out
}

func (r *eventRecorder) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *eventRecorder) count(t domain.EventType) int {
	return len(r.ofType(t))
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// makeTracks builds n catalog tracks of 180 seconds each.
func makeTracks(n int) []domain.Track {
	tracks := make([]domain.Track, n)
	for i := range tracks {
		tracks[i] = domain.Track{
			ID:       i + 1,
			Title:    fmt.Sprintf("Song %d", i+1),
			Artist:   "Test Artist",
			AudioURL: fmt.Sprintf("http://cdn.test/%d.mp3", i+1),
			Duration: 180 * time.Second,
		}
	}
	return tracks
}

type playerFixture struct {
	player *PlayerService
	engine *mock.Engine
	bus    *eventbus.SyncEventBus
	events *eventRecorder
}

// newTestPlayer builds a player on the mock engine. Shutdown and the leak
// check are registered as cleanups, the leak check running last.
func newTestPlayer(t *testing.T, opts ...PlayerOption) *playerFixture {
	t.Helper()
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	log := logger.NewTestLogger()
	engine := mock.NewEngine(log)
	require.NoError(t, engine.Initialize())
	bus := eventbus.NewSyncEventBus(log)
	events := recordEvents(bus)

	// A long interval keeps the sampler quiet unless a test asks otherwise.
	opts = append([]PlayerOption{WithProgressInterval(time.Hour)}, opts...)
	player := NewPlayerService(log, engine, bus, opts...)

	t.Cleanup(func() {
		_ = player.Shutdown()
		_ = bus.Close()
	})

	return &playerFixture{player: player, engine: engine, bus: bus, events: events}
}

func (f *playerFixture) currentHandle(t *testing.T) domain.TrackHandle {
	t.Helper()
	f.player.mu.Lock()
	defer f.player.mu.Unlock()
	require.NotEqual(t, domain.InvalidTrackHandle, f.player.handle)
	return f.player.handle
}
