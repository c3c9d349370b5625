package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/logger"
)

func newTestBus(t *testing.T) *SyncEventBus {
	t.Helper()
	bus := NewSyncEventBus(logger.NewTestLogger())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

var testTrack = domain.Track{ID: 7, Title: "Test Track", Artist: "Tester"}

func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus(nil)

	require.NotNil(t, bus)
	assert.Equal(t, 0, bus.SubscriberCount())
	assert.False(t, bus.closed)
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	var received domain.Event
	subID := bus.Subscribe(domain.EventTrackStarted, func(event domain.Event) {
		received = event
	})
	require.NotEmpty(t, subID)

	bus.Publish(domain.NewTrackStartedEvent(testTrack))

	require.NotNil(t, received)
	assert.Equal(t, domain.EventTrackStarted, received.Type())
	assert.Equal(t, 7, received.(domain.TrackStartedEvent).Track.ID)
}

func TestDeliveryOrder(t *testing.T) {
	bus := newTestBus(t)

	var order []int
	ids := make([]domain.SubscriptionID, 0, 4)
	for i := range 4 {
		ids = append(ids, bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
			order = append(order, i)
		}))
	}
	bus.Unsubscribe(ids[1])

	bus.Publish(domain.NewTrackStartedEvent(testTrack))

	assert.Equal(t, []int{0, 2, 3}, order)
}

func TestMultipleSubscribers(t *testing.T) {
	bus := newTestBus(t)

	var calls int32
	for range 3 {
		bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
			atomic.AddInt32(&calls, 1)
		})
	}

	bus.Publish(domain.NewTrackStartedEvent(testTrack))

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus(t)

	var calls int32
	subID := bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		atomic.AddInt32(&calls, 1)
	})

	bus.Publish(domain.NewTrackStartedEvent(testTrack))
	bus.Unsubscribe(subID)
	bus.Publish(domain.NewTrackStartedEvent(testTrack))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, bus.HasSubscribers(domain.EventTrackStarted))
}

func TestUnsubscribeInvalidID(t *testing.T) {
	bus := newTestBus(t)

	assert.NotPanics(t, func() {
		bus.Unsubscribe("invalid-id")
		bus.Unsubscribe("")
	})
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := newTestBus(t)

	var id domain.SubscriptionID
	var selfCalls, otherCalls int
	id = bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		selfCalls++
		bus.Unsubscribe(id)
	})
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		otherCalls++
	})

	bus.Publish(domain.NewTrackStartedEvent(testTrack))
	bus.Publish(domain.NewTrackStartedEvent(testTrack))

	assert.Equal(t, 1, selfCalls)
	assert.Equal(t, 2, otherCalls)
}

func TestSubscribeAll(t *testing.T) {
	bus := newTestBus(t)

	var mu sync.Mutex
	var received []domain.EventType
	bus.SubscribeAll(func(event domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.Type())
	})

	bus.Publish(domain.NewTrackStartedEvent(testTrack))
	bus.Publish(domain.NewTrackPausedEvent(testTrack, 10*time.Second))
	bus.Publish(domain.NewRatingChangedEvent(7, domain.RatingLiked))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.EventType{
		domain.EventTrackStarted,
		domain.EventTrackPaused,
		domain.EventRatingChanged,
	}, received)
}

func TestHasSubscribers(t *testing.T) {
	bus := newTestBus(t)

	assert.False(t, bus.HasSubscribers(domain.EventTrackStarted))

	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {})

	assert.True(t, bus.HasSubscribers(domain.EventTrackStarted))
	assert.False(t, bus.HasSubscribers(domain.EventTrackPaused))

	bus.SubscribeAll(func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventTrackPaused))
}

func TestHandlerPanic(t *testing.T) {
	bus := newTestBus(t)

	var calls int32
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		panic("test panic")
	})
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		atomic.AddInt32(&calls, 1)
	})

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewTrackStartedEvent(testTrack))
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClose(t *testing.T) {
	bus := NewSyncEventBus(logger.NewTestLogger())

	var calls int32
	handler := func(domain.Event) { atomic.AddInt32(&calls, 1) }
	bus.Subscribe(domain.EventTrackStarted, handler)
	bus.SubscribeAll(handler)
	require.Equal(t, 2, bus.SubscriberCount())

	require.NoError(t, bus.Close())
	assert.Equal(t, 0, bus.SubscriberCount())

	bus.Publish(domain.NewTrackStartedEvent(testTrack))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	assert.Empty(t, bus.Subscribe(domain.EventTrackStarted, handler))
	assert.ErrorIs(t, bus.Close(), ErrClosed)
}

func TestConcurrentPublish(t *testing.T) {
	bus := newTestBus(t)

	var count int32
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		atomic.AddInt32(&count, 1)
	})

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				bus.Publish(domain.NewTrackStartedEvent(testTrack))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(goroutines*perGoroutine), atomic.LoadInt32(&count))
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := newTestBus(t)

	var count int32
	handler := func(domain.Event) { atomic.AddInt32(&count, 1) }
	bus.Subscribe(domain.EventTrackStarted, handler)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				bus.Publish(domain.NewTrackStartedEvent(testTrack))
			}
		}()
		go func() {
			defer wg.Done()
			for range 10 {
				id := bus.Subscribe(domain.EventTrackStarted, handler)
				bus.Unsubscribe(id)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(250))
	assert.Equal(t, 1, bus.SubscriberCount())
}

func TestNilEventAndHandler(t *testing.T) {
	bus := newTestBus(t)

	var calls int32
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {
		atomic.AddInt32(&calls, 1)
	})
	bus.Publish(nil)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	assert.Panics(t, func() {
		bus.Subscribe(domain.EventTrackStarted, nil)
	})
}
