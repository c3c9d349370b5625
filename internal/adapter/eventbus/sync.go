// Package eventbus provides the synchronous EventBus used to connect services,
// the presenter and the CLI.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// ErrClosed is returned by Close when the bus was already closed.
var ErrClosed = errors.New("event bus already closed")

// SyncEventBus delivers events to handlers synchronously, in subscription order,
// on the publishing goroutine.
//
// Thread-safety: This implementation is thread-safe. Handlers run without the
// bus lock held, so a handler may subscribe, unsubscribe or publish.
type SyncEventBus struct {
	logger *slog.Logger

	// subscribers map event types to their subscriptions
	subscribers map[domain.EventType][]subscription

	// allSubscribers contains handlers that receive all events
	allSubscribers []subscription

	// mu protects subscribers, allSubscribers and closed
	mu sync.RWMutex

	idCounter uint64
	closed    bool
}

type subscription struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus. A nil logger discards output.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SyncEventBus{
		logger:      logger.With(slog.String("component", "eventbus")),
		subscribers: make(map[domain.EventType][]subscription),
	}
}

// Publish publishes an event to all subscribers of that event type, then to
// wildcard subscribers.
//
// If the event bus is closed, this method does nothing. Panics in handlers are
// recovered and logged, and do not stop other handlers from being called.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	eventType := event.Type()
	targets := make([]subscription, 0, len(bus.subscribers[eventType])+len(bus.allSubscribers))
	targets = append(targets, bus.subscribers[eventType]...)
	targets = append(targets, bus.allSubscribers...)
	bus.mu.RUnlock()

	if eventType != domain.EventTrackProgress {
		bus.logger.Debug("event published",
			slog.String("event_type", string(eventType)),
			slog.Int("handlers", len(targets)))
	}

	for _, sub := range targets {
		bus.callHandler(sub, event)
	}
}

func (bus *SyncEventBus) callHandler(sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("subscription", string(sub.id)),
				slog.String("event_type", string(event.Type())))
		}
	}()
	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
// Subscribing to a closed bus returns an empty ID and the handler is never called.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, false, handler)
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("", true, handler)
}

func (bus *SyncEventBus) add(eventType domain.EventType, wildcard bool, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		bus.logger.Warn("subscribe on closed event bus", slog.String("event_type", string(eventType)))
		return ""
	}

	n := atomic.AddUint64(&bus.idCounter, 1)
	if wildcard {
		id := domain.SubscriptionID(fmt.Sprintf("sub-all-%d", n))
		bus.allSubscribers = append(bus.allSubscribers, subscription{id: id, handler: handler})
		return id
	}

	id := domain.SubscriptionID(fmt.Sprintf("sub-%d", n))
	bus.subscribers[eventType] = append(bus.subscribers[eventType], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a previously registered event handler, keeping the
// delivery order of the remaining handlers.
// If the subscription ID is invalid or already unsubscribed, this is a no-op.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	if id == "" {
		return
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	match := func(s subscription) bool { return s.id == id }

	for eventType, subs := range bus.subscribers {
		if i := slices.IndexFunc(subs, match); i >= 0 {
			subs = slices.Delete(slices.Clone(subs), i, i+1)
			if len(subs) == 0 {
				delete(bus.subscribers, eventType)
			} else {
				bus.subscribers[eventType] = subs
			}
			return
		}
	}

	if i := slices.IndexFunc(bus.allSubscribers, match); i >= 0 {
		bus.allSubscribers = slices.Delete(slices.Clone(bus.allSubscribers), i, i+1)
	}
}

// HasSubscribers returns true if any handler would receive an event of the given type.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	return len(bus.subscribers[eventType]) > 0 || len(bus.allSubscribers) > 0
}

// Close shuts down the event bus and clears all subscriptions.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}

	bus.closed = true
	bus.subscribers = make(map[domain.EventType][]subscription)
	bus.allSubscribers = nil

	return nil
}

// SubscriberCount returns the number of active subscriptions, wildcard included.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	count := len(bus.allSubscribers)
	for _, subs := range bus.subscribers {
		count += len(subs)
	}
	return count
}

// Verify that SyncEventBus implements the EventBus interface
var _ ports.EventBus = (*SyncEventBus)(nil)
