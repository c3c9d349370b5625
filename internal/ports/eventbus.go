// Package ports define the EventBus interface for event-driven communication.
// The event bus is the explicit observer mechanism between components.
package ports

import (
	"github.com/formleszs/music-app/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// The event bus decouples event producers (services) from event consumers (UI, logging, etc.).
// Multiple subscribers can listen to the same event, and subscribers don't know about publishers.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	// In service: Publish an event
//	bus.Publish(domain.NewTrackStartedEvent(track))
//
//	// In UI presenter: Subscribe to events
//	subID := bus.Subscribe(domain.EventTrackStarted, func(event domain.Event) {
//	    e := event.(domain.TrackStartedEvent)
//	    view.SetPlayState(true)
//	})
//
//	// Later: Unsubscribe
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers an event to all subscribers of that event type.
	// Handlers should return quickly.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type and
	// returns an ID for Unsubscribe.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// Unknown IDs are a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers returns true if there are any active subscriptions for the given event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus. Publishing after Close is a no-op.
	Close() error
}
