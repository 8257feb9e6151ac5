// Package event provides a synchronous pub-sub bus for task lifecycle
// events. Observers (CLI output, metrics, tests) subscribe to lifecycle
// notifications without the engine knowing about them.
package event

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Handler is a function that handles an event.
type Handler func(Event)

// subscription represents a registered event handler.
type subscription struct {
	id        string
	eventType string
	handler   Handler
}

// Bus is a simple synchronous pub-sub event bus. Handlers run on the
// publisher's goroutine in registration order; a panicking handler is
// recovered and logged so it cannot block delivery to other handlers.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // eventType -> subscriptions
	nextID        atomic.Uint64
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscriptions: make(map[string][]subscription),
	}
}

// Subscribe registers a handler for a specific event type.
// Returns a subscription ID usable with Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := fmt.Sprintf("sub-%d", b.nextID.Add(1))
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{
		id:        id,
		eventType: eventType,
		handler:   handler,
	})
	return id
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe("*", handler)
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[eventType] = append(subs[:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Publish dispatches an event to all registered handlers: specific
// subscribers first, then wildcard subscribers, each in registration order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	eventType := event.EventType()

	specific := make([]subscription, len(b.subscriptions[eventType]))
	copy(specific, b.subscriptions[eventType])

	wildcard := make([]subscription, len(b.subscriptions["*"]))
	copy(wildcard, b.subscriptions["*"])
	b.mu.RUnlock()

	for _, sub := range specific {
		b.safeCall(sub.handler, event)
	}
	for _, sub := range wildcard {
		b.safeCall(sub.handler, event)
	}
}

// safeCall invokes a handler and recovers from panics so one misbehaving
// subscriber cannot block delivery.
func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: event handler panicked for event %s: %v\n%s",
				event.EventType(), r, debug.Stack())
		}
	}()
	handler(event)
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[string][]subscription)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
