package events

import (
	"context"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription. Publish must
// never block the caller on handler completion; the sweep treats dispatch
// as a fire-and-forget handoff.
type Dispatcher interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher invokes handlers on a background goroutine per event.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	wg        sync.WaitGroup
	listeners map[EventType][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() *inMemoryDispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
	}
}

// Publish hands the event to subscribed handlers without waiting for them.
// Handler errors are the handlers' concern; delivery is not retried.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, handler := range handlers {
			if err := handler(ctx, event); err != nil {
				// continue processing other handlers despite errors
			}
		}
	}()
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Drain waits for in-flight handler goroutines, used on shutdown and in
// tests.
func (d *inMemoryDispatcher) Drain() {
	d.wg.Wait()
}
