// internal/event/manager.go
package event

import (
	"fmt"
	"sync"

	"github.com/bethropolis/infograph/internal/logger"
	"github.com/google/uuid"
)

// Handler is the signature for event subscribers. A returned error (or a
// panic) is reported on TypeListenerError and never reaches the dispatcher.
type Handler func(e Event) error

// Subscription identifies one (event, handler) pair. It is the only way to
// unsubscribe, since Go funcs are not comparable.
type Subscription struct {
	Type Type
	ID   string
}

// Valid reports whether the subscription came from Subscribe.
func (s Subscription) Valid() bool { return s.ID != "" }

type subscriber struct {
	id      string
	handler Handler
}

// ListenerError wraps a handler failure.
type ListenerError struct {
	Event Type
	Err   error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener for %s failed: %v", e.Event, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

// Bus handles event subscriptions and dispatching.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]subscriber // ordered by subscription time
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
	}
}

// Subscribe adds a handler for a specific event type.
func (b *Bus) Subscribe(eventType Type, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := Subscription{Type: eventType, ID: uuid.NewString()}
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: sub.ID, handler: handler})
	logger.DebugTagf("event", "Bus: Handler %s subscribed to %v", sub.ID, eventType)
	return sub
}

// Unsubscribe removes exactly the handler registered under sub.
// It reports whether anything was removed.
func (b *Bus) Unsubscribe(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.handlers[sub.Type]
	for i, s := range list {
		if s.id != sub.ID {
			continue
		}
		// Build a new slice so in-flight dispatch copies stay valid
		next := make([]subscriber, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, sub.Type)
		} else {
			b.handlers[sub.Type] = next
		}
		logger.DebugTagf("event", "Bus: Handler %s unsubscribed from %v", sub.ID, sub.Type)
		return true
	}
	return false
}

// Dispatch sends an event to every handler registered for its type,
// synchronously and in subscription order.
func (b *Bus) Dispatch(eventType Type, data interface{}) {
	b.mu.RLock()
	handlers := b.handlers[eventType]
	// A copy lets handlers unsubscribe themselves during dispatch.
	handlersCopy := make([]subscriber, len(handlers))
	copy(handlersCopy, handlers)
	b.mu.RUnlock()

	if len(handlersCopy) == 0 {
		return
	}
	logger.DebugTagf("event", "Bus: Dispatching %v to %d handler(s)", eventType, len(handlersCopy))

	e := Event{Type: eventType, Data: data}
	for _, s := range handlersCopy {
		if err := invoke(s.handler, e); err != nil {
			b.report(eventType, err)
		}
	}
}

// invoke runs one handler, turning a panic into an error.
func invoke(h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(e)
}

// report publishes a listener failure on the error channel. Failures of
// error-channel handlers are only logged.
func (b *Bus) report(eventType Type, err error) {
	lerr := &ListenerError{Event: eventType, Err: err}
	logger.Warnf("Bus: %v", lerr)
	if eventType == TypeListenerError {
		return
	}
	b.Dispatch(TypeListenerError, ListenerErrorData{Err: lerr})
}

// HasSubscribers reports whether any handler listens for eventType.
func (b *Bus) HasSubscribers(eventType Type) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType]) > 0
}

// Teardown removes every handler. Used once when the owning session closes.
func (b *Bus) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[Type][]subscriber)
	logger.DebugTagf("event", "Bus: Torn down")
}
