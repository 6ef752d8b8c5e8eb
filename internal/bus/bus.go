// Package bus provides the in-process event bus between the sync coordinator
// and its registered consumers.
package bus

import (
	"log/slog"
	"sync"
	"time"
)

// EventType identifies the state transition an event announces.
type EventType string

const (
	EventActionRecorded   EventType = "user_action_recorded"
	EventDisplayUpdated   EventType = "display_data_updated"
	EventAnalyticsUpdated EventType = "analytics_updated"
	EventFullSync         EventType = "full_sync_completed"
)

// Event is the envelope every consumer handler receives.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Handler consumes one event. Handlers run synchronously on the publisher's
// goroutine; a panic in one handler never reaches the others.
type Handler func(Event)

type subscription struct {
	name    string
	handler Handler
}

// Bus fans events out to named consumers. Multiple handlers per name are
// supported; unsubscribing removes exactly the registered handler.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]*subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]*subscription)}
}

// Register adds a handler under the given consumer name and returns its
// unsubscribe function.
func (b *Bus) Register(name string, h Handler) func() {
	sub := &subscription{name: name, handler: h}

	b.mu.Lock()
	b.subs[name] = append(b.subs[name], sub)
	b.mu.Unlock()

	slog.Info("consumer registered", "name", name)

	return func() { b.unregister(sub) }
}

func (b *Bus) unregister(target *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[target.name]
	for i, sub := range list {
		if sub == target {
			b.subs[target.name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[target.name]) == 0 {
		delete(b.subs, target.name)
	}
}

// Publish delivers evt to every registered handler. Missing timestamp and
// source are filled in.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if evt.Source == "" {
		evt.Source = "coordinator"
	}

	b.mu.RLock()
	var subs []*subscription
	for _, list := range b.subs {
		subs = append(subs, list...)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(sub, evt)
	}
}

func (b *Bus) deliver(sub *subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("consumer handler panicked", "name", sub.name, "event", evt.Type, "panic", r)
		}
	}()
	sub.handler(evt)
}

// ConsumerCount returns the number of registered handlers, for status output.
func (b *Bus) ConsumerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, list := range b.subs {
		n += len(list)
	}
	return n
}
