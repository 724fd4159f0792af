// Package event provides a small topic-based event bus that decouples
// the application's components. Delivery is synchronous and in
// subscription order.
package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Common errors.
var (
	ErrNilHandler   = errors.New("handler is nil")
	ErrInvalidTopic = errors.New("topic is empty")
	ErrBusClosed    = errors.New("bus is closed")
)

// Topic identifies an event stream.
type Topic string

// Topics published by the application.
const (
	// TopicFolderOpened fires when a workspace folder is opened.
	TopicFolderOpened Topic = "workspace.folder.opened"
	// TopicFolderClosed fires when a workspace folder is removed.
	TopicFolderClosed Topic = "workspace.folder.closed"
	// TopicIndexReady fires when the task index first has results for
	// the workspace, and again after a refresh.
	TopicIndexReady Topic = "task.index.ready"
)

// Event is the envelope delivered to handlers.
type Event struct {
	// Topic is the stream the event belongs to.
	Topic Topic
	// Data is the topic-specific payload.
	Data any
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, event Event)

// Subscription identifies a registered handler.
type Subscription struct {
	id    uint64
	topic Topic
}

// Bus is a synchronous topic-based event bus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]subscriber
	nextID atomic.Uint64
	closed bool
}

type subscriber struct {
	id      uint64
	handler Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]subscriber)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic Topic, handler Handler) (Subscription, error) {
	if handler == nil {
		return Subscription{}, ErrNilHandler
	}
	if topic == "" {
		return Subscription{}, ErrInvalidTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Subscription{}, ErrBusClosed
	}

	id := b.nextID.Add(1)
	b.subs[topic] = append(b.subs[topic], subscriber{id: id, handler: handler})
	return Subscription{id: id, topic: topic}, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[sub.topic]
	for i, s := range subs {
		if s.id == sub.id {
			b.subs[sub.topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to every handler subscribed to its topic,
// synchronously and in subscription order.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.Topic == "" {
		return ErrInvalidTopic
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	subs := append([]subscriber{}, b.subs[event.Topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(ctx, event)
	}
	return nil
}

// Close stops the bus; further subscribes and publishes fail.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[Topic][]subscriber)
}

// SubscriberCount returns the number of handlers on a topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
