package events

import (
	"sync"
)

const defaultBufSize = 256

// Publisher is the write side of the bus, consumed by services.
type Publisher interface {
	Publish(topic string, event Event)
}

// Bus is a channel-based pub-sub event bus with per-topic and all-topic subscriptions.
// Publishing never blocks; a full subscriber misses the event.
type Bus struct {
	mu      sync.RWMutex
	topics  map[string][]chan Event
	all     []chan Event
	dropped map[string]int // topic -> events dropped on full subscribers
	closed  bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		topics:  make(map[string][]chan Event),
		dropped: make(map[string]int),
	}
}

// Subscribe returns a channel receiving events published to topic.
// bufSize <= 0 selects the default buffer.
func (b *Bus) Subscribe(topic string, bufSize int) <-chan Event {
	return b.add(func(ch chan Event) { b.topics[topic] = append(b.topics[topic], ch) }, bufSize)
}

// SubscribeAll returns a channel receiving events from every topic.
func (b *Bus) SubscribeAll(bufSize int) <-chan Event {
	return b.add(func(ch chan Event) { b.all = append(b.all, ch) }, bufSize)
}

// add registers a new buffered channel; on a closed bus the channel comes back closed.
func (b *Bus) add(register func(chan Event), bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	ch := make(chan Event, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	register(ch)
	return ch
}

// Publish delivers event to topic subscribers and to all-topic subscribers.
func (b *Bus) Publish(topic string, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.topics[topic] {
		b.deliver(topic, ch, event)
	}
	for _, ch := range b.all {
		b.deliver(topic, ch, event)
	}
}

// deliver must be called with b.mu held.
func (b *Bus) deliver(topic string, ch chan Event, event Event) {
	select {
	case ch <- event:
	default:
		b.dropped[topic]++
	}
}

// Dropped returns how many events on topic were lost to full subscribers.
func (b *Bus) Dropped(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped[topic]
}

// Close closes every subscriber channel. Safe to call multiple times.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.topics {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
}
