// Package events fans ledger events out to listeners and retains a bounded
// ring of recent history.
package events

import (
	"sync"

	"github.com/theirongolddev/deptfund/internal/ledger"
)

const defaultBuffer = 200

// Bus implements ledger.Sink. Subscribers receive events over buffered
// channels; a slow subscriber drops events rather than blocking the ledger.
type Bus struct {
	mu        sync.Mutex
	buffer    int
	recent    []ledger.Event
	nextSubID int
	subs      map[int]chan ledger.Event
}

// NewBus returns a bus retaining up to buffer recent events.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Bus{
		buffer: buffer,
		subs:   make(map[int]chan ledger.Event),
	}
}

// Publish implements ledger.Sink.
func (b *Bus) Publish(ev ledger.Event) {
	b.mu.Lock()
	b.recent = append(b.recent, ev)
	if len(b.recent) > b.buffer {
		b.recent = b.recent[len(b.recent)-b.buffer:]
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()
}

// Recent returns a copy of the retained event history, oldest first.
func (b *Bus) Recent() []ledger.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ledger.Event, len(b.recent))
	copy(out, b.recent)
	return out
}

// Subscribe registers a listener channel and returns its id for Unsubscribe.
func (b *Bus) Subscribe(ch chan ledger.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSubID++
	id := b.nextSubID
	b.subs[id] = ch
	return id
}

// Unsubscribe removes a listener registered with Subscribe.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// SubscriberCount returns the number of registered listeners.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Collector gathers events so a one-shot transaction can journal them
// atomically with the state save.
type Collector struct {
	mu     sync.Mutex
	events []ledger.Event
}

// Publish implements ledger.Sink.
func (c *Collector) Publish(ev ledger.Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

// Drain returns the collected events and resets the collector.
func (c *Collector) Drain() []ledger.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.events
	c.events = nil
	return out
}
