package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies which ledger operation produced an event.
type EventType string

const (
	EventAllocated EventType = "allocated"
	EventRequested EventType = "requested"
	EventReleased  EventType = "released"
)

// Event records one successful ledger mutation for external listeners.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Department Identity  `json:"department"`
	Amount     int64     `json:"amount"`
	At         time.Time `json:"at"`
}

// Sink receives events after each successful mutation. Publish is called
// outside the ledger's critical section, so a sink may query the ledger but
// must not mutate it.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

func newEvent(typ EventType, dept Identity, amount int64, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Department: dept,
		Amount:     amount,
		At:         at,
	}
}
