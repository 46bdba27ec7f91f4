package events

import (
	"testing"

	"github.com/theirongolddev/deptfund/internal/ledger"
)

func TestBusRetainsBoundedHistory(t *testing.T) {
	b := NewBus(2)

	b.Publish(ledger.Event{ID: "1"})
	b.Publish(ledger.Event{ID: "2"})
	b.Publish(ledger.Event{ID: "3"})

	recent := b.Recent()
	if len(recent) != 2 {
		t.Fatalf("retained %d events, want 2", len(recent))
	}
	if recent[0].ID != "2" || recent[1].ID != "3" {
		t.Fatalf("retained wrong events: %v", recent)
	}
}

func TestBusFanOut(t *testing.T) {
	b := NewBus(10)

	ch := make(chan ledger.Event, 4)
	id := b.Subscribe(ch)
	if got := b.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}

	b.Publish(ledger.Event{ID: "a", Type: ledger.EventAllocated})

	select {
	case ev := <-ch:
		if ev.ID != "a" {
			t.Fatalf("received event %s, want a", ev.ID)
		}
	default:
		t.Fatal("subscriber did not receive the event")
	}

	b.Unsubscribe(id)
	if got := b.SubscriberCount(); got != 0 {
		t.Fatalf("SubscriberCount = %d after unsubscribe, want 0", got)
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	b := NewBus(10)

	ch := make(chan ledger.Event, 1)
	b.Subscribe(ch)

	b.Publish(ledger.Event{ID: "1"})
	b.Publish(ledger.Event{ID: "2"}) // dropped, channel full

	if got := len(ch); got != 1 {
		t.Fatalf("channel holds %d events, want 1", got)
	}
	if got := len(b.Recent()); got != 2 {
		t.Fatalf("history holds %d events, want 2", got)
	}
}

func TestCollectorDrain(t *testing.T) {
	var c Collector

	c.Publish(ledger.Event{ID: "1"})
	c.Publish(ledger.Event{ID: "2"})

	got := c.Drain()
	if len(got) != 2 {
		t.Fatalf("Drain returned %d events, want 2", len(got))
	}
	if len(c.Drain()) != 0 {
		t.Fatal("second Drain should return nothing")
	}
}
