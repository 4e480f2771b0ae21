package store

import (
	"testing"
	"time"
)

func TestHubSubscribePublish(t *testing.T) {
	h := NewHub()

	ch, cancel := h.Subscribe("user-1")
	defer cancel()

	h.Publish("user-1", Event{Collection: CollectionAccounts, Op: OpAdded, ID: "acc-1"})

	select {
	case ev := <-ch:
		if ev.Collection != CollectionAccounts || ev.Op != OpAdded || ev.ID != "acc-1" {
			t.Fatalf("got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestHubIsolatesUsers(t *testing.T) {
	h := NewHub()

	ch, cancel := h.Subscribe("user-1")
	defer cancel()

	h.Publish("user-2", Event{Collection: CollectionBudgets, Op: OpAdded, ID: "b-1"})

	select {
	case ev := <-ch:
		t.Fatalf("received another user's event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	h := NewHub()

	_, cancel := h.Subscribe("user-1")
	cancel()
	cancel() // idempotent

	if n := h.Subscribers("user-1"); n != 0 {
		t.Fatalf("expected 0 subscribers after cancel, got %d", n)
	}

	// Publishing to a cancelled subscriber must not panic or block.
	h.Publish("user-1", Event{Collection: CollectionAccounts, Op: OpRemoved, ID: "acc-1"})
}

func TestHubDropsWhenSubscriberStalls(t *testing.T) {
	h := NewHub()

	ch, cancel := h.Subscribe("user-1")
	defer cancel()

	// Nobody reads; the publisher must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish("user-1", Event{Collection: CollectionTransactions, Op: OpAdded, ID: "t"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a stalled subscriber")
	}

	if len(ch) != subscriberBuffer {
		t.Fatalf("expected buffer full at %d, got %d", subscriberBuffer, len(ch))
	}
}
