package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBrokerDeliversToMatchingUser(t *testing.T) {
	b := NewBroker()
	mine, cancelMine := b.Subscribe("u1")
	defer cancelMine()
	other, cancelOther := b.Subscribe("u2")
	defer cancelOther()
	all, cancelAll := b.Subscribe("")
	defer cancelAll()

	if err := b.Publish(context.Background(), Event{Type: TypeSessionEnded, UserID: "u1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case ev := <-mine:
		if ev.Type != TypeSessionEnded || ev.At.IsZero() || ev.Origin != "local" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatalf("expected event for u1")
	}
	select {
	case <-all:
	default:
		t.Fatalf("expected wildcard subscriber to receive event")
	}
	select {
	case ev := <-other:
		t.Fatalf("u2 should not receive %+v", ev)
	default:
	}
}

func TestBrokerCancelClosesChannel(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("u1")
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if b.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", b.Subscribers())
	}
}

func TestBrokerDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("u1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Deliver(Event{Type: TypeSessionEnded, UserID: "u1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publisher blocked on a full subscriber")
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("expected buffer to be full, got %d", len(ch))
	}
}

type recordingBridge struct {
	forwarded []Event
	err       error
	closed    bool
}

func (r *recordingBridge) Forward(_ context.Context, e Event) error {
	r.forwarded = append(r.forwarded, e)
	return r.err
}

func (r *recordingBridge) Close() error {
	r.closed = true
	return nil
}

func TestBrokerForwardsToBridgeAfterLocalDelivery(t *testing.T) {
	b := NewBroker(WithOrigin("replica-a"))
	bridge := &recordingBridge{err: errors.New("nats down")}
	b.Attach(bridge)

	ch, cancel := b.Subscribe("u1")
	defer cancel()

	err := b.Publish(context.Background(), Event{Type: TypeSessionEnded, UserID: "u1"})
	if err == nil {
		t.Fatalf("expected bridge error to surface")
	}
	if len(ch) != 1 {
		t.Fatalf("local delivery must not depend on the bridge")
	}
	if len(bridge.forwarded) != 1 || bridge.forwarded[0].Origin != "replica-a" {
		t.Fatalf("unexpected forwarded events %+v", bridge.forwarded)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !bridge.closed {
		t.Fatalf("expected bridge to be closed")
	}
	if e, ok := <-ch; !ok || e.Type != TypeSessionEnded {
		t.Fatalf("expected the buffered event before close, got %+v ok=%v", e, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected subscriptions closed")
	}
}
