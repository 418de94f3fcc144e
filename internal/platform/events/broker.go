// Package events fans session changes out to the dashboard streams that
// are watching them, optionally across replicas through NATS.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types.
const (
	TypeSessionStarted = "session.started"
	TypeSessionEnded   = "session.ended"
)

// Event describes one change to a dashboard session.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
	// Origin identifies the broker that first published the event.
	Origin string `json:"origin,omitempty"`
}

// Bridge forwards locally published events to other processes.
type Bridge interface {
	Forward(ctx context.Context, event Event) error
	Close() error
}

const subscriberBuffer = 16

type subscriber struct {
	userID string
	ch     chan Event
}

// Broker delivers events to in-process subscribers. Slow subscribers lose
// events rather than block publishers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
	bridge Bridge
	origin string
	now    func() time.Time
	closed bool
}

// BrokerOption customises a broker.
type BrokerOption func(*Broker)

// WithOrigin names this broker instance on bridged events.
func WithOrigin(origin string) BrokerOption {
	return func(b *Broker) {
		if origin != "" {
			b.origin = origin
		}
	}
}

// WithBrokerClock overrides the clock used to stamp events.
func WithBrokerClock(now func() time.Time) BrokerOption {
	return func(b *Broker) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBroker returns an empty broker.
func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		subs:   make(map[uint64]*subscriber),
		origin: "local",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Origin reports the identifier stamped on events published here.
func (b *Broker) Origin() string { return b.origin }

// Attach sets the bridge used to forward published events.
func (b *Broker) Attach(bridge Bridge) {
	b.mu.Lock()
	b.bridge = bridge
	b.mu.Unlock()
}

// Subscribe registers interest in events for userID, or every user when
// userID is empty. The returned cancel func closes the channel and is safe
// to call more than once.
func (b *Broker) Subscribe(userID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{userID: userID, ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
}

// Publish delivers event locally and forwards it over the bridge, if any.
func (b *Broker) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = b.now()
	}
	if event.Origin == "" {
		event.Origin = b.origin
	}
	b.Deliver(event)

	b.mu.RLock()
	bridge := b.bridge
	b.mu.RUnlock()
	if bridge == nil {
		return nil
	}
	return bridge.Forward(ctx, event)
}

// Deliver hands event to matching local subscribers without forwarding it.
func (b *Broker) Deliver(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.userID != "" && sub.userID != event.UserID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription and closes the bridge.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
	bridge := b.bridge
	b.bridge = nil
	b.mu.Unlock()

	if bridge != nil {
		return bridge.Close()
	}
	return nil
}
