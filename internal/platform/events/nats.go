package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBridge shares session events between replicas on one subject.
type NATSBridge struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	broker  *Broker
	onError func(error)
}

// NATSOption customises the bridge.
type NATSOption func(*NATSBridge)

// WithErrorHandler receives decode failures of inbound messages.
func WithErrorHandler(fn func(error)) NATSOption {
	return func(b *NATSBridge) {
		if fn != nil {
			b.onError = fn
		}
	}
}

// ConnectNATS dials url with automatic reconnection, subscribes to subject
// and attaches itself to broker.
func ConnectNATS(url, subject string, broker *Broker, opts ...NATSOption) (*NATSBridge, error) {
	if broker == nil {
		return nil, errors.New("events: broker is required")
	}
	if subject == "" {
		return nil, errors.New("events: nats subject is required")
	}
	nc, err := nats.Connect(url,
		nats.Name("site-"+broker.Origin()),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	bridge := &NATSBridge{conn: nc, subject: subject, broker: broker, onError: func(error) {}}
	for _, opt := range opts {
		opt(bridge)
	}

	sub, err := nc.Subscribe(subject, bridge.receive)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		nc.Close()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}
	bridge.sub = sub
	broker.Attach(bridge)
	return bridge, nil
}

func (b *NATSBridge) receive(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		b.onError(fmt.Errorf("events: decode %s: %w", msg.Subject, err))
		return
	}
	// Our own publications were already delivered locally.
	if event.Origin == b.broker.Origin() {
		return
	}
	b.broker.Deliver(event)
}

// Forward publishes event as JSON.
func (b *NATSBridge) Forward(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return b.conn.Publish(b.subject, data)
}

// Ping reports whether the connection is currently usable.
func (b *NATSBridge) Ping(context.Context) error {
	if b == nil || b.conn == nil {
		return errors.New("events: nats bridge not connected")
	}
	if !b.conn.IsConnected() {
		return fmt.Errorf("events: nats status %s", b.conn.Status())
	}
	return nil
}

// Close unsubscribes and drains the connection.
func (b *NATSBridge) Close() error {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.conn.Close()
	return nil
}
