// Package jobs hands submitted contact messages to asynchronous consumers.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
)

// EventContactSubmitted is the type attribute on every published message.
const EventContactSubmitted = "contact.submitted"

// ContactSubmitted is the JSON payload of a contact.submitted message.
type ContactSubmitted struct {
	Type        string    `json:"type"`
	MessageID   string    `json:"message_id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// PubSubContactPublisher publishes contact submissions to a Pub/Sub topic.
type PubSubContactPublisher struct {
	topic   *pubsub.Topic
	client  *pubsub.Client
	marshal func(any) ([]byte, error)
}

// NewPubSubContactPublisher wraps an existing topic.
func NewPubSubContactPublisher(topic *pubsub.Topic) (*PubSubContactPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub contact publisher: topic is required")
	}
	return &PubSubContactPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// DialPubSubContactPublisher creates a client for projectID and binds topicID.
// Close releases the client.
func DialPubSubContactPublisher(ctx context.Context, projectID, topicID string, opts ...option.ClientOption) (*PubSubContactPublisher, error) {
	projectID = strings.TrimSpace(projectID)
	topicID = strings.TrimSpace(topicID)
	if projectID == "" || topicID == "" {
		return nil, errors.New("pubsub contact publisher: project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub contact publisher: create client: %w", err)
	}
	publisher, err := NewPubSubContactPublisher(client.Topic(topicID))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	publisher.client = client
	return publisher, nil
}

// PublishContactSubmitted enqueues msg and waits for the server id.
func (p *PubSubContactPublisher) PublishContactSubmitted(ctx context.Context, msg domain.ContactMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub contact publisher: not initialised")
	}

	payload := ContactSubmitted{
		Type:        EventContactSubmitted,
		MessageID:   msg.ID,
		Name:        msg.Name,
		Phone:       msg.Phone,
		Email:       msg.Email,
		Message:     msg.Message,
		SubmittedAt: msg.CreatedAt,
	}
	data, err := p.marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal contact submission: %w", err)
	}

	attrs := map[string]string{"type": EventContactSubmitted}
	setAttr(attrs, "messageId", msg.ID)
	setAttr(attrs, "hasEmail", boolAttr(msg.Email))
	setAttr(attrs, "hasPhone", boolAttr(msg.Phone))

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish contact submission: %w", err)
	}
	return id, nil
}

// Close flushes the topic and closes the client when the publisher owns it.
func (p *PubSubContactPublisher) Close() error {
	if p == nil || p.topic == nil {
		return nil
	}
	p.topic.Stop()
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func boolAttr(value string) string {
	if strings.TrimSpace(value) == "" {
		return "false"
	}
	return "true"
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
