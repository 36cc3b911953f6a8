package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/stockroute/api/internal/services"
)

// PubSubShortfallPublisher publishes stock shortfall events to a Pub/Sub topic.
type PubSubShortfallPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubShortfallPublisher constructs a Pub/Sub backed shortfall publisher.
func NewPubSubShortfallPublisher(topic *pubsub.Topic) (*PubSubShortfallPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub shortfall publisher: topic is required")
	}
	return &PubSubShortfallPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishShortfall emits a shortfall message on the configured topic.
func (p *PubSubShortfallPublisher) PublishShortfall(ctx context.Context, message services.PlanShortfallMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub shortfall publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal shortfall message: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "planId", message.PlanID)
	setAttr(attrs, "fulfillment", message.Fulfillment)
	if len(message.Shortfalls) > 0 {
		attrs["shortfallCount"] = strconv.Itoa(len(message.Shortfalls))
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish shortfall: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
