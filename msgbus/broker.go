// Package msgbus defines the broker contract between the outbox relay and
// projection subscribers.
package msgbus

import (
	"context"

	"github.com/0m3kk/registrar/eventsrc"
)

// Broker moves outbox events between the relay (publish side) and
// projection subscribers (consume side).
type Broker interface {
	// Publish delivers one event to a topic.
	Publish(ctx context.Context, topic string, evt eventsrc.OutboxEvent) error
	// Subscribe registers a durable handler for a topic. Handler errors
	// signal the broker to redeliver.
	Subscribe(
		ctx context.Context,
		topic, subscriberID string,
		handler func(ctx context.Context, evt eventsrc.OutboxEvent) error,
	) error
	// Close releases the broker connection.
	Close()
}
