// Package nats implements the msgbus broker on NATS JetStream.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/0m3kk/registrar/eventsrc"
)

const (
	fetchBatchSize = 10
	fetchMaxWait   = 5 * time.Second
)

// Broker publishes and consumes outbox events over JetStream. Each topic
// maps to one stream; subjects within the stream are keyed by aggregate id
// so events for one aggregate stay ordered.
type Broker struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewBroker connects to the given NATS URL and opens a JetStream context.
func NewBroker(url string) (*Broker, error) {
	nc, err := nats.Connect(
		url,
		nats.Timeout(10*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open JetStream context: %w", err)
	}

	return &Broker{conn: nc, js: js}, nil
}

// ensureStream creates the per-topic stream if it does not exist yet.
func (b *Broker) ensureStream(ctx context.Context, topic string) error {
	_, err := b.js.StreamInfo(topic)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info for %s: %w", topic, err)
	}

	slog.InfoContext(ctx, "Creating stream", "stream", topic)
	_, err = b.js.AddStream(&nats.StreamConfig{
		Name:     topic,
		Subjects: []string{topic + ".*"},
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", topic, err)
	}
	return nil
}

// Publish sends one outbox event to the topic's stream, keyed by its
// aggregate id (e.g. subject "students.<uuid>").
func (b *Broker) Publish(ctx context.Context, topic string, evt eventsrc.OutboxEvent) error {
	if err := b.ensureStream(ctx, topic); err != nil {
		return err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal outbox event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", topic, evt.AggregateID)
	if _, err := b.js.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	slog.DebugContext(ctx, "Event published", "subject", subject, "eventID", evt.EventID)
	return nil
}

// Subscribe opens a durable pull consumer named after (topic, subscriberID)
// and pumps fetched events through the handler until ctx is cancelled.
// Durability means a restarted subscriber resumes where it left off.
func (b *Broker) Subscribe(
	ctx context.Context,
	topic, subscriberID string,
	handler func(context.Context, eventsrc.OutboxEvent) error,
) error {
	consumer := fmt.Sprintf("%s-%s", topic, subscriberID)

	sub, err := b.js.PullSubscribe(topic+".*", consumer, nats.PullMaxWaiting(128))
	if err != nil {
		if !errors.Is(err, nats.ErrNoMatchingStream) {
			return fmt.Errorf("pull subscribe %s: %w", consumer, err)
		}
		if err := b.ensureStream(ctx, topic); err != nil {
			return err
		}
		sub, err = b.js.PullSubscribe(topic+".*", consumer, nats.PullMaxWaiting(128))
		if err != nil {
			return fmt.Errorf("pull subscribe %s: %w", consumer, err)
		}
	}

	go b.consume(ctx, sub, topic, subscriberID, handler)
	return nil
}

func (b *Broker) consume(
	ctx context.Context,
	sub *nats.Subscription,
	topic, subscriberID string,
	handler func(context.Context, eventsrc.OutboxEvent) error,
) {
	slog.InfoContext(ctx, "Subscriber started", "topic", topic, "subscriber", subscriberID)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Subscriber stopping", "topic", topic, "subscriber", subscriberID)
			return
		default:
		}

		msgs, err := sub.Fetch(fetchBatchSize, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if !errors.Is(err, nats.ErrTimeout) {
				slog.ErrorContext(ctx, "Fetch failed", "error", err, "topic", topic)
			}
			continue
		}

		for _, msg := range msgs {
			var evt eventsrc.OutboxEvent
			if err := json.Unmarshal(msg.Data, &evt); err != nil {
				slog.ErrorContext(ctx, "Undecodable message, nacking", "error", err, "topic", topic)
				msg.Nak()
				continue
			}

			if err := handler(ctx, evt); err != nil {
				slog.ErrorContext(ctx, "Handler rejected event", "error", err, "eventID", evt.EventID)
				msg.Nak()
				continue
			}
			msg.Ack()
		}
	}
}

// Close shuts down the NATS connection.
func (b *Broker) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}
