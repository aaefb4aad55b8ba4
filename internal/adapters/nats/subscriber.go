package natsadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStream(js); err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeTripEvents delivers every trip event to handler under a durable
// consumer. Messages are acked only when handler succeeds and are
// redelivered at most three times. A handler error wrapping
// domain.ErrUnprocessableEvent terminates the message instead.
func (s *Subscriber) SubscribeTripEvents(ctx context.Context, durable string, handler func(ctx context.Context, event *domain.TripEvent) error) error {
	sub, err := s.js.Subscribe("trips.>", func(msg *nats.Msg) {
		var ev domain.TripEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			// Poison message, redelivery will not help.
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &ev); err != nil {
			if errors.Is(err, domain.ErrUnprocessableEvent) {
				slog.Warn("dropping trip event", "subject", msg.Subject, "error", err)
				_ = msg.Term()
				return
			}
			slog.Warn("trip event handler failed, will redeliver", "subject", msg.Subject, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
