package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// StreamName is the JetStream stream carrying trip events.
const StreamName = "TRIP_EVENTS"

// Subject returns the subject a trip event is published on:
// trips.<kind suffix>.<user id>, e.g. trips.saved.42.
func Subject(ev *domain.TripEvent) string {
	return fmt.Sprintf("trips.%s.%s", kindSuffix(ev.Kind), ev.UserID)
}

// UserSubject matches every trip event of one user.
func UserSubject(userID string) string {
	return "trips.*." + userID
}

func kindSuffix(kind string) string {
	switch kind {
	case domain.EventTripPlanned:
		return "planned"
	case domain.EventTripSaved:
		return "saved"
	}
	return "other"
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
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
	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"trips.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishTripEvent publishes ev on its per-user subject.
func (p *Publisher) PublishTripEvent(ctx context.Context, ev *domain.TripEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(Subject(ev), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for core subscriptions.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
