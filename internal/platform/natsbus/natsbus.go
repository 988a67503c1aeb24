// Package natsbus publishes todo lifecycle events to NATS JetStream.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/phrazzld/todo-api/internal/events"
)

// SubjectPrefix is prepended to every event subject, e.g. todos.created.
const SubjectPrefix = "todos"

// jsPublisher is the subset of jetstream.JetStream used by Publisher.
type jsPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher forwards events to JetStream. It implements events.EventHandler.
type Publisher struct {
	nc     *nats.Conn
	js     jsPublisher
	logger *slog.Logger
}

// Ensure Publisher implements events.EventHandler interface
var _ events.EventHandler = (*Publisher)(nil)

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url, stream string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(url, nats.Name("todo-api"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: []string{SubjectPrefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	logger.Info("nats connected", "url", url, "stream", stream)
	return &Publisher{nc: nc, js: js, logger: logger.With("component", "natsbus")}, nil
}

// Subject maps an event type to its JetStream subject.
func Subject(eventType string) string {
	return SubjectPrefix + "." + strings.TrimPrefix(eventType, "todo.")
}

// HandleEvent publishes event as JSON. The event ID is used as the message
// ID so JetStream drops redelivered duplicates.
func (p *Publisher) HandleEvent(ctx context.Context, event *events.TodoEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	subject := Subject(event.Type)
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID.String())); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}

	p.logger.Debug("event published", "subject", subject, "event_id", event.ID)
	return nil
}

// Close drains and shuts down the NATS connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
