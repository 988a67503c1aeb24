package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockJetStream struct {
	mock.Mock
}

func (m *mockJetStream) Publish(
	ctx context.Context,
	subject string,
	payload []byte,
	opts ...jetstream.PublishOpt,
) (*jetstream.PubAck, error) {
	args := m.Called(ctx, subject, payload)
	ack, _ := args.Get(0).(*jetstream.PubAck)
	return ack, args.Error(1)
}

func newTestPublisher(js jsPublisher) *Publisher {
	return &Publisher{js: js, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "todos.created", Subject(events.TodoCreated))
	assert.Equal(t, "todos.reactivated", Subject(events.TodoReactivated))
	assert.Equal(t, "todos.custom", Subject("custom"))
}

func TestPublisher_HandleEvent(t *testing.T) {
	ctx := context.Background()
	event := events.NewDeletedEvent(uuid.New(), time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	js := &mockJetStream{}
	js.On("Publish", ctx, "todos.deleted", mock.MatchedBy(func(data []byte) bool {
		var decoded events.TodoEvent
		return json.Unmarshal(data, &decoded) == nil && decoded.ID == event.ID
	})).Return(&jetstream.PubAck{Stream: "TODOS", Sequence: 1}, nil)

	require.NoError(t, newTestPublisher(js).HandleEvent(ctx, event))
	js.AssertExpectations(t)
}

func TestPublisher_HandleEventError(t *testing.T) {
	ctx := context.Background()
	event := events.NewDeletedEvent(uuid.New(), time.Now())

	js := &mockJetStream{}
	js.On("Publish", ctx, "todos.deleted", mock.Anything).Return(nil, errors.New("no responders"))

	err := newTestPublisher(js).HandleEvent(ctx, event)
	assert.ErrorContains(t, err, "nats publish todos.deleted")
}

func TestPublisher_CloseWithoutConnection(t *testing.T) {
	assert.NoError(t, newTestPublisher(&mockJetStream{}).Close())
}
