package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// Todo lifecycle event types
const (
	TodoCreated     = "todo.created"
	TodoActivated   = "todo.activated"
	TodoCompleted   = "todo.completed"
	TodoFailed      = "todo.failed"
	TodoReactivated = "todo.reactivated"
	TodoUpdated     = "todo.updated"
	TodoDeleted     = "todo.deleted"
)

// TodoEvent records a lifecycle change of a single todo.
type TodoEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Todo* event type constants
	Type string `json:"type"`

	// TodoID identifies the todo the event is about
	TodoID uuid.UUID `json:"todo_id"`

	// Payload is the JSON snapshot of the todo after the change. It is empty
	// for deletions.
	Payload json.RawMessage `json:"payload,omitempty"`

	// OccurredAt is when the change was committed
	OccurredAt time.Time `json:"occurred_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TodoEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTodoEvent builds an event carrying a snapshot of todo.
func NewTodoEvent(eventType string, todo *domain.Todo, occurredAt time.Time) (*TodoEvent, error) {
	payload, err := json.Marshal(todo)
	if err != nil {
		return nil, err
	}

	return &TodoEvent{
		ID:         uuid.New(),
		Type:       eventType,
		TodoID:     todo.ID,
		Payload:    payload,
		OccurredAt: occurredAt,
	}, nil
}

// NewDeletedEvent builds a todo.deleted event.
func NewDeletedEvent(todoID uuid.UUID, occurredAt time.Time) *TodoEvent {
	return &TodoEvent{
		ID:         uuid.New(),
		Type:       TodoDeleted,
		TodoID:     todoID,
		OccurredAt: occurredAt,
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TodoEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TodoEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TodoEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TodoEvent) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *TodoEvent) error { return nil }
