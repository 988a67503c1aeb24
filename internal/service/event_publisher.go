package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
)

// eventPublisher emits lifecycle events after a committed write. Failures
// are logged and never surface to the caller.
type eventPublisher struct {
	emitter events.EventEmitter
	logger  *slog.Logger
}

func (p *eventPublisher) publish(ctx context.Context, eventType string, todo *domain.Todo, now time.Time) {
	event, err := events.NewTodoEvent(eventType, todo, now)
	if err != nil {
		p.logger.Warn("failed to build todo event",
			slog.String("event_type", eventType),
			slog.String("todo_id", todo.ID.String()),
			slog.String("error", err.Error()))
		return
	}
	p.emit(ctx, event)
}

func (p *eventPublisher) emit(ctx context.Context, event *events.TodoEvent) {
	if err := p.emitter.EmitEvent(ctx, event); err != nil {
		p.logger.Warn("failed to emit todo event",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID.String()),
			slog.String("todo_id", event.TodoID.String()),
			slog.String("error", err.Error()))
	}
}
