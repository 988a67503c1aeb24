package api

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/job"
	"github.com/phrazzld/todo-api/internal/service"
)

// NotificationRequest carries reminder settings. Omitting enabled leaves
// the settings unchanged on create, update and reactivate.
type NotificationRequest struct {
	Enabled         *bool `json:"enabled"`
	ReminderMinutes *int  `json:"reminder_minutes"`
}

// CreateTodoRequest defines the payload for POST /todos.
type CreateTodoRequest struct {
	Text         string               `json:"text"         validate:"required"`
	Type         string               `json:"type"         validate:"required,oneof=one-time daily"`
	DueAt        string               `json:"due_at"`
	Notification *NotificationRequest `json:"notification"`
}

// UpdateTodoRequest defines the payload for PATCH /todos/{id}.
type UpdateTodoRequest struct {
	Text         *string              `json:"text"`
	DueAt        *string              `json:"due_at"`
	Notification *NotificationRequest `json:"notification"`
}

// ReactivateTodoRequest defines the payload for POST /todos/{id}/reactivate.
// DueAt is required for one-time todos.
type ReactivateTodoRequest struct {
	DueAt        string               `json:"due_at"`
	Notification *NotificationRequest `json:"notification"`
}

// NotificationSettingsRequest defines the payload for PUT /todos/{id}/notification.
type NotificationSettingsRequest struct {
	Enabled         *bool `json:"enabled"          validate:"required"`
	ReminderMinutes *int  `json:"reminder_minutes"`
}

// NotificationResponse is the reminder part of a TodoResponse.
type NotificationResponse struct {
	Enabled         bool       `json:"enabled"`
	ReminderMinutes int        `json:"reminder_minutes"`
	NotifiedAt      *time.Time `json:"notified_at"`
}

// TodoResponse represents the response data for a todo
type TodoResponse struct {
	ID             string                `json:"id"`
	Text           string                `json:"text"`
	Type           string                `json:"type"`
	State          string                `json:"state"`
	DueAt          *time.Time            `json:"due_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	ActivatedAt    *time.Time            `json:"activated_at,omitempty"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`
	FailedAt       *time.Time            `json:"failed_at,omitempty"`
	IsReactivation bool                  `json:"is_reactivation"`
	OriginalID     string                `json:"original_id,omitempty"`
	Notification   *NotificationResponse `json:"notification,omitempty"`
}

// TodoListResponse wraps a list of todos.
type TodoListResponse struct {
	Todos []TodoResponse `json:"todos"`
	Count int            `json:"count"`
}

// DeleteTodosResponse reports a bulk delete.
type DeleteTodosResponse struct {
	State   string `json:"state"`
	Deleted int    `json:"deleted"`
}

// JobRunResponse reports an on-demand job run.
type JobRunResponse struct {
	Job        string `json:"job"`
	Processed  int    `json:"processed"`
	DurationMS int64  `json:"duration_ms"`
}

func (n *NotificationRequest) toInput() *domain.NotificationInput {
	if n == nil {
		return nil
	}
	return &domain.NotificationInput{Enabled: n.Enabled, ReminderMinutes: n.ReminderMinutes}
}

func (req CreateTodoRequest) toInput() service.CreateTodoInput {
	return service.CreateTodoInput{
		Text:         req.Text,
		Type:         domain.TodoType(req.Type),
		DueAt:        req.DueAt,
		Notification: req.Notification.toInput(),
	}
}

func (req UpdateTodoRequest) toInput() service.UpdateTodoInput {
	return service.UpdateTodoInput{
		Text:         req.Text,
		DueAt:        req.DueAt,
		Notification: req.Notification.toInput(),
	}
}

func (req ReactivateTodoRequest) toInput() service.ReactivateTodoInput {
	return service.ReactivateTodoInput{
		DueAt:        req.DueAt,
		Notification: req.Notification.toInput(),
	}
}

// todoToResponse converts a domain.Todo to a TodoResponse
func todoToResponse(todo *domain.Todo) TodoResponse {
	resp := TodoResponse{
		ID:             todo.ID.String(),
		Text:           todo.Text,
		Type:           string(todo.Type),
		State:          string(todo.State),
		DueAt:          todo.DueAt,
		CreatedAt:      todo.CreatedAt,
		UpdatedAt:      todo.UpdatedAt,
		ActivatedAt:    todo.ActivatedAt,
		CompletedAt:    todo.CompletedAt,
		FailedAt:       todo.FailedAt,
		IsReactivation: todo.IsReactivation,
	}
	if todo.OriginalID != nil {
		resp.OriginalID = todo.OriginalID.String()
	}
	if n := todo.Notification; n != nil {
		resp.Notification = &NotificationResponse{
			Enabled:         n.Enabled,
			ReminderMinutes: n.ReminderMinutes,
			NotifiedAt:      n.NotifiedAt,
		}
	}
	return resp
}

func todosToResponse(todos []*domain.Todo) TodoListResponse {
	out := make([]TodoResponse, 0, len(todos))
	for _, todo := range todos {
		out = append(out, todoToResponse(todo))
	}
	return TodoListResponse{Todos: out, Count: len(out)}
}

func jobResultToResponse(result job.Result) JobRunResponse {
	return JobRunResponse{
		Job:        result.Job,
		Processed:  result.Processed,
		DurationMS: result.Duration.Milliseconds(),
	}
}

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
