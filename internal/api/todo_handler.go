package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service"
)

// TodoHandler handles todo-related HTTP requests
type TodoHandler struct {
	todos     service.TodoService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTodoHandler creates a new TodoHandler
func NewTodoHandler(todos service.TodoService, logger *slog.Logger) *TodoHandler {
	if todos == nil {
		panic("todos cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoHandler{
		todos:     todos,
		validator: newValidator(),
		logger:    logger.With("component", "todo_handler"),
	}
}

// Routes mounts the todo endpoints on r.
func (h *TodoHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateTodo)
	r.Get("/", h.ListTodos)
	r.Delete("/", h.DeleteTodosByState)
	r.Get("/reminders", h.ListDueReminders)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetTodo)
		r.Patch("/", h.UpdateTodo)
		r.Delete("/", h.DeleteTodo)
		r.Post("/activate", h.ActivateTodo)
		r.Post("/complete", h.CompleteTodo)
		r.Post("/fail", h.FailTodo)
		r.Post("/reactivate", h.ReactivateTodo)
		r.Put("/notification", h.UpdateNotificationSettings)
		r.Post("/notified", h.MarkNotified)
	})
}

// CreateTodo handles POST /todos requests
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if !h.decode(w, r, &req) {
		return
	}

	todo, err := h.todos.CreateTodo(r.Context(), req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create todo")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, todoToResponse(todo))
}

// ListTodos handles GET /todos requests, optionally filtered by state and type.
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	state, err := queryState(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	todoType, err := queryType(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	todos, err := h.todos.ListTodos(r.Context(), service.ListTodosFilter{State: state, Type: todoType})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list todos")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, todosToResponse(todos))
}

// GetTodo handles GET /todos/{id} requests
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	todo, err := h.todos.GetTodo(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get todo")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, todoToResponse(todo))
}

// UpdateTodo handles PATCH /todos/{id} requests
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateTodoRequest
	if !h.decode(w, r, &req) {
		return
	}

	todo, err := h.todos.UpdateTodo(r.Context(), id, req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update todo")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, todoToResponse(todo))
}

// DeleteTodo handles DELETE /todos/{id} requests
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.todos.DeleteTodo(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete todo")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteTodosByState handles DELETE /todos?state= requests. The state
// parameter is required so a bare DELETE cannot wipe every todo.
func (h *TodoHandler) DeleteTodosByState(w http.ResponseWriter, r *http.Request) {
	state, err := queryState(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if state == nil {
		HandleAPIError(w, r, domain.NewValidationError("state", "is required", nil), "")
		return
	}

	n, err := h.todos.DeleteTodosByState(r.Context(), *state)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete todos")
		return
	}

	h.log(r).Info("bulk delete", slog.String("state", string(*state)), slog.Int("deleted", n))
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteTodosResponse{State: string(*state), Deleted: n})
}

// ActivateTodo handles POST /todos/{id}/activate requests
func (h *TodoHandler) ActivateTodo(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.todos.ActivateTodo, "Failed to activate todo")
}

// CompleteTodo handles POST /todos/{id}/complete requests
func (h *TodoHandler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.todos.CompleteTodo, "Failed to complete todo")
}

// FailTodo handles POST /todos/{id}/fail requests
func (h *TodoHandler) FailTodo(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.todos.FailTodo, "Failed to fail todo")
}

// MarkNotified handles POST /todos/{id}/notified requests
func (h *TodoHandler) MarkNotified(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.todos.MarkNotified, "Failed to mark todo notified")
}

// ReactivateTodo handles POST /todos/{id}/reactivate requests. The new todo
// is returned with 201 Created.
func (h *TodoHandler) ReactivateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req ReactivateTodoRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	todo, err := h.todos.ReactivateTodo(r.Context(), id, req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reactivate todo")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, todoToResponse(todo))
}

// UpdateNotificationSettings handles PUT /todos/{id}/notification requests
func (h *TodoHandler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req NotificationSettingsRequest
	if !h.decode(w, r, &req) {
		return
	}

	todo, err := h.todos.UpdateNotificationSettings(r.Context(), id, domain.NotificationInput{
		Enabled:         req.Enabled,
		ReminderMinutes: req.ReminderMinutes,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update notification settings")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, todoToResponse(todo))
}

// ListDueReminders handles GET /todos/reminders requests
func (h *TodoHandler) ListDueReminders(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.ListDueReminders(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reminders")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, todosToResponse(todos))
}

type transitionFunc func(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

// transition handles the body-less single-todo operations.
func (h *TodoHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc, failMsg string) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	todo, err := fn(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, failMsg)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, todoToResponse(todo))
}

func (h *TodoHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		h.log(r).Debug("invalid todo id", slog.String("value", chi.URLParam(r, "id")))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, false
	}
	return id, true
}

// decode reads and validates a required JSON body, writing a 400 on failure.
func (h *TodoHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			HandleAPIError(w, r, err, "")
			return false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// decodeOptional is decode for endpoints whose body may be omitted.
func (h *TodoHandler) decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := shared.DecodeJSON(r, dst); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	return true
}

func (h *TodoHandler) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}
