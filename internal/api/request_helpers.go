package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// getPathUUID extracts a UUID from the URL path parameters.
// It parses and validates the UUID, handling common error cases.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// queryState parses the optional state query parameter.
func queryState(r *http.Request) (*domain.TodoState, error) {
	raw := r.URL.Query().Get("state")
	if raw == "" {
		return nil, nil
	}
	state := domain.TodoState(raw)
	if !state.IsValid() {
		return nil, domain.NewValidationError("state", "must be one of pending, active, completed, failed", nil)
	}
	return &state, nil
}

// queryType parses the optional type query parameter.
func queryType(r *http.Request) (*domain.TodoType, error) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		return nil, nil
	}
	todoType := domain.TodoType(raw)
	if !todoType.IsValid() {
		return nil, domain.NewValidationError("type", "must be one of one-time, daily", nil)
	}
	return &todoType, nil
}
