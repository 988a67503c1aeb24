package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/job"
	"github.com/phrazzld/todo-api/internal/service"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrTodoNotFound),
		errors.Is(err, job.ErrUnknownJob):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, domain.ErrDuplicateActiveTodo),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, job.ErrJobRunning):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidDueDate),
		errors.Is(err, domain.ErrDueDateTooSoon),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. Domain errors describe the caller's input and
// are returned as they are; everything else gets a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var (
		validationErr *domain.ValidationError
		transitionErr *domain.TransitionError
		duplicateErr  *domain.DuplicateError
		dueDateErr    *domain.DueDateError
	)

	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		return "Todo not found"
	case errors.Is(err, job.ErrUnknownJob):
		return "Job not found"
	case errors.Is(err, job.ErrJobRunning):
		return "Job is already running"
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &transitionErr):
		return transitionErr.Error()
	case errors.As(err, &duplicateErr):
		return duplicateErr.Error()
	case errors.Is(err, domain.ErrDuplicateActiveTodo):
		return domain.ErrDuplicateActiveTodo.Error()
	case errors.As(err, &dueDateErr):
		return dueDateErr.Error()
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a request validation failure into a
// message naming the first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err, logging the
// redacted details. defaultMsg replaces the generic message of 5xx responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status >= http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
