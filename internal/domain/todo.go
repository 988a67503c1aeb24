package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TodoType distinguishes one-off todos from recurring daily ones.
type TodoType string

// Possible todo types
const (
	TodoTypeOneTime TodoType = "one-time"
	TodoTypeDaily   TodoType = "daily"
)

// TodoState is a position in the todo lifecycle.
type TodoState string

// Possible todo states
const (
	TodoStatePending   TodoState = "pending"
	TodoStateActive    TodoState = "active"
	TodoStateCompleted TodoState = "completed"
	TodoStateFailed    TodoState = "failed"
)

// MaxTextLength is the maximum number of characters in a todo's text.
const MaxTextLength = 500

// Todo is a unit of work tracked through the lifecycle states.
//
// DueAt is set for one-time todos and nil for daily ones. ActivatedAt,
// CompletedAt and FailedAt are set by the matching transition and nil
// otherwise. A todo spawned by Reactivate carries IsReactivation and the ID
// of the todo it was spawned from in OriginalID.
type Todo struct {
	ID             uuid.UUID     `json:"id"`
	Text           string        `json:"text"`
	Type           TodoType      `json:"type"`
	State          TodoState     `json:"state"`
	DueAt          *time.Time    `json:"due_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	ActivatedAt    *time.Time    `json:"activated_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	FailedAt       *time.Time    `json:"failed_at,omitempty"`
	IsReactivation bool          `json:"is_reactivation"`
	OriginalID     *uuid.UUID    `json:"original_id,omitempty"`
	Notification   *Notification `json:"notification,omitempty"`
}

// NewTodo builds a pending todo. dueAt must already have passed the due-date
// policy; it is required for one-time todos and dropped for daily ones.
// notification is resolved with ResolveNotification.
func NewTodo(
	text string,
	todoType TodoType,
	dueAt *time.Time,
	notification *NotificationInput,
	now time.Time,
) (*Todo, error) {
	if !todoType.IsValid() {
		return nil, NewValidationError("type", "must be one of one-time, daily", ErrValidation)
	}

	todo := &Todo{
		ID:           uuid.New(),
		Text:         strings.TrimSpace(text),
		Type:         todoType,
		State:        TodoStatePending,
		CreatedAt:    now,
		UpdatedAt:    now,
		Notification: ResolveNotification(notification),
	}

	if todoType == TodoTypeOneTime {
		if dueAt == nil {
			return nil, NewValidationError("due_at", "is required for one-time todos", ErrValidation)
		}
		todo.DueAt = timePtr(dueAt.UTC())
	}

	if err := todo.Validate(); err != nil {
		return nil, err
	}
	return todo, nil
}

// Validate checks if the Todo has valid data.
// Returns a *ValidationError for the first invalid field.
func (t *Todo) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if err := ValidateText(t.Text); err != nil {
		return err
	}
	if !t.Type.IsValid() {
		return NewValidationError("type", "must be one of one-time, daily", ErrValidation)
	}
	if !t.State.IsValid() {
		return NewValidationError("state", "is not a known state", ErrValidation)
	}

	switch t.Type {
	case TodoTypeOneTime:
		if t.DueAt == nil {
			return NewValidationError("due_at", "is required for one-time todos", ErrValidation)
		}
	case TodoTypeDaily:
		if t.DueAt != nil {
			return NewValidationError("due_at", "must be empty for daily todos", ErrValidation)
		}
	}

	if t.Notification != nil && !IsValidReminderMinutes(t.Notification.ReminderMinutes) {
		return NewValidationError("notification.reminder_minutes", "is out of range", ErrValidation)
	}
	return nil
}

// ValidateText checks a (trimmed) todo text.
func ValidateText(text string) error {
	if text == "" {
		return NewValidationError("text", "is required", ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return NewValidationError("text", "must be at most 500 characters", ErrValidation)
	}
	return nil
}

// IsValid reports whether t is a known todo type.
func (t TodoType) IsValid() bool {
	switch t {
	case TodoTypeOneTime, TodoTypeDaily:
		return true
	default:
		return false
	}
}

// IsValid reports whether s is a known todo state.
func (s TodoState) IsValid() bool {
	switch s {
	case TodoStatePending, TodoStateActive, TodoStateCompleted, TodoStateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s is completed or failed.
func (s TodoState) IsTerminal() bool {
	return s == TodoStateCompleted || s == TodoStateFailed
}

// IsEditable reports whether plain updates are allowed in state s.
func (s TodoState) IsEditable() bool {
	return s == TodoStatePending || s == TodoStateActive
}

// IsOverdue reports whether t is an active one-time todo whose due date has passed.
func (t *Todo) IsOverdue(now time.Time) bool {
	return t.State == TodoStateActive &&
		t.Type == TodoTypeOneTime &&
		t.DueAt != nil &&
		t.DueAt.Before(now)
}

// Clone returns a deep copy of t.
func (t *Todo) Clone() *Todo {
	if t == nil {
		return nil
	}
	c := *t
	c.DueAt = copyTime(t.DueAt)
	c.ActivatedAt = copyTime(t.ActivatedAt)
	c.CompletedAt = copyTime(t.CompletedAt)
	c.FailedAt = copyTime(t.FailedAt)
	if t.OriginalID != nil {
		id := *t.OriginalID
		c.OriginalID = &id
	}
	c.Notification = t.Notification.Clone()
	return &c
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
