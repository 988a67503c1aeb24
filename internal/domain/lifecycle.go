package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operation names a lifecycle operation.
type Operation string

// Lifecycle operations
const (
	OpActivate   Operation = "activate"
	OpComplete   Operation = "complete"
	OpFail       Operation = "fail"
	OpReactivate Operation = "reactivate"
	OpUpdate     Operation = "update"
)

// transitions lists every legal edge. Update is not a state change but is
// only allowed from the states where it maps to itself.
var transitions = map[Operation]map[TodoState]TodoState{
	OpActivate: {
		TodoStatePending: TodoStateActive,
	},
	OpComplete: {
		TodoStateActive: TodoStateCompleted,
	},
	OpFail: {
		TodoStateActive: TodoStateFailed,
	},
	OpReactivate: {
		TodoStateCompleted: TodoStateActive,
		TodoStateFailed:    TodoStateActive,
	},
	OpUpdate: {
		TodoStatePending: TodoStatePending,
		TodoStateActive:  TodoStateActive,
	},
}

// NextState returns the state reached by applying op in state from.
// Returns a *TransitionError when there is no such edge.
func NextState(from TodoState, op Operation) (TodoState, error) {
	to, ok := transitions[op][from]
	if !ok {
		return "", &TransitionError{Operation: op, From: from}
	}
	return to, nil
}

// CanTransition reports whether op is legal in state from.
func CanTransition(from TodoState, op Operation) bool {
	_, err := NextState(from, op)
	return err == nil
}

// Activate moves a pending todo to active.
func Activate(t *Todo, now time.Time) (*Todo, error) {
	next, err := transition(t, OpActivate, now)
	if err != nil {
		return nil, err
	}
	next.ActivatedAt = timePtr(now)
	return next, nil
}

// Complete moves an active todo to completed.
func Complete(t *Todo, now time.Time) (*Todo, error) {
	next, err := transition(t, OpComplete, now)
	if err != nil {
		return nil, err
	}
	next.CompletedAt = timePtr(now)
	return next, nil
}

// Fail moves an active todo to failed.
func Fail(t *Todo, now time.Time) (*Todo, error) {
	next, err := transition(t, OpFail, now)
	if err != nil {
		return nil, err
	}
	next.FailedAt = timePtr(now)
	return next, nil
}

// Reactivate spawns a new active todo from a completed or failed one. The
// source is left untouched. dueAt must already have passed the due-date
// policy; it is required for one-time todos and ignored for daily ones.
func Reactivate(source *Todo, dueAt *time.Time, notification *NotificationInput, now time.Time) (*Todo, error) {
	if _, err := NextState(source.State, OpReactivate); err != nil {
		return nil, err
	}

	originalID := source.ID
	todo := &Todo{
		ID:             uuid.New(),
		Text:           source.Text,
		Type:           source.Type,
		State:          TodoStateActive,
		CreatedAt:      now,
		UpdatedAt:      now,
		ActivatedAt:    timePtr(now),
		IsReactivation: true,
		OriginalID:     &originalID,
		Notification:   CarryOverNotification(source.Notification, notification),
	}

	if source.Type == TodoTypeOneTime {
		if dueAt == nil {
			return nil, NewValidationError("due_at", "is required to reactivate a one-time todo", ErrValidation)
		}
		todo.DueAt = timePtr(dueAt.UTC())
	}

	if err := todo.Validate(); err != nil {
		return nil, err
	}
	return todo, nil
}

// TodoPatch is a partial update. A nil field means "no change".
type TodoPatch struct {
	Text         *string
	DueAt        *time.Time
	Notification *NotificationInput
}

// ApplyUpdate edits text, due date and notification settings of a pending
// or active todo. A due date on a daily todo is ignored. Moving the due date
// clears the reminder delivery marker so the reminder fires again.
func ApplyUpdate(t *Todo, patch TodoPatch, now time.Time) (*Todo, error) {
	next, err := transition(t, OpUpdate, now)
	if err != nil {
		return nil, err
	}

	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if err := ValidateText(text); err != nil {
			return nil, err
		}
		next.Text = text
	}

	next.Notification = MergeNotification(t.Notification, patch.Notification)

	if patch.DueAt != nil && next.Type == TodoTypeOneTime {
		dueAt := patch.DueAt.UTC()
		if next.DueAt == nil || !next.DueAt.Equal(dueAt) {
			next.DueAt = &dueAt
			if next.Notification != nil {
				next.Notification.NotifiedAt = nil
			}
		}
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// MarkNotified records reminder delivery. A todo already marked keeps its
// original timestamp.
func MarkNotified(t *Todo, now time.Time) (*Todo, error) {
	if t.Notification == nil {
		return nil, NewValidationError("notification", "is not configured", ErrValidation)
	}
	next := t.Clone()
	if next.Notification.NotifiedAt == nil {
		next.Notification.NotifiedAt = timePtr(now)
		next.UpdatedAt = now
	}
	return next, nil
}

// DisableNotification turns off reminders, returning nil when there is
// nothing to change.
func DisableNotification(t *Todo, now time.Time) *Todo {
	if t.Notification == nil || !t.Notification.Enabled {
		return nil
	}
	next := t.Clone()
	next.Notification.Enabled = false
	next.UpdatedAt = now
	return next
}

// NewDailyInstance spawns today's active instance of a daily todo. The
// template's reminder settings are carried over with the delivery marker reset.
func NewDailyInstance(template *Todo, now time.Time) (*Todo, error) {
	if template.Type != TodoTypeDaily {
		return nil, NewValidationError("type", "daily instances require a daily template", ErrValidation)
	}
	todo := &Todo{
		ID:           uuid.New(),
		Text:         template.Text,
		Type:         TodoTypeDaily,
		State:        TodoStateActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		ActivatedAt:  timePtr(now),
		Notification: CarryOverNotification(template.Notification, nil),
	}
	if err := todo.Validate(); err != nil {
		return nil, err
	}
	return todo, nil
}

// transition checks op against the state machine and returns a detached
// copy already moved to the target state.
func transition(t *Todo, op Operation, now time.Time) (*Todo, error) {
	to, err := NextState(t.State, op)
	if err != nil {
		return nil, err
	}
	next := t.Clone()
	next.State = to
	next.UpdatedAt = now
	return next, nil
}
