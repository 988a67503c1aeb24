package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTodoFilterMatches(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	activated := now.Add(-2 * time.Hour)
	todo := &domain.Todo{
		ID:           uuid.New(),
		Text:         "Pay rent",
		Type:         domain.TodoTypeOneTime,
		State:        domain.TodoStateActive,
		DueAt:        &due,
		ActivatedAt:  &activated,
		Notification: &domain.Notification{Enabled: true, ReminderMinutes: 15},
	}

	text := "Pay rent"
	otherText := "Pay bills"
	oneTime := domain.TodoTypeOneTime
	daily := domain.TodoTypeDaily
	enabled := true
	disabled := false
	later := now.Add(time.Hour)
	earlier := now.Add(-3 * time.Hour)

	tests := []struct {
		name   string
		filter TodoFilter
		want   bool
	}{
		{"empty filter", TodoFilter{}, true},
		{"text", TodoFilter{Text: &text}, true},
		{"other text", TodoFilter{Text: &otherText}, false},
		{"type", TodoFilter{Type: &oneTime}, true},
		{"other type", TodoFilter{Type: &daily}, false},
		{"states", TodoFilter{States: []domain.TodoState{domain.TodoStatePending, domain.TodoStateActive}}, true},
		{"other states", TodoFilter{States: []domain.TodoState{domain.TodoStateFailed}}, false},
		{"due before", TodoFilter{DueBefore: &now}, true},
		{"due before earlier", TodoFilter{DueBefore: &earlier}, false},
		{"activated window", TodoFilter{ActivatedFrom: &earlier, ActivatedBefore: &now}, true},
		{"activated before window", TodoFilter{ActivatedFrom: &now, ActivatedBefore: &later}, false},
		{"notification enabled", TodoFilter{NotificationEnabled: &enabled}, true},
		{"notification disabled", TodoFilter{NotificationEnabled: &disabled}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(todo))
		})
	}
}

func TestTodoFilterMatches_MissingOptionalFields(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	enabled := false
	todo := &domain.Todo{Text: "Stretch", Type: domain.TodoTypeDaily, State: domain.TodoStatePending}

	assert.False(t, TodoFilter{DueBefore: &now}.Matches(todo))
	assert.False(t, TodoFilter{ActivatedFrom: &now}.Matches(todo))
	assert.False(t, TodoFilter{NotificationEnabled: &enabled}.Matches(todo))
}
