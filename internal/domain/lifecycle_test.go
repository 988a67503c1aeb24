package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTodo(t *testing.T, state TodoState) *Todo {
	t.Helper()
	due := testNow.Add(time.Hour)
	return &Todo{
		ID:        uuid.New(),
		Text:      "Pay rent",
		Type:      TodoTypeOneTime,
		State:     state,
		DueAt:     &due,
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}

func TestNextState(t *testing.T) {
	t.Parallel()
	states := []TodoState{TodoStatePending, TodoStateActive, TodoStateCompleted, TodoStateFailed}
	ops := []Operation{OpActivate, OpComplete, OpFail, OpReactivate, OpUpdate}

	legal := map[Operation]map[TodoState]TodoState{
		OpActivate:   {TodoStatePending: TodoStateActive},
		OpComplete:   {TodoStateActive: TodoStateCompleted},
		OpFail:       {TodoStateActive: TodoStateFailed},
		OpReactivate: {TodoStateCompleted: TodoStateActive, TodoStateFailed: TodoStateActive},
		OpUpdate:     {TodoStatePending: TodoStatePending, TodoStateActive: TodoStateActive},
	}

	for _, op := range ops {
		for _, from := range states {
			to, err := NextState(from, op)
			want, ok := legal[op][from]
			if ok {
				require.NoError(t, err, "%s from %s", op, from)
				assert.Equal(t, want, to, "%s from %s", op, from)
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", op, from)
			var terr *TransitionError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, op, terr.Operation)
			assert.Equal(t, from, terr.From)
		}
	}
}

func TestActivate(t *testing.T) {
	t.Parallel()
	todo := newTestTodo(t, TodoStatePending)

	activated, err := Activate(todo, testNow)
	require.NoError(t, err)

	assert.Equal(t, TodoStateActive, activated.State)
	require.NotNil(t, activated.ActivatedAt)
	assert.Equal(t, testNow, *activated.ActivatedAt)
	assert.Equal(t, testNow, activated.UpdatedAt)
	assert.Equal(t, TodoStatePending, todo.State, "source must not be mutated")
	assert.Nil(t, todo.ActivatedAt)

	_, err = Activate(activated, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteAndFail(t *testing.T) {
	t.Parallel()

	t.Run("complete active", func(t *testing.T) {
		completed, err := Complete(newTestTodo(t, TodoStateActive), testNow)
		require.NoError(t, err)
		assert.Equal(t, TodoStateCompleted, completed.State)
		require.NotNil(t, completed.CompletedAt)
		assert.Equal(t, testNow, *completed.CompletedAt)
		assert.Nil(t, completed.FailedAt)
	})

	t.Run("complete pending is rejected", func(t *testing.T) {
		_, err := Complete(newTestTodo(t, TodoStatePending), testNow)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("fail active", func(t *testing.T) {
		failed, err := Fail(newTestTodo(t, TodoStateActive), testNow)
		require.NoError(t, err)
		assert.Equal(t, TodoStateFailed, failed.State)
		require.NotNil(t, failed.FailedAt)
		assert.Equal(t, testNow, *failed.FailedAt)
		assert.Nil(t, failed.CompletedAt)
	})

	t.Run("fail completed is rejected", func(t *testing.T) {
		_, err := Fail(newTestTodo(t, TodoStateCompleted), testNow)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestReactivate(t *testing.T) {
	t.Parallel()
	notifiedAt := testNow.Add(-30 * time.Minute)
	newDue := testNow.Add(2 * time.Hour)

	t.Run("carries notification and resets marker", func(t *testing.T) {
		source := newTestTodo(t, TodoStateCompleted)
		source.Notification = &Notification{Enabled: true, ReminderMinutes: 60, NotifiedAt: &notifiedAt}

		todo, err := Reactivate(source, &newDue, nil, testNow)
		require.NoError(t, err)

		assert.NotEqual(t, source.ID, todo.ID)
		assert.Equal(t, TodoStateActive, todo.State)
		assert.True(t, todo.IsReactivation)
		require.NotNil(t, todo.OriginalID)
		assert.Equal(t, source.ID, *todo.OriginalID)
		require.NotNil(t, todo.ActivatedAt)
		assert.Equal(t, testNow, *todo.ActivatedAt)
		assert.Equal(t, newDue, *todo.DueAt)
		assert.Equal(t, &Notification{Enabled: true, ReminderMinutes: 60}, todo.Notification)
		assert.Equal(t, TodoStateCompleted, source.State)
	})

	t.Run("explicit settings override carried ones", func(t *testing.T) {
		source := newTestTodo(t, TodoStateFailed)
		source.Notification = &Notification{Enabled: true, ReminderMinutes: 60}
		enabled := false
		minutes := 120

		todo, err := Reactivate(source, &newDue, &NotificationInput{Enabled: &enabled, ReminderMinutes: &minutes}, testNow)
		require.NoError(t, err)
		assert.Equal(t, &Notification{Enabled: false, ReminderMinutes: 120}, todo.Notification)
	})

	t.Run("source without settings yields none", func(t *testing.T) {
		todo, err := Reactivate(newTestTodo(t, TodoStateFailed), &newDue, nil, testNow)
		require.NoError(t, err)
		assert.Nil(t, todo.Notification)
	})

	t.Run("daily todo has no due date", func(t *testing.T) {
		source := newTestTodo(t, TodoStateCompleted)
		source.Type = TodoTypeDaily
		source.DueAt = nil

		todo, err := Reactivate(source, &newDue, nil, testNow)
		require.NoError(t, err)
		assert.Nil(t, todo.DueAt)
	})

	t.Run("one-time todo requires a due date", func(t *testing.T) {
		_, err := Reactivate(newTestTodo(t, TodoStateCompleted), nil, nil, testNow)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("only terminal todos can be reactivated", func(t *testing.T) {
		for _, state := range []TodoState{TodoStatePending, TodoStateActive} {
			_, err := Reactivate(newTestTodo(t, state), &newDue, nil, testNow)
			assert.ErrorIs(t, err, ErrInvalidTransition, state)
		}
	})
}

func TestApplyUpdate(t *testing.T) {
	t.Parallel()
	newDue := testNow.Add(3 * time.Hour)

	t.Run("edits text and due date", func(t *testing.T) {
		todo := newTestTodo(t, TodoStatePending)
		text := "  Pay rent and water bill "

		updated, err := ApplyUpdate(todo, TodoPatch{Text: &text, DueAt: &newDue}, testNow)
		require.NoError(t, err)
		assert.Equal(t, "Pay rent and water bill", updated.Text)
		assert.Equal(t, newDue, *updated.DueAt)
		assert.Equal(t, TodoStatePending, updated.State)
		assert.Equal(t, testNow, updated.UpdatedAt)
	})

	t.Run("due date on daily todo is ignored", func(t *testing.T) {
		todo := newTestTodo(t, TodoStateActive)
		todo.Type = TodoTypeDaily
		todo.DueAt = nil

		updated, err := ApplyUpdate(todo, TodoPatch{DueAt: &newDue}, testNow)
		require.NoError(t, err)
		assert.Nil(t, updated.DueAt)
	})

	t.Run("moving the due date resets the reminder marker", func(t *testing.T) {
		todo := newTestTodo(t, TodoStateActive)
		notified := testNow.Add(-time.Minute)
		todo.Notification = &Notification{Enabled: true, ReminderMinutes: 15, NotifiedAt: &notified}

		updated, err := ApplyUpdate(todo, TodoPatch{DueAt: &newDue}, testNow)
		require.NoError(t, err)
		assert.Nil(t, updated.Notification.NotifiedAt)
		assert.NotNil(t, todo.Notification.NotifiedAt)
	})

	t.Run("notification settings without enabled keep existing", func(t *testing.T) {
		todo := newTestTodo(t, TodoStateActive)
		todo.Notification = &Notification{Enabled: true, ReminderMinutes: 45}
		minutes := 90

		updated, err := ApplyUpdate(todo, TodoPatch{Notification: &NotificationInput{ReminderMinutes: &minutes}}, testNow)
		require.NoError(t, err)
		assert.Equal(t, 45, updated.Notification.ReminderMinutes)
	})

	t.Run("empty text is rejected", func(t *testing.T) {
		text := " "
		_, err := ApplyUpdate(newTestTodo(t, TodoStatePending), TodoPatch{Text: &text}, testNow)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("terminal todos cannot be edited", func(t *testing.T) {
		text := "new"
		for _, state := range []TodoState{TodoStateCompleted, TodoStateFailed} {
			_, err := ApplyUpdate(newTestTodo(t, state), TodoPatch{Text: &text}, testNow)
			assert.ErrorIs(t, err, ErrInvalidTransition, state)
		}
	})
}

func TestMarkNotified(t *testing.T) {
	t.Parallel()
	todo := newTestTodo(t, TodoStateActive)
	todo.Notification = &Notification{Enabled: true, ReminderMinutes: 15}

	first, err := MarkNotified(todo, testNow)
	require.NoError(t, err)
	require.NotNil(t, first.Notification.NotifiedAt)
	assert.Equal(t, testNow, *first.Notification.NotifiedAt)

	second, err := MarkNotified(first, testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, testNow, *second.Notification.NotifiedAt)

	_, err = MarkNotified(newTestTodo(t, TodoStateActive), testNow)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDisableNotification(t *testing.T) {
	t.Parallel()
	todo := newTestTodo(t, TodoStateCompleted)
	assert.Nil(t, DisableNotification(todo, testNow))

	todo.Notification = &Notification{Enabled: true, ReminderMinutes: 15}
	disabled := DisableNotification(todo, testNow)
	require.NotNil(t, disabled)
	assert.False(t, disabled.Notification.Enabled)
	assert.True(t, todo.Notification.Enabled)

	assert.Nil(t, DisableNotification(disabled, testNow))
}

func TestNewDailyInstance(t *testing.T) {
	t.Parallel()
	template := &Todo{
		ID:           uuid.New(),
		Text:         "Meditate",
		Type:         TodoTypeDaily,
		State:        TodoStateCompleted,
		Notification: &Notification{Enabled: true, ReminderMinutes: 5, NotifiedAt: &testNow},
	}

	instance, err := NewDailyInstance(template, testNow)
	require.NoError(t, err)
	assert.Equal(t, TodoStateActive, instance.State)
	assert.Equal(t, "Meditate", instance.Text)
	assert.Equal(t, testNow, *instance.ActivatedAt)
	assert.Nil(t, instance.DueAt)
	assert.False(t, instance.IsReactivation)
	assert.Nil(t, instance.Notification.NotifiedAt)

	_, err = NewDailyInstance(newTestTodo(t, TodoStateActive), testNow)
	assert.ErrorIs(t, err, ErrValidation)
}
