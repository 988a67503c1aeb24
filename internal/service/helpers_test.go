package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/memory"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

var errBoom = errors.New("connection refused")

type fixture struct {
	svc      TodoService
	rec      *Reconciler
	store    *memory.TodoStore
	clock    *domain.FakeClock
	recorder *events.Recorder
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, nil)
}

// newFixtureWithStore wires the service to wrap(memory store), letting
// tests inject faults. A nil wrap uses the memory store directly.
func newFixtureWithStore(t *testing.T, wrap func(store.TodoStore) store.TodoStore) *fixture {
	t.Helper()

	mem := memory.NewTodoStore(discardLogger())
	var todos store.TodoStore = mem
	if wrap != nil {
		todos = wrap(mem)
	}

	clock := domain.NewFakeClock(testStart)
	recorder := &events.Recorder{}
	emitter := events.NewInMemoryEventEmitter(discardLogger())
	emitter.RegisterHandler(recorder)

	svc, err := NewTodoService(todos, nil, emitter, clock, discardLogger())
	require.NoError(t, err)
	rec, err := NewReconciler(todos, nil, emitter, clock, time.UTC, discardLogger())
	require.NoError(t, err)

	return &fixture{svc: svc, rec: rec, store: mem, clock: clock, recorder: recorder}
}

func (f *fixture) dueIn(d time.Duration) string {
	return f.clock.Now().Add(d).Format(time.RFC3339)
}

func (f *fixture) createOneTime(t *testing.T, text string, due time.Duration) *domain.Todo {
	t.Helper()
	todo, err := f.svc.CreateTodo(context.Background(), CreateTodoInput{
		Text:  text,
		Type:  domain.TodoTypeOneTime,
		DueAt: f.dueIn(due),
	})
	require.NoError(t, err)
	return todo
}

func (f *fixture) createDaily(t *testing.T, text string) *domain.Todo {
	t.Helper()
	todo, err := f.svc.CreateTodo(context.Background(), CreateTodoInput{
		Text: text,
		Type: domain.TodoTypeDaily,
	})
	require.NoError(t, err)
	return todo
}

func (f *fixture) activeOneTime(t *testing.T, text string, due time.Duration) *domain.Todo {
	t.Helper()
	todo := f.createOneTime(t, text, due)
	active, err := f.svc.ActivateTodo(context.Background(), todo.ID)
	require.NoError(t, err)
	return active
}

func (f *fixture) countActive(t *testing.T, text string, todoType domain.TodoType) int {
	t.Helper()
	todos, err := f.store.Find(context.Background(), store.TodoFilter{
		Text:   &text,
		Type:   &todoType,
		States: []domain.TodoState{domain.TodoStateActive},
	})
	require.NoError(t, err)
	return len(todos)
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

// faultyStore wraps a TodoStore and fails selected calls.
type faultyStore struct {
	store.TodoStore

	mu         sync.Mutex
	findErr    error
	getErr     error
	failUpdate map[uuid.UUID]error
}

func (s *faultyStore) Find(ctx context.Context, filter store.TodoFilter) ([]*domain.Todo, error) {
	s.mu.Lock()
	err := s.findErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.TodoStore.Find(ctx, filter)
}

func (s *faultyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	s.mu.Lock()
	err := s.getErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.TodoStore.GetByID(ctx, id)
}

func (s *faultyStore) Update(ctx context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	err := s.failUpdate[todo.ID]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.TodoStore.Update(ctx, todo)
}

// mockEmitter is a testify mock of events.EventEmitter.
type mockEmitter struct {
	mock.Mock
}

func (m *mockEmitter) EmitEvent(ctx context.Context, event *events.TodoEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
