package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func countingJob(name string, interval time.Duration, calls *atomic.Int32) Job {
	return Job{
		Name:     name,
		Interval: interval,
		Run: func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 1, nil
		},
	}
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), testLogger())
	noop := func(context.Context) (int, error) { return 0, nil }

	tests := []struct {
		name    string
		job     Job
		wantErr string
	}{
		{name: "valid", job: Job{Name: "a", Interval: time.Second, Run: noop}},
		{name: "duplicate", job: Job{Name: "a", Interval: time.Second, Run: noop}, wantErr: "already registered"},
		{name: "empty name", job: Job{Interval: time.Second, Run: noop}, wantErr: "name cannot be empty"},
		{name: "nil run", job: Job{Name: "b", Interval: time.Second}, wantErr: "run function"},
		{name: "zero interval", job: Job{Name: "c", Run: noop}, wantErr: "interval must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Register(tt.job)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Equal(t, []string{"a"}, s.Names())

	s.Start()
	defer s.Stop()
	err := s.Register(Job{Name: "late", Interval: time.Second, Run: noop})
	assert.ErrorContains(t, err, "already started")
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), testLogger())
	var calls atomic.Int32
	require.NoError(t, s.Register(countingJob("sweep", time.Hour, &calls)))

	var results []Result
	s.SetResultHandler(func(r Result) { results = append(results, r) })

	result, err := s.RunNow(context.Background(), "sweep")
	require.NoError(t, err)
	assert.Equal(t, "sweep", result.Job)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, results, 1)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestScheduler_RunNowReturnsJobError(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), testLogger())
	boom := errors.New("store down")
	require.NoError(t, s.Register(Job{
		Name:     "broken",
		Interval: time.Hour,
		Run:      func(context.Context) (int, error) { return 0, boom },
	}))

	result, err := s.RunNow(context.Background(), "broken")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, result.Err, boom)
}

func TestScheduler_RunNowRecoversPanic(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), testLogger())
	require.NoError(t, s.Register(Job{
		Name:     "panicky",
		Interval: time.Hour,
		Run:      func(context.Context) (int, error) { panic("nil map") },
	}))

	_, err := s.RunNow(context.Background(), "panicky")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestScheduler_NoOverlap(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), testLogger())
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register(Job{
		Name:     "slow",
		Interval: time.Hour,
		Run: func(context.Context) (int, error) {
			close(started)
			<-release
			return 0, nil
		},
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.RunNow(context.Background(), "slow")
		assert.NoError(t, err)
	}()

	<-started
	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobRunning)

	close(release)
	wg.Wait()
}

func TestScheduler_TimeoutCancelsRun(t *testing.T) {
	s := NewScheduler(SchedulerConfig{RunTimeout: 10 * time.Millisecond}, testLogger())
	require.NoError(t, s.Register(Job{
		Name:     "blocked",
		Interval: time.Hour,
		Run: func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}))

	_, err := s.RunNow(context.Background(), "blocked")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_StartAndStop(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), testLogger())
	var ticked, onStart atomic.Int32
	require.NoError(t, s.Register(countingJob("fast", 5*time.Millisecond, &ticked)))

	startJob := countingJob("rollover", time.Hour, &onStart)
	startJob.RunOnStart = true
	require.NoError(t, s.Register(startJob))

	s.Start()
	s.Start()

	assert.Eventually(t, func() bool { return ticked.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return onStart.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	after := ticked.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticked.Load(), "no runs after Stop")
}

type fakeReconciler struct {
	sweeps, rollovers, cleanups atomic.Int32
}

func (f *fakeReconciler) RunOverdueSweep(context.Context) (int, error) {
	f.sweeps.Add(1)
	return 2, nil
}

func (f *fakeReconciler) RunDailyRollover(context.Context) (int, error) {
	f.rollovers.Add(1)
	return 1, nil
}

func (f *fakeReconciler) DisableNotificationsForTerminal(context.Context) (int, error) {
	f.cleanups.Add(1)
	return 0, nil
}

func TestTodoJobs(t *testing.T) {
	fake := &fakeReconciler{}
	jobs := TodoJobs(fake, fake, Intervals{
		OverdueSweep:             time.Minute,
		DailyRollover:            15 * time.Minute,
		NotificationHousekeeping: time.Hour,
	})
	require.Len(t, jobs, 3)

	s := NewScheduler(DefaultSchedulerConfig(), testLogger())
	require.NoError(t, s.RegisterAll(jobs))
	assert.Equal(t, []string{DailyRollover, NotificationHousekeeping, OverdueSweep}, s.Names())

	result, err := s.RunNow(context.Background(), OverdueSweep)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	_, err = s.RunNow(context.Background(), DailyRollover)
	require.NoError(t, err)
	_, err = s.RunNow(context.Background(), NotificationHousekeeping)
	require.NoError(t, err)

	assert.Equal(t, int32(1), fake.sweeps.Load())
	assert.Equal(t, int32(1), fake.rollovers.Load())
	assert.Equal(t, int32(1), fake.cleanups.Load())

	for _, j := range jobs {
		if j.Name == DailyRollover {
			assert.True(t, j.RunOnStart)
		}
	}
}
