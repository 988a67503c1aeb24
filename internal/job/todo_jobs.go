package job

import (
	"context"
	"time"
)

// Job names, also used by the HTTP triggers and the -run-job flag.
const (
	OverdueSweep             = "overdue-sweep"
	DailyRollover            = "daily-rollover"
	NotificationHousekeeping = "notification-housekeeping"
)

// Reconciler is the subset of service.Reconciler the jobs need.
type Reconciler interface {
	RunOverdueSweep(ctx context.Context) (int, error)
	RunDailyRollover(ctx context.Context) (int, error)
}

// NotificationCleaner disables reminders on todos that can no longer fire.
type NotificationCleaner interface {
	DisableNotificationsForTerminal(ctx context.Context) (int, error)
}

// Intervals configures how often each job runs.
type Intervals struct {
	OverdueSweep             time.Duration
	DailyRollover            time.Duration
	NotificationHousekeeping time.Duration
}

// TodoJobs returns the reconciliation jobs. The daily rollover also runs on
// start so a restart after midnight does not wait a full interval.
func TodoJobs(rec Reconciler, notifications NotificationCleaner, intervals Intervals) []Job {
	return []Job{
		{
			Name:     OverdueSweep,
			Interval: intervals.OverdueSweep,
			Run:      rec.RunOverdueSweep,
		},
		{
			Name:       DailyRollover,
			Interval:   intervals.DailyRollover,
			RunOnStart: true,
			Run:        rec.RunDailyRollover,
		},
		{
			Name:     NotificationHousekeeping,
			Interval: intervals.NotificationHousekeeping,
			Run:      notifications.DisableNotificationsForTerminal,
		},
	}
}

// RegisterAll registers every job, stopping at the first error.
func (s *Scheduler) RegisterAll(jobs []Job) error {
	for _, j := range jobs {
		if err := s.Register(j); err != nil {
			return err
		}
	}
	return nil
}
