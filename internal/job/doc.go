// Package job runs the periodic reconciliation jobs: the overdue sweep,
// the daily rollover and notification housekeeping. Each job runs on its
// own ticker and never overlaps with itself, whether triggered by the
// ticker or on demand.
package job
