package domain

import "time"

// Reminder bounds, in minutes before the due date.
const (
	DefaultReminderMinutes = 15
	MinReminderMinutes     = 1
	MaxReminderMinutes     = 7 * 24 * 60
)

// Notification holds the reminder settings of a todo. NotifiedAt records
// when the reminder was delivered and is nil until then.
type Notification struct {
	Enabled         bool       `json:"enabled"`
	ReminderMinutes int        `json:"reminder_minutes"`
	NotifiedAt      *time.Time `json:"notified_at"`
}

// NotificationInput is the caller-supplied reminder payload. A nil Enabled
// means the caller did not ask to change the settings.
type NotificationInput struct {
	Enabled         *bool `json:"enabled"`
	ReminderMinutes *int  `json:"reminder_minutes"`
}

// Clone returns a deep copy of n.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	c := *n
	c.NotifiedAt = copyTime(n.NotifiedAt)
	return &c
}

// IsValidReminderMinutes reports whether m is within the allowed range.
func IsValidReminderMinutes(m int) bool {
	return m >= MinReminderMinutes && m <= MaxReminderMinutes
}

// NormalizeReminderMinutes coerces a missing or out-of-range value to
// DefaultReminderMinutes.
func NormalizeReminderMinutes(m *int) int {
	if m == nil || !IsValidReminderMinutes(*m) {
		return DefaultReminderMinutes
	}
	return *m
}

// provided reports whether in carries an explicit settings change.
func (in *NotificationInput) provided() bool {
	return in != nil && in.Enabled != nil
}

// ResolveNotification computes the settings written on create. Todos that
// never set a notification carry none.
func ResolveNotification(in *NotificationInput) *Notification {
	if !in.provided() {
		return nil
	}
	return &Notification{
		Enabled:         *in.Enabled,
		ReminderMinutes: NormalizeReminderMinutes(in.ReminderMinutes),
	}
}

// MergeNotification computes the settings written on update. Without an
// explicit change the existing settings are kept as they are; otherwise the
// new settings replace them and the delivery marker is preserved.
func MergeNotification(existing *Notification, in *NotificationInput) *Notification {
	if !in.provided() {
		return existing.Clone()
	}
	merged := ResolveNotification(in)
	if existing != nil {
		merged.NotifiedAt = copyTime(existing.NotifiedAt)
	}
	return merged
}

// CarryOverNotification computes the settings of a reactivated todo. Explicit
// settings win; otherwise the source settings are carried forward. The
// delivery marker is always reset.
func CarryOverNotification(source *Notification, in *NotificationInput) *Notification {
	if in.provided() {
		return ResolveNotification(in)
	}
	if source == nil {
		return nil
	}
	return &Notification{
		Enabled:         source.Enabled,
		ReminderMinutes: NormalizeReminderMinutes(&source.ReminderMinutes),
	}
}

// ReminderDue reports whether t's reminder should be delivered at now.
func (t *Todo) ReminderDue(now time.Time) bool {
	n := t.Notification
	if n == nil || !n.Enabled || n.NotifiedAt != nil {
		return false
	}
	if !t.State.IsEditable() || t.DueAt == nil {
		return false
	}
	remindAt := t.DueAt.Add(-time.Duration(n.ReminderMinutes) * time.Minute)
	return !now.Before(remindAt)
}
