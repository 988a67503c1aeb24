package domain

import (
	"strings"
	"time"
)

// MinDueOffset is how far in the future a one-time todo's due date must be.
const MinDueOffset = 10 * time.Minute

// dueAtLayouts are tried in order. Layouts without a zone are read as UTC.
var dueAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDueAt parses a caller-supplied due timestamp.
// Returns a *DueDateError wrapping ErrInvalidDueDate when no layout matches.
func ParseDueAt(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, &DueDateError{Value: raw, Err: ErrInvalidDueDate}
	}
	for _, layout := range dueAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &DueDateError{Value: raw, Err: ErrInvalidDueDate}
}

// CheckDueAt enforces dueAt >= now + MinDueOffset.
func CheckDueAt(dueAt, now time.Time) error {
	if dueAt.Before(now.Add(MinDueOffset)) {
		return &DueDateError{Value: dueAt.Format(time.RFC3339), Err: ErrDueDateTooSoon}
	}
	return nil
}

// ParseAndCheckDueAt parses raw and applies the due-date policy.
func ParseAndCheckDueAt(raw string, now time.Time) (time.Time, error) {
	dueAt, err := ParseDueAt(raw)
	if err != nil {
		return time.Time{}, err
	}
	if err := CheckDueAt(dueAt, now); err != nil {
		return time.Time{}, err
	}
	return dueAt, nil
}
