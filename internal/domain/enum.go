package domain

import (
	"database/sql/driver"
	"fmt"
)

// TaskPriority is the urgency of a task. Persisted as its string form.
type TaskPriority string

// Task priorities, lowest first.
const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// DefaultTaskPriority is applied when a task is created without a priority.
const DefaultTaskPriority = PriorityMedium

var taskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

// AllTaskPriorities returns every priority in declaration order.
func AllTaskPriorities() []TaskPriority {
	out := make([]TaskPriority, len(taskPriorities))
	copy(out, taskPriorities)
	return out
}

// ParseTaskPriority converts s to a TaskPriority.
// Unknown values yield an error wrapping ErrInvalidEnumValue.
func ParseTaskPriority(s string) (TaskPriority, error) {
	p, ok := LookupTaskPriority(s)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a task priority", ErrInvalidEnumValue, s)
	}
	return p, nil
}

// LookupTaskPriority converts s to a TaskPriority, reporting false when s
// matches no member. Matching is exact and case-sensitive.
func LookupTaskPriority(s string) (TaskPriority, bool) {
	for _, p := range taskPriorities {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// String returns the canonical string form.
func (p TaskPriority) String() string {
	return string(p)
}

// IsValid reports whether p is a member of the enumeration.
func (p TaskPriority) IsValid() bool {
	_, ok := LookupTaskPriority(string(p))
	return ok
}

// Rank orders priorities semantically: high(3) > medium(2) > low(1) > unknown(0).
// It exists only for sorting; the store emits the same table as a SQL CASE.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Value implements driver.Valuer.
func (p TaskPriority) Value() (driver.Value, error) {
	return string(p), nil
}

// TaskStatus is the progress state of a task. Persisted as its string form.
type TaskStatus string

// Task statuses.
const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusDone       TaskStatus = "done"
)

// DefaultTaskStatus is applied when a task is created without a status.
const DefaultTaskStatus = StatusPending

var taskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted, StatusDone}

// AllTaskStatuses returns every status in declaration order.
func AllTaskStatuses() []TaskStatus {
	out := make([]TaskStatus, len(taskStatuses))
	copy(out, taskStatuses)
	return out
}

// ParseTaskStatus converts s to a TaskStatus.
// Unknown values yield an error wrapping ErrInvalidEnumValue.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st, ok := LookupTaskStatus(s)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a task status", ErrInvalidEnumValue, s)
	}
	return st, nil
}

// LookupTaskStatus converts s to a TaskStatus, reporting false when s
// matches no member.
func LookupTaskStatus(s string) (TaskStatus, bool) {
	for _, st := range taskStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// String returns the canonical string form.
func (s TaskStatus) String() string {
	return string(s)
}

// IsValid reports whether s is a member of the enumeration.
func (s TaskStatus) IsValid() bool {
	_, ok := LookupTaskStatus(string(s))
	return ok
}

// Value implements driver.Valuer.
func (s TaskStatus) Value() (driver.Value, error) {
	return string(s), nil
}
