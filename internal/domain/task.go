package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTitleLength is the longest accepted task title, in characters.
const MaxTitleLength = 255

var (
	ErrEmptyTaskID    = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwner = errors.New("task owner cannot be empty")
)

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	OwnerID     uuid.UUID    `json:"ownerId"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	DueAt       *time.Time   `json:"dueAt"`
	Priority    TaskPriority `json:"priority"`
	Position    int          `json:"position"`
	Status      TaskStatus   `json:"status"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewTask returns a task with a fresh ID, the default priority and status,
// and both timestamps set to now.
func NewTask(ownerID uuid.UUID, title string, now time.Time) (*Task, error) {
	task := &Task{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Priority:  DefaultTaskPriority,
		Status:    DefaultTaskStatus,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the invariants every persisted task must satisfy.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwner
	}
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}
	if !t.Priority.IsValid() {
		return NewFieldError("priority", ErrInvalidEnumValue, "Invalid priority value: %s", t.Priority)
	}
	if !t.Status.IsValid() {
		return NewFieldError("status", ErrInvalidEnumValue, "Invalid status value: %s", t.Status)
	}
	return nil
}

// ValidateTitle rejects blank and over-long titles.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return NewFieldError("title", ErrMissingField, "Title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return NewFieldError("title", ErrInvalidValue, "Title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

// Clone returns a deep copy so callers can diff against the original.
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueAt != nil {
		due := *t.DueAt
		c.DueAt = &due
	}
	c.Tags = append([]string{}, t.Tags...)
	return &c
}

// dueAtLayouts are tried in order; the first is RFC 3339 with optional
// fractional seconds.
var dueAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDueAt parses an ISO-8601 timestamp. Values without a zone are taken
// as UTC. The result is always UTC.
func ParseDueAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueAtLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, NewFieldError("dueAt", ErrInvalidDateFormat, "Invalid date format for dueAt: %s", s)
}
