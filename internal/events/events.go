package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a task lifecycle transition.
type EventType string

const (
	TaskCreated EventType = "task.created"
	TaskUpdated EventType = "task.updated"
	TaskDeleted EventType = "task.deleted"
)

// TaskEvent records that a task changed. It is emitted after the change is
// committed.
type TaskEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	TaskID     uuid.UUID `json:"taskId"`
	OwnerID    uuid.UUID `json:"ownerId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewTaskEvent creates a TaskEvent with a fresh ID.
func NewTaskEvent(eventType EventType, taskID, ownerID uuid.UUID, at time.Time) *TaskEvent {
	return &TaskEvent{
		ID:         uuid.New(),
		Type:       eventType,
		TaskID:     taskID,
		OwnerID:    ownerID,
		OccurredAt: at,
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
