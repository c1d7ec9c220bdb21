package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
// Returned tasks always carry their tag names, sorted.
type TaskStore interface {
	// Create inserts a task row. Tags are written separately with SetTags.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID. Returns ErrTaskNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Find returns the tasks matching q, in q's order.
	Find(ctx context.Context, q TaskQuery) ([]*domain.Task, error)

	// Update overwrites the mutable columns of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task and its tag associations.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetTags replaces the task's tag associations with names, creating
	// any tag that does not exist yet.
	SetTags(ctx context.Context, taskID uuid.UUID, names []string) error

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}
