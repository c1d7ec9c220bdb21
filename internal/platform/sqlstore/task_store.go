package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/store"
)

// TaskStore implements store.TaskStore on database/sql.
type TaskStore struct {
	db      store.DBTX
	dialect store.Dialect
	logger  *slog.Logger
}

// NewTaskStore creates a TaskStore. If logger is nil, a default logger is used.
func NewTaskStore(db store.DBTX, dialect store.Dialect, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create.
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := s.dialect.Rebind(`
		INSERT INTO tasks (` + store.TaskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		nullString(task.Description),
		nullTime(task.DueAt),
		task.Priority,
		task.Position,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("owner_id", task.OwnerID.String()))
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := s.dialect.Rebind("SELECT " + store.TaskColumns + " FROM tasks WHERE id = ?")
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "get", "query failed", MapError(err))
	}

	if err := s.attachTags(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// Find implements store.TaskStore.Find.
func (s *TaskStore) Find(ctx context.Context, q store.TaskQuery) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := store.BuildTaskQuery(s.dialect, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "find", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", "find", "scan failed", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "find", "row iteration failed", err)
	}

	if err := s.attachTags(ctx, tasks); err != nil {
		return nil, err
	}

	log.Debug("tasks found", slog.Int("count", len(tasks)))
	return tasks, nil
}

// Update implements store.TaskStore.Update. Owner and creation time are
// never rewritten.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := s.dialect.Rebind(`
		UPDATE tasks
		SET title = ?, description = ?, due_at = ?, priority = ?, position = ?, status = ?, updated_at = ?
		WHERE id = ?
	`)
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		nullString(task.Description),
		nullTime(task.DueAt),
		task.Priority,
		task.Position,
		task.Status,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "update", "exec failed", MapError(err))
	}
	if err := checkRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task updated", slog.String("task_id", task.ID.String()))
	return nil
}

// Delete implements store.TaskStore.Delete. Tag associations go with the
// task through ON DELETE CASCADE.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, s.dialect.Rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return store.NewStoreError("task", "delete", "exec failed", MapError(err))
	}
	if err := checkRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// SetTags implements store.TaskStore.SetTags.
func (s *TaskStore) SetTags(ctx context.Context, taskID uuid.UUID, names []string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind("DELETE FROM tasks_tags WHERE task_id = ?"), taskID); err != nil {
		log.Error("failed to clear task tags",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return store.NewStoreError("task", "set tags", "clear failed", MapError(err))
	}

	upsert := s.dialect.Rebind("INSERT INTO tags (id, name) VALUES (?, ?) ON CONFLICT (name) DO NOTHING")
	lookup := s.dialect.Rebind("SELECT id FROM tags WHERE name = ?")
	link := s.dialect.Rebind("INSERT INTO tasks_tags (task_id, tag_id) VALUES (?, ?)")
	for _, name := range names {
		if _, err := s.db.ExecContext(ctx, upsert, uuid.New(), name); err != nil {
			return store.NewStoreError("task", "set tags", "tag upsert failed", MapError(err))
		}
		var tagID uuid.UUID
		if err := s.db.QueryRowContext(ctx, lookup, name).Scan(&tagID); err != nil {
			return store.NewStoreError("task", "set tags", "tag lookup failed", MapError(err))
		}
		if _, err := s.db.ExecContext(ctx, link, taskID, tagID); err != nil {
			return store.NewStoreError("task", "set tags", "tag link failed", MapError(err))
		}
	}

	log.Debug("task tags replaced",
		slog.String("task_id", taskID.String()),
		slog.Int("count", len(names)))
	return nil
}

// WithTx implements store.TaskStore.WithTx.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{db: tx, dialect: s.dialect, logger: s.logger}
}

// attachTags loads tag names for tasks with a single IN query.
func (s *TaskStore) attachTags(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Task, len(tasks))
	args := make([]any, 0, len(tasks))
	for _, t := range tasks {
		t.Tags = []string{}
		byID[t.ID] = t
		args = append(args, t.ID)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(tasks)), ", ")
	query := s.dialect.Rebind(fmt.Sprintf(`
		SELECT tt.task_id, t.name
		FROM tasks_tags tt
		JOIN tags t ON t.id = tt.tag_id
		WHERE tt.task_id IN (%s)
	`, placeholders))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return store.NewStoreError("task", "load tags", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			taskID uuid.UUID
			name   string
		)
		if err := rows.Scan(&taskID, &name); err != nil {
			return store.NewStoreError("task", "load tags", "scan failed", err)
		}
		if t, ok := byID[taskID]; ok {
			t.Tags = append(t.Tags, name)
		}
	}
	if err := rows.Err(); err != nil {
		return store.NewStoreError("task", "load tags", "row iteration failed", err)
	}

	for _, t := range tasks {
		sort.Strings(t.Tags)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
		dueAt       sql.NullTime
		priority    string
		status      string
	)
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&description,
		&dueAt,
		&priority,
		&task.Position,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = &description.String
	}
	if dueAt.Valid {
		due := dueAt.Time.UTC()
		task.DueAt = &due
	}
	task.Priority = domain.TaskPriority(priority)
	task.Status = domain.TaskStatus(status)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	task.Tags = []string{}
	return &task, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
